// Package media holds the shared descriptors passed between pipeline
// stages, collaborators, and the checkpoint store.
package media

import "strings"

// VideoDescriptor identifies the source video of a job.
type VideoDescriptor struct {
	URL        string `json:"url"`
	ID         string `json:"id,omitempty"`
	Title      string `json:"title,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
}

// Empty reports whether the descriptor identifies anything at all.
func (v VideoDescriptor) Empty() bool {
	return strings.TrimSpace(v.URL) == "" && strings.TrimSpace(v.ID) == ""
}

// OutputOptions controls where and how the rendered result is produced.
type OutputOptions struct {
	Directory        string `json:"directory"`
	Container        string `json:"container,omitempty"`
	Encoder          string `json:"encoder,omitempty"`
	KeepSubtitleFile bool   `json:"keep_subtitle_file,omitempty"`
}

// RenderResult is the terminal product of the rendering stage.
type RenderResult struct {
	VideoFile    string `json:"video_file"`
	SubtitleFile string `json:"subtitle_file,omitempty"`
	DurationMs   int64  `json:"duration_ms"`
}
