package pipeline

import (
	"context"

	"subflow/internal/media"
	"subflow/internal/timedtext"
)

// ProgressFunc receives incremental progress from a collaborator.
// Fraction is in [0,1]; message is optional human-readable detail.
type ProgressFunc func(fraction float64, message string)

// LineFunc receives one raw line of an external encoder's progress
// stream.
type LineFunc func(line string)

// Downloader fetches the source video and probes for pre-existing
// captions. Failures are raw and unclassified.
type Downloader interface {
	Download(ctx context.Context, video media.VideoDescriptor, format string, progress ProgressFunc) (string, error)
	ExtractCaptions(ctx context.Context, video media.VideoDescriptor, language string) (*timedtext.Transcript, error)
}

// Transcriber converts downloaded audio into a timed transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language, model string, progress ProgressFunc) (*timedtext.Transcript, error)
}

// Translator rewrites a transcript into the target language, preserving
// span timing.
type Translator interface {
	Translate(ctx context.Context, transcript *timedtext.Transcript, targetLanguage string, progress ProgressFunc) (*timedtext.Transcript, error)
}

// Renderer burns the styled subtitles into the video. Progress arrives
// as raw key=value lines that the orchestrator parses.
type Renderer interface {
	Render(ctx context.Context, videoPath, subtitles string, opts media.OutputOptions, lines LineFunc) (media.RenderResult, error)
}

// Collaborators bundles the four external capabilities a pipeline needs.
type Collaborators struct {
	Downloader  Downloader
	Transcriber Transcriber
	Translator  Translator
	Renderer    Renderer
}
