package pipeline

import (
	"github.com/google/uuid"

	"subflow/internal/config"
	"subflow/internal/media"
	"subflow/internal/subtitles"
)

// Job carries everything one pipeline run needs. Fields are fixed at
// creation; fallback substitutions during recovery never mutate the job.
type Job struct {
	ID                 string
	Video              media.VideoDescriptor
	TargetLanguage     string
	CaptionLanguage    string
	DownloadFormat     string
	TranscriptionModel string
	MaxNoSpeechProb    float64
	Style              subtitles.Style
	Output             media.OutputOptions
}

// NewJob builds a job for the given video using configured defaults.
func NewJob(cfg *config.Config, video media.VideoDescriptor) Job {
	style := subtitles.DefaultStyle()
	if cfg.Render.FontName != "" {
		style.FontName = cfg.Render.FontName
	}
	if cfg.Render.FontSize > 0 {
		style.FontSize = cfg.Render.FontSize
	}
	if cfg.Render.PrimaryColor != "" {
		style.PrimaryColor = cfg.Render.PrimaryColor
	}
	if cfg.Render.OutlineColor != "" {
		style.OutlineColor = cfg.Render.OutlineColor
	}

	return Job{
		ID:                 uuid.NewString(),
		Video:              video,
		TargetLanguage:     cfg.Job.TargetLanguage,
		CaptionLanguage:    cfg.Job.CaptionLanguage,
		DownloadFormat:     cfg.Job.DownloadFormat,
		TranscriptionModel: cfg.Transcription.Model,
		MaxNoSpeechProb:    cfg.Transcription.MaxNoSpeechProb,
		Style:              style,
		Output: media.OutputOptions{
			Directory: cfg.Paths.OutputDir,
			Container: "mp4",
			Encoder:   cfg.Render.Encoder,
		},
	}
}
