package faults

import (
	"time"

	"subflow/internal/stage"
)

// Strategy is the recovery decision for one classified error. Exactly one
// variant is active per failure.
type Strategy interface {
	isStrategy()
}

// Retry re-attempts the identical operation with exponential backoff.
type Retry struct {
	MaxAttempts       int
	Delay             time.Duration
	BackoffMultiplier float64
}

// RetryWithFallback re-attempts the operation substituting ranked fallback
// options (format, model, encoder) for the failed parameter.
type RetryWithFallback struct {
	Options []string
	Index   int
}

// Current returns the option to try next.
func (f RetryWithFallback) Current() string {
	if f.Index < 0 || f.Index >= len(f.Options) {
		return ""
	}
	return f.Options[f.Index]
}

// HasMore reports whether another fallback remains after the current one.
func (f RetryWithFallback) HasMore() bool {
	return f.Index < len(f.Options)-1
}

// Skip abandons the stage and continues; legal only for non-essential
// stages.
type Skip struct {
	Reason string
}

// Resume re-enters the pipeline at the checkpoint's next stage. Decide
// never selects it; it is the strategy a caller applies when resolving a
// surfaced failure by starting a fresh run from the saved checkpoint.
type Resume struct{}

// Abort terminates the pipeline with the classified error.
type Abort struct{}

func (Retry) isStrategy()             {}
func (RetryWithFallback) isStrategy() {}
func (Skip) isStrategy()              {}
func (Resume) isStrategy()            {}
func (Abort) isStrategy()             {}

// Fallback ladders are ranked best-first. They are data so the policy
// stays a pure lookup.
var (
	DownloadFormatFallbacks    = []string{"best", "720p", "480p", "audio-only"}
	TranscriptionModelFallback = []string{"medium", "small", "base", "tiny"}
	RenderEncoderFallbacks     = []string{"software"}
)

const (
	retryMaxAttempts      = 3
	retryBackoffMultiple  = 2.0
	retryDelayDefault     = 2 * time.Second
	retryDelayTimeout     = 5 * time.Second
	retryDelayRateLimited = 30 * time.Second
)

// Decide maps a classified error to exactly one recovery strategy. The
// mapping is total and pure: no I/O, no randomness.
func Decide(err *Error) Strategy {
	if err == nil {
		return Abort{}
	}
	if err.Retryable {
		return Retry{
			MaxAttempts:       retryMaxAttempts,
			Delay:             retryDelayFor(err.Code),
			BackoffMultiplier: retryBackoffMultiple,
		}
	}
	switch {
	case err.Stage == stage.Download && err.Code == CodeEncodingFailed:
		return RetryWithFallback{Options: DownloadFormatFallbacks}
	case err.Stage == stage.Transcription && err.Code == CodeInsufficientMemory:
		return RetryWithFallback{Options: TranscriptionModelFallback}
	case err.Stage == stage.Rendering && err.Code == CodeEncodingFailed:
		return RetryWithFallback{Options: RenderEncoderFallbacks}
	}
	return Abort{}
}

func retryDelayFor(code Code) time.Duration {
	switch code {
	case CodeRateLimited:
		return retryDelayRateLimited
	case CodeNetworkTimeout:
		return retryDelayTimeout
	default:
		return retryDelayDefault
	}
}
