package faults

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"subflow/internal/stage"
)

// Raw is the opaque failure triple surfaced by a collaborator: a message,
// an optional exit code (negative when unknown), and captured output.
type Raw struct {
	Message  string
	ExitCode int
	Output   string
}

// rule binds a set of case-folded substrings to one code with fixed
// recoverability data. Rules are evaluated top to bottom; the first match
// wins.
type rule struct {
	code        Code
	patterns    []string
	recoverable bool
	retryable   bool
	message     string
	suggestion  string
}

var rules = []rule{
	{
		code:        CodeCancelled,
		patterns:    []string{"context canceled", "operation canceled", "signal: killed by user"},
		recoverable: false,
		retryable:   false,
		message:     "The operation was cancelled.",
	},
	{
		code:        CodeNetworkTimeout,
		patterns:    []string{"timed out", "timeout", "deadline exceeded"},
		recoverable: true,
		retryable:   true,
		message:     "The network operation timed out.",
		suggestion:  "Check your internet connection and try again.",
	},
	{
		code:        CodeNetworkUnreachable,
		patterns:    []string{"network is unreachable", "no route to host", "name or service not known", "temporary failure in name resolution"},
		recoverable: true,
		retryable:   true,
		message:     "The remote host could not be reached.",
		suggestion:  "Check your internet connection and DNS settings.",
	},
	{
		code:        CodeConnectionRefused,
		patterns:    []string{"connection refused", "connection reset"},
		recoverable: true,
		retryable:   true,
		message:     "The connection was refused by the remote service.",
		suggestion:  "The service may be down; try again shortly.",
	},
	{
		code:        CodeRateLimited,
		patterns:    []string{"rate limit", "too many requests", "429"},
		recoverable: true,
		retryable:   true,
		message:     "The service is rate limiting requests.",
		suggestion:  "Wait a moment before retrying.",
	},
	{
		code:        CodeQuotaExceeded,
		patterns:    []string{"quota exceeded", "quota has been exhausted", "insufficient quota"},
		recoverable: false,
		retryable:   false,
		message:     "The API quota has been exhausted.",
		suggestion:  "Wait for the quota window to reset or switch API plans.",
	},
	{
		code:        CodeAPIKeyMissing,
		patterns:    []string{"api key not set", "api key is missing", "no api key", "missing api key"},
		recoverable: false,
		retryable:   false,
		message:     "No API key is configured for the translation service.",
		suggestion:  "Add an API key in the configuration file.",
	},
	{
		code:        CodeAPIKeyInvalid,
		patterns:    []string{"invalid api key", "api key invalid", "unauthorized", "401", "403"},
		recoverable: false,
		retryable:   false,
		message:     "The configured API key was rejected.",
		suggestion:  "Verify the API key in the configuration file.",
	},
	{
		code:        CodeModelNotFound,
		patterns:    []string{"model not found", "no such model", "model file missing"},
		recoverable: false,
		retryable:   false,
		message:     "The transcription model is not installed.",
		suggestion:  "Download the model or select a different one.",
	},
	{
		code:        CodeBinaryNotFound,
		patterns:    []string{"executable file not found", "command not found", "no such binary"},
		recoverable: false,
		retryable:   false,
		message:     "A required external tool is not installed.",
		suggestion:  "Install the missing tool and ensure it is on PATH.",
	},
	{
		code:        CodeInsufficientMemory,
		patterns:    []string{"out of memory", "cannot allocate memory", "cuda out of memory", "oom killed"},
		recoverable: true,
		retryable:   false,
		message:     "The system ran out of memory.",
		suggestion:  "Close other applications or use a smaller model.",
	},
	{
		code:        CodeDiskFull,
		patterns:    []string{"no space left on device", "disk full", "not enough free space"},
		recoverable: false,
		retryable:   false,
		message:     "The disk is full.",
		suggestion:  "Free up disk space and run the job again.",
	},
	{
		code:        CodeVideoPrivate,
		patterns:    []string{"private video", "video is private", "this video is unavailable"},
		recoverable: false,
		retryable:   false,
		message:     "The video is private or unavailable.",
		suggestion:  "Check the video link or choose a public video.",
	},
	{
		code:        CodeVideoAgeRestricted,
		patterns:    []string{"age restricted", "age-restricted", "sign in to confirm your age"},
		recoverable: false,
		retryable:   false,
		message:     "The video is age-restricted.",
		suggestion:  "Age-restricted videos cannot be downloaded anonymously.",
	},
	{
		code:        CodeVideoGeoBlocked,
		patterns:    []string{"available in your country", "geo restricted", "geo-blocked"},
		recoverable: false,
		retryable:   false,
		message:     "The video is not available in your region.",
	},
	{
		code:        CodeVideoCopyright,
		patterns:    []string{"copyright", "blocked it on copyright grounds"},
		recoverable: false,
		retryable:   false,
		message:     "The video was blocked for copyright reasons.",
	},
	{
		code:        CodeVideoIsLive,
		patterns:    []string{"is a live", "live event will begin", "premieres in"},
		recoverable: false,
		retryable:   false,
		message:     "The video is a live stream and cannot be processed yet.",
		suggestion:  "Wait until the stream has ended and its recording is available.",
	},
	{
		code:        CodeFileNotFound,
		patterns:    []string{"no such file or directory", "file not found", "cannot find the file"},
		recoverable: false,
		retryable:   false,
		message:     "A required file is missing.",
		suggestion:  "The working files may have been moved or deleted; restart the job.",
	},
	{
		code:        CodePermissionDenied,
		patterns:    []string{"permission denied", "access is denied"},
		recoverable: false,
		retryable:   false,
		message:     "Permission was denied while accessing a file or device.",
		suggestion:  "Check the permissions of the working directories.",
	},
	{
		code:        CodeEncodingFailed,
		patterns:    []string{"ffmpeg", "encoder", "encoding failed", "conversion failed", "invalid data found when processing input"},
		recoverable: true,
		retryable:   false,
		message:     "The media encoder reported a failure.",
		suggestion:  "A different format or the software encoder may work.",
	},
}

// Classify maps a raw failure to a classified error for the given stage.
// Unmatched input yields CodeUnknown with recoverable=false, retryable=false.
func Classify(raw Raw, st stage.Name) *Error {
	haystack := strings.ToLower(raw.Message + "\n" + raw.Output)
	details := strings.TrimSpace(raw.Message)
	if out := strings.TrimSpace(raw.Output); out != "" {
		if details != "" {
			details += "\n"
		}
		details += out
	}
	if raw.ExitCode > 0 {
		haystack += "\nexit status " + strconv.Itoa(raw.ExitCode)
	}

	for _, r := range rules {
		for _, pattern := range r.patterns {
			if strings.Contains(haystack, pattern) {
				return &Error{
					Code:             r.code,
					Stage:            st,
					Message:          r.message,
					TechnicalDetails: details,
					Suggestion:       r.suggestion,
					Recoverable:      r.recoverable,
					Retryable:        r.retryable,
					Timestamp:        time.Now().UTC(),
				}
			}
		}
	}

	return &Error{
		Code:             CodeUnknown,
		Stage:            st,
		Message:          "The operation failed for an unknown reason.",
		TechnicalDetails: details,
		Recoverable:      false,
		Retryable:        false,
		Timestamp:        time.Now().UTC(),
	}
}

// ClassifyErr adapts a Go error to Classify. Errors that are already
// classified pass through unchanged, so classification happens exactly
// once per failure.
func ClassifyErr(err error, st stage.Name) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	if errors.Is(err, context.Canceled) {
		return Classify(Raw{Message: "context canceled", ExitCode: -1}, st)
	}
	return Classify(Raw{Message: err.Error(), ExitCode: -1}, st)
}
