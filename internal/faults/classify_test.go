package faults

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"subflow/internal/stage"
)

func TestClassifyMatchesKnownPatterns(t *testing.T) {
	cases := []struct {
		name string
		raw  Raw
		st   stage.Name
		code Code
	}{
		{"timeout", Raw{Message: "connection timed out after 30s", ExitCode: -1}, stage.Download, CodeNetworkTimeout},
		{"unreachable", Raw{Message: "dial tcp: network is unreachable", ExitCode: -1}, stage.Download, CodeNetworkUnreachable},
		{"refused", Raw{Message: "dial tcp 127.0.0.1:443: connection refused", ExitCode: -1}, stage.Translation, CodeConnectionRefused},
		{"rate limited", Raw{Message: "HTTP Error 429: Too Many Requests", ExitCode: 1}, stage.Translation, CodeRateLimited},
		{"quota", Raw{Message: "quota exceeded for quota metric", ExitCode: -1}, stage.Translation, CodeQuotaExceeded},
		{"key missing", Raw{Message: "translation api key not set", ExitCode: -1}, stage.Translation, CodeAPIKeyMissing},
		{"key invalid", Raw{Message: "request failed: invalid api key", ExitCode: -1}, stage.Translation, CodeAPIKeyInvalid},
		{"model missing", Raw{Message: "whisper: model not found: large-v3", ExitCode: 1}, stage.Transcription, CodeModelNotFound},
		{"binary missing", Raw{Message: `exec: "yt-dlp": executable file not found in $PATH`, ExitCode: -1}, stage.Download, CodeBinaryNotFound},
		{"oom", Raw{Message: "RuntimeError: CUDA out of memory", ExitCode: 1}, stage.Transcription, CodeInsufficientMemory},
		{"disk full", Raw{Output: "write /tmp/video.mp4: no space left on device", ExitCode: 1}, stage.Download, CodeDiskFull},
		{"private", Raw{Message: "ERROR: Private video. Sign in if you've been granted access", ExitCode: 1}, stage.Download, CodeVideoPrivate},
		{"age restricted", Raw{Message: "ERROR: Sign in to confirm your age", ExitCode: 1}, stage.Download, CodeVideoAgeRestricted},
		{"geo blocked", Raw{Message: "The uploader has not made this video available in your country", ExitCode: 1}, stage.Download, CodeVideoGeoBlocked},
		{"copyright", Raw{Message: "blocked it on copyright grounds", ExitCode: 1}, stage.Download, CodeVideoCopyright},
		{"live", Raw{Message: "ERROR: this live event will begin in 3 hours", ExitCode: 1}, stage.Download, CodeVideoIsLive},
		{"file missing", Raw{Message: "open /tmp/audio.wav: no such file or directory", ExitCode: -1}, stage.Transcription, CodeFileNotFound},
		{"permission", Raw{Message: "open /var/lib/out.mkv: permission denied", ExitCode: -1}, stage.Rendering, CodePermissionDenied},
		{"encoder", Raw{Message: "ffmpeg exited with status 1", Output: "Error while encoding stream", ExitCode: 1}, stage.Rendering, CodeEncodingFailed},
		{"unmatched", Raw{Message: "segmentation violation at 0xdeadbeef", ExitCode: 139}, stage.Rendering, CodeUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.raw, tc.st)
			if got.Code != tc.code {
				t.Fatalf("code = %s, want %s", got.Code, tc.code)
			}
			if got.Stage != tc.st {
				t.Fatalf("stage = %s, want %s", got.Stage, tc.st)
			}
			if got.Message == "" {
				t.Fatal("classified error must carry a user-facing message")
			}
		})
	}
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	got := Classify(Raw{Message: "Connection TIMED OUT", ExitCode: -1}, stage.Download)
	if got.Code != CodeNetworkTimeout {
		t.Fatalf("code = %s, want %s", got.Code, CodeNetworkTimeout)
	}
}

func TestClassifyUnknownIsNotRecoverable(t *testing.T) {
	got := Classify(Raw{Message: "zlorp", ExitCode: -1}, stage.Rendering)
	if got.Code != CodeUnknown || got.Recoverable || got.Retryable {
		t.Fatalf("unexpected unknown classification: %+v", got)
	}
}

func TestClassifyKeepsTechnicalDetailsSeparate(t *testing.T) {
	raw := Raw{Message: "ffmpeg exited with status 1", Output: "x265 [error]: failed to open encoder", ExitCode: 1}
	got := Classify(raw, stage.Rendering)
	if got.Message == raw.Message {
		t.Fatal("user message must not be the raw tool output")
	}
	if got.TechnicalDetails == "" {
		t.Fatal("technical details must be preserved")
	}
}

func TestClassifyErrPassesThroughClassifiedErrors(t *testing.T) {
	original := Classify(Raw{Message: "rate limit reached", ExitCode: -1}, stage.Translation)
	wrapped := fmt.Errorf("translate: %w", original)
	again := ClassifyErr(wrapped, stage.Translation)
	if again != original {
		t.Fatal("classification must happen exactly once")
	}
}

func TestClassifyErrRecognizesCancellation(t *testing.T) {
	got := ClassifyErr(fmt.Errorf("render: %w", context.Canceled), stage.Rendering)
	if got.Code != CodeCancelled {
		t.Fatalf("code = %s, want %s", got.Code, CodeCancelled)
	}
	if got.Category() != CategoryCancellation {
		t.Fatalf("category = %s, want %s", got.Category(), CategoryCancellation)
	}
}

func TestClassifyErrNil(t *testing.T) {
	if got := ClassifyErr(nil, stage.Download); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
	var target *Error
	if errors.As(error(Classify(Raw{Message: "x"}, stage.Download)), &target); target == nil {
		t.Fatal("classified error must satisfy errors.As")
	}
}

func TestEveryCodeHasExactlyOneCategory(t *testing.T) {
	known := map[Category]bool{
		CategoryNetwork: true, CategoryAPI: true, CategoryResource: true,
		CategoryInput: true, CategoryProcessing: true, CategorySystem: true,
		CategoryCancellation: true, CategoryUnknown: true,
	}
	for _, code := range AllCodes() {
		if !known[code.Category()] {
			t.Fatalf("code %s maps to unknown category %s", code, code.Category())
		}
	}
	if Code("made_up").Category() != CategoryUnknown {
		t.Fatal("out-of-taxonomy codes must map to the unknown category")
	}
}

func TestEveryRuleCodeIsInTaxonomy(t *testing.T) {
	for _, r := range rules {
		if _, ok := categories[r.code]; !ok {
			t.Fatalf("rule code %s missing from category table", r.code)
		}
	}
}
