package timedtext

import "strings"

// Span is a single timestamped text segment. Spans are immutable once
// created; cleanup operations return new sequences.
type Span struct {
	Index        int     `json:"index"`
	StartMs      int64   `json:"start_ms"`
	EndMs        int64   `json:"end_ms"`
	Text         string  `json:"text"`
	Confidence   float64 `json:"confidence,omitempty"`
	NoSpeechProb float64 `json:"no_speech_prob,omitempty"`
}

// DurationMs returns the span length in milliseconds.
func (s Span) DurationMs() int64 {
	return s.EndMs - s.StartMs
}

// Empty reports whether the span carries no visible text.
func (s Span) Empty() bool {
	return strings.TrimSpace(s.Text) == ""
}

// Transcript is an ordered sequence of spans in a single language.
type Transcript struct {
	Language string `json:"language"`
	Spans    []Span `json:"spans"`
}

// Reindex returns a copy of spans renumbered 1..N.
func Reindex(spans []Span) []Span {
	out := make([]Span, len(spans))
	copy(out, spans)
	for i := range out {
		out[i].Index = i + 1
	}
	return out
}

// FilterLowConfidence drops spans whose no-speech probability exceeds the
// threshold. It is an explicit pre-filter: deduplication never consults
// confidence on its own.
func FilterLowConfidence(spans []Span, maxNoSpeechProb float64) []Span {
	kept := make([]Span, 0, len(spans))
	for _, span := range spans {
		if span.NoSpeechProb > maxNoSpeechProb {
			continue
		}
		kept = append(kept, span)
	}
	return Reindex(kept)
}
