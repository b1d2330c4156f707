package timedtext

import "strings"

const (
	// phantomHardLimitMs drops fragments shorter than this outright when
	// their text is contained in the following span.
	phantomHardLimitMs = 100
	// phantomSoftLimitMs drops short fragments dwarfed by their successor.
	phantomSoftLimitMs = 500
	// maxOverlapWords bounds the suffix/prefix overlap search.
	maxOverlapWords = 15
	// mergeMatchRatio is the prefix-aligned similarity above which two
	// consecutive spans collapse into one.
	mergeMatchRatio = 0.8
)

// DedupeResult carries the cleaned sequence and removal accounting.
type DedupeResult struct {
	Spans         []Span
	OriginalCount int
	RemovedCount  int
}

// Dedupe removes phantom fragments, trims overlapping spans, and merges
// near-duplicate neighbors. The input is never mutated; the output is a new
// ordered sequence re-indexed 1..N.
func Dedupe(spans []Span) DedupeResult {
	trimmed := dropPhantomsAndOverlaps(spans)
	merged := mergeNearDuplicates(trimmed)
	out := Reindex(merged)
	return DedupeResult{
		Spans:         out,
		OriginalCount: len(spans),
		RemovedCount:  len(spans) - len(out),
	}
}

// dropPhantomsAndOverlaps is the single forward pass with one-element
// lookahead: phantom fragments are dropped, overlapping word runs are
// stripped from the follower.
func dropPhantomsAndOverlaps(spans []Span) []Span {
	kept := make([]Span, 0, len(spans))
	i := 0
	for i < len(spans) {
		current := spans[i]
		if i+1 < len(spans) {
			next := spans[i+1]
			if isPhantom(current, next) {
				i++
				continue
			}
			if overlap := overlapWordCount(current, next); overlap > 0 {
				kept = append(kept, current)
				if stripped, ok := stripLeadingWords(next, overlap); ok {
					kept = append(kept, stripped)
				}
				i += 2
				continue
			}
		}
		kept = append(kept, current)
		i++
	}
	return kept
}

// isPhantom reports whether current is a spurious fragment of next: short
// enough to be an artifact, with every word already present at the start of
// the following span.
func isPhantom(current, next Span) bool {
	duration := current.DurationMs()
	shortEnough := duration < phantomHardLimitMs ||
		(duration < phantomSoftLimitMs && next.DurationMs() > 3*duration)
	if !shortEnough {
		return false
	}
	return wordsArePrefix(normalizedWords(current.Text), normalizedWords(next.Text))
}

// overlapWordCount returns the longest word run (bounded by
// maxOverlapWords) that is simultaneously a suffix of current and a prefix
// of next under normalized comparison.
func overlapWordCount(current, next Span) int {
	a := normalizedWords(current.Text)
	b := normalizedWords(next.Text)
	limit := maxOverlapWords
	if len(a) < limit {
		limit = len(a)
	}
	if len(b) < limit {
		limit = len(b)
	}
	for k := limit; k > 0; k-- {
		if wordRunsEqual(a[len(a)-k:], b[:k]) {
			return k
		}
	}
	return 0
}

func wordRunsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// stripLeadingWords removes count normalized words from the front of the
// span's original text, preserving the raw spelling of what remains.
// Returns false when nothing is left.
func stripLeadingWords(span Span, count int) (Span, bool) {
	fields := strings.Fields(span.Text)
	consumed := 0
	idx := 0
	for idx < len(fields) && consumed < count {
		if normalizeWord(fields[idx]) != "" {
			consumed++
		}
		idx++
	}
	remaining := fields[idx:]
	if len(remaining) == 0 {
		return Span{}, false
	}
	span.Text = strings.Join(remaining, " ")
	return span, true
}

// mergeNearDuplicates collapses consecutive spans whose word sequences
// agree on at least mergeMatchRatio of positions, keeping the longer text
// and the union of the two time ranges.
func mergeNearDuplicates(spans []Span) []Span {
	out := make([]Span, 0, len(spans))
	for _, span := range spans {
		if len(out) > 0 {
			prev := &out[len(out)-1]
			ratio := prefixAlignedMatchRatio(normalizedWords(prev.Text), normalizedWords(span.Text))
			if ratio >= mergeMatchRatio {
				if len(span.Text) > len(prev.Text) {
					prev.Text = span.Text
				}
				if span.StartMs < prev.StartMs {
					prev.StartMs = span.StartMs
				}
				if span.EndMs > prev.EndMs {
					prev.EndMs = span.EndMs
				}
				continue
			}
		}
		out = append(out, span)
	}
	return out
}
