// Package srt reads and writes SubRip subtitle files as timed-text spans.
package srt

import (
	"fmt"
	"strconv"
	"strings"

	"subflow/internal/timedtext"
)

// Parse converts SubRip content into ordered spans. Cue indices from the
// file are discarded; spans are renumbered 1..N. Blocks without a valid
// timing line are skipped rather than treated as fatal.
func Parse(data []byte) ([]timedtext.Span, error) {
	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	content = strings.TrimPrefix(content, "\uFEFF")
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, nil
	}

	blocks := strings.Split(trimmed, "\n\n")
	spans := make([]timedtext.Span, 0, len(blocks))
	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		start, end, textStart, ok := timingLine(lines)
		if !ok {
			continue
		}
		text := strings.TrimSpace(strings.Join(lines[textStart:], "\n"))
		if text == "" {
			continue
		}
		spans = append(spans, timedtext.Span{StartMs: start, EndMs: end, Text: text})
	}
	return timedtext.Reindex(spans), nil
}

// timingLine locates the "start --> end" line within a cue block and
// returns the timestamps plus the index of the first text line.
func timingLine(lines []string) (int64, int64, int, bool) {
	for i, line := range lines {
		if i > 1 || !strings.Contains(line, "-->") {
			continue
		}
		parts := strings.SplitN(line, "-->", 2)
		start, err1 := parseTimestamp(parts[0])
		end, err2 := parseTimestamp(parts[1])
		if err1 != nil || err2 != nil {
			return 0, 0, 0, false
		}
		return start, end, i + 1, true
	}
	return 0, 0, 0, false
}

// parseTimestamp reads "HH:MM:SS,mmm" (comma or period separator).
func parseTimestamp(value string) (int64, error) {
	value = strings.TrimSpace(value)
	value = strings.ReplaceAll(value, ".", ",")
	clock, millis, found := strings.Cut(value, ",")
	if !found {
		return 0, fmt.Errorf("malformed timestamp %q", value)
	}
	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed timestamp %q", value)
	}
	hours, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed hours in %q", value)
	}
	minutes, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed minutes in %q", value)
	}
	seconds, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed seconds in %q", value)
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(millis), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed milliseconds in %q", value)
	}
	return ((hours*60+minutes)*60+seconds)*1000 + ms, nil
}

// Format renders spans as SubRip content with sequential cue numbers.
func Format(spans []timedtext.Span) []byte {
	var b strings.Builder
	for i, span := range spans {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", formatTimestamp(span.StartMs), formatTimestamp(span.EndMs))
		b.WriteString(span.Text)
		b.WriteString("\n")
	}
	return []byte(b.String())
}

func formatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	millis := ms % 1000
	totalSeconds := ms / 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d",
		totalSeconds/3600,
		(totalSeconds%3600)/60,
		totalSeconds%60,
		millis,
	)
}
