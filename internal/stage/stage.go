package stage

import (
	"fmt"
	"strings"
)

// Name identifies one ordered phase of the pipeline. The zero value is
// invalid; ordering follows the declared constants.
type Name int

const (
	Download Name = iota + 1
	CaptionCheck
	Transcription
	Translation
	Rendering
)

// All lists every stage in execution order.
var All = []Name{Download, CaptionCheck, Transcription, Translation, Rendering}

var labels = map[Name]string{
	Download:      "download",
	CaptionCheck:  "caption_check",
	Transcription: "transcription",
	Translation:   "translation",
	Rendering:     "rendering",
}

func (n Name) String() string {
	if label, ok := labels[n]; ok {
		return label
	}
	return fmt.Sprintf("stage(%d)", int(n))
}

// Valid reports whether n names a known stage.
func (n Name) Valid() bool {
	_, ok := labels[n]
	return ok
}

// Order returns the 1-based position of the stage in the pipeline.
func (n Name) Order() int {
	return int(n)
}

// Next returns the stage that follows n, or false when n is terminal.
func (n Name) Next() (Name, bool) {
	if !n.Valid() || n == Rendering {
		return 0, false
	}
	return n + 1, true
}

// Essential reports whether the pipeline cannot complete without the stage.
// Only the caption/transcription path may legally be skipped.
func (n Name) Essential() bool {
	switch n {
	case CaptionCheck, Transcription:
		return false
	default:
		return true
	}
}

// Label returns a human-readable form, e.g. "Caption Check".
func (n Name) Label() string {
	parts := strings.Split(n.String(), "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}

// Parse resolves a stage label produced by String.
func Parse(value string) (Name, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	for name, label := range labels {
		if label == trimmed {
			return name, nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", value)
}
