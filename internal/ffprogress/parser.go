package ffprogress

import (
	"strconv"
	"strings"
)

// Phase labels the rendering sub-stage a snapshot belongs to.
type Phase string

const (
	PhasePreparing           Phase = "preparing"
	PhaseGeneratingSubtitles Phase = "generating_subtitles"
	PhaseEncoding            Phase = "encoding"
	PhaseFinalizing          Phase = "finalizing"
	PhaseComplete            Phase = "complete"
)

// Snapshot is an immutable view of encoder progress. Updates produce a new
// value; snapshots are never shared mutably.
type Snapshot struct {
	Fraction    float64
	CurrentMs   int64
	TotalMs     int64
	FPS         float64
	BitrateKbps float64
	Speed       float64
	Phase       Phase
	ETASeconds  int64
	ETAKnown    bool
}

// Parser consumes one raw progress line at a time. Unknown keys are
// ignored rather than treated as errors.
type Parser struct {
	snapshot Snapshot
}

// NewParser constructs a parser for a stream whose total duration (in
// milliseconds) may be zero when unknown.
func NewParser(totalMs int64) *Parser {
	return &Parser{snapshot: Snapshot{TotalMs: totalMs, Phase: PhasePreparing}}
}

// Current returns the latest snapshot.
func (p *Parser) Current() Snapshot {
	return p.snapshot
}

// SetTotal updates the stream's total duration once it becomes known.
func (p *Parser) SetTotal(totalMs int64) {
	p.snapshot.TotalMs = totalMs
	p.snapshot = recompute(p.snapshot)
}

// Apply parses a single line. It returns the updated snapshot and true
// when the line changed the progress state, or the current snapshot and
// false for unrecognized input.
func (p *Parser) Apply(line string) (Snapshot, bool) {
	key, value, found := strings.Cut(strings.TrimSpace(line), "=")
	if !found {
		return p.snapshot, false
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	next := p.snapshot
	switch key {
	case "out_time_us", "out_time_ms":
		// Both keys carry microseconds despite the _ms name.
		us, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return p.snapshot, false
		}
		next.CurrentMs = us / 1000
	case "out_time":
		ms, ok := parseClock(value)
		if !ok {
			return p.snapshot, false
		}
		next.CurrentMs = ms
	case "fps":
		fps, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return p.snapshot, false
		}
		next.FPS = fps
	case "bitrate":
		kbps, ok := parseBitrate(value)
		if !ok {
			return p.snapshot, false
		}
		next.BitrateKbps = kbps
	case "speed":
		speed, err := strconv.ParseFloat(strings.TrimSuffix(value, "x"), 64)
		if err != nil {
			return p.snapshot, false
		}
		next.Speed = speed
	case "progress":
		if value == "end" {
			next.Fraction = 1
			next.Phase = PhaseComplete
			next.ETASeconds = 0
			next.ETAKnown = true
			p.snapshot = next
			return p.snapshot, true
		}
		return p.snapshot, false
	default:
		return p.snapshot, false
	}

	if next.Phase == PhasePreparing || next.Phase == PhaseGeneratingSubtitles {
		next.Phase = PhaseEncoding
	}
	p.snapshot = recompute(next)
	return p.snapshot, true
}

// recompute derives fraction and ETA from the raw fields. Fraction is
// clamped to [0,1]; ETA requires a known positive current time and speed.
func recompute(s Snapshot) Snapshot {
	if s.Phase == PhaseComplete {
		s.Fraction = 1
		return s
	}
	if s.TotalMs > 0 {
		s.Fraction = float64(s.CurrentMs) / float64(s.TotalMs)
		if s.Fraction < 0 {
			s.Fraction = 0
		}
		if s.Fraction > 1 {
			s.Fraction = 1
		}
	}
	if s.TotalMs > 0 && s.CurrentMs > 0 && s.Speed > 0 {
		remainingMs := s.TotalMs - s.CurrentMs
		if remainingMs < 0 {
			remainingMs = 0
		}
		s.ETASeconds = int64(float64(remainingMs) / 1000 / s.Speed)
		s.ETAKnown = true
	}
	return s
}

// parseBitrate strips the unit suffix ("kbits/s") from an encoder bitrate
// value. "N/A" and malformed values report false.
func parseBitrate(value string) (float64, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || strings.EqualFold(trimmed, "N/A") {
		return 0, false
	}
	end := len(trimmed)
	for i, r := range trimmed {
		if (r < '0' || r > '9') && r != '.' && r != '-' {
			end = i
			break
		}
	}
	kbps, err := strconv.ParseFloat(trimmed[:end], 64)
	if err != nil {
		return 0, false
	}
	return kbps, true
}

// parseClock converts an "H:MM:SS.ffffff" timestamp to milliseconds.
func parseClock(value string) (int64, bool) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return 0, false
	}
	hours, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, false
	}
	total := float64(hours*3600+minutes*60)*1000 + seconds*1000
	if total < 0 {
		return 0, false
	}
	return int64(total), true
}

// ExtractDuration pulls the total duration from a free-text line
// containing "Duration: H:MM:SS.cc", as printed by encoder banners.
func ExtractDuration(line string) (int64, bool) {
	const marker = "Duration:"
	idx := strings.Index(line, marker)
	if idx < 0 {
		return 0, false
	}
	rest := strings.TrimSpace(line[idx+len(marker):])
	if comma := strings.IndexByte(rest, ','); comma >= 0 {
		rest = rest[:comma]
	}
	return parseClock(rest)
}
