package subtitles

import (
	"fmt"
	"strconv"
	"strings"

	"subflow/internal/timedtext"
)

// FormatASS serializes spans with the given style into a complete ASS
// document: script metadata, one style definition, and one dialogue line
// per span.
func FormatASS(spans []timedtext.Span, style Style) string {
	var b strings.Builder
	b.Grow(512 + len(spans)*64)

	b.WriteString("[Script Info]\n")
	b.WriteString("ScriptType: v4.00+\n")
	fmt.Fprintf(&b, "PlayResX: %d\n", style.PlayResX)
	fmt.Fprintf(&b, "PlayResY: %d\n", style.PlayResY)
	b.WriteString("ScaledBorderAndShadow: yes\n")
	b.WriteString("WrapStyle: 0\n")
	b.WriteString("\n")

	b.WriteString("[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	b.WriteString(styleLine(style))
	b.WriteString("\n")

	b.WriteString("[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	styleName := style.Name
	if styleName == "" {
		styleName = "Default"
	}
	for _, span := range spans {
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,%s,,0,0,0,,%s\n",
			Timestamp(span.StartMs),
			Timestamp(span.EndMs),
			styleName,
			EscapeText(span.Text),
		)
	}
	return b.String()
}

func styleLine(style Style) string {
	name := style.Name
	if name == "" {
		name = "Default"
	}
	return fmt.Sprintf("Style: %s,%s,%d,%s,%s,%s,%s,%d,%d,%d,%d,100,100,0,0,%d,%s,%s,%d,%d,%d,%d,1\n",
		name,
		style.FontName,
		style.FontSize,
		Color(style.PrimaryColor),
		Color(style.SecondaryColor),
		Color(style.OutlineColor),
		Color(style.BackColor),
		assBool(style.Bold),
		assBool(style.Italic),
		assBool(style.Underline),
		assBool(style.StrikeOut),
		style.BorderStyle,
		assFloat(style.Outline),
		assFloat(style.Shadow),
		style.Alignment,
		style.MarginL,
		style.MarginR,
		style.MarginV,
	)
}

// assBool renders ASS boolean toggles: -1 is on, 0 is off.
func assBool(value bool) int {
	if value {
		return -1
	}
	return 0
}

func assFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// Color converts "#RRGGBB" or "#AARRGGBB" web hex to the ASS
// &H[AA]BBGGRR little-endian channel form. Malformed input falls back to
// opaque white.
func Color(hex string) string {
	trimmed := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	var aa, rr, gg, bb string
	switch len(trimmed) {
	case 6:
		aa, rr, gg, bb = "00", trimmed[0:2], trimmed[2:4], trimmed[4:6]
	case 8:
		aa, rr, gg, bb = trimmed[0:2], trimmed[2:4], trimmed[4:6], trimmed[6:8]
	default:
		return "&H00FFFFFF"
	}
	for _, part := range []string{aa, rr, gg, bb} {
		if _, err := strconv.ParseUint(part, 16, 8); err != nil {
			return "&H00FFFFFF"
		}
	}
	return "&H" + strings.ToUpper(aa+bb+gg+rr)
}

// Timestamp renders milliseconds as the ASS H:MM:SS.cc clock.
func Timestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	centis := (ms % 1000) / 10
	totalSeconds := ms / 1000
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, seconds, centis)
}

// EscapeText protects literal backslashes and braces and maps newlines to
// the ASS line-break token.
func EscapeText(text string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"{", "\\{",
		"}", "\\}",
		"\r\n", "\\N",
		"\n", "\\N",
	)
	return replacer.Replace(text)
}
