package subtitles

// Style describes how dialogue lines are drawn. Colors use web hex
// notation ("#RRGGBB" or "#AARRGGBB") and are converted to the ASS
// &H[AA]BBGGRR form during formatting.
type Style struct {
	Name           string
	FontName       string
	FontSize       int
	PrimaryColor   string
	SecondaryColor string
	OutlineColor   string
	BackColor      string
	Bold           bool
	Italic         bool
	Underline      bool
	StrikeOut      bool
	BorderStyle    int // 1 = outline + shadow, 3 = opaque box
	Outline        float64
	Shadow         float64
	Alignment      int // numpad layout, 2 = bottom center
	MarginL        int
	MarginR        int
	MarginV        int
	PlayResX       int
	PlayResY       int
}

// DefaultStyle returns a readable bottom-centered white style on a 1080p
// canvas.
func DefaultStyle() Style {
	return Style{
		Name:           "Default",
		FontName:       "Arial",
		FontSize:       48,
		PrimaryColor:   "#FFFFFF",
		SecondaryColor: "#FFFFFF",
		OutlineColor:   "#000000",
		BackColor:      "#80000000",
		BorderStyle:    1,
		Outline:        2,
		Shadow:         1,
		Alignment:      2,
		MarginL:        30,
		MarginR:        30,
		MarginV:        40,
		PlayResX:       1920,
		PlayResY:       1080,
	}
}
