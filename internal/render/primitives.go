package render

import (
	"regexp"
	"strconv"
	"strings"
)

// Color is an 8-bit RGB colour.
type Color struct {
	R, G, B uint8
}

var (
	colorText       = Color{17, 24, 39}
	colorMuted      = Color{107, 114, 128}
	colorRule       = Color{226, 232, 240}
	colorHeaderFill = Color{241, 245, 249}
	colorSuccess    = Color{22, 163, 74}
	colorError      = Color{220, 38, 38}
	defaultAccent   = Color{30, 64, 175}
)

var hexColorPattern = regexp.MustCompile(`^#?([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ParseColor parses "#RRGGBB" or "#RGB". Anything else yields fallback.
func ParseColor(s string, fallback Color) Color {
	s = strings.TrimSpace(s)
	if !hexColorPattern.MatchString(s) {
		return fallback
	}
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fallback
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
}

// tint mixes c with white; amount 0 keeps c, 1 yields white.
func (c Color) tint(amount float64) Color {
	mix := func(v uint8) uint8 {
		return uint8(float64(v) + (255-float64(v))*amount)
	}
	return Color{mix(c.R), mix(c.G), mix(c.B)}
}

// TextStyle selects one of the PDF core fonts.
type TextStyle struct {
	Family string // defaults to Helvetica
	Style  string // "", "B", "I" or "BI"
	Size   float64
	Color  Color
}

func (s TextStyle) family() string {
	if s.Family == "" {
		return "Helvetica"
	}
	return s.Family
}

// LineHeight is the vertical advance of one line set in this style.
func (s TextStyle) LineHeight() float64 { return s.Size * 1.3 }

func (s TextStyle) bold() TextStyle {
	s.Style = "B"
	return s
}

func (s TextStyle) colored(c Color) TextStyle {
	s.Color = c
	return s
}

// Op is one primitive draw operation. Coordinates are points from the
// top-left corner of the page.
type Op interface {
	op()
}

// TextOp places a single line of text; Y is the baseline.
type TextOp struct {
	X, Y  float64
	Text  string
	Style TextStyle
}

// LineOp strokes a straight line.
type LineOp struct {
	X1, Y1, X2, Y2 float64
	Width          float64
	Color          Color
}

// RectOp fills a rectangle, with rounded corners when Radius > 0.
type RectOp struct {
	X, Y, W, H float64
	Radius     float64
	Fill       Color
}

// ImageOp draws a registered image asset.
type ImageOp struct {
	X, Y, W, H float64
	Asset      string
}

func (TextOp) op()  {}
func (LineOp) op()  {}
func (RectOp) op()  {}
func (ImageOp) op() {}

// ascent is the share of the font size above the baseline for the core fonts.
const ascent = 0.78

// Page is one rendered page: an append-only list of primitives.
type Page struct {
	Index int
	Ops   []Op
}

// Text places s with its top edge at top.
func (p *Page) Text(x, top float64, s string, st TextStyle) {
	if s == "" {
		return
	}
	p.Ops = append(p.Ops, TextOp{X: x, Y: top + st.Size*ascent, Text: s, Style: st})
}

// Line strokes from (x1,y1) to (x2,y2).
func (p *Page) Line(x1, y1, x2, y2, width float64, c Color) {
	p.Ops = append(p.Ops, LineOp{X1: x1, Y1: y1, X2: x2, Y2: y2, Width: width, Color: c})
}

// Rect fills a rectangle.
func (p *Page) Rect(x, y, w, h float64, fill Color) {
	p.Ops = append(p.Ops, RectOp{X: x, Y: y, W: w, H: h, Fill: fill})
}

// RoundedRect fills a rectangle with rounded corners.
func (p *Page) RoundedRect(x, y, w, h, r float64, fill Color) {
	p.Ops = append(p.Ops, RectOp{X: x, Y: y, W: w, H: h, Radius: r, Fill: fill})
}

// Image draws the named asset scaled into the given box.
func (p *Page) Image(asset string, x, y, w, h float64) {
	p.Ops = append(p.Ops, ImageOp{X: x, Y: y, W: w, H: h, Asset: asset})
}

// Texts returns the text of every TextOp in drawing order.
func (p *Page) Texts() []string {
	var out []string
	for _, op := range p.Ops {
		if t, ok := op.(TextOp); ok {
			out = append(out, t.Text)
		}
	}
	return out
}

// HasText reports whether any text op on the page equals s.
func (p *Page) HasText(s string) bool {
	for _, t := range p.Texts() {
		if t == s {
			return true
		}
	}
	return false
}
