package render

import (
	"context"
	"log/slog"

	"github.com/Lllllllleong/businessdocs/internal/models"
)

// assetRole names the purpose of a fetched image; each role has exactly one
// fallback, applied where the image would have been drawn.
type assetRole string

const (
	roleLogo      assetRole = "logo"
	roleSitePlan  assetRole = "siteplan"
	roleSignature assetRole = "signature"
)

var fallbackPolicy = map[assetRole]string{
	roleLogo:      "company name rendered as text",
	roleSitePlan:  "site-plan page skipped",
	roleSignature: "signature placeholder caption",
}

// AssetWarning records an image that could not be used.
type AssetWarning struct {
	Role     string
	Ref      string
	Fallback string
	Err      error
}

// layout is the per-call render state shared by the section renderers.
// The cursor is not part of it: it is passed in and returned by each section.
type layout struct {
	geo      Geometry
	canvas   *canvas
	metrics  Measurer
	fmt      formatter
	accent   Color
	kind     models.Kind
	profile  kindProfile
	record   models.DocumentRecord
	settings models.BrandSettings
	totals   Totals

	resolver ImageResolver
	logger   *slog.Logger
	assets   map[string]*Image
	warnings []AssetWarning
}

// fetch resolves ref for role. A nil result means the caller applies the
// role's fallback; the failure has been logged and recorded.
func (l *layout) fetch(ctx context.Context, role assetRole, ref string) *Image {
	if ref == "" {
		return nil
	}
	res := l.resolver.Resolve(ctx, ref)
	if !res.OK() {
		err := res.Err
		if err == nil {
			err = errEmptyRef
		}
		l.logger.Warn("Image unavailable, using fallback.",
			"role", string(role),
			"ref", redactRef(ref),
			"fallback", fallbackPolicy[role],
			"error", err,
		)
		l.warnings = append(l.warnings, AssetWarning{Role: string(role), Ref: ref, Fallback: fallbackPolicy[role], Err: err})
		return nil
	}
	l.assets[string(role)] = res.Image
	return res.Image
}

// redactRef keeps data: URIs out of the logs.
func redactRef(ref string) string {
	if len(ref) > 5 && ref[:5] == "data:" {
		return "data:..."
	}
	return ref
}

func (l *layout) width(s string, st TextStyle) float64 {
	return l.metrics.StringWidth(s, st)
}

// textRight places s so that it ends at x.
func (l *layout) textRight(p *Page, right, top float64, s string, st TextStyle) {
	p.Text(right-l.width(s, st), top, s, st)
}

// textCenter centres s on x.
func (l *layout) textCenter(p *Page, center, top float64, s string, st TextStyle) {
	p.Text(center-l.width(s, st)/2, top, s, st)
}

// styledLine is one pre-wrapped line with its style.
type styledLine struct {
	text  string
	style TextStyle
}

func (l *layout) wrapStyled(width float64, st TextStyle, paragraphs ...string) []styledLine {
	var out []styledLine
	for _, s := range wrapAll(l.metrics, width, st, paragraphs...) {
		out = append(out, styledLine{text: s, style: st})
	}
	return out
}

func linesHeight(lines []styledLine) float64 {
	var h float64
	for _, ln := range lines {
		h += ln.style.LineHeight()
	}
	return h
}

// drawLines writes lines top-down from top and returns the height used.
func drawLines(p *Page, x, top float64, lines []styledLine) float64 {
	y := top
	for _, ln := range lines {
		p.Text(x, y, ln.text, ln.style)
		y += ln.style.LineHeight()
	}
	return y - top
}
