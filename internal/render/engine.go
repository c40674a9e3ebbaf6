package render

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/Lllllllleong/businessdocs/internal/models"
)

// Engine turns a document record and brand settings into a paginated PDF.
// An Engine is immutable after construction and safe for concurrent use.
type Engine struct {
	logger   *slog.Logger
	resolver ImageResolver
	geometry Geometry
	verify   bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for recoverable asset failures.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithResolver replaces the default image fetcher.
func WithResolver(r ImageResolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// WithGeometry overrides the A4 page frame.
func WithGeometry(g Geometry) Option {
	return func(e *Engine) { e.geometry = g }
}

// WithVerification toggles the pdfcpu validation of every produced file.
func WithVerification(on bool) Option {
	return func(e *Engine) { e.verify = on }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger:   slog.Default(),
		geometry: A4,
		verify:   true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.resolver == nil {
		e.resolver = NewImageFetcher()
	}
	return e
}

// Document is a finished render.
type Document struct {
	Kind     models.Kind
	Title    string
	Filename string
	Pages    []*Page
	PDF      []byte
	// Warnings lists the images replaced by their fallback.
	Warnings []AssetWarning
}

// PageCount is the number of finalized pages.
func (d *Document) PageCount() int { return len(d.Pages) }

// Generate renders rec as a document of the given kind. Image failures are
// recovered with fallbacks and reported in Document.Warnings; every other
// failure returns a *GenerationError and no document.
func (e *Engine) Generate(ctx context.Context, kind models.Kind, rec models.DocumentRecord, settings models.BrandSettings) (*Document, error) {
	if err := validateRecord(kind, rec); err != nil {
		return nil, &GenerationError{Op: "validate", DocumentID: rec.ID, Err: err}
	}
	if err := e.geometry.validate(); err != nil {
		return nil, &GenerationError{Op: "layout", DocumentID: rec.ID, Err: err}
	}
	rec.Kind = kind

	l := &layout{
		geo:      e.geometry,
		canvas:   newCanvas(e.geometry),
		metrics:  newCoreFontMetrics(),
		fmt:      newFormatter(settings),
		accent:   ParseColor(settings.AccentColor, defaultAccent),
		kind:     kind,
		profile:  profiles[kind],
		record:   rec,
		settings: settings,
		totals:   CalculateTotals(rec.TotalAmount, rec.VATApplicable, rec.TaxRate, rec.DepositAmount),
		resolver: e.resolver,
		logger:   e.logger.With("documentId", rec.ID, "kind", string(kind)),
		assets:   make(map[string]*Image),
	}

	c := l.canvas.start()
	var err error
	for _, s := range l.sections() {
		if c, err = s(ctx, c); err != nil {
			return nil, &GenerationError{Op: "layout", DocumentID: rec.ID, Err: err}
		}
	}
	l.stampFooters()

	doc := &Document{
		Kind:     kind,
		Title:    Title(kind, rec),
		Filename: Filename(kind, rec),
		Pages:    l.canvas.pages,
		Warnings: l.warnings,
	}
	doc.PDF, err = encodePDF(l.geo, doc.Pages, l.assets, pdfInfo{
		title:   doc.Title + " " + rec.ShortID(),
		author:  settings.Company.Name,
		created: rec.CreatedDate,
	})
	if err != nil {
		return nil, &GenerationError{Op: "output", DocumentID: rec.ID, Err: err}
	}
	if e.verify {
		if err := verifyPDF(doc.PDF, doc.PageCount()); err != nil {
			return nil, &GenerationError{Op: "verify", DocumentID: rec.ID, Err: err}
		}
	}

	l.logger.Debug("Document generated.", "pages", doc.PageCount(), "bytes", len(doc.PDF), "warnings", len(doc.Warnings))
	return doc, nil
}

func validateRecord(kind models.Kind, rec models.DocumentRecord) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	stored := rec
	if err := stored.NormalizeKind(); err != nil {
		return fmt.Errorf("%w: record is %q, requested %q", ErrKindMismatch, rec.Kind, kind)
	}
	if stored.Kind != "" && stored.Kind != kind {
		return fmt.Errorf("%w: record is %q, requested %q", ErrKindMismatch, rec.Kind, kind)
	}
	if strings.TrimSpace(rec.ID) == "" {
		return ErrMissingID
	}
	if !finite(rec.TotalAmount) {
		return fmt.Errorf("%w: totalAmount", ErrInvalidAmount)
	}
	if rec.DepositAmount != nil && !finite(*rec.DepositAmount) {
		return fmt.Errorf("%w: depositAmount", ErrInvalidAmount)
	}
	if r := rec.TaxRate; r != nil && (math.IsNaN(*r) || *r < 0 || *r >= 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidTaxRate, *r)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

var footerStyle = TextStyle{Size: 8, Color: colorMuted}

// stampFooters runs once every section is placed, since the total page
// count is only known then.
func (l *layout) stampFooters() {
	var contact []string
	for _, s := range []string{l.settings.Company.Website, l.settings.Company.Email} {
		if s = strings.TrimSpace(s); s != "" {
			contact = append(contact, s)
		}
	}
	left := strings.Join(contact, "  |  ")

	total := len(l.canvas.pages)
	y := l.geo.Limit() + 10
	for i, p := range l.canvas.pages {
		p.Line(l.geo.Left(), y, l.geo.Right(), y, 0.5, colorRule)
		p.Text(l.geo.Left(), y+4, left, footerStyle)
		l.textRight(p, l.geo.Right(), y+4, fmt.Sprintf("Page %d of %d", i+1, total), footerStyle)
	}
}
