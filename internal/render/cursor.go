package render

import "fmt"

// Geometry is the fixed page frame in points.
type Geometry struct {
	Width, Height float64
	Margin        float64
	// FooterReserve is measured from the bottom edge of the page and includes
	// the bottom margin. Content never starts below Height-FooterReserve.
	FooterReserve float64
}

// A4 portrait with a 40pt margin on all sides.
var A4 = Geometry{Width: 595.28, Height: 841.89, Margin: 40, FooterReserve: 60}

func (g Geometry) Left() float64         { return g.Margin }
func (g Geometry) Right() float64        { return g.Width - g.Margin }
func (g Geometry) Top() float64          { return g.Margin }
func (g Geometry) ContentWidth() float64 { return g.Width - 2*g.Margin }

// Limit is the lowest y a section may reach without a page break.
func (g Geometry) Limit() float64 { return g.Height - g.FooterReserve }

func (g Geometry) validate() error {
	if g.Width <= 2*g.Margin || g.Limit() <= g.Top() || g.FooterReserve < g.Margin {
		return fmt.Errorf("%w: page frame %+v leaves no content area", ErrLayoutInvariant, g)
	}
	return nil
}

// Cursor is the running write position. Section renderers take a cursor and
// return the advanced one; they never share it.
type Cursor struct {
	Page int // 1-based
	Y    float64
}

// Advance moves the cursor down by dy on the same page.
func (c Cursor) Advance(dy float64) Cursor {
	c.Y += dy
	return c
}

// canvas owns the page list and the page-break policy.
type canvas struct {
	geo   Geometry
	pages []*Page
}

func newCanvas(geo Geometry) *canvas {
	return &canvas{geo: geo}
}

// start opens the first page.
func (cv *canvas) start() Cursor {
	cv.pages = append(cv.pages, &Page{Index: 1})
	return Cursor{Page: 1, Y: cv.geo.Top()}
}

// page returns the page the cursor points at.
func (cv *canvas) page(c Cursor) *Page {
	return cv.pages[c.Page-1]
}

// remaining is the height left above the footer reserve.
func (cv *canvas) remaining(c Cursor) float64 {
	return cv.geo.Limit() - c.Y
}

// atTop reports whether nothing has been written below the top margin yet.
func (cv *canvas) atTop(c Cursor) bool {
	return c.Y <= cv.geo.Top()
}

// newPage is the PageBreak state: append a blank page and reset the cursor.
// Pages are append-only, so the cursor must sit on the last page.
func (cv *canvas) newPage(c Cursor) (Cursor, error) {
	if c.Page != len(cv.pages) {
		return c, fmt.Errorf("%w: break requested from page %d of %d", ErrLayoutInvariant, c.Page, len(cv.pages))
	}
	cv.pages = append(cv.pages, &Page{Index: len(cv.pages) + 1})
	return Cursor{Page: len(cv.pages), Y: cv.geo.Top()}, nil
}

// ensure is the soft break: a section of height h that would cross the
// footer reserve moves to the top of a new page. A section taller than a
// whole page is not split; on a fresh page it is placed as is and may overflow.
func (cv *canvas) ensure(c Cursor, h float64) (Cursor, error) {
	if c.Y+h <= cv.geo.Limit() || cv.atTop(c) {
		return c, nil
	}
	return cv.newPage(c)
}

// forceBreak is the hard break taken before the site-plan and terms pages.
func (cv *canvas) forceBreak(c Cursor) (Cursor, error) {
	next, err := cv.newPage(c)
	if err != nil {
		return c, err
	}
	if cv.remaining(next) <= 0 {
		return c, fmt.Errorf("%w: no content height after forced break on page %d", ErrLayoutInvariant, next.Page)
	}
	return next, nil
}
