package render

import "github.com/go-pdf/fpdf"

// Measurer reports the advance width of a string in points.
type Measurer interface {
	StringWidth(s string, st TextStyle) float64
}

// coreFontMetrics measures with the same core font tables and cp1252
// translation the PDF writer uses, so layout and output agree. It is not safe
// for concurrent use; every generation creates its own.
type coreFontMetrics struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func newCoreFontMetrics() *coreFontMetrics {
	pdf := fpdf.New("P", "pt", "A4", "")
	return &coreFontMetrics{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (m *coreFontMetrics) StringWidth(s string, st TextStyle) float64 {
	if s == "" {
		return 0
	}
	m.pdf.SetFont(st.family(), st.Style, st.Size)
	return m.pdf.GetStringWidth(m.tr(s))
}
