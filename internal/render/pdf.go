package render

import (
	"bytes"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

type pdfInfo struct {
	title, author string
	created       time.Time
}

// encodePDF writes the page ops with fpdf. Dates and resource order are
// fixed so the same input always yields the same bytes.
func encodePDF(geo Geometry, pages []*Page, assets map[string]*Image, info pdfInfo) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: geo.Width, Ht: geo.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCatalogSort(true)

	created := info.created
	if created.IsZero() {
		created = time.Unix(0, 0).UTC()
	}
	pdf.SetCreationDate(created)
	pdf.SetModificationDate(created)
	pdf.SetTitle(info.title, true)
	pdf.SetAuthor(info.author, true)
	pdf.SetCreator("businessdocs", true)

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	names := make([]string, 0, len(assets))
	for name := range assets {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		img := assets[name]
		pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: img.Format}, bytes.NewReader(img.Data))
	}

	for _, page := range pages {
		pdf.AddPage()
		for _, op := range page.Ops {
			switch o := op.(type) {
			case TextOp:
				pdf.SetFont(o.Style.family(), o.Style.Style, o.Style.Size)
				pdf.SetTextColor(int(o.Style.Color.R), int(o.Style.Color.G), int(o.Style.Color.B))
				pdf.Text(o.X, o.Y, tr(o.Text))
			case LineOp:
				pdf.SetDrawColor(int(o.Color.R), int(o.Color.G), int(o.Color.B))
				pdf.SetLineWidth(o.Width)
				pdf.Line(o.X1, o.Y1, o.X2, o.Y2)
			case RectOp:
				pdf.SetFillColor(int(o.Fill.R), int(o.Fill.G), int(o.Fill.B))
				if o.Radius > 0 {
					pdf.RoundedRect(o.X, o.Y, o.W, o.H, o.Radius, "1234", "F")
				} else {
					pdf.Rect(o.X, o.Y, o.W, o.H, "F")
				}
			case ImageOp:
				img, ok := assets[o.Asset]
				if !ok {
					return nil, fmt.Errorf("%w: page %d references unknown image %q", ErrLayoutInvariant, page.Index, o.Asset)
				}
				pdf.ImageOptions(o.Asset, o.X, o.Y, o.W, o.H, false, fpdf.ImageOptions{ImageType: img.Format}, 0, "")
			}
		}
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", ErrOutput, page.Index, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutput, err)
	}
	return buf.Bytes(), nil
}

var disableConfigDir sync.Once

func pdfcpuConfig() *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// verifyPDF re-reads the output with pdfcpu and checks that it holds exactly
// the pages the layout produced.
func verifyPDF(data []byte, want int) error {
	conf := pdfcpuConfig()
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return fmt.Errorf("%w: validation: %v", ErrOutput, err)
	}
	got, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return fmt.Errorf("%w: page count: %v", ErrOutput, err)
	}
	if got != want {
		return fmt.Errorf("%w: pdf has %d pages, layout produced %d", ErrLayoutInvariant, got, want)
	}
	return nil
}

// Optimize rewrites a rendered PDF with pdfcpu's optimizer.
func Optimize(data []byte) ([]byte, error) {
	var out bytes.Buffer
	if err := api.Optimize(bytes.NewReader(data), &out, pdfcpuConfig()); err != nil {
		return nil, fmt.Errorf("optimize pdf: %w", err)
	}
	return out.Bytes(), nil
}
