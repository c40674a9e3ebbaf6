package render

import (
	"strings"
	"time"

	"github.com/Lllllllleong/businessdocs/internal/models"
)

// kindProfile is the per-kind section policy consulted by the assembler.
type kindProfile struct {
	partyLabel string
	// dateLabel names the optional second date row; dateOf selects it.
	dateLabel string
	dateOf    func(models.DocumentRecord) *time.Time
	banking   bool
	sitePlan  bool
	terms     bool
	title     func(models.DocumentRecord) string
}

var profiles = map[models.Kind]kindProfile{
	models.KindInvoice: {
		partyLabel: "BILL TO",
		dateLabel:  "Due Date",
		dateOf:     func(r models.DocumentRecord) *time.Time { return r.DueDate },
		banking:    true,
		terms:      true,
		title: func(r models.DocumentRecord) string {
			if r.VATApplicable {
				return "TAX INVOICE"
			}
			return "INVOICE"
		},
	},
	models.KindQuotation: {
		partyLabel: "BILL TO",
		dateLabel:  "Valid Until",
		dateOf:     func(r models.DocumentRecord) *time.Time { return r.ValidUntilDate },
		banking:    true,
		sitePlan:   true,
		terms:      true,
		title: func(r models.DocumentRecord) string {
			if r.Accepted() {
				return "PROFORMA INVOICE"
			}
			return strings.ToUpper(models.KindQuotation.DisplayName())
		},
	},
	models.KindPurchaseOrder: {
		partyLabel: "VENDOR",
		title: func(models.DocumentRecord) string {
			return strings.ToUpper(models.KindPurchaseOrder.DisplayName())
		},
	},
}

// Title is the heading printed on the document and used in its filename.
func Title(kind models.Kind, r models.DocumentRecord) string {
	p, ok := profiles[kind]
	if !ok {
		return strings.ToUpper(string(kind))
	}
	return p.title(r)
}

// Filename follows {TITLE}_{first 8 chars of id}.pdf with spaces as underscores.
func Filename(kind models.Kind, r models.DocumentRecord) string {
	return strings.ReplaceAll(Title(kind, r), " ", "_") + "_" + r.ShortID() + ".pdf"
}
