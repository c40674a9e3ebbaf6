package render

import (
	"testing"

	"github.com/Lllllllleong/businessdocs/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestTitleAndFilename(t *testing.T) {
	tests := []struct {
		name     string
		kind     models.Kind
		record   models.DocumentRecord
		title    string
		filename string
	}{
		{"vat invoice", models.KindInvoice, models.DocumentRecord{ID: "ab12cd34ef", VATApplicable: true}, "TAX INVOICE", "TAX_INVOICE_ab12cd34.pdf"},
		{"plain invoice", models.KindInvoice, models.DocumentRecord{ID: "ab12cd34ef"}, "INVOICE", "INVOICE_ab12cd34.pdf"},
		{"quotation", models.KindQuotation, models.DocumentRecord{ID: "q1", Status: "draft"}, "QUOTATION", "QUOTATION_q1.pdf"},
		{"accepted quotation", models.KindQuotation, models.DocumentRecord{ID: "q1", Status: "Accepted"}, "PROFORMA INVOICE", "PROFORMA_INVOICE_q1.pdf"},
		{"purchase order", models.KindPurchaseOrder, models.DocumentRecord{ID: "po-000001", VATApplicable: true}, "PURCHASE ORDER", "PURCHASE_ORDER_po-00000.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.title, Title(tt.kind, tt.record))
			assert.Equal(t, tt.filename, Filename(tt.kind, tt.record))
		})
	}
}

func TestProfilesCoverEveryKind(t *testing.T) {
	for _, k := range []models.Kind{models.KindInvoice, models.KindQuotation, models.KindPurchaseOrder} {
		p, ok := profiles[k]
		assert.True(t, ok, k)
		assert.NotEmpty(t, p.partyLabel)
		assert.NotNil(t, p.title)
	}
	assert.Equal(t, "VENDOR", profiles[models.KindPurchaseOrder].partyLabel)
	assert.False(t, profiles[models.KindPurchaseOrder].banking)
	assert.False(t, profiles[models.KindPurchaseOrder].terms)
}
