package render

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestCalculateTotals(t *testing.T) {
	tests := []struct {
		name       string
		total      float64
		vat        bool
		rate       *float64
		deposit    *float64
		subtotal   string
		tax        string
		balance    string
		hasDeposit bool
		showTax    bool
	}{
		{name: "tax inclusive", total: 1150, vat: true, rate: ptr(0.15), subtotal: "1000.00", tax: "150.00", balance: "1150.00", showTax: true},
		{name: "default rate", total: 1150, vat: true, subtotal: "1000.00", tax: "150.00", balance: "1150.00", showTax: true},
		{name: "deposit", total: 5000, vat: true, rate: ptr(0.15), deposit: ptr(1500.0), subtotal: "4347.83", tax: "652.17", balance: "3500.00", hasDeposit: true, showTax: true},
		{name: "zero deposit", total: 5000, deposit: ptr(0.0), subtotal: "5000.00", tax: "0.00", balance: "5000.00"},
		{name: "no vat", total: 999.99, rate: ptr(0.15), subtotal: "999.99", tax: "0.00", balance: "999.99"},
		{name: "overpaid", total: 100, deposit: ptr(150.0), subtotal: "100.00", tax: "0.00", balance: "-50.00", hasDeposit: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateTotals(tt.total, tt.vat, tt.rate, tt.deposit)
			assert.Equal(t, tt.subtotal, got.Subtotal.StringFixed(2))
			assert.Equal(t, tt.tax, got.Tax.StringFixed(2))
			assert.Equal(t, tt.balance, got.BalanceDue.StringFixed(2))
			assert.Equal(t, tt.hasDeposit, got.HasDeposit)
			assert.Equal(t, tt.showTax, got.ShowTax())
		})
	}
}

func TestCalculateTotalsIdentity(t *testing.T) {
	totals := []float64{0.01, 0.99, 1, 10.5, 99.99, 1150, 1234.56, 5000, 100000.01, 7777777.77}
	rates := []float64{0.01, 0.05, 0.075, 0.14, 0.15, 0.2, 0.5, 0.99}
	for _, total := range totals {
		for _, rate := range rates {
			got := CalculateTotals(total, true, &rate, nil)
			want := decimal.NewFromFloat(total).Round(2)
			assert.True(t, got.Subtotal.Add(got.Tax).Equal(want), "total=%v rate=%v: %s + %s", total, rate, got.Subtotal, got.Tax)
			assert.False(t, got.Tax.IsNegative())
		}
	}
}
