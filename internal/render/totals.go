package render

import "github.com/shopspring/decimal"

// DefaultTaxRate applies when a VAT-applicable record carries no rate.
const DefaultTaxRate = 0.15

// Totals are the derived money figures of a document. The stored total is
// tax-inclusive: subtotal and tax are reverse-derived from it.
type Totals struct {
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	TaxRate    decimal.Decimal
	Total      decimal.Decimal
	Deposit    decimal.Decimal
	BalanceDue decimal.Decimal
	HasDeposit bool
}

// CalculateTotals derives the totals block. Subtotal is rounded to cents and
// tax takes the remainder, so Subtotal+Tax equals the rounded total exactly.
// BalanceDue is not clamped: an overpaid document shows a negative balance.
func CalculateTotals(total float64, vatApplicable bool, taxRate, deposit *float64) Totals {
	t := Totals{Total: decimal.NewFromFloat(total).Round(2)}

	if vatApplicable {
		rate := DefaultTaxRate
		if taxRate != nil {
			rate = *taxRate
		}
		t.TaxRate = decimal.NewFromFloat(rate)
		t.Subtotal = t.Total.DivRound(decimal.NewFromInt(1).Add(t.TaxRate), 2)
		t.Tax = t.Total.Sub(t.Subtotal)
	} else {
		t.Subtotal = t.Total
		t.Tax = decimal.Zero
		t.TaxRate = decimal.Zero
	}

	if deposit != nil {
		t.Deposit = decimal.NewFromFloat(*deposit).Round(2)
	}
	t.HasDeposit = !t.Deposit.IsZero()
	t.BalanceDue = t.Total.Sub(t.Deposit)
	return t
}

// ShowTax reports whether the VAT row is printed.
func (t Totals) ShowTax() bool { return t.Tax.IsPositive() }
