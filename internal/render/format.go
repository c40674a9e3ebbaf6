package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/Lllllllleong/businessdocs/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	defaultCurrencySymbol = "R"
	defaultDateLayout     = "02 Jan 2006"
)

// formatter renders numbers and dates with the brand's conventions.
type formatter struct {
	symbol     string
	printer    *message.Printer
	dateLayout string
}

func newFormatter(s models.BrandSettings) formatter {
	f := formatter{
		symbol:     s.CurrencySymbol,
		dateLayout: s.DateLayout,
	}
	if f.symbol == "" {
		f.symbol = defaultCurrencySymbol
	}
	if f.dateLayout == "" {
		f.dateLayout = defaultDateLayout
	}
	tag, err := language.Parse(s.Locale)
	if err != nil || s.Locale == "" {
		tag = language.English
	}
	f.printer = message.NewPrinter(tag)
	return f
}

// Money prints a symbol-prefixed amount with exactly two decimals.
// Negative amounts keep their sign: "-R 500.00".
func (f formatter) Money(d decimal.Decimal) string {
	d = d.Round(2)
	v, _ := d.Abs().Float64()
	s := f.symbol + " " + f.printer.Sprintf("%.2f", v)
	if d.IsNegative() {
		return "-" + s
	}
	return s
}

func (f formatter) MoneyFloat(v float64) string {
	return f.Money(decimal.NewFromFloat(v))
}

// Percent prints a fraction as a whole percentage: 0.15 -> "15%".
func (f formatter) Percent(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).Round(0).String() + "%"
}

// Quantity drops trailing zeros: 2 -> "2", 2.50 -> "2.5".
func (f formatter) Quantity(q float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", q), "0"), ".")
}

func (f formatter) Date(t time.Time) string {
	return t.Format(f.dateLayout)
}

func (f formatter) DateTime(t time.Time) string {
	return t.Format(f.dateLayout + " 15:04")
}
