package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CompanyIdentity is the issuing company as printed in the FROM block and footer.
type CompanyIdentity struct {
	Name      string `firestore:"name" json:"name"`
	Address   string `firestore:"address,omitempty" json:"address,omitempty"`
	Phone     string `firestore:"phone,omitempty" json:"phone,omitempty"`
	Email     string `firestore:"email,omitempty" json:"email,omitempty"`
	VATNumber string `firestore:"vatNumber,omitempty" json:"vatNumber,omitempty"`
	Website   string `firestore:"website,omitempty" json:"website,omitempty"`
}

// BankingDetails are printed next to the totals on invoices and quotations.
type BankingDetails struct {
	BankName         string `firestore:"bankName,omitempty" json:"bankName,omitempty"`
	BranchCode       string `firestore:"branchCode,omitempty" json:"branchCode,omitempty"`
	AccountNumber    string `firestore:"accountNumber,omitempty" json:"accountNumber,omitempty"`
	DefaultReference string `firestore:"defaultReference,omitempty" json:"defaultReference,omitempty"`
}

// Empty reports whether no banking field is configured.
func (b BankingDetails) Empty() bool {
	return b.BankName == "" && b.BranchCode == "" && b.AccountNumber == "" && b.DefaultReference == ""
}

// Terms holds legal clauses. Settings may store them either as one string or
// as an ordered list; both forms decode into Terms.
type Terms []string

// UnmarshalJSON accepts a JSON string or an array of strings.
func (t *Terms) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	terms, err := TermsFromValue(v)
	if err != nil {
		return err
	}
	*t = terms
	return nil
}

// TermsFromValue converts a loosely typed value (as returned by Firestore's
// Data() or generic JSON decoding) into Terms.
func TermsFromValue(v any) (Terms, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return Terms{val}, nil
	case []string:
		return Terms(val), nil
	case []any:
		out := make(Terms, 0, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("legal terms clause %d is %T, want string", i, item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("legal terms must be a string or list of strings, got %T", v)
}

// Text joins the clauses with newlines. Trailing line breaks of each clause
// and of the whole text are dropped so they do not wrap into blank lines.
func (t Terms) Text() string {
	clauses := make([]string, len(t))
	for i, c := range t {
		clauses[i] = strings.TrimRight(c, "\r\n")
	}
	return strings.TrimRight(strings.Join(clauses, "\n"), "\r\n")
}

// Empty reports whether there is no printable terms text.
func (t Terms) Empty() bool {
	return strings.TrimSpace(t.Text()) == ""
}

// BrandSettings is the per-call brand configuration.
type BrandSettings struct {
	Company        CompanyIdentity `firestore:"company" json:"company"`
	AccentColor    string          `firestore:"accentColor,omitempty" json:"accentColor,omitempty"`
	LogoRef        string          `firestore:"logoRef,omitempty" json:"logoRef,omitempty"`
	Banking        BankingDetails  `firestore:"banking" json:"banking"`
	LegalTerms     Terms           `firestore:"-" json:"legalTerms,omitempty"`
	CurrencySymbol string          `firestore:"currencySymbol,omitempty" json:"currencySymbol,omitempty"`
	Locale         string          `firestore:"locale,omitempty" json:"locale,omitempty"`
	DateLayout     string          `firestore:"dateLayout,omitempty" json:"dateLayout,omitempty"`
}
