package models

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies which of the three business document templates a record uses.
type Kind string

const (
	KindInvoice       Kind = "invoice"
	KindQuotation     Kind = "quotation"
	KindPurchaseOrder Kind = "purchase_order"
)

// ParseKind normalizes a kind string as it arrives from forms or payloads
// ("Invoice", "purchase-order", "Purchase Order").
func ParseKind(s string) (Kind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	switch Kind(norm) {
	case KindInvoice, KindQuotation, KindPurchaseOrder:
		return Kind(norm), nil
	case "purchaseorder", "po":
		return KindPurchaseOrder, nil
	}
	return "", fmt.Errorf("unknown document kind %q", s)
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindInvoice, KindQuotation, KindPurchaseOrder:
		return true
	}
	return false
}

// DisplayName is the title-case name used in synthetic line items.
func (k Kind) DisplayName() string {
	switch k {
	case KindInvoice:
		return "Invoice"
	case KindQuotation:
		return "Quotation"
	case KindPurchaseOrder:
		return "Purchase Order"
	}
	return string(k)
}

// Collection is the Firestore collection holding records of this kind.
func (k Kind) Collection() string {
	switch k {
	case KindInvoice:
		return "invoices"
	case KindQuotation:
		return "quotations"
	case KindPurchaseOrder:
		return "purchase_orders"
	}
	return ""
}

// StatusAccepted is the quotation status that turns the title into a proforma invoice.
const StatusAccepted = "accepted"

// LineItem is one row of the line-item table.
type LineItem struct {
	Description string  `firestore:"description" json:"description"`
	Quantity    float64 `firestore:"quantity" json:"quantity"`
	UnitPrice   float64 `firestore:"unitPrice" json:"unitPrice"`
	LineTotal   float64 `firestore:"lineTotal" json:"lineTotal"`
}

// Counterparty is the client (invoices, quotations) or supplier (purchase orders).
type Counterparty struct {
	Name    string `firestore:"name,omitempty" json:"name,omitempty"`
	Company string `firestore:"company,omitempty" json:"company,omitempty"`
	Contact string `firestore:"contact,omitempty" json:"contact,omitempty"`
	Email   string `firestore:"email,omitempty" json:"email,omitempty"`
	Phone   string `firestore:"phone,omitempty" json:"phone,omitempty"`
	Address string `firestore:"address,omitempty" json:"address,omitempty"`
}

// DocumentRecord is the immutable business record handed to the renderer.
type DocumentRecord struct {
	Kind              Kind         `firestore:"kind" json:"kind"`
	ID                string       `firestore:"id" json:"id"`
	CreatedDate       time.Time    `firestore:"createdDate" json:"createdDate"`
	ValidUntilDate    *time.Time   `firestore:"validUntilDate,omitempty" json:"validUntilDate,omitempty"`
	DueDate           *time.Time   `firestore:"dueDate,omitempty" json:"dueDate,omitempty"`
	TotalAmount       float64      `firestore:"totalAmount" json:"totalAmount"`
	DepositAmount     *float64     `firestore:"depositAmount,omitempty" json:"depositAmount,omitempty"`
	VATApplicable     bool         `firestore:"vatApplicable" json:"vatApplicable"`
	TaxRate           *float64     `firestore:"taxRate,omitempty" json:"taxRate,omitempty"`
	LineItems         []LineItem   `firestore:"lineItems,omitempty" json:"lineItems,omitempty"`
	Counterparty      Counterparty `firestore:"counterparty" json:"counterparty"`
	Reference         string       `firestore:"reference,omitempty" json:"reference,omitempty"`
	SiteplanImageRef  string       `firestore:"siteplanImageRef,omitempty" json:"siteplanImageRef,omitempty"`
	SignatureImageRef string       `firestore:"signatureImageRef,omitempty" json:"signatureImageRef,omitempty"`
	AcceptedAt        *time.Time   `firestore:"acceptedAt,omitempty" json:"acceptedAt,omitempty"`
	Status            string       `firestore:"status,omitempty" json:"status,omitempty"`
}

// ShortID is the display reference: the first 8 characters of the record ID.
func (r DocumentRecord) ShortID() string {
	if len(r.ID) <= 8 {
		return r.ID
	}
	return r.ID[:8]
}

// NormalizeKind rewrites a stored kind ("Invoice", "Purchase Order") into
// its canonical form. An empty kind stays empty.
func (r *DocumentRecord) NormalizeKind() error {
	if strings.TrimSpace(string(r.Kind)) == "" {
		r.Kind = ""
		return nil
	}
	k, err := ParseKind(string(r.Kind))
	if err != nil {
		return err
	}
	r.Kind = k
	return nil
}

// Accepted reports whether the record status marks it as accepted by the client.
func (r DocumentRecord) Accepted() bool {
	return strings.EqualFold(strings.TrimSpace(r.Status), StatusAccepted)
}
