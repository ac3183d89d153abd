// Package invoices implements the invoice billing engine: the item ledger,
// per-tenant invoice numbering, the draft/issued/canceled lifecycle and
// duplication of existing invoices into new drafts.
package invoices

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates invoice lifecycle states.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusIssued   Status = "issued"
	StatusCanceled Status = "canceled"
)

// IsValid reports whether the status is a known lifecycle state.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusIssued, StatusCanceled:
		return true
	default:
		return false
	}
}

// CanEdit reports whether fields and items may still change.
func (s Status) CanEdit() bool {
	return s == StatusDraft || s == StatusIssued
}

// CanIssue reports whether the invoice may be assigned a number.
func (s Status) CanIssue() bool {
	return s == StatusDraft
}

// CanCancel reports whether the invoice may move to canceled.
func (s Status) CanCancel() bool {
	return s == StatusDraft || s == StatusIssued
}

// Invoice is the persisted invoice header.
type Invoice struct {
	ID                int64
	TenantID          int64
	CustomerID        int64
	CustomerName      string
	SiteID            *int64
	BankAccountID     *int64
	Number            *string
	Sequence          *int64
	Status            Status
	BillingDate       time.Time
	IssuedAt          *time.Time
	Title             string
	DeliveryDate      *time.Time
	DeliveryPlace     string
	TransactionMethod string
	ValidUntil        *time.Time
	Note              string
	TaxRate           decimal.Decimal
	Subtotal          int64
	TaxAmount         int64
	TotalAmount       int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ApplyTotals copies computed totals onto the invoice.
func (inv *Invoice) ApplyTotals(t Totals) {
	inv.Subtotal = t.Subtotal
	inv.TaxAmount = t.TaxAmount
	inv.TotalAmount = t.TotalAmount
}

// Item is one line of an invoice.
type Item struct {
	ID               int64
	InvoiceID        int64
	Type             ItemType
	Name             string
	Quantity         decimal.NullDecimal
	Unit             *string
	UnitPrice        *int64
	Amount           *int64
	SortOrder        int
	SourceProductID  *int64
	SourceMaterialID *int64
}

// BankAccount holds the display fields of the account printed on an invoice.
// Values arrive already decrypted from the host application.
type BankAccount struct {
	ID            int64
	BankName      string
	BranchName    string
	AccountType   string
	AccountNumber string
	AccountHolder string
}

// Detail is the full read model of one invoice.
type Detail struct {
	Invoice        Invoice
	Items          []Item
	DailyReportIDs []int64
	BankAccount    *BankAccount
}

// CreateInput carries the fields of a new draft invoice.
type CreateInput struct {
	CustomerID        int64
	CustomerName      string
	SiteID            *int64
	BankAccountID     *int64
	BillingDate       time.Time
	Title             string
	DeliveryDate      *time.Time
	DeliveryPlace     string
	TransactionMethod string
	ValidUntil        *time.Time
	Note              string
	TaxRate           decimal.Decimal
	Items             []ItemInput
	IdempotencyKey    string
}

// UpdateInput carries a partial update. Nil fields are left untouched.
type UpdateInput struct {
	CustomerID        *int64
	CustomerName      *string
	SiteID            *int64
	ClearSite         bool
	BankAccountID     *int64
	ClearBankAccount  bool
	BillingDate       *time.Time
	Title             *string
	DeliveryDate      *time.Time
	DeliveryPlace     *string
	TransactionMethod *string
	ValidUntil        *time.Time
	Note              *string
	TaxRate           *decimal.Decimal
	Items             *[]ItemInput
}

// ListFilter narrows invoice listings. TenantID is always required.
type ListFilter struct {
	TenantID        int64
	Status          *Status
	CustomerID      *int64
	BillingDateFrom *time.Time
	BillingDateTo   *time.Time
	Page            int
	PerPage         int
}
