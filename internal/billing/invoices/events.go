package invoices

import (
	"context"
	"time"
)

// IssuedEvent describes an invoice that has just been issued.
type IssuedEvent struct {
	TenantID     int64     `json:"tenant_id"`
	InvoiceID    int64     `json:"invoice_id"`
	Number       string    `json:"invoice_number"`
	CustomerName string    `json:"customer_name"`
	TotalAmount  int64     `json:"total_amount"`
	IssuedAt     time.Time `json:"issued_at"`
}

// Notifier is told about issued invoices after the issuing transaction commits.
type Notifier interface {
	InvoiceIssued(ctx context.Context, event IssuedEvent) error
}
