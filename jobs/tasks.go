package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/worklog/internal/billing/invoices"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskInvoiceIssued notifies about an issued invoice.
	TaskInvoiceIssued = "invoice:issued"
	// TaskIdempotencyCleanup purges expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

var taskNamespace = uuid.MustParse("6f1c2a9e-3b7d-4c55-9a0e-2f4b8d1c7e63")

// NewInvoiceIssuedTask constructs the notification task for an issued invoice.
func NewInvoiceIssuedTask(event invoices.IssuedEvent) (*asynq.Task, error) {
	if event.TenantID <= 0 || event.InvoiceID <= 0 {
		return nil, fmt.Errorf("invoice issued task: tenant and invoice are required")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInvoiceIssued, data), nil
}

// InvoiceIssuedTaskID derives a stable task id so a re-enqueue of the same
// invoice is rejected by the queue.
func InvoiceIssuedTaskID(tenantID, invoiceID int64) string {
	name := fmt.Sprintf("%s/%d/%d", TaskInvoiceIssued, tenantID, invoiceID)
	return uuid.NewSHA1(taskNamespace, []byte(name)).String()
}

// IdempotencyCleanupPayload optionally overrides the configured retention.
type IdempotencyCleanupPayload struct {
	Retention string `json:"retention,omitempty"`
}

// NewIdempotencyCleanupTask constructs the cleanup task. A zero retention
// keeps the worker default.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	payload := IdempotencyCleanupPayload{}
	if retention > 0 {
		payload.Retention = retention.String()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
