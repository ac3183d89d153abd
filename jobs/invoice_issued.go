package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/odyssey-erp/worklog/internal/billing/invoices"
	jobmetrics "github.com/odyssey-erp/worklog/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// InvoiceIssuedJob delivers issued-invoice notifications.
type InvoiceIssuedJob struct {
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	printer *message.Printer
}

// NewInvoiceIssuedJob wires dependencies for the notification handler.
func NewInvoiceIssuedJob(logger *slog.Logger, metrics *jobmetrics.Metrics) *InvoiceIssuedJob {
	return &InvoiceIssuedJob{
		Logger:  logger,
		Metrics: metrics,
		printer: message.NewPrinter(language.English),
	}
}

// Handle processes invoice issued tasks.
func (j *InvoiceIssuedJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("invoice issued: handler not configured")
	}
	var event invoices.IssuedEvent
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		return asynq.SkipRetry
	}
	if event.TenantID <= 0 || event.InvoiceID <= 0 {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskInvoiceIssued)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	j.logger().InfoContext(ctx, "invoice issued",
		slog.Int64("tenant_id", event.TenantID),
		slog.Int64("invoice_id", event.InvoiceID),
		slog.String("invoice_number", event.Number),
		slog.String("body", j.Body(event)),
	)
	j.metrics().AddItems(TaskInvoiceIssued, 1)
	return resultErr
}

// Body renders the human readable notification text.
func (j *InvoiceIssuedJob) Body(event invoices.IssuedEvent) string {
	p := j.printer
	if p == nil {
		p = message.NewPrinter(language.English)
	}
	customer := event.CustomerName
	if customer == "" {
		customer = "customer"
	}
	return p.Sprintf("Invoice %s for %s issued on %s, total %d",
		event.Number, customer, event.IssuedAt.UTC().Format("2006-01-02"), event.TotalAmount)
}

func (j *InvoiceIssuedJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskInvoiceIssued))
	}
	return slog.Default().With(slog.String("job", TaskInvoiceIssued))
}

func (j *InvoiceIssuedJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
