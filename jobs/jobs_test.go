package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/worklog/internal/billing/invoices"
	jobmetrics "github.com/odyssey-erp/worklog/internal/jobs"
)

func sampleEvent() invoices.IssuedEvent {
	return invoices.IssuedEvent{
		TenantID:     7,
		InvoiceID:    42,
		Number:       "2025-000003",
		CustomerName: "Acme",
		TotalAmount:  1234567,
		IssuedAt:     time.Date(2025, 5, 20, 8, 30, 0, 0, time.UTC),
	}
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	f.opts = append(f.opts, opts)
	return &asynq.TaskInfo{Type: task.Type(), Queue: QueueDefault}, nil
}

func (f *fakeEnqueuer) Close() error { return nil }

type fakeCleaner struct {
	deleted int64
	err     error
	got     time.Duration
}

func (f *fakeCleaner) Cleanup(_ context.Context, olderThan time.Duration) (int64, error) {
	f.got = olderThan
	return f.deleted, f.err
}

func requireItems(t *testing.T, registry *prometheus.Registry, job string, want int) {
	t.Helper()
	expected := fmt.Sprintf(`# HELP worklog_jobs_items_total Rows processed by background jobs.
# TYPE worklog_jobs_items_total counter
worklog_jobs_items_total{job=%q} %d
`, job, want)
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "worklog_jobs_items_total"))
}

func TestInvoiceIssuedTaskIDIsStable(t *testing.T) {
	a := InvoiceIssuedTaskID(7, 42)
	require.Equal(t, a, InvoiceIssuedTaskID(7, 42))
	require.NotEqual(t, a, InvoiceIssuedTaskID(7, 43))
	require.NotEqual(t, a, InvoiceIssuedTaskID(8, 42))
}

func TestNewInvoiceIssuedTaskRequiresIDs(t *testing.T) {
	_, err := NewInvoiceIssuedTask(invoices.IssuedEvent{TenantID: 1})
	require.Error(t, err)

	task, err := NewInvoiceIssuedTask(sampleEvent())
	require.NoError(t, err)
	require.Equal(t, TaskInvoiceIssued, task.Type())

	var decoded invoices.IssuedEvent
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	require.Equal(t, sampleEvent(), decoded)
}

func TestClientInvoiceIssued(t *testing.T) {
	fake := &fakeEnqueuer{}
	client := &Client{client: fake, maxRetry: 3}

	require.NoError(t, client.InvoiceIssued(context.Background(), sampleEvent()))
	require.Len(t, fake.tasks, 1)
	require.Equal(t, TaskInvoiceIssued, fake.tasks[0].Type())
	assert.Contains(t, fake.opts[0], asynq.TaskID(InvoiceIssuedTaskID(7, 42)))
	assert.Contains(t, fake.opts[0], asynq.MaxRetry(3))
}

func TestClientTreatsDuplicateTaskAsDelivered(t *testing.T) {
	client := &Client{client: &fakeEnqueuer{err: asynq.ErrTaskIDConflict}}
	require.NoError(t, client.InvoiceIssued(context.Background(), sampleEvent()))

	client = &Client{client: &fakeEnqueuer{err: errors.New("redis down")}}
	require.Error(t, client.InvoiceIssued(context.Background(), sampleEvent()))

	var nilClient *Client
	require.Error(t, nilClient.InvoiceIssued(context.Background(), sampleEvent()))
	require.NoError(t, nilClient.Close())
}

func TestInvoiceIssuedJobBody(t *testing.T) {
	job := NewInvoiceIssuedJob(nil, nil)
	body := job.Body(sampleEvent())
	require.Equal(t, "Invoice 2025-000003 for Acme issued on 2025-05-20, total 1,234,567", body)
}

func TestInvoiceIssuedJobHandle(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(registry)
	job := NewInvoiceIssuedJob(nil, metrics)

	task, err := NewInvoiceIssuedTask(sampleEvent())
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	requireItems(t, registry, TaskInvoiceIssued, 1)

	err = job.Handle(context.Background(), asynq.NewTask(TaskInvoiceIssued, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	err = job.Handle(context.Background(), asynq.NewTask(TaskInvoiceIssued, []byte(`{"tenant_id":1}`)))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestIdempotencyCleanupJob(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(registry)
	cleaner := &fakeCleaner{deleted: 12}
	job := NewIdempotencyCleanupJob(cleaner, 72*time.Hour, nil, metrics)

	task, err := NewIdempotencyCleanupTask(0)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 72*time.Hour, cleaner.got)
	requireItems(t, registry, TaskIdempotencyCleanup, 12)

	task, err = NewIdempotencyCleanupTask(time.Hour)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, time.Hour, cleaner.got)
}

func TestIdempotencyCleanupJobErrors(t *testing.T) {
	job := NewIdempotencyCleanupJob(&fakeCleaner{err: errors.New("boom")}, time.Hour, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewIdempotencyCleanupTask(0)
	require.NoError(t, err)
	require.EqualError(t, job.Handle(context.Background(), task), "boom")

	err = job.Handle(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, []byte(`{"retention":"soon"}`)))
	require.ErrorIs(t, err, asynq.SkipRetry)

	var unconfigured *IdempotencyCleanupJob
	require.Error(t, unconfigured.Handle(context.Background(), task))
}
