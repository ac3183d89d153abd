package invoices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/odyssey-erp/worklog/internal/billing/dailyreports"
	"github.com/odyssey-erp/worklog/internal/billing/money"
	"github.com/odyssey-erp/worklog/internal/observability"
	"github.com/odyssey-erp/worklog/internal/platform/db"
	"github.com/odyssey-erp/worklog/internal/shared"
)

const (
	auditEntity = "invoice"

	idempotencyCreate = "invoices.create"
	idempotencyCopy   = "invoices.copy"

	defaultMaxAttempts = 3
)

// RepositoryPort captures the reads the service performs outside transactions.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, tenantID, id int64) (Invoice, error)
	ListItems(ctx context.Context, invoiceID int64) ([]Item, error)
	ListDailyReportIDs(ctx context.Context, invoiceID int64) ([]int64, error)
	List(ctx context.Context, filter ListFilter) ([]Invoice, int, error)
	GetBankAccount(ctx context.Context, tenantID, id int64) (BankAccount, error)
}

// TxRepository is the transactional view used by every mutation.
type TxRepository interface {
	Sequencer
	GetForUpdate(ctx context.Context, tenantID, id int64) (Invoice, error)
	ListItems(ctx context.Context, invoiceID int64) ([]Item, error)
	ListDailyReportIDs(ctx context.Context, invoiceID int64) ([]int64, error)
	CreateInvoice(ctx context.Context, inv Invoice) (int64, error)
	UpdateInvoice(ctx context.Context, inv Invoice) error
	ApplyItemChanges(ctx context.Context, invoiceID int64, changes ItemChanges) error
	MarkIssued(ctx context.Context, inv Invoice) error
	MarkCanceled(ctx context.Context, tenantID, id int64) error
	ReplaceDailyReports(ctx context.Context, tenantID, invoiceID int64, reportIDs []int64) error
	ClaimIdempotencyKey(ctx context.Context, tenantID int64, key, module string) error
	RecordAudit(ctx context.Context, log shared.AuditLog) error
}

// RoundingPolicyProvider resolves the tax rounding policy of a tenant.
type RoundingPolicyProvider interface {
	RoundingPolicy(ctx context.Context, tenantID int64) (money.RoundingPolicy, error)
}

// AggregateSource computes billable daily report aggregates.
type AggregateSource interface {
	ForInvoice(ctx context.Context, caller shared.Caller, filter dailyreports.Filter) ([]dailyreports.Aggregate, shared.Pagination, error)
}

// ServiceConfig tunes the service.
type ServiceConfig struct {
	// MaxAttempts bounds how often a conflicting transaction is replayed.
	MaxAttempts int
	Clock       func() time.Time
}

// Service orchestrates the invoice lifecycle.
type Service struct {
	repo        RepositoryPort
	settings    RoundingPolicyProvider
	reports     AggregateSource
	notifier    Notifier
	metrics     *observability.BillingMetrics
	logger      *slog.Logger
	clock       func() time.Time
	maxAttempts int
}

// NewService constructs the invoice service. Every collaborator except repo
// is optional.
func NewService(repo RepositoryPort, settings RoundingPolicyProvider, reports AggregateSource, notifier Notifier, metrics *observability.BillingMetrics, logger *slog.Logger, cfg ServiceConfig) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	return &Service{
		repo:        repo,
		settings:    settings,
		reports:     reports,
		notifier:    notifier,
		metrics:     metrics,
		logger:      logger.With(slog.String("component", "invoices")),
		clock:       clock,
		maxAttempts: attempts,
	}
}

// Create stores a new draft invoice with its initial items.
func (s *Service) Create(ctx context.Context, caller shared.Caller, in CreateInput) (*Detail, error) {
	verr := &ValidationError{}
	if in.CustomerID <= 0 {
		verr.add("customer_id", "is required")
	}
	if in.BillingDate.IsZero() {
		verr.add("billing_date", "is required")
	}
	validateTaxRate(verr, in.TaxRate)
	items, err := BuildItems(in.Items)
	if err != nil {
		var itemErr *ValidationError
		if !errors.As(err, &itemErr) {
			return nil, err
		}
		verr.Fields = append(verr.Fields, itemErr.Fields...)
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	changes, err := Reconcile(nil, items)
	if err != nil {
		return nil, err
	}
	policy, err := s.roundingPolicy(ctx, caller.TenantID)
	if err != nil {
		return nil, err
	}

	inv := Invoice{
		TenantID:          caller.TenantID,
		CustomerID:        in.CustomerID,
		CustomerName:      in.CustomerName,
		SiteID:            in.SiteID,
		BankAccountID:     in.BankAccountID,
		Status:            StatusDraft,
		BillingDate:       dateOnly(in.BillingDate),
		Title:             in.Title,
		DeliveryDate:      in.DeliveryDate,
		DeliveryPlace:     in.DeliveryPlace,
		TransactionMethod: in.TransactionMethod,
		ValidUntil:        in.ValidUntil,
		Note:              in.Note,
		TaxRate:           in.TaxRate,
	}
	inv.ApplyTotals(ComputeTotals(items, inv.TaxRate, policy))

	var id int64
	err = s.runTx(ctx, "create", func(ctx context.Context, tx TxRepository) error {
		if in.IdempotencyKey != "" {
			if err := tx.ClaimIdempotencyKey(ctx, caller.TenantID, in.IdempotencyKey, idempotencyCreate); err != nil {
				return err
			}
		}
		newID, err := tx.CreateInvoice(ctx, inv)
		if err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		if err := tx.ApplyItemChanges(ctx, newID, changes); err != nil {
			return fmt.Errorf("create invoice items: %w", err)
		}
		id = newID
		return tx.RecordAudit(ctx, s.auditLog(caller, "invoice.create", newID, map[string]any{
			"customer_id": inv.CustomerID,
			"items":       len(items),
		}))
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveTransition("create")
	s.logger.Info("invoice draft created", slog.Int64("tenant_id", caller.TenantID), slog.Int64("invoice_id", id))
	return s.Get(ctx, caller, id)
}

// Update applies a partial update and recomputes totals. Canceled invoices
// are read only.
func (s *Service) Update(ctx context.Context, caller shared.Caller, id int64, in UpdateInput) (*Detail, error) {
	var incoming []Item
	if in.Items != nil {
		built, err := BuildItems(*in.Items)
		if err != nil {
			return nil, s.rejectIfLocked(ctx, caller, id, err)
		}
		incoming = built
	}
	policy, err := s.roundingPolicy(ctx, caller.TenantID)
	if err != nil {
		return nil, err
	}

	err = s.runTx(ctx, "update", func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetForUpdate(ctx, caller.TenantID, id)
		if err != nil {
			return err
		}
		if !inv.Status.CanEdit() {
			return stateError(&inv, ErrCanceledReadOnly)
		}
		if err := applyUpdate(&inv, in); err != nil {
			return err
		}
		items, err := tx.ListItems(ctx, id)
		if err != nil {
			return err
		}
		var changes ItemChanges
		if in.Items != nil {
			changes, err = Reconcile(items, incoming)
			if err != nil {
				return err
			}
			items = changes.Apply(items)
		}
		inv.ApplyTotals(ComputeTotals(items, inv.TaxRate, policy))
		if err := tx.UpdateInvoice(ctx, inv); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		if !changes.Empty() {
			if err := tx.ApplyItemChanges(ctx, id, changes); err != nil {
				return fmt.Errorf("update invoice items: %w", err)
			}
		}
		return tx.RecordAudit(ctx, s.auditLog(caller, "invoice.update", id, map[string]any{
			"created": len(changes.Creates),
			"updated": len(changes.Updates),
			"deleted": len(changes.Deletes),
			"total":   inv.TotalAmount,
		}))
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveTransition("update")
	return s.Get(ctx, caller, id)
}

// ReplaceItems replaces the whole item list of an invoice.
func (s *Service) ReplaceItems(ctx context.Context, caller shared.Caller, id int64, items []ItemInput) (*Detail, error) {
	if items == nil {
		items = []ItemInput{}
	}
	return s.Update(ctx, caller, id, UpdateInput{Items: &items})
}

// LinkDailyReports replaces the set of daily reports billed by the invoice.
// Items are not touched.
func (s *Service) LinkDailyReports(ctx context.Context, caller shared.Caller, id int64, reportIDs []int64) (*Detail, error) {
	ids := uniqueIDs(reportIDs)
	err := s.runTx(ctx, "link_daily_reports", func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetForUpdate(ctx, caller.TenantID, id)
		if err != nil {
			return err
		}
		if !inv.Status.CanEdit() {
			return stateError(&inv, ErrCanceledReadOnly)
		}
		if err := tx.ReplaceDailyReports(ctx, caller.TenantID, id, ids); err != nil {
			return err
		}
		return tx.RecordAudit(ctx, s.auditLog(caller, "invoice.link_daily_reports", id, map[string]any{"daily_report_ids": ids}))
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, caller, id)
}

// UnlinkDailyReports removes every daily report link of the invoice.
func (s *Service) UnlinkDailyReports(ctx context.Context, caller shared.Caller, id int64) (*Detail, error) {
	return s.LinkDailyReports(ctx, caller, id, nil)
}

// ImportDailyReports links the given daily reports and appends their labor,
// product and material lines to the item list.
func (s *Service) ImportDailyReports(ctx context.Context, caller shared.Caller, id int64, reportIDs []int64) (*Detail, error) {
	if s.reports == nil {
		return nil, errors.New("invoices: daily report source not configured")
	}
	ids := uniqueIDs(reportIDs)
	if len(ids) == 0 || len(ids) > shared.MaxPerPage {
		verr := &ValidationError{}
		verr.add("daily_report_ids", fmt.Sprintf("must list between 1 and %d reports", shared.MaxPerPage))
		return nil, verr
	}
	inv, err := s.repo.Get(ctx, caller.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !inv.Status.CanEdit() {
		return nil, stateError(&inv, ErrCanceledReadOnly)
	}
	linked, err := s.repo.ListDailyReportIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := rejectLinked(linked, ids); err != nil {
		return nil, err
	}
	aggregates, _, err := s.reports.ForInvoice(ctx, caller, dailyreports.Filter{
		CustomerID: inv.CustomerID,
		ReportIDs:  ids,
		PerPage:    shared.MaxPerPage,
	})
	if err != nil {
		return nil, err
	}
	if len(aggregates) != len(ids) {
		return nil, ErrDailyReportNotFound
	}
	sort.SliceStable(aggregates, func(i, j int) bool {
		return aggregates[i].ReportDate.Before(aggregates[j].ReportDate)
	})
	imported, err := BuildItems(ItemsFromAggregates(aggregates))
	if err != nil {
		return nil, err
	}
	policy, err := s.roundingPolicy(ctx, caller.TenantID)
	if err != nil {
		return nil, err
	}

	err = s.runTx(ctx, "import_daily_reports", func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetForUpdate(ctx, caller.TenantID, id)
		if err != nil {
			return err
		}
		if !inv.Status.CanEdit() {
			return stateError(&inv, ErrCanceledReadOnly)
		}
		items, err := tx.ListItems(ctx, id)
		if err != nil {
			return err
		}
		linked, err := tx.ListDailyReportIDs(ctx, id)
		if err != nil {
			return err
		}
		if err := rejectLinked(linked, ids); err != nil {
			return err
		}
		creates := make([]Item, len(imported))
		for i, item := range imported {
			item.SortOrder = len(items) + i
			creates[i] = item
		}
		changes := ItemChanges{Creates: creates}
		inv.ApplyTotals(ComputeTotals(changes.Apply(items), inv.TaxRate, policy))
		if err := tx.UpdateInvoice(ctx, inv); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		if err := tx.ApplyItemChanges(ctx, id, changes); err != nil {
			return fmt.Errorf("import invoice items: %w", err)
		}
		if err := tx.ReplaceDailyReports(ctx, caller.TenantID, id, append(linked, ids...)); err != nil {
			return err
		}
		return tx.RecordAudit(ctx, s.auditLog(caller, "invoice.import_daily_reports", id, map[string]any{
			"daily_report_ids": ids,
			"items":            len(creates),
		}))
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveTransition("import_daily_reports")
	return s.Get(ctx, caller, id)
}

// Issue assigns the next invoice number of the tenant and moves the draft to
// issued. Number reservation and the status change commit atomically.
func (s *Service) Issue(ctx context.Context, caller shared.Caller, id int64) (*Detail, error) {
	policy, err := s.roundingPolicy(ctx, caller.TenantID)
	if err != nil {
		return nil, err
	}
	var issued Invoice
	err = s.runTx(ctx, "issue", func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetForUpdate(ctx, caller.TenantID, id)
		if err != nil {
			return err
		}
		switch inv.Status {
		case StatusDraft:
		case StatusIssued:
			return stateError(&inv, ErrAlreadyIssued)
		default:
			return stateError(&inv, ErrNotDraft)
		}
		items, err := tx.ListItems(ctx, id)
		if err != nil {
			return err
		}
		if !HasBillableItem(items) {
			return &StateError{InvoiceID: inv.ID, Status: inv.Status, Field: "total_amount", Err: ErrNoBillableItems}
		}
		totals := ComputeTotals(items, inv.TaxRate, policy)
		if totals.TotalAmount <= 0 {
			return &StateError{InvoiceID: inv.ID, Status: inv.Status, Field: "total_amount", Err: ErrZeroTotal}
		}

		now := s.clock()
		number, seq, err := assignNumber(ctx, tx, caller.TenantID, now)
		if err != nil {
			return err
		}
		inv.ApplyTotals(totals)
		inv.Status = StatusIssued
		inv.Number = &number
		inv.Sequence = &seq
		inv.IssuedAt = &now
		if err := tx.MarkIssued(ctx, inv); err != nil {
			return err
		}
		issued = inv
		return tx.RecordAudit(ctx, s.auditLog(caller, "invoice.issue", id, map[string]any{
			"invoice_number": number,
			"total":          inv.TotalAmount,
		}))
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveTransition("issue")
	s.logger.Info("invoice issued",
		slog.Int64("tenant_id", caller.TenantID),
		slog.Int64("invoice_id", id),
		slog.String("invoice_number", *issued.Number),
	)
	s.notifyIssued(ctx, issued)
	return s.Get(ctx, caller, id)
}

// Cancel moves a draft or issued invoice to canceled. Number and issue time
// of an issued invoice are retained.
func (s *Service) Cancel(ctx context.Context, caller shared.Caller, id int64) (*Detail, error) {
	err := s.runTx(ctx, "cancel", func(ctx context.Context, tx TxRepository) error {
		inv, err := tx.GetForUpdate(ctx, caller.TenantID, id)
		if err != nil {
			return err
		}
		if !inv.Status.CanCancel() {
			return stateError(&inv, ErrAlreadyCanceled)
		}
		if err := tx.MarkCanceled(ctx, caller.TenantID, id); err != nil {
			return err
		}
		meta := map[string]any{"previous_status": string(inv.Status)}
		if inv.Number != nil {
			meta["invoice_number"] = *inv.Number
		}
		return tx.RecordAudit(ctx, s.auditLog(caller, "invoice.cancel", id, meta))
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveTransition("cancel")
	s.logger.Info("invoice canceled", slog.Int64("tenant_id", caller.TenantID), slog.Int64("invoice_id", id))
	return s.Get(ctx, caller, id)
}

// Copy creates a new draft from an invoice in any status.
func (s *Service) Copy(ctx context.Context, caller shared.Caller, id int64, idempotencyKey string) (*Detail, error) {
	policy, err := s.roundingPolicy(ctx, caller.TenantID)
	if err != nil {
		return nil, err
	}
	var copyID int64
	err = s.runTx(ctx, "copy", func(ctx context.Context, tx TxRepository) error {
		if idempotencyKey != "" {
			if err := tx.ClaimIdempotencyKey(ctx, caller.TenantID, idempotencyKey, idempotencyCopy); err != nil {
				return err
			}
		}
		src, err := tx.GetForUpdate(ctx, caller.TenantID, id)
		if err != nil {
			return err
		}
		items, err := tx.ListItems(ctx, id)
		if err != nil {
			return err
		}
		dup, dupItems := Duplicate(src, items, s.clock())
		dup.ApplyTotals(ComputeTotals(dupItems, dup.TaxRate, policy))
		newID, err := tx.CreateInvoice(ctx, dup)
		if err != nil {
			return fmt.Errorf("copy invoice: %w", err)
		}
		if err := tx.ApplyItemChanges(ctx, newID, ItemChanges{Creates: dupItems}); err != nil {
			return fmt.Errorf("copy invoice items: %w", err)
		}
		copyID = newID
		return tx.RecordAudit(ctx, s.auditLog(caller, "invoice.copy", newID, map[string]any{"source_invoice_id": id}))
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveTransition("copy")
	s.logger.Info("invoice copied",
		slog.Int64("tenant_id", caller.TenantID),
		slog.Int64("source_invoice_id", id),
		slog.Int64("invoice_id", copyID),
	)
	return s.Get(ctx, caller, copyID)
}

// Get loads the full detail of an invoice.
func (s *Service) Get(ctx context.Context, caller shared.Caller, id int64) (*Detail, error) {
	inv, err := s.repo.Get(ctx, caller.TenantID, id)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	reportIDs, err := s.repo.ListDailyReportIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &Detail{Invoice: inv, Items: items, DailyReportIDs: reportIDs}
	if inv.BankAccountID != nil {
		account, err := s.repo.GetBankAccount(ctx, caller.TenantID, *inv.BankAccountID)
		switch {
		case err == nil:
			detail.BankAccount = &account
		case errors.Is(err, shared.ErrNotFound):
			s.logger.Warn("invoice bank account missing", slog.Int64("invoice_id", id), slog.Int64("bank_account_id", *inv.BankAccountID))
		default:
			return nil, err
		}
	}
	return detail, nil
}

// List returns a page of invoices, newest billing date first.
func (s *Service) List(ctx context.Context, caller shared.Caller, filter ListFilter) ([]Invoice, shared.Pagination, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		verr := &ValidationError{}
		verr.add("status", "must be one of draft, issued, canceled")
		return nil, shared.Pagination{}, verr
	}
	filter.TenantID = caller.TenantID
	filter.Page, filter.PerPage = shared.NormalizePage(filter.Page, filter.PerPage)
	invoices, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return invoices, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// runTx replays fn in a fresh transaction while it fails with a retryable
// conflict, up to the configured attempt budget.
func (s *Service) runTx(ctx context.Context, op string, fn func(context.Context, TxRepository) error) error {
	for attempt := 1; ; attempt++ {
		err := s.repo.WithTx(ctx, fn)
		if err == nil || !isRetryable(err) {
			return err
		}
		if attempt >= s.maxAttempts {
			s.metrics.ObserveExhausted(op)
			s.logger.Error("transaction conflict persisted", slog.String("op", op), slog.Int("attempts", attempt), slog.Any("error", err))
			return fmt.Errorf("%s: %w", op, ErrTryAgain)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.metrics.ObserveRetry(op)
		s.logger.Warn("retrying conflicting transaction", slog.String("op", op), slog.Int("attempt", attempt), slog.Any("error", err))
	}
}

func isRetryable(err error) bool {
	return errors.Is(err, ErrSequencingConflict) || db.IsSerializationFailure(err)
}

// rejectIfLocked keeps the edit lock ahead of input validation: a canceled
// invoice reports its state even when the submitted items are invalid.
func (s *Service) rejectIfLocked(ctx context.Context, caller shared.Caller, id int64, validationErr error) error {
	inv, err := s.repo.Get(ctx, caller.TenantID, id)
	if err != nil {
		return err
	}
	if !inv.Status.CanEdit() {
		return stateError(&inv, ErrCanceledReadOnly)
	}
	return validationErr
}

func (s *Service) roundingPolicy(ctx context.Context, tenantID int64) (money.RoundingPolicy, error) {
	if s.settings == nil {
		return money.DefaultRoundingPolicy, nil
	}
	policy, err := s.settings.RoundingPolicy(ctx, tenantID)
	if err != nil {
		return "", fmt.Errorf("load rounding policy: %w", err)
	}
	return policy.OrDefault(), nil
}

func (s *Service) notifyIssued(ctx context.Context, inv Invoice) {
	if s.notifier == nil {
		return
	}
	event := IssuedEvent{
		TenantID:     inv.TenantID,
		InvoiceID:    inv.ID,
		Number:       *inv.Number,
		CustomerName: inv.CustomerName,
		TotalAmount:  inv.TotalAmount,
		IssuedAt:     *inv.IssuedAt,
	}
	if err := s.notifier.InvoiceIssued(ctx, event); err != nil {
		s.logger.Warn("enqueue invoice issued notification", slog.Int64("invoice_id", inv.ID), slog.Any("error", err))
	}
}

func (s *Service) auditLog(caller shared.Caller, action string, id int64, meta map[string]any) shared.AuditLog {
	return shared.AuditLog{
		TenantID: caller.TenantID,
		ActorID:  caller.UserID,
		Action:   action,
		Entity:   auditEntity,
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
		At:       s.clock(),
	}
}

func applyUpdate(inv *Invoice, in UpdateInput) error {
	verr := &ValidationError{}
	if in.CustomerID != nil {
		if *in.CustomerID <= 0 {
			verr.add("customer_id", "is required")
		}
		inv.CustomerID = *in.CustomerID
	}
	if in.CustomerName != nil {
		inv.CustomerName = *in.CustomerName
	}
	switch {
	case in.ClearSite:
		inv.SiteID = nil
	case in.SiteID != nil:
		inv.SiteID = cloneInt(in.SiteID)
	}
	switch {
	case in.ClearBankAccount:
		inv.BankAccountID = nil
	case in.BankAccountID != nil:
		inv.BankAccountID = cloneInt(in.BankAccountID)
	}
	if in.BillingDate != nil {
		if in.BillingDate.IsZero() {
			verr.add("billing_date", "is required")
		}
		inv.BillingDate = dateOnly(*in.BillingDate)
	}
	if in.Title != nil {
		inv.Title = *in.Title
	}
	if in.DeliveryDate != nil {
		inv.DeliveryDate = in.DeliveryDate
	}
	if in.DeliveryPlace != nil {
		inv.DeliveryPlace = *in.DeliveryPlace
	}
	if in.TransactionMethod != nil {
		inv.TransactionMethod = *in.TransactionMethod
	}
	if in.ValidUntil != nil {
		inv.ValidUntil = in.ValidUntil
	}
	if in.Note != nil {
		inv.Note = *in.Note
	}
	if in.TaxRate != nil {
		validateTaxRate(verr, *in.TaxRate)
		inv.TaxRate = *in.TaxRate
	}
	return verr.orNil()
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// rejectLinked fails when any of ids is already billed by the invoice.
func rejectLinked(linked, ids []int64) error {
	dup := intersect(linked, ids)
	if len(dup) == 0 {
		return nil
	}
	verr := &ValidationError{}
	verr.add("daily_report_ids", fmt.Sprintf("already linked: %v", dup))
	return verr
}

func intersect(a, b []int64) []int64 {
	set := make(map[int64]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	var out []int64
	for _, id := range b {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
