package invoices

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/worklog/internal/platform/db"
	"github.com/odyssey-erp/worklog/internal/shared"
)

// Unique constraints that back invoice numbering.
const (
	constraintTenantNumber   = "invoices_tenant_number_key"
	constraintTenantSequence = "invoices_tenant_sequence_key"
)

// ErrBankAccountNotFound indicates the referenced bank account is unknown to the tenant.
var ErrBankAccountNotFound = fmt.Errorf("bank account %w", shared.ErrNotFound)

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Repository provides PostgreSQL backed persistence for invoices.
type Repository struct {
	pool *pgxpool.Pool
	db   dbtx
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, db: pool}
}

// WithTx runs fn inside a RepeatableRead transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &Repository{pool: r.pool, db: tx})
	})
}

const invoiceColumns = `id, tenant_id, customer_id, customer_name, site_id, bank_account_id,
	invoice_number, invoice_sequence, status, billing_date, issued_at, title,
	delivery_date, delivery_place, transaction_method, valid_until, note,
	tax_rate::text, subtotal, tax_amount, total_amount, created_at, updated_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	var status, taxRate string
	err := row.Scan(
		&inv.ID, &inv.TenantID, &inv.CustomerID, &inv.CustomerName, &inv.SiteID, &inv.BankAccountID,
		&inv.Number, &inv.Sequence, &status, &inv.BillingDate, &inv.IssuedAt, &inv.Title,
		&inv.DeliveryDate, &inv.DeliveryPlace, &inv.TransactionMethod, &inv.ValidUntil, &inv.Note,
		&taxRate, &inv.Subtotal, &inv.TaxAmount, &inv.TotalAmount, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, ErrNotFound
		}
		return Invoice{}, err
	}
	inv.Status = Status(status)
	inv.TaxRate, err = decimal.NewFromString(taxRate)
	if err != nil {
		return Invoice{}, fmt.Errorf("invoices: decode tax rate: %w", err)
	}
	return inv, nil
}

// Get loads an invoice owned by the tenant.
func (r *Repository) Get(ctx context.Context, tenantID, id int64) (Invoice, error) {
	row := r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	return scanInvoice(row)
}

// GetForUpdate loads an invoice and locks its row until the transaction ends.
func (r *Repository) GetForUpdate(ctx context.Context, tenantID, id int64) (Invoice, error) {
	row := r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, tenantID, id)
	return scanInvoice(row)
}

// List returns a filtered page of invoices and the unpaged total.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Invoice, int, error) {
	conditions := []string{"tenant_id = $1"}
	args := []any{filter.TenantID}
	argPos := 2

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*filter.Status))
		argPos++
	}
	if filter.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, *filter.CustomerID)
		argPos++
	}
	if filter.BillingDateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("billing_date >= $%d", argPos))
		args = append(args, *filter.BillingDateFrom)
		argPos++
	}
	if filter.BillingDateTo != nil {
		conditions = append(conditions, fmt.Sprintf("billing_date <= $%d", argPos))
		args = append(args, *filter.BillingDateTo)
		argPos++
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM invoices WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE %s ORDER BY billing_date DESC, id DESC LIMIT $%d OFFSET $%d`,
		invoiceColumns, where, argPos, argPos+1)
	args = append(args, filter.PerPage, shared.Offset(filter.Page, filter.PerPage))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}

// CreateInvoice inserts an invoice header and returns its id.
func (r *Repository) CreateInvoice(ctx context.Context, inv Invoice) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO invoices (
			tenant_id, customer_id, customer_name, site_id, bank_account_id, status,
			billing_date, title, delivery_date, delivery_place, transaction_method,
			valid_until, note, tax_rate, subtotal, tax_amount, total_amount, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14::numeric, $15, $16, $17, NOW(), NOW())
		RETURNING id`,
		inv.TenantID, inv.CustomerID, inv.CustomerName, inv.SiteID, inv.BankAccountID, string(inv.Status),
		inv.BillingDate, inv.Title, inv.DeliveryDate, inv.DeliveryPlace, inv.TransactionMethod,
		inv.ValidUntil, inv.Note, inv.TaxRate.String(), inv.Subtotal, inv.TaxAmount, inv.TotalAmount,
	).Scan(&id)
	return id, err
}

// UpdateInvoice persists editable fields and totals.
func (r *Repository) UpdateInvoice(ctx context.Context, inv Invoice) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE invoices SET
			customer_id = $3, customer_name = $4, site_id = $5, bank_account_id = $6,
			billing_date = $7, title = $8, delivery_date = $9, delivery_place = $10,
			transaction_method = $11, valid_until = $12, note = $13, tax_rate = $14::numeric,
			subtotal = $15, tax_amount = $16, total_amount = $17, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2`,
		inv.TenantID, inv.ID,
		inv.CustomerID, inv.CustomerName, inv.SiteID, inv.BankAccountID,
		inv.BillingDate, inv.Title, inv.DeliveryDate, inv.DeliveryPlace,
		inv.TransactionMethod, inv.ValidUntil, inv.Note, inv.TaxRate.String(),
		inv.Subtotal, inv.TaxAmount, inv.TotalAmount,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// NextSequence increments the tenant counter and returns the reserved value.
// The counter never falls behind the highest issued sequence.
func (r *Repository) NextSequence(ctx context.Context, tenantID int64) (int64, error) {
	var next int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO invoice_sequences (tenant_id, last_value, updated_at)
		VALUES ($1, (SELECT COALESCE(MAX(invoice_sequence), 0) + 1 FROM invoices WHERE tenant_id = $1), NOW())
		ON CONFLICT (tenant_id) DO UPDATE
			SET last_value = GREATEST(invoice_sequences.last_value, EXCLUDED.last_value - 1) + 1, updated_at = NOW()
		RETURNING last_value`, tenantID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("reserve invoice sequence: %w", err)
	}
	return next, nil
}

// MarkIssued persists the issued state together with number and totals.
func (r *Repository) MarkIssued(ctx context.Context, inv Invoice) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE invoices SET
			status = $3, invoice_number = $4, invoice_sequence = $5, issued_at = $6,
			subtotal = $7, tax_amount = $8, total_amount = $9, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND status = 'draft'`,
		inv.TenantID, inv.ID, string(StatusIssued), inv.Number, inv.Sequence, inv.IssuedAt,
		inv.Subtotal, inv.TaxAmount, inv.TotalAmount,
	)
	if err != nil {
		if db.IsUniqueViolation(err, constraintTenantNumber, constraintTenantSequence) {
			return fmt.Errorf("%w: %v", ErrSequencingConflict, err)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkCanceled moves the invoice to canceled, keeping number and issue time.
func (r *Repository) MarkCanceled(ctx context.Context, tenantID, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE invoices SET status = $3, updated_at = NOW() WHERE tenant_id = $1 AND id = $2`,
		tenantID, id, string(StatusCanceled))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const itemColumns = `id, invoice_id, item_type, name, quantity::text, unit, unit_price, amount,
	sort_order, source_product_id, source_material_id`

// ListItems returns the items of an invoice in sort order.
func (r *Repository) ListItems(ctx context.Context, invoiceID int64) ([]Item, error) {
	rows, err := r.db.Query(ctx, `SELECT `+itemColumns+` FROM invoice_items WHERE invoice_id = $1 ORDER BY sort_order, id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		var itemType string
		var quantity *string
		if err := rows.Scan(
			&item.ID, &item.InvoiceID, &itemType, &item.Name, &quantity, &item.Unit, &item.UnitPrice, &item.Amount,
			&item.SortOrder, &item.SourceProductID, &item.SourceMaterialID,
		); err != nil {
			return nil, err
		}
		item.Type = ItemType(itemType)
		if quantity != nil {
			q, err := decimal.NewFromString(*quantity)
			if err != nil {
				return nil, fmt.Errorf("invoices: decode quantity: %w", err)
			}
			item.Quantity = decimal.NewNullDecimal(q)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ApplyItemChanges writes a reconciled item diff in one round trip.
func (r *Repository) ApplyItemChanges(ctx context.Context, invoiceID int64, changes ItemChanges) error {
	if changes.Empty() {
		return nil
	}
	batch := &pgx.Batch{}
	if len(changes.Deletes) > 0 {
		batch.Queue(`DELETE FROM invoice_items WHERE invoice_id = $1 AND id = ANY($2)`, invoiceID, changes.Deletes)
	}
	for _, item := range changes.Updates {
		batch.Queue(`
			UPDATE invoice_items SET
				item_type = $3, name = $4, quantity = $5::numeric, unit = $6, unit_price = $7, amount = $8,
				sort_order = $9, source_product_id = $10, source_material_id = $11, updated_at = NOW()
			WHERE invoice_id = $1 AND id = $2`,
			invoiceID, item.ID, string(item.Type), item.Name, quantityArg(item.Quantity), item.Unit, item.UnitPrice, item.Amount,
			item.SortOrder, item.SourceProductID, item.SourceMaterialID)
	}
	for _, item := range changes.Creates {
		batch.Queue(`
			INSERT INTO invoice_items (
				invoice_id, item_type, name, quantity, unit, unit_price, amount,
				sort_order, source_product_id, source_material_id, created_at, updated_at
			) VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9, $10, NOW(), NOW())`,
			invoiceID, string(item.Type), item.Name, quantityArg(item.Quantity), item.Unit, item.UnitPrice, item.Amount,
			item.SortOrder, item.SourceProductID, item.SourceMaterialID)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	if len(changes.Deletes) > 0 {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("delete invoice items: %w", err)
		}
	}
	for _, item := range changes.Updates {
		tag, err := results.Exec()
		if err != nil {
			return fmt.Errorf("update invoice item %d: %w", item.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: id %d", ErrItemNotFound, item.ID)
		}
	}
	for range changes.Creates {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert invoice item: %w", err)
		}
	}
	return results.Close()
}

func quantityArg(q decimal.NullDecimal) *string {
	if !q.Valid {
		return nil
	}
	s := q.Decimal.String()
	return &s
}

// ListDailyReportIDs returns the daily reports linked to an invoice.
func (r *Repository) ListDailyReportIDs(ctx context.Context, invoiceID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT daily_report_id FROM invoice_daily_reports WHERE invoice_id = $1 ORDER BY daily_report_id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice daily reports: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// ReplaceDailyReports swaps the linked daily reports of an invoice. Every id
// must name a live daily report of the tenant.
func (r *Repository) ReplaceDailyReports(ctx context.Context, tenantID, invoiceID int64, reportIDs []int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM invoice_daily_reports WHERE invoice_id = $1`, invoiceID); err != nil {
		return fmt.Errorf("clear invoice daily reports: %w", err)
	}
	if len(reportIDs) == 0 {
		return nil
	}
	tag, err := r.db.Exec(ctx, `
		INSERT INTO invoice_daily_reports (invoice_id, daily_report_id, created_at)
		SELECT $1, dr.id, NOW() FROM daily_reports dr
		WHERE dr.tenant_id = $2 AND dr.id = ANY($3) AND dr.discarded_at IS NULL`,
		invoiceID, tenantID, reportIDs)
	if err != nil {
		return fmt.Errorf("link invoice daily reports: %w", err)
	}
	if int(tag.RowsAffected()) != len(reportIDs) {
		return ErrDailyReportNotFound
	}
	return nil
}

// GetBankAccount loads the display fields of a tenant bank account.
func (r *Repository) GetBankAccount(ctx context.Context, tenantID, id int64) (BankAccount, error) {
	var acc BankAccount
	err := r.db.QueryRow(ctx, `
		SELECT id, bank_name, branch_name, account_type, account_number, account_holder
		FROM bank_accounts WHERE tenant_id = $1 AND id = $2 AND discarded_at IS NULL`, tenantID, id).
		Scan(&acc.ID, &acc.BankName, &acc.BranchName, &acc.AccountType, &acc.AccountNumber, &acc.AccountHolder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BankAccount{}, ErrBankAccountNotFound
		}
		return BankAccount{}, err
	}
	return acc, nil
}

// ClaimIdempotencyKey records a request key; a repeat of the key fails.
func (r *Repository) ClaimIdempotencyKey(ctx context.Context, tenantID int64, key, module string) error {
	return shared.NewIdempotencyStore(r.db).CheckAndInsert(ctx, tenantID, key, module)
}

// RecordAudit writes an audit row on the current connection or transaction.
func (r *Repository) RecordAudit(ctx context.Context, log shared.AuditLog) error {
	return shared.NewAuditLogger(r.db).Record(ctx, log)
}

// IssuedNumbers returns every assigned invoice number of the tenant in sequence order.
func (r *Repository) IssuedNumbers(ctx context.Context, tenantID int64) ([]IssuedNumber, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, invoice_number, invoice_sequence FROM invoices
		WHERE tenant_id = $1 AND invoice_number IS NOT NULL
		ORDER BY invoice_sequence, id`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list issued numbers: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (IssuedNumber, error) {
		var n IssuedNumber
		err := row.Scan(&n.InvoiceID, &n.Number, &n.Sequence)
		return n, err
	})
}

// SequenceCounter returns the tenant counter value, zero when never used.
func (r *Repository) SequenceCounter(ctx context.Context, tenantID int64) (int64, error) {
	var last int64
	err := r.db.QueryRow(ctx, `SELECT last_value FROM invoice_sequences WHERE tenant_id = $1`, tenantID).Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return last, err
}
