package dailyreports

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/worklog/internal/shared"
)

// Repository reads daily reports written by the work-entry pipeline.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListForInvoice returns a filtered page of daily reports with usage rows.
func (r *Repository) ListForInvoice(ctx context.Context, filter Filter) ([]Aggregate, int, error) {
	conditions := []string{"dr.tenant_id = $1", "dr.customer_id = $2", "dr.discarded_at IS NULL"}
	args := []any{filter.TenantID, filter.CustomerID}
	argPos := 3

	if filter.SiteID != nil {
		conditions = append(conditions, fmt.Sprintf("dr.site_id = $%d", argPos))
		args = append(args, *filter.SiteID)
		argPos++
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("dr.report_date >= $%d", argPos))
		args = append(args, *filter.From)
		argPos++
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("dr.report_date <= $%d", argPos))
		args = append(args, *filter.To)
		argPos++
	}
	if len(filter.ReportIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("dr.id = ANY($%d)", argPos))
		args = append(args, filter.ReportIDs)
		argPos++
	}
	if filter.ExcludeInvoiceID != nil {
		conditions = append(conditions, fmt.Sprintf(`NOT EXISTS (
			SELECT 1 FROM invoice_daily_reports idr
			WHERE idr.daily_report_id = dr.id AND idr.invoice_id = $%d)`, argPos))
		args = append(args, *filter.ExcludeInvoiceID)
		argPos++
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM daily_reports dr WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count daily reports: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT dr.id, dr.report_date, dr.site_id, COALESCE(s.name, ''), dr.summary, dr.labor_cost
		FROM daily_reports dr
		LEFT JOIN sites s ON s.id = dr.site_id
		WHERE %s
		ORDER BY dr.report_date DESC, dr.id DESC
		LIMIT $%d OFFSET $%d`, where, argPos, argPos+1)
	args = append(args, filter.PerPage, shared.Offset(filter.Page, filter.PerPage))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list daily reports: %w", err)
	}
	aggregates, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Aggregate, error) {
		var a Aggregate
		err := row.Scan(&a.ReportID, &a.ReportDate, &a.SiteID, &a.SiteName, &a.Summary, &a.LaborCost)
		return a, err
	})
	if err != nil {
		return nil, 0, err
	}
	if len(aggregates) == 0 {
		return aggregates, total, nil
	}

	ids := make([]int64, len(aggregates))
	index := make(map[int64]int, len(aggregates))
	for i, a := range aggregates {
		ids[i] = a.ReportID
		index[a.ReportID] = i
	}
	products, err := r.usages(ctx, `
		SELECT daily_report_id, product_id, product_name, quantity::text, unit, unit_price
		FROM daily_report_products WHERE daily_report_id = ANY($1) ORDER BY daily_report_id, id`, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("load product usage: %w", err)
	}
	materials, err := r.usages(ctx, `
		SELECT daily_report_id, material_id, material_name, quantity::text, unit, unit_price
		FROM daily_report_materials WHERE daily_report_id = ANY($1) ORDER BY daily_report_id, id`, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("load material usage: %w", err)
	}
	for reportID, list := range products {
		aggregates[index[reportID]].Products = list
	}
	for reportID, list := range materials {
		aggregates[index[reportID]].Materials = list
	}
	return aggregates, total, nil
}

func (r *Repository) usages(ctx context.Context, query string, ids []int64) (map[int64][]Usage, error) {
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]Usage)
	for rows.Next() {
		var reportID int64
		var u Usage
		var quantity string
		if err := rows.Scan(&reportID, &u.ItemID, &u.Name, &quantity, &u.Unit, &u.UnitPrice); err != nil {
			return nil, err
		}
		u.Quantity, err = decimal.NewFromString(quantity)
		if err != nil {
			return nil, fmt.Errorf("decode usage quantity: %w", err)
		}
		out[reportID] = append(out[reportID], u)
	}
	return out, rows.Err()
}
