// Package dailyreports computes per-report billable totals of worker daily
// reports for invoice construction. It only reads daily reports.
package dailyreports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/worklog/internal/billing/money"
)

// Usage is one product or material consumed on a daily report.
type Usage struct {
	ItemID    int64
	Name      string
	Quantity  decimal.Decimal
	Unit      string
	UnitPrice int64
	Amount    int64
}

// Aggregate holds the billable figures of one daily report.
type Aggregate struct {
	ReportID    int64
	ReportDate  time.Time
	SiteID      *int64
	SiteName    string
	Summary     string
	LaborCost   int64
	Products    []Usage
	Materials   []Usage
	TotalAmount int64
}

// Recalculate derives usage amounts and the report total. Each usage amount is
// truncated to a whole unit before summation.
func (a *Aggregate) Recalculate() {
	total := a.LaborCost
	for i := range a.Products {
		a.Products[i].Amount = money.Extend(a.Products[i].Quantity, a.Products[i].UnitPrice)
		total += a.Products[i].Amount
	}
	for i := range a.Materials {
		a.Materials[i].Amount = money.Extend(a.Materials[i].Quantity, a.Materials[i].UnitPrice)
		total += a.Materials[i].Amount
	}
	a.TotalAmount = total
}

// Filter selects daily reports for one customer of a tenant. A non-empty
// ReportIDs restricts the result to those reports.
type Filter struct {
	TenantID         int64
	CustomerID       int64
	SiteID           *int64
	From             *time.Time
	To               *time.Time
	ExcludeInvoiceID *int64
	ReportIDs        []int64
	Page             int
	PerPage          int
}
