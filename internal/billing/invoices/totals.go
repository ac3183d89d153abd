package invoices

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/worklog/internal/billing/money"
)

var maxTaxRate = decimal.NewFromInt(100)

// Totals are the derived financial fields of an invoice.
type Totals struct {
	Subtotal    int64
	TaxAmount   int64
	TotalAmount int64
}

// ComputeTotals derives subtotal, tax and total from an item set. The result
// depends only on its inputs.
func ComputeTotals(items []Item, taxRate decimal.Decimal, policy money.RoundingPolicy) Totals {
	subtotal := Subtotal(items)
	tax := money.Tax(subtotal, taxRate, policy)
	return Totals{Subtotal: subtotal, TaxAmount: tax, TotalAmount: subtotal + tax}
}

func validateTaxRate(verr *ValidationError, rate decimal.Decimal) {
	if rate.IsNegative() || rate.GreaterThan(maxTaxRate) {
		verr.add("tax_rate", "must be between 0 and 100")
		return
	}
	if !rate.Equal(rate.Truncate(2)) {
		verr.add("tax_rate", "must have at most 2 decimal places")
	}
}
