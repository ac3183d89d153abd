package invoices

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/worklog/internal/billing/money"
)

func TestComputeTotalsIsDeterministic(t *testing.T) {
	items, err := BuildItems([]ItemInput{
		{Type: ItemHeader, Name: "Week 12"},
		{Type: ItemProduct, Name: "Cable", Quantity: qty("3"), UnitPrice: i64(333)},
	})
	require.NoError(t, err)
	rate := decimal.RequireFromString("10")

	first := ComputeTotals(items, rate, money.RoundingFloor)
	second := ComputeTotals(items, rate, money.RoundingFloor)
	assert.Equal(t, first, second)
	assert.Equal(t, Totals{Subtotal: 999, TaxAmount: 99, TotalAmount: 1098}, first)

	ceil := ComputeTotals(items, rate, money.RoundingCeil)
	assert.Equal(t, int64(100), ceil.TaxAmount)
	assert.Equal(t, int64(1099), ceil.TotalAmount)
}

func TestComputeTotalsEmpty(t *testing.T) {
	totals := ComputeTotals(nil, decimal.RequireFromString("8"), money.RoundingRound)
	assert.Equal(t, Totals{}, totals)
}

func TestValidateTaxRate(t *testing.T) {
	cases := []struct {
		rate  string
		valid bool
	}{
		{"0", true},
		{"8", true},
		{"8.25", true},
		{"100", true},
		{"100.01", false},
		{"-1", false},
		{"8.125", false},
	}
	for _, tc := range cases {
		t.Run(tc.rate, func(t *testing.T) {
			verr := &ValidationError{}
			validateTaxRate(verr, decimal.RequireFromString(tc.rate))
			if tc.valid {
				assert.NoError(t, verr.orNil())
				return
			}
			require.Error(t, verr.orNil())
			assert.Equal(t, "tax_rate", verr.Fields[0].Field)
		})
	}
}
