package invoices

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuplicateResetsIssuance(t *testing.T) {
	number := "INV-2025-003"
	seq := int64(3)
	issuedAt := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)
	src := Invoice{
		ID:            7,
		TenantID:      2,
		CustomerID:    11,
		CustomerName:  "Acme",
		SiteID:        i64(5),
		BankAccountID: i64(8),
		Number:        &number,
		Sequence:      &seq,
		Status:        StatusIssued,
		BillingDate:   issuedAt,
		IssuedAt:      &issuedAt,
		Title:         "March works",
		Note:          "Thanks",
		TaxRate:       decimal.RequireFromString("8"),
		DeliveryPlace: "Yard",
	}
	items := []Item{
		{ID: 1, InvoiceID: 7, Type: ItemHeader, Name: "Week 1", SortOrder: 0},
		{ID: 2, InvoiceID: 7, Type: ItemProduct, Name: "Cable", Quantity: qty("2"), UnitPrice: i64(500), Amount: i64(1000), Unit: str("m"), SortOrder: 1, SourceProductID: i64(40)},
	}
	today := time.Date(2025, time.June, 9, 17, 45, 0, 0, time.FixedZone("JST", 9*3600))

	dup, dupItems := Duplicate(src, items, today)

	assert.Zero(t, dup.ID)
	assert.Equal(t, StatusDraft, dup.Status)
	assert.Nil(t, dup.Number)
	assert.Nil(t, dup.Sequence)
	assert.Nil(t, dup.IssuedAt)
	assert.Nil(t, dup.BankAccountID)
	assert.Empty(t, dup.DeliveryPlace)
	assert.Equal(t, time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC), dup.BillingDate)
	assert.Equal(t, src.CustomerID, dup.CustomerID)
	assert.Equal(t, src.CustomerName, dup.CustomerName)
	assert.Equal(t, src.Title, dup.Title)
	assert.Equal(t, src.Note, dup.Note)
	assert.True(t, src.TaxRate.Equal(dup.TaxRate))
	require.NotNil(t, dup.SiteID)
	assert.Equal(t, int64(5), *dup.SiteID)

	require.Len(t, dupItems, 2)
	for i, item := range dupItems {
		assert.Zero(t, item.ID)
		assert.Zero(t, item.InvoiceID)
		assert.Equal(t, items[i].Type, item.Type)
		assert.Equal(t, items[i].Name, item.Name)
		assert.Equal(t, items[i].SortOrder, item.SortOrder)
		assert.Equal(t, items[i].Amount, item.Amount)
	}

	*dupItems[1].Unit = "km"
	*dup.SiteID = 6
	assert.Equal(t, "m", *items[1].Unit)
	assert.Equal(t, int64(5), *src.SiteID)
}
