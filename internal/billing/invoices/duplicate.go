package invoices

import "time"

// Duplicate builds a new draft from src and its items. Customer, site, title,
// tax rate and note carry over. Numbering, issuance, the bank account, delivery
// fields and daily report links do not. Items are deep copied without identities.
func Duplicate(src Invoice, items []Item, today time.Time) (Invoice, []Item) {
	dup := Invoice{
		TenantID:     src.TenantID,
		CustomerID:   src.CustomerID,
		CustomerName: src.CustomerName,
		SiteID:       cloneInt(src.SiteID),
		Status:       StatusDraft,
		BillingDate:  dateOnly(today),
		Title:        src.Title,
		Note:         src.Note,
		TaxRate:      src.TaxRate,
		Subtotal:     src.Subtotal,
		TaxAmount:    src.TaxAmount,
		TotalAmount:  src.TotalAmount,
	}
	copied := make([]Item, len(items))
	for i, item := range items {
		copied[i] = Item{
			Type:             item.Type,
			Name:             item.Name,
			Quantity:         item.Quantity,
			Unit:             cloneString(item.Unit),
			UnitPrice:        cloneInt(item.UnitPrice),
			Amount:           cloneInt(item.Amount),
			SortOrder:        item.SortOrder,
			SourceProductID:  cloneInt(item.SourceProductID),
			SourceMaterialID: cloneInt(item.SourceMaterialID),
		}
	}
	return dup, copied
}

func cloneInt(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
