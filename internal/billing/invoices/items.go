package invoices

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/worklog/internal/billing/money"
	"github.com/odyssey-erp/worklog/internal/shared"
)

// ItemType is the billing category of an invoice line.
type ItemType string

const (
	ItemHeader   ItemType = "header"
	ItemProduct  ItemType = "product"
	ItemMaterial ItemType = "material"
	ItemLabor    ItemType = "labor"
	ItemOther    ItemType = "other"
)

// ErrItemNotFound indicates an incoming item id that is not on the invoice.
var ErrItemNotFound = fmt.Errorf("invoice item %w", shared.ErrNotFound)

// amountRule decides how an item's amount is obtained.
type amountRule int

const (
	// amountNone clears quantity, unit, price and amount.
	amountNone amountRule = iota
	// amountDerived is quantity × unit price when both are present.
	amountDerived
	// amountEntered takes the amount supplied by the caller.
	amountEntered
)

var itemRules = map[ItemType]amountRule{
	ItemHeader:   amountNone,
	ItemProduct:  amountDerived,
	ItemMaterial: amountDerived,
	ItemOther:    amountDerived,
	ItemLabor:    amountEntered,
}

// ItemTypes lists every accepted item type.
func ItemTypes() []ItemType {
	return []ItemType{ItemHeader, ItemProduct, ItemMaterial, ItemLabor, ItemOther}
}

// IsValid reports whether t is a known item type.
func (t ItemType) IsValid() bool {
	_, ok := itemRules[t]
	return ok
}

// ItemInput is one entry of an item list submitted by the caller. ID refers to
// an item already on the invoice; nil creates a new item.
type ItemInput struct {
	ID               *int64
	Type             ItemType
	Name             string
	Quantity         decimal.NullDecimal
	Unit             *string
	UnitPrice        *int64
	Amount           *int64
	SourceProductID  *int64
	SourceMaterialID *int64
}

// BuildItems validates inputs and normalizes them into items in input order.
// Every failing field is reported; no item is returned when any fails.
func BuildItems(inputs []ItemInput) ([]Item, error) {
	verr := &ValidationError{}
	items := make([]Item, 0, len(inputs))
	for i, in := range inputs {
		prefix := fmt.Sprintf("items[%d].", i)
		rule, ok := itemRules[in.Type]
		if !ok {
			verr.add(prefix+"item_type", fmt.Sprintf("must be one of %s", joinTypes()))
			continue
		}
		name := strings.TrimSpace(in.Name)
		if name == "" {
			verr.add(prefix+"name", "is required")
		}
		item := Item{
			Type:             in.Type,
			Name:             name,
			SortOrder:        i,
			SourceProductID:  in.SourceProductID,
			SourceMaterialID: in.SourceMaterialID,
		}
		if in.ID != nil {
			item.ID = *in.ID
		}
		if rule != amountNone {
			if in.Quantity.Valid && !in.Quantity.Decimal.IsPositive() {
				verr.add(prefix+"quantity", "must be greater than 0")
			}
			if in.UnitPrice != nil && *in.UnitPrice < 0 {
				verr.add(prefix+"unit_price", "must be greater than or equal to 0")
			}
			item.Quantity = in.Quantity
			item.Unit = in.Unit
			item.UnitPrice = in.UnitPrice
		}
		switch rule {
		case amountDerived:
			item.Amount = deriveAmount(item.Quantity, item.UnitPrice)
		case amountEntered:
			item.Amount = in.Amount
		}
		items = append(items, item)
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return items, nil
}

func deriveAmount(quantity decimal.NullDecimal, unitPrice *int64) *int64 {
	if !quantity.Valid || unitPrice == nil {
		return nil
	}
	amount := money.Extend(quantity.Decimal, *unitPrice)
	return &amount
}

func joinTypes() string {
	types := ItemTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// Subtotal sums the amounts of all non-header items. Items without an amount
// contribute nothing.
func Subtotal(items []Item) int64 {
	var total int64
	for _, item := range items {
		if item.Type == ItemHeader || item.Amount == nil {
			continue
		}
		total += *item.Amount
	}
	return total
}

// HasBillableItem reports whether any non-header item carries an amount.
func HasBillableItem(items []Item) bool {
	for _, item := range items {
		if item.Type != ItemHeader && item.Amount != nil {
			return true
		}
	}
	return false
}

// ItemChanges is the storage-independent diff between two item sets.
type ItemChanges struct {
	Creates []Item
	Updates []Item
	Deletes []int64
}

// Empty reports whether applying the changes would be a no-op.
func (c ItemChanges) Empty() bool {
	return len(c.Creates) == 0 && len(c.Updates) == 0 && len(c.Deletes) == 0
}

// Reconcile diffs the stored items of an invoice against a replacement set.
// Incoming items with an id update the matching stored item, items without an
// id are created and stored items absent from incoming are deleted.
func Reconcile(existing, incoming []Item) (ItemChanges, error) {
	stored := make(map[int64]Item, len(existing))
	for _, item := range existing {
		stored[item.ID] = item
	}
	seen := make(map[int64]struct{}, len(incoming))
	var changes ItemChanges
	for i, item := range incoming {
		if item.ID == 0 {
			changes.Creates = append(changes.Creates, item)
			continue
		}
		current, ok := stored[item.ID]
		if !ok {
			return ItemChanges{}, fmt.Errorf("%w: id %d", ErrItemNotFound, item.ID)
		}
		if _, dup := seen[item.ID]; dup {
			verr := &ValidationError{}
			verr.add(fmt.Sprintf("items[%d].id", i), "appears more than once")
			return ItemChanges{}, verr
		}
		seen[item.ID] = struct{}{}
		item.InvoiceID = current.InvoiceID
		if !sameItem(current, item) {
			changes.Updates = append(changes.Updates, item)
		}
	}
	for _, item := range existing {
		if _, ok := seen[item.ID]; !ok {
			changes.Deletes = append(changes.Deletes, item.ID)
		}
	}
	return changes, nil
}

// Apply returns the item set that results from applying changes onto existing.
// Created items keep a zero id until storage assigns one.
func (c ItemChanges) Apply(existing []Item) []Item {
	deleted := make(map[int64]struct{}, len(c.Deletes))
	for _, id := range c.Deletes {
		deleted[id] = struct{}{}
	}
	updated := make(map[int64]Item, len(c.Updates))
	for _, item := range c.Updates {
		updated[item.ID] = item
	}
	out := make([]Item, 0, len(existing)+len(c.Creates))
	for _, item := range existing {
		if _, ok := deleted[item.ID]; ok {
			continue
		}
		if u, ok := updated[item.ID]; ok {
			item = u
		}
		out = append(out, item)
	}
	out = append(out, c.Creates...)
	sortItems(out)
	return out
}

func sameItem(a, b Item) bool {
	return a.Type == b.Type &&
		a.Name == b.Name &&
		a.SortOrder == b.SortOrder &&
		a.Quantity.Valid == b.Quantity.Valid &&
		(!a.Quantity.Valid || a.Quantity.Decimal.Equal(b.Quantity.Decimal)) &&
		equalString(a.Unit, b.Unit) &&
		equalInt(a.UnitPrice, b.UnitPrice) &&
		equalInt(a.Amount, b.Amount) &&
		equalInt(a.SourceProductID, b.SourceProductID) &&
		equalInt(a.SourceMaterialID, b.SourceMaterialID)
}

func equalInt(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].SortOrder < items[j].SortOrder
	})
}
