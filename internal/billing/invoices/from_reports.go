package invoices

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/worklog/internal/billing/dailyreports"
)

// ItemsFromAggregates turns daily report aggregates into item inputs in report
// order: a labor line per report with labor cost, then one line per product
// and material usage.
func ItemsFromAggregates(aggregates []dailyreports.Aggregate) []ItemInput {
	var out []ItemInput
	for _, a := range aggregates {
		if a.LaborCost != 0 {
			amount := a.LaborCost
			out = append(out, ItemInput{
				Type:   ItemLabor,
				Name:   laborName(a),
				Amount: &amount,
			})
		}
		for _, u := range a.Products {
			in := usageInput(ItemProduct, u)
			id := u.ItemID
			in.SourceProductID = &id
			out = append(out, in)
		}
		for _, u := range a.Materials {
			in := usageInput(ItemMaterial, u)
			id := u.ItemID
			in.SourceMaterialID = &id
			out = append(out, in)
		}
	}
	return out
}

func laborName(a dailyreports.Aggregate) string {
	parts := []string{a.ReportDate.Format("2006-01-02")}
	if site := strings.TrimSpace(a.SiteName); site != "" {
		parts = append(parts, site)
	}
	parts = append(parts, "labor")
	return strings.Join(parts, " ")
}

func usageInput(t ItemType, u dailyreports.Usage) ItemInput {
	price := u.UnitPrice
	in := ItemInput{
		Type:      t,
		Name:      u.Name,
		Quantity:  decimal.NewNullDecimal(u.Quantity),
		UnitPrice: &price,
	}
	if u.Unit != "" {
		unit := u.Unit
		in.Unit = &unit
	}
	return in
}
