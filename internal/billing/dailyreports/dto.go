package dailyreports

import (
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type listQuery struct {
	CustomerID       string `json:"customer_id" validate:"required,number"`
	SiteID           string `json:"site_id" validate:"omitempty,number"`
	From             string `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To               string `json:"to" validate:"omitempty,datetime=2006-01-02"`
	ExcludeInvoiceID string `json:"exclude_invoice_id" validate:"omitempty,number"`
	Page             string `json:"page" validate:"omitempty,number"`
	PerPage          string `json:"per_page" validate:"omitempty,number"`
}

func parseListQuery(values url.Values) listQuery {
	return listQuery{
		CustomerID:       values.Get("customer_id"),
		SiteID:           values.Get("site_id"),
		From:             values.Get("from"),
		To:               values.Get("to"),
		ExcludeInvoiceID: values.Get("exclude_invoice_id"),
		Page:             values.Get("page"),
		PerPage:          values.Get("per_page"),
	}
}

// toFilter assumes the query already passed validation.
func (q listQuery) toFilter() Filter {
	f := Filter{CustomerID: parseInt(q.CustomerID)}
	if q.SiteID != "" {
		v := parseInt(q.SiteID)
		f.SiteID = &v
	}
	if q.ExcludeInvoiceID != "" {
		v := parseInt(q.ExcludeInvoiceID)
		f.ExcludeInvoiceID = &v
	}
	if q.From != "" {
		t, _ := time.Parse(dateLayout, q.From)
		f.From = &t
	}
	if q.To != "" {
		t, _ := time.Parse(dateLayout, q.To)
		f.To = &t
	}
	f.Page = int(parseInt(q.Page))
	f.PerPage = int(parseInt(q.PerPage))
	return f
}

func parseInt(raw string) int64 {
	v, _ := strconv.ParseInt(raw, 10, 64)
	return v
}

type usageResponse struct {
	ItemID    int64           `json:"item_id"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit"`
	UnitPrice int64           `json:"unit_price"`
	Amount    int64           `json:"amount"`
}

type aggregateResponse struct {
	ReportID    int64           `json:"daily_report_id"`
	ReportDate  string          `json:"report_date"`
	SiteID      *int64          `json:"site_id,omitempty"`
	SiteName    string          `json:"site_name"`
	Summary     string          `json:"summary"`
	LaborCost   int64           `json:"labor_cost"`
	Products    []usageResponse `json:"products"`
	Materials   []usageResponse `json:"materials"`
	TotalAmount int64           `json:"total_amount"`
}

func newAggregateResponse(a Aggregate) aggregateResponse {
	return aggregateResponse{
		ReportID:    a.ReportID,
		ReportDate:  a.ReportDate.Format(dateLayout),
		SiteID:      a.SiteID,
		SiteName:    a.SiteName,
		Summary:     a.Summary,
		LaborCost:   a.LaborCost,
		Products:    newUsageResponses(a.Products),
		Materials:   newUsageResponses(a.Materials),
		TotalAmount: a.TotalAmount,
	}
}

func newUsageResponses(list []Usage) []usageResponse {
	out := make([]usageResponse, len(list))
	for i, u := range list {
		out[i] = usageResponse{ItemID: u.ItemID, Name: u.Name, Quantity: u.Quantity, Unit: u.Unit, UnitPrice: u.UnitPrice, Amount: u.Amount}
	}
	return out
}
