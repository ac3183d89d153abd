package invoices

import (
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type itemRequest struct {
	ID               *int64              `json:"id" validate:"omitempty,gt=0"`
	Type             string              `json:"item_type" validate:"required,oneof=header product material labor other"`
	Name             string              `json:"name" validate:"max=255"`
	Quantity         decimal.NullDecimal `json:"quantity"`
	Unit             *string             `json:"unit" validate:"omitempty,max=32"`
	UnitPrice        *int64              `json:"unit_price"`
	Amount           *int64              `json:"amount"`
	SourceProductID  *int64              `json:"source_product_id" validate:"omitempty,gt=0"`
	SourceMaterialID *int64              `json:"source_material_id" validate:"omitempty,gt=0"`
}

func toItemInputs(list []itemRequest) []ItemInput {
	out := make([]ItemInput, len(list))
	for i, item := range list {
		out[i] = ItemInput{
			ID:               item.ID,
			Type:             ItemType(item.Type),
			Name:             item.Name,
			Quantity:         item.Quantity,
			Unit:             item.Unit,
			UnitPrice:        item.UnitPrice,
			Amount:           item.Amount,
			SourceProductID:  item.SourceProductID,
			SourceMaterialID: item.SourceMaterialID,
		}
	}
	return out
}

type createRequest struct {
	CustomerID        int64           `json:"customer_id" validate:"required,gt=0"`
	CustomerName      string          `json:"customer_name" validate:"max=255"`
	SiteID            *int64          `json:"site_id" validate:"omitempty,gt=0"`
	BankAccountID     *int64          `json:"bank_account_id" validate:"omitempty,gt=0"`
	BillingDate       string          `json:"billing_date" validate:"required,datetime=2006-01-02"`
	Title             string          `json:"title" validate:"max=255"`
	DeliveryDate      *string         `json:"delivery_date" validate:"omitempty,datetime=2006-01-02"`
	DeliveryPlace     string          `json:"delivery_place" validate:"max=255"`
	TransactionMethod string          `json:"transaction_method" validate:"max=255"`
	ValidUntil        *string         `json:"valid_until" validate:"omitempty,datetime=2006-01-02"`
	Note              string          `json:"note" validate:"max=2000"`
	TaxRate           decimal.Decimal `json:"tax_rate"`
	Items             []itemRequest   `json:"items" validate:"dive"`
}

// toInput assumes the request already passed validation.
func (req createRequest) toInput(idempotencyKey string) CreateInput {
	billing, _ := time.Parse(dateLayout, req.BillingDate)
	return CreateInput{
		CustomerID:        req.CustomerID,
		CustomerName:      req.CustomerName,
		SiteID:            req.SiteID,
		BankAccountID:     req.BankAccountID,
		BillingDate:       billing,
		Title:             req.Title,
		DeliveryDate:      parseDate(req.DeliveryDate),
		DeliveryPlace:     req.DeliveryPlace,
		TransactionMethod: req.TransactionMethod,
		ValidUntil:        parseDate(req.ValidUntil),
		Note:              req.Note,
		TaxRate:           req.TaxRate,
		Items:             toItemInputs(req.Items),
		IdempotencyKey:    idempotencyKey,
	}
}

type updateRequest struct {
	CustomerID        *int64           `json:"customer_id" validate:"omitempty,gt=0"`
	CustomerName      *string          `json:"customer_name" validate:"omitempty,max=255"`
	SiteID            *int64           `json:"site_id" validate:"omitempty,gt=0"`
	ClearSite         bool             `json:"clear_site"`
	BankAccountID     *int64           `json:"bank_account_id" validate:"omitempty,gt=0"`
	ClearBankAccount  bool             `json:"clear_bank_account"`
	BillingDate       *string          `json:"billing_date" validate:"omitempty,datetime=2006-01-02"`
	Title             *string          `json:"title" validate:"omitempty,max=255"`
	DeliveryDate      *string          `json:"delivery_date" validate:"omitempty,datetime=2006-01-02"`
	DeliveryPlace     *string          `json:"delivery_place" validate:"omitempty,max=255"`
	TransactionMethod *string          `json:"transaction_method" validate:"omitempty,max=255"`
	ValidUntil        *string          `json:"valid_until" validate:"omitempty,datetime=2006-01-02"`
	Note              *string          `json:"note" validate:"omitempty,max=2000"`
	TaxRate           *decimal.Decimal `json:"tax_rate"`
	Items             *[]itemRequest   `json:"items" validate:"omitempty,dive"`
}

func (req updateRequest) toInput() UpdateInput {
	in := UpdateInput{
		CustomerID:        req.CustomerID,
		CustomerName:      req.CustomerName,
		SiteID:            req.SiteID,
		ClearSite:         req.ClearSite,
		BankAccountID:     req.BankAccountID,
		ClearBankAccount:  req.ClearBankAccount,
		BillingDate:       parseDate(req.BillingDate),
		Title:             req.Title,
		DeliveryDate:      parseDate(req.DeliveryDate),
		DeliveryPlace:     req.DeliveryPlace,
		TransactionMethod: req.TransactionMethod,
		ValidUntil:        parseDate(req.ValidUntil),
		Note:              req.Note,
		TaxRate:           req.TaxRate,
	}
	if req.Items != nil {
		items := toItemInputs(*req.Items)
		in.Items = &items
	}
	return in
}

type itemsRequest struct {
	Items []itemRequest `json:"items" validate:"dive"`
}

type dailyReportsRequest struct {
	DailyReportIDs []int64 `json:"daily_report_ids" validate:"dive,gt=0"`
}

type listQuery struct {
	Status     string `json:"status" validate:"omitempty,oneof=draft issued canceled"`
	CustomerID string `json:"customer_id" validate:"omitempty,number"`
	From       string `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To         string `json:"to" validate:"omitempty,datetime=2006-01-02"`
	Page       string `json:"page" validate:"omitempty,number"`
	PerPage    string `json:"per_page" validate:"omitempty,number"`
}

func parseListQuery(values url.Values) listQuery {
	return listQuery{
		Status:     values.Get("status"),
		CustomerID: values.Get("customer_id"),
		From:       values.Get("from"),
		To:         values.Get("to"),
		Page:       values.Get("page"),
		PerPage:    values.Get("per_page"),
	}
}

func (q listQuery) toFilter() ListFilter {
	var f ListFilter
	if q.Status != "" {
		status := Status(q.Status)
		f.Status = &status
	}
	if q.CustomerID != "" {
		v, _ := strconv.ParseInt(q.CustomerID, 10, 64)
		f.CustomerID = &v
	}
	f.BillingDateFrom = parseDate(&q.From)
	f.BillingDateTo = parseDate(&q.To)
	f.Page, _ = strconv.Atoi(q.Page)
	f.PerPage, _ = strconv.Atoi(q.PerPage)
	return f
}

func parseDate(raw *string) *time.Time {
	if raw == nil || *raw == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, *raw)
	if err != nil {
		return nil
	}
	return &t
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

type itemResponse struct {
	ID               int64               `json:"id"`
	Type             ItemType            `json:"item_type"`
	Name             string              `json:"name"`
	Quantity         decimal.NullDecimal `json:"quantity"`
	Unit             *string             `json:"unit"`
	UnitPrice        *int64              `json:"unit_price"`
	Amount           *int64              `json:"amount"`
	SortOrder        int                 `json:"sort_order"`
	SourceProductID  *int64              `json:"source_product_id,omitempty"`
	SourceMaterialID *int64              `json:"source_material_id,omitempty"`
}

type bankAccountResponse struct {
	ID            int64  `json:"id"`
	BankName      string `json:"bank_name"`
	BranchName    string `json:"branch_name"`
	AccountType   string `json:"account_type"`
	AccountNumber string `json:"account_number"`
	AccountHolder string `json:"account_holder"`
}

type invoiceResponse struct {
	ID                int64           `json:"id"`
	CustomerID        int64           `json:"customer_id"`
	CustomerName      string          `json:"customer_name"`
	SiteID            *int64          `json:"site_id"`
	BankAccountID     *int64          `json:"bank_account_id"`
	InvoiceNumber     *string         `json:"invoice_number"`
	Status            Status          `json:"status"`
	BillingDate       string          `json:"billing_date"`
	IssuedAt          *time.Time      `json:"issued_at"`
	Title             string          `json:"title"`
	DeliveryDate      *string         `json:"delivery_date"`
	DeliveryPlace     string          `json:"delivery_place"`
	TransactionMethod string          `json:"transaction_method"`
	ValidUntil        *string         `json:"valid_until"`
	Note              string          `json:"note"`
	TaxRate           decimal.Decimal `json:"tax_rate"`
	Subtotal          int64           `json:"subtotal"`
	TaxAmount         int64           `json:"tax_amount"`
	TotalAmount       int64           `json:"total_amount"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type detailResponse struct {
	invoiceResponse
	Items          []itemResponse       `json:"items"`
	DailyReportIDs []int64              `json:"daily_report_ids"`
	BankAccount    *bankAccountResponse `json:"bank_account"`
}

func newInvoiceResponse(inv Invoice) invoiceResponse {
	return invoiceResponse{
		ID:                inv.ID,
		CustomerID:        inv.CustomerID,
		CustomerName:      inv.CustomerName,
		SiteID:            inv.SiteID,
		BankAccountID:     inv.BankAccountID,
		InvoiceNumber:     inv.Number,
		Status:            inv.Status,
		BillingDate:       inv.BillingDate.Format(dateLayout),
		IssuedAt:          inv.IssuedAt,
		Title:             inv.Title,
		DeliveryDate:      formatDate(inv.DeliveryDate),
		DeliveryPlace:     inv.DeliveryPlace,
		TransactionMethod: inv.TransactionMethod,
		ValidUntil:        formatDate(inv.ValidUntil),
		Note:              inv.Note,
		TaxRate:           inv.TaxRate,
		Subtotal:          inv.Subtotal,
		TaxAmount:         inv.TaxAmount,
		TotalAmount:       inv.TotalAmount,
		CreatedAt:         inv.CreatedAt,
		UpdatedAt:         inv.UpdatedAt,
	}
}

func newDetailResponse(d *Detail) detailResponse {
	resp := detailResponse{
		invoiceResponse: newInvoiceResponse(d.Invoice),
		Items:           make([]itemResponse, len(d.Items)),
		DailyReportIDs:  d.DailyReportIDs,
	}
	if resp.DailyReportIDs == nil {
		resp.DailyReportIDs = []int64{}
	}
	for i, item := range d.Items {
		resp.Items[i] = itemResponse{
			ID:               item.ID,
			Type:             item.Type,
			Name:             item.Name,
			Quantity:         item.Quantity,
			Unit:             item.Unit,
			UnitPrice:        item.UnitPrice,
			Amount:           item.Amount,
			SortOrder:        item.SortOrder,
			SourceProductID:  item.SourceProductID,
			SourceMaterialID: item.SourceMaterialID,
		}
	}
	if b := d.BankAccount; b != nil {
		resp.BankAccount = &bankAccountResponse{
			ID:            b.ID,
			BankName:      b.BankName,
			BranchName:    b.BranchName,
			AccountType:   b.AccountType,
			AccountNumber: b.AccountNumber,
			AccountHolder: b.AccountHolder,
		}
	}
	return resp
}
