package dailyreports

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/worklog/internal/shared"
)

// RepositoryPort loads daily reports with their usage rows. Totals are left
// for the service to compute.
type RepositoryPort interface {
	ListForInvoice(ctx context.Context, filter Filter) ([]Aggregate, int, error)
}

// Service aggregates daily reports for invoicing.
type Service struct {
	repo RepositoryPort
}

// NewService constructs the aggregator.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ForInvoice returns a page of billable aggregates, newest report date first.
// Reports already linked to filter.ExcludeInvoiceID are left out.
func (s *Service) ForInvoice(ctx context.Context, caller shared.Caller, filter Filter) ([]Aggregate, shared.Pagination, error) {
	if filter.CustomerID <= 0 {
		return nil, shared.Pagination{}, shared.InvalidField("customer_id", "is required")
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, shared.Pagination{}, shared.InvalidField("to", "must not precede from")
	}
	filter.TenantID = caller.TenantID
	filter.Page, filter.PerPage = shared.NormalizePage(filter.Page, filter.PerPage)

	aggregates, total, err := s.repo.ListForInvoice(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list daily reports: %w", err)
	}
	for i := range aggregates {
		aggregates[i].Recalculate()
	}
	return aggregates, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}
