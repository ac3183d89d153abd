// Package tenants exposes per-tenant billing settings.
package tenants

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/worklog/internal/billing/money"
	"github.com/odyssey-erp/worklog/internal/shared"
)

// ErrNotFound indicates the tenant does not exist.
var ErrNotFound = fmt.Errorf("tenant %w", shared.ErrNotFound)

// Settings are the billing preferences of one tenant.
type Settings struct {
	TenantID       int64                `json:"tenant_id"`
	RoundingPolicy money.RoundingPolicy `json:"tax_rounding"`
}

// Store reads tenant settings from PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Settings loads the settings of a tenant. A null or unknown rounding column
// resolves to the default policy.
func (s *Store) Settings(ctx context.Context, tenantID int64) (Settings, error) {
	var rounding *string
	err := s.pool.QueryRow(ctx, `SELECT tax_rounding FROM tenants WHERE id = $1`, tenantID).Scan(&rounding)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Settings{}, ErrNotFound
		}
		return Settings{}, err
	}
	settings := Settings{TenantID: tenantID, RoundingPolicy: money.DefaultRoundingPolicy}
	if rounding != nil {
		policy, err := money.ParseRoundingPolicy(*rounding)
		if err == nil {
			settings.RoundingPolicy = policy
		}
	}
	return settings, nil
}
