package invoices

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const numberPrefix = "INV"

// Sequencer reserves the next invoice sequence of a tenant. Implementations
// run inside the issuing transaction so the reservation commits or rolls back
// together with the status change.
type Sequencer interface {
	NextSequence(ctx context.Context, tenantID int64) (int64, error)
}

// FormatNumber renders an invoice number such as INV-2025-004. The sequence is
// zero padded to three digits and is never reset by the year component.
func FormatNumber(year int, sequence int64) string {
	return fmt.Sprintf("%s-%d-%03d", numberPrefix, year, sequence)
}

// ParseNumber extracts the year and sequence from an invoice number.
func ParseNumber(number string) (int, int64, error) {
	parts := strings.Split(number, "-")
	if len(parts) != 3 || parts[0] != numberPrefix {
		return 0, 0, fmt.Errorf("invoices: malformed invoice number %q", number)
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invoices: malformed invoice year %q: %w", number, err)
	}
	seq, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || seq <= 0 {
		return 0, 0, fmt.Errorf("invoices: malformed invoice sequence %q", number)
	}
	return year, seq, nil
}

func assignNumber(ctx context.Context, seq Sequencer, tenantID int64, at time.Time) (string, int64, error) {
	next, err := seq.NextSequence(ctx, tenantID)
	if err != nil {
		return "", 0, err
	}
	if next <= 0 {
		return "", 0, fmt.Errorf("invoices: sequencer returned %d for tenant %d", next, tenantID)
	}
	return FormatNumber(at.Year(), next), next, nil
}
