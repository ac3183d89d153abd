package invoices

import (
	"context"
	"fmt"
)

// IssuedNumber is one assigned invoice number.
type IssuedNumber struct {
	InvoiceID int64
	Number    string
	Sequence  int64
}

// SequenceReport summarises the numbering health of one tenant.
type SequenceReport struct {
	TenantID   int64
	Issued     int
	MaxSeq     int64
	Counter    int64
	Duplicates []string
	Gaps       []int64
	Malformed  []string
}

// Healthy reports whether numbering has no duplicates, no gaps, no malformed
// numbers and a counter that matches the highest sequence.
func (r SequenceReport) Healthy() bool {
	return len(r.Duplicates) == 0 && len(r.Gaps) == 0 && len(r.Malformed) == 0 && r.Counter == r.MaxSeq
}

// AuditSequences inspects the issued numbers of a tenant against its counter.
func AuditSequences(tenantID int64, numbers []IssuedNumber, counter int64) SequenceReport {
	report := SequenceReport{TenantID: tenantID, Issued: len(numbers), Counter: counter}
	seenNumbers := make(map[string]struct{}, len(numbers))
	seenSeq := make(map[int64]struct{}, len(numbers))
	for _, n := range numbers {
		if _, ok := seenNumbers[n.Number]; ok {
			report.Duplicates = append(report.Duplicates, n.Number)
		}
		seenNumbers[n.Number] = struct{}{}

		_, seq, err := ParseNumber(n.Number)
		if err != nil || seq != n.Sequence {
			report.Malformed = append(report.Malformed, n.Number)
		}
		seenSeq[n.Sequence] = struct{}{}
		if n.Sequence > report.MaxSeq {
			report.MaxSeq = n.Sequence
		}
	}
	for seq := int64(1); seq <= report.MaxSeq; seq++ {
		if _, ok := seenSeq[seq]; !ok {
			report.Gaps = append(report.Gaps, seq)
		}
	}
	return report
}

// VerifySequences loads and audits the numbering of a tenant.
func (r *Repository) VerifySequences(ctx context.Context, tenantID int64) (SequenceReport, error) {
	numbers, err := r.IssuedNumbers(ctx, tenantID)
	if err != nil {
		return SequenceReport{}, err
	}
	counter, err := r.SequenceCounter(ctx, tenantID)
	if err != nil {
		return SequenceReport{}, fmt.Errorf("load sequence counter: %w", err)
	}
	return AuditSequences(tenantID, numbers, counter), nil
}
