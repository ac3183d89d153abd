package invoices

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuditSequencesHealthy(t *testing.T) {
	report := AuditSequences(1, []IssuedNumber{
		{InvoiceID: 10, Number: "INV-2025-001", Sequence: 1},
		{InvoiceID: 11, Number: "INV-2025-002", Sequence: 2},
		{InvoiceID: 12, Number: "INV-2026-003", Sequence: 3},
	}, 3)

	assert.True(t, report.Healthy())
	assert.Equal(t, 3, report.Issued)
	assert.Equal(t, int64(3), report.MaxSeq)
}

func TestAuditSequencesFindsProblems(t *testing.T) {
	report := AuditSequences(1, []IssuedNumber{
		{InvoiceID: 10, Number: "INV-2025-001", Sequence: 1},
		{InvoiceID: 11, Number: "INV-2025-001", Sequence: 1},
		{InvoiceID: 12, Number: "INV-2025-004", Sequence: 4},
		{InvoiceID: 13, Number: "2025-5", Sequence: 5},
	}, 4)

	assert.False(t, report.Healthy())
	assert.Equal(t, []string{"INV-2025-001"}, report.Duplicates)
	assert.Equal(t, []int64{2, 3}, report.Gaps)
	assert.Equal(t, []string{"2025-5"}, report.Malformed)
	assert.Equal(t, int64(5), report.MaxSeq)
	assert.Equal(t, int64(4), report.Counter)
}

func TestAuditSequencesEmptyTenant(t *testing.T) {
	report := AuditSequences(3, nil, 0)
	assert.True(t, report.Healthy())
	assert.Zero(t, report.Issued)
}
