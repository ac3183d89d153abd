package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/worklog/internal/billing/invoices"
	"github.com/odyssey-erp/worklog/internal/platform/db"
)

// ErrUnhealthySequence makes the verify command exit non-zero.
var ErrUnhealthySequence = errors.New("invoice numbering is unhealthy")

type sequenceVerifier interface {
	VerifySequences(ctx context.Context, tenantID int64) (invoices.SequenceReport, error)
}

func newSequencesCmd(env Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sequences",
		Short: "Inspect invoice numbering",
	}
	verify := &cobra.Command{
		Use:     "verify",
		Short:   "Check a tenant's issued numbers for duplicates and gaps",
		Example: "  worklogctl sequences verify --tenant 12",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, _ := cmd.Flags().GetInt64("tenant")
			if tenantID <= 0 {
				return errors.New("--tenant must be a positive id")
			}
			cfg, err := env.LoadConfig()
			if err != nil {
				return err
			}
			pool, err := db.New(cmd.Context(), cfg.PGDSN, db.PoolOptions{MaxConns: 2})
			if err != nil {
				return err
			}
			defer pool.Close()
			return runVerify(cmd.Context(), cmd.OutOrStdout(), invoices.NewRepository(pool), tenantID)
		},
	}
	verify.Flags().Int64("tenant", 0, "Tenant id to verify")
	_ = verify.MarkFlagRequired("tenant")
	cmd.AddCommand(verify)
	return cmd
}

func runVerify(ctx context.Context, out io.Writer, verifier sequenceVerifier, tenantID int64) error {
	report, err := verifier.VerifySequences(ctx, tenantID)
	if err != nil {
		return err
	}
	writeSequenceReport(out, report)
	if !report.Healthy() {
		return ErrUnhealthySequence
	}
	return nil
}

func writeSequenceReport(out io.Writer, r invoices.SequenceReport) {
	fmt.Fprintf(out, "tenant:      %d\n", r.TenantID)
	fmt.Fprintf(out, "issued:      %d\n", r.Issued)
	fmt.Fprintf(out, "max seq:     %d\n", r.MaxSeq)
	fmt.Fprintf(out, "counter:     %d\n", r.Counter)
	fmt.Fprintf(out, "duplicates:  %s\n", joinOrNone(r.Duplicates))
	gaps := make([]string, len(r.Gaps))
	for i, g := range r.Gaps {
		gaps[i] = strconv.FormatInt(g, 10)
	}
	fmt.Fprintf(out, "gaps:        %s\n", joinOrNone(gaps))
	fmt.Fprintf(out, "malformed:   %s\n", joinOrNone(r.Malformed))
	if r.Counter < r.MaxSeq {
		fmt.Fprintln(out, "counter is behind the highest issued sequence")
	}
	if r.Healthy() {
		fmt.Fprintln(out, "status:      ok")
	} else {
		fmt.Fprintln(out, "status:      UNHEALTHY")
	}
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}
