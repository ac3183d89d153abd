package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/worklog/internal/auth"
	"github.com/odyssey-erp/worklog/internal/shared"
)

func newTokenCmd(env Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint caller tokens for local testing",
	}
	issue := &cobra.Command{
		Use:     "issue",
		Short:   "Print a signed bearer token",
		Example: "  worklogctl token issue --tenant 1 --user 7 --admin --ttl 1h",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, _ := cmd.Flags().GetInt64("tenant")
			userID, _ := cmd.Flags().GetInt64("user")
			admin, _ := cmd.Flags().GetBool("admin")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if tenantID <= 0 || userID <= 0 {
				return errors.New("--tenant and --user must be positive ids")
			}
			cfg, err := env.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return errors.New("refusing to mint tokens in production")
			}
			token, err := auth.NewVerifier(cfg.AuthJWTSecret, cfg.AuthJWTIssuer).
				Issue(shared.Caller{UserID: userID, TenantID: tenantID, Admin: admin}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issue.Flags().Int64("tenant", 0, "Tenant id")
	issue.Flags().Int64("user", 0, "User id")
	issue.Flags().Bool("admin", false, "Grant the admin role")
	issue.Flags().Duration("ttl", time.Hour, "Token lifetime")
	cmd.AddCommand(issue)
	return cmd
}
