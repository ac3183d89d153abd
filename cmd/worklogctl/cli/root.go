package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/worklog/internal/app"
)

// Env carries what the subcommands need from the process.
type Env struct {
	Out        io.Writer
	LoadConfig func() (*app.Config, error)
}

// NewRootCmd assembles the worklogctl command tree.
func NewRootCmd(env Env) *cobra.Command {
	if env.Out == nil {
		env.Out = os.Stdout
	}
	if env.LoadConfig == nil {
		env.LoadConfig = app.LoadConfig
	}
	root := &cobra.Command{
		Use:   "worklogctl",
		Short: "Operator tooling for the worklog billing service",
		Long: `worklogctl inspects and operates a worklog deployment.

Configuration is read from the same environment variables as the API server.
A .env file in the working directory is loaded first when present.`,
		SilenceUsage: true,
	}
	root.SetOut(env.Out)
	root.AddCommand(newJobsCmd(env), newSequencesCmd(env), newTokenCmd(env))
	return root
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd(Env{}).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
