package cmd

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the field-service command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "field-service-server",
		Short:         "Scheduling and booking engine for field-service crews",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newSlotsCmd())
	root.AddCommand(newTokenCmd())

	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
