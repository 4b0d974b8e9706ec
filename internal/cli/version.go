package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/example/vital/internal/version"
)

// VersionCmd returns the version command
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
			fmt.Fprintf(cmd.OutOrStdout(), "  go: %s\n", runtime.Version())
			return nil
		},
	}
}
