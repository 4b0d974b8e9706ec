package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/vital/internal/cli"
	"github.com/example/vital/internal/version"
	"github.com/example/vital/internal/wire"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "vital",
		Short:   "VITAL - civic issue escalation service",
		Version: version.String(),
		Long: `VITAL escalates unresolved village issues up the authority ladder
(Panchayat, Taluk, District) and queues notification mail for each step.`,
		PersistentPreRunE: cli.Bootstrap,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	cli.AddGlobalFlags(rootCmd)

	// Service
	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.SweepCmd())
	rootCmd.AddCommand(cli.EscalateCmd())

	// Records
	rootCmd.AddCommand(cli.IssueCmd())
	rootCmd.AddCommand(cli.AuthorityCmd())
	rootCmd.AddCommand(cli.MailCmd())

	// Setup
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.VersionCmd())

	err := rootCmd.Execute()
	wire.Shutdown()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
