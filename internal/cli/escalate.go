package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/vital/internal/wire"
)

var escalateCmd = &cobra.Command{
	Use:   "escalate",
	Short: "Escalate a single issue",
	Long:  "Run the automatic or the villager escalation path for one issue",
}

var escalateAutoCmd = &cobra.Command{
	Use:   "auto [issue-id]",
	Short: "Escalate an issue once it has been pending long enough",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		return wire.EscalationAdapterWithOutput(cmd.OutOrStdout()).Auto(ctx, args[0])
	},
}

var escalateManualCmd = &cobra.Command{
	Use:   "manual [issue-id]",
	Short: "Escalate an overdue issue on behalf of its reporter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		userID, _ := cmd.Flags().GetString("user")

		return wire.EscalationAdapterWithOutput(cmd.OutOrStdout()).Manual(ctx, args[0], userID)
	},
}

// EscalateCmd returns the escalate command
func EscalateCmd() *cobra.Command {
	escalateManualCmd.Flags().StringP("user", "u", "", "Reporter user ID (required)")
	_ = escalateManualCmd.MarkFlagRequired("user")

	escalateCmd.AddCommand(escalateAutoCmd)
	escalateCmd.AddCommand(escalateManualCmd)

	return escalateCmd
}

// SweepCmd returns the sweep command
func SweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Escalate every overdue unresolved issue once",
		Long: `Run one overdue sweep. Each candidate is escalated one tier unless it was
auto escalated within the cooldown or is already at the district level.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()
			_, err := wire.EscalationAdapterWithOutput(cmd.OutOrStdout()).Sweep(ctx)
			return err
		},
	}
}
