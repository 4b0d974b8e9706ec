package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/vital/internal/ports/primary"
	"github.com/example/vital/internal/wire"
)

var mailCmd = &cobra.Command{
	Use:   "mail",
	Short: "Inspect and deliver the notification queue",
}

var mailListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued mail",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		return wire.MailAdapterWithOutput(cmd.OutOrStdout()).List(ctx, primary.MailFilters{Status: status, Limit: limit})
	},
}

var mailDeliverCmd = &cobra.Command{
	Use:   "deliver",
	Short: "Send pending mail over SMTP",
	Long: `Send pending queue records once, or keep polling with --loop.
Failed sends are retried on later passes up to mail.maxAttempts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		loop, _ := cmd.Flags().GetBool("loop")
		interval, _ := cmd.Flags().GetDuration("interval")

		adapter := wire.MailAdapterWithOutput(cmd.OutOrStdout())
		if !loop {
			_, err := adapter.Deliver(NewContext(), limit)
			return err
		}

		ctx, stop := signal.NotifyContext(NewContext(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log := wire.Logger().Sugar().Named("mail-worker")
		return runEvery(ctx, interval, func(ctx context.Context) error {
			_, err := adapter.Deliver(ctx, limit)
			return err
		}, func(err error) bool {
			// SMTP missing from the config will not fix itself
			if primary.KindOf(err) == primary.KindFailedPrecondition {
				return false
			}
			log.Errorw("Mail delivery pass failed", "error", err)
			return true
		})
	},
}

// MailCmd returns the mail command
func MailCmd() *cobra.Command {
	mailListCmd.Flags().StringP("status", "s", "", "Filter by status (pending, sent, failed)")
	mailListCmd.Flags().IntP("limit", "n", 0, "Maximum number of records")

	mailDeliverCmd.Flags().IntP("limit", "n", 25, "Maximum records per pass")
	mailDeliverCmd.Flags().Bool("loop", false, "Keep delivering until interrupted")
	mailDeliverCmd.Flags().Duration("interval", defaultMailInterval, "Pause between passes with --loop")

	mailCmd.AddCommand(mailListCmd)
	mailCmd.AddCommand(mailDeliverCmd)

	return mailCmd
}
