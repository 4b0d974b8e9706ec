package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/vital/internal/ctxutil"
	"github.com/example/vital/internal/version"
	"github.com/example/vital/internal/wire"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the escalation HTTP API",
		Long: `Serve the escalation endpoints:

  POST /triggerAutoEscalation   time-based escalation of one issue (bearer token)
  POST /manualEscalateIssue     one-time villager escalation after the due date
  GET  /autoEscalateOverdue     overdue sweep, for an external scheduler

With --sweep-interval the sweep also runs in process.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			interval, _ := cmd.Flags().GetDuration("sweep-interval")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := wire.Logger().Sugar()
			log.Infow("Starting VITAL", "version", version.String(), "listen", wire.Config().Server.ListenAddress)

			srv := wire.APIServer()

			sweep := func(ctx context.Context) error {
				result, err := wire.EscalationService().SweepOverdue(ctx)
				if err != nil {
					return err
				}
				log.Infow("Scheduled sweep finished", "processed", result.Processed)
				return nil
			}
			if err := serve(ctx, interval, srv.Run, sweep, log.Named("scheduler")); err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().Duration("sweep-interval", 0, "Run the overdue sweep in process at this interval (0 disables)")
	return cmd
}

// serve runs the server and, when interval is positive, the in-process
// sweep. It returns once both have stopped; a server failure stops the sweep.
func serve(ctx context.Context, interval time.Duration, run, sweep func(context.Context) error, log *zap.SugaredLogger) error {
	g, ctx := errgroup.WithContext(ctx)

	if interval > 0 {
		log.Infow("In-process sweep enabled", "interval", interval)
		sweepCtx := ctxutil.WithActorID(ctx, ctxutil.SystemActor)
		g.Go(func() error {
			return runEvery(sweepCtx, interval, sweep, func(err error) bool {
				log.Errorw("Scheduled sweep failed", "error", err)
				return true
			})
		})
	}

	g.Go(func() error { return run(ctx) })
	return g.Wait()
}
