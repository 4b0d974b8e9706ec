package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/example/vital/internal/ports/primary"
)

// MailAdapter is a thin adapter that translates CLI operations to MailService calls.
type MailAdapter struct {
	service primary.MailService
	out     io.Writer
}

// NewMailAdapter creates a new MailAdapter with the given service.
func NewMailAdapter(service primary.MailService, out io.Writer) *MailAdapter {
	return &MailAdapter{
		service: service,
		out:     out,
	}
}

// List lists queued mail with optional filters.
func (a *MailAdapter) List(ctx context.Context, filters primary.MailFilters) error {
	items, err := a.service.ListMail(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list mail: %w", err)
	}

	if len(items) == 0 {
		fmt.Fprintln(a.out, "No mail found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-42s %-8s %-4s %-30s %s\n", "ID", "STATUS", "TRY", "TO", "SUBJECT")
	fmt.Fprintln(a.out, rule)
	for _, m := range items {
		status := padRight(mailStatusLabel(m.Status), m.Status, 8)
		fmt.Fprintf(a.out, "%-42s %s %-4d %-30s %s\n", m.ID, status, m.Attempts, m.To, m.Subject)
		if m.LastError != "" && m.Status != primary.MailStatusSent {
			fmt.Fprintf(a.out, "%42s last error: %s\n", "", m.LastError)
		}
	}
	fmt.Fprintln(a.out)

	return nil
}

// Deliver sends pending mail once and prints the report.
func (a *MailAdapter) Deliver(ctx context.Context, limit int) (*primary.DeliveryReport, error) {
	report, err := a.service.DeliverPending(ctx, limit)
	if err != nil {
		return nil, err
	}

	if report.Attempted == 0 {
		fmt.Fprintln(a.out, "No pending mail")
		return report, nil
	}
	fmt.Fprintf(a.out, "%s Delivered %d of %d (%d will be retried, %d failed)\n", okMark,
		report.Sent, report.Attempted, report.Retrying, report.Failed)
	return report, nil
}

func mailStatusLabel(status string) string {
	switch status {
	case primary.MailStatusSent:
		return color.New(color.FgGreen).Sprint(status)
	case primary.MailStatusFailed:
		return color.New(color.FgRed).Sprint(status)
	default:
		return color.New(color.FgYellow).Sprint(status)
	}
}
