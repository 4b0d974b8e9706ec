package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/example/vital/internal/ports/primary"
)

// EscalationAdapter is a thin adapter that translates CLI operations to EscalationService calls.
type EscalationAdapter struct {
	service primary.EscalationService
	out     io.Writer
}

// NewEscalationAdapter creates a new EscalationAdapter with the given service.
func NewEscalationAdapter(service primary.EscalationService, out io.Writer) *EscalationAdapter {
	return &EscalationAdapter{
		service: service,
		out:     out,
	}
}

// Auto runs the automatic path for one issue.
func (a *EscalationAdapter) Auto(ctx context.Context, issueID string) error {
	result, err := a.service.TriggerAutoEscalation(ctx, issueID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s %s\n", okMark, result.Message)
	if result.AuthorityEmail != "" {
		fmt.Fprintf(a.out, "  Assigned: %s (%s)\n", roleLabel(result.AssignedRole), result.AuthorityEmail)
	} else {
		fmt.Fprintf(a.out, "  Assigned: %s (no authority found, left unassigned)\n", roleLabel(result.AssignedRole))
	}
	return nil
}

// Manual runs the villager path on behalf of userID.
func (a *EscalationAdapter) Manual(ctx context.Context, issueID, userID string) error {
	result, err := a.service.ManualEscalate(ctx, primary.ManualEscalationRequest{
		IssueID: issueID,
		UserID:  userID,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s %s (level %d)\n", okMark, result.Message, result.NewLevel)
	fmt.Fprintf(a.out, "  Notified: %s\n", result.AuthorityEmail)
	return nil
}

// Sweep runs one overdue sweep and prints a line per candidate.
func (a *EscalationAdapter) Sweep(ctx context.Context) (*primary.SweepResult, error) {
	result, err := a.service.SweepOverdue(ctx)
	if err != nil {
		return nil, err
	}

	if result.Processed == 0 {
		fmt.Fprintln(a.out, "No overdue issues")
		return result, nil
	}

	var escalated, skipped, failed int
	fmt.Fprintf(a.out, "\n%-40s %-10s %s\n", "ISSUE", "OUTCOME", "DETAIL")
	fmt.Fprintln(a.out, rule)
	for _, o := range result.Results {
		var mark, detail string
		switch o.Status {
		case primary.SweepStatusEscalated:
			escalated++
			mark = okMark
			detail = fmt.Sprintf("%s → %s", roleLabel(o.From), roleLabel(o.To))
			if o.AuthorityEmail != "" {
				detail += " (" + o.AuthorityEmail + ")"
			}
		case primary.SweepStatusSkipped:
			skipped++
			mark = skipMark
			detail = o.Reason
		default:
			failed++
			mark = failMark
			detail = o.Error
		}
		fmt.Fprintf(a.out, "%-40s %s %-8s %s\n", o.IssueID, mark, o.Status, detail)
	}
	fmt.Fprintln(a.out)

	parts := []string{
		fmt.Sprintf("%d escalated", escalated),
		fmt.Sprintf("%d skipped", skipped),
	}
	if failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", failed))
	}
	fmt.Fprintf(a.out, "Processed %d: %s\n", result.Processed, strings.Join(parts, ", "))
	return result, nil
}
