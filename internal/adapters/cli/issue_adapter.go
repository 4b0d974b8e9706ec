package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/vital/internal/ports/primary"
)

// IssueAdapter is a thin adapter that translates CLI operations to IssueService calls.
type IssueAdapter struct {
	service primary.IssueService
	out     io.Writer
}

// NewIssueAdapter creates a new IssueAdapter with the given service.
func NewIssueAdapter(service primary.IssueService, out io.Writer) *IssueAdapter {
	return &IssueAdapter{
		service: service,
		out:     out,
	}
}

// Create records a new issue.
func (a *IssueAdapter) Create(ctx context.Context, req primary.CreateIssueRequest) error {
	resp, err := a.service.CreateIssue(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s Created issue %s: %s\n", okMark, resp.IssueID, resp.Issue.Title)
	fmt.Fprintf(a.out, "  Due: %s (SLA %d days)\n", formatTime(resp.Issue.ResolveDueAt), resp.Issue.SLADays)
	return nil
}

// List lists issues with optional filters.
func (a *IssueAdapter) List(ctx context.Context, filters primary.IssueFilters) error {
	issues, err := a.service.ListIssues(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list issues: %w", err)
	}

	if len(issues) == 0 {
		fmt.Fprintln(a.out, "No issues found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-40s %-12s %-5s %-17s %s\n", "ID", "STATUS", "ROLE", "DUE", "TITLE")
	fmt.Fprintln(a.out, rule)
	for _, is := range issues {
		role := padRight(roleLabel(is.AssignedRole), roleText(is.AssignedRole), 5)
		fmt.Fprintf(a.out, "%-40s %-12s %s %-17s %s\n", is.ID, is.Status, role, formatTime(is.ResolveDueAt), is.Title)
	}
	fmt.Fprintln(a.out)

	return nil
}

// Show displays one issue with its escalation history.
func (a *IssueAdapter) Show(ctx context.Context, issueID string) (*primary.Issue, error) {
	is, err := a.service.GetIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(a.out, "\nIssue:    %s\n", is.ID)
	fmt.Fprintf(a.out, "Title:    %s\n", is.Title)
	if is.Category != "" {
		fmt.Fprintf(a.out, "Category: %s\n", is.Category)
	}
	fmt.Fprintf(a.out, "Status:   %s\n", is.Status)
	fmt.Fprintf(a.out, "Reporter: %s\n", is.ReporterUID)
	fmt.Fprintf(a.out, "Location: %s / %s / %s\n", dash(is.PanchayatID), dash(is.Taluk), dash(is.District))
	fmt.Fprintf(a.out, "Level:    %d (%s)\n", is.EscalatedLevel, roleLabel(is.AssignedRole))
	fmt.Fprintf(a.out, "Assignee: %s\n", dash(is.AssignedToUID))
	fmt.Fprintf(a.out, "Created:  %s\n", formatTime(is.CreatedAt))
	fmt.Fprintf(a.out, "Due:      %s (SLA %d days)\n", formatTime(is.ResolveDueAt), is.SLADays)
	if is.ManualEscalationUsed {
		fmt.Fprintln(a.out, "Manual escalation: used")
	}
	if is.AutoEscalatedAt != nil {
		fmt.Fprintf(a.out, "Last auto escalation: %s\n", formatTime(*is.AutoEscalatedAt))
	}

	if len(is.History) > 0 {
		fmt.Fprintln(a.out, "\nHistory:")
		for _, h := range is.History {
			fmt.Fprintf(a.out, "  %s  %-6s %s → %s  %s\n", formatTime(h.At), h.Type, roleLabel(h.From), roleLabel(h.To), h.Reason)
		}
	}
	fmt.Fprintln(a.out)

	return is, nil
}
