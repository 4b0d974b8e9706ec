package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/vital/internal/ports/primary"
	"github.com/example/vital/internal/wire"
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Manage issues",
	Long:  "Create, list, and inspect civic issues and their escalation history",
}

var issueCreateCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Record a new issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		req, err := createIssueRequest(cmd, args[0])
		if err != nil {
			return err
		}

		return wire.IssueAdapterWithOutput(cmd.OutOrStdout()).Create(ctx, req)
	},
}

var issueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List issues",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		status, _ := cmd.Flags().GetString("status")
		reporter, _ := cmd.Flags().GetString("reporter")
		overdue, _ := cmd.Flags().GetBool("overdue")
		limit, _ := cmd.Flags().GetInt("limit")

		return wire.IssueAdapterWithOutput(cmd.OutOrStdout()).List(ctx, primary.IssueFilters{
			Status:      status,
			ReporterUID: reporter,
			OverdueOnly: overdue,
			Limit:       limit,
		})
	},
}

var issueShowCmd = &cobra.Command{
	Use:   "show [issue-id]",
	Short: "Show issue details and escalation history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		_, err := wire.IssueAdapterWithOutput(cmd.OutOrStdout()).Show(ctx, args[0])
		return err
	},
}

func createIssueRequest(cmd *cobra.Command, title string) (primary.CreateIssueRequest, error) {
	description, _ := cmd.Flags().GetString("description")
	category, _ := cmd.Flags().GetString("category")
	reporter, _ := cmd.Flags().GetString("reporter")
	panchayat, _ := cmd.Flags().GetString("panchayat")
	taluk, _ := cmd.Flags().GetString("taluk")
	district, _ := cmd.Flags().GetString("district")
	sla, _ := cmd.Flags().GetInt("sla-days")
	createdAt, _ := cmd.Flags().GetString("created-at")

	req := primary.CreateIssueRequest{
		Title:       title,
		Description: description,
		Category:    category,
		ReporterUID: reporter,
		PanchayatID: panchayat,
		Taluk:       taluk,
		District:    district,
		SLADays:     sla,
	}
	if createdAt != "" {
		t, err := parseTimestamp(createdAt)
		if err != nil {
			return req, err
		}
		req.CreatedAt = &t
	}
	return req, nil
}

// parseTimestamp accepts RFC 3339 or a bare date.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: use RFC 3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

// IssueCmd returns the issue command
func IssueCmd() *cobra.Command {
	issueCreateCmd.Flags().StringP("description", "d", "", "Issue description")
	issueCreateCmd.Flags().StringP("category", "c", "", "Category (water, roads, sanitation, ...)")
	issueCreateCmd.Flags().StringP("reporter", "r", "", "Reporter user ID (required)")
	issueCreateCmd.Flags().String("panchayat", "", "Panchayat ID")
	issueCreateCmd.Flags().String("taluk", "", "Taluk")
	issueCreateCmd.Flags().String("district", "", "District")
	issueCreateCmd.Flags().Int("sla-days", 0, "Days to resolve (default from config)")
	issueCreateCmd.Flags().String("created-at", "", "Backdate the report (RFC 3339 or YYYY-MM-DD)")
	_ = issueCreateCmd.MarkFlagRequired("reporter")

	issueListCmd.Flags().StringP("status", "s", "", "Filter by status (pending, verified, assigned, in_progress, resolved, closed)")
	issueListCmd.Flags().StringP("reporter", "r", "", "Filter by reporter user ID")
	issueListCmd.Flags().Bool("overdue", false, "Only unresolved issues past their due date")
	issueListCmd.Flags().IntP("limit", "n", 0, "Maximum number of issues")

	issueCmd.AddCommand(issueCreateCmd)
	issueCmd.AddCommand(issueListCmd)
	issueCmd.AddCommand(issueShowCmd)

	return issueCmd
}
