package primary

import (
	"context"
	"time"
)

// IssueService defines the primary port for reading and seeding issues.
type IssueService interface {
	// CreateIssue records a new issue at level 0. Used for seeding and tests;
	// villager reporting happens in the web client.
	CreateIssue(ctx context.Context, req CreateIssueRequest) (*CreateIssueResponse, error)

	// GetIssue retrieves an issue with its escalation history.
	GetIssue(ctx context.Context, issueID string) (*Issue, error)

	// ListIssues lists issues with optional filters.
	ListIssues(ctx context.Context, filters IssueFilters) ([]*Issue, error)
}

// Issue represents an issue at the port boundary.
type Issue struct {
	ID                   string
	Title                string
	Description          string
	Category             string
	ReporterUID          string
	PanchayatID          string
	Taluk                string
	District             string
	Status               string
	EscalatedLevel       int
	AssignedRole         string
	AssignedToUID        string // May be empty
	SLADays              int
	ResolveDueAt         time.Time
	ManualEscalationUsed bool
	AutoEscalatedAt      *time.Time // Nil if never auto escalated
	CreatedAt            time.Time
	UpdatedAt            time.Time
	History              []HistoryEntry
}

// HistoryEntry is one recorded escalation.
type HistoryEntry struct {
	Type   string    `json:"type"` // 'auto' or 'manual'
	From   string    `json:"from"`
	To     string    `json:"to"`
	At     time.Time `json:"at"`
	Reason string    `json:"reason"`
	Level  int       `json:"level"`
}

// CreateIssueRequest contains parameters for creating an issue.
type CreateIssueRequest struct {
	Title       string
	Description string
	Category    string
	ReporterUID string
	PanchayatID string
	Taluk       string
	District    string
	SLADays     int        // 0 means the default
	CreatedAt   *time.Time // Nil means now
}

// CreateIssueResponse contains the result of creating an issue.
type CreateIssueResponse struct {
	IssueID string
	Issue   *Issue
}

// IssueFilters contains filter options for listing issues.
type IssueFilters struct {
	Status      string
	ReporterUID string
	OverdueOnly bool
	Limit       int
}
