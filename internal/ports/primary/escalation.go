package primary

import "context"

// EscalationService defines the primary port for escalation operations.
type EscalationService interface {
	// TriggerAutoEscalation escalates one issue once its age passes the SLA threshold
	// for its current level. Requires an authenticated actor in ctx.
	TriggerAutoEscalation(ctx context.Context, issueID string) (*AutoEscalationResult, error)

	// ManualEscalate lets the original reporter escalate one level after the due date.
	ManualEscalate(ctx context.Context, req ManualEscalationRequest) (*ManualEscalationResult, error)

	// SweepOverdue escalates overdue, unresolved issues. Per-issue failures are
	// reported in the result rather than returned.
	SweepOverdue(ctx context.Context) (*SweepResult, error)
}

// AutoEscalationResult is returned by TriggerAutoEscalation.
type AutoEscalationResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	NewLevel       int    `json:"newLevel"`
	AssignedRole   string `json:"assignedRole"`
	AuthorityEmail string `json:"authorityEmail,omitempty"` // Empty when no authority was found
}

// ManualEscalationRequest contains parameters for a villager escalation.
type ManualEscalationRequest struct {
	IssueID string `json:"issueId"`
	UserID  string `json:"userId"`
}

// ManualEscalationResult is returned by ManualEscalate.
type ManualEscalationResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	EscalatedTo    string `json:"escalatedTo"`
	AuthorityEmail string `json:"authorityEmail"`
	NewLevel       int    `json:"newLevel"`
}

// SweepResult is returned by SweepOverdue.
type SweepResult struct {
	Success   bool           `json:"success"`
	Processed int            `json:"processed"`
	Results   []SweepOutcome `json:"results"`
}

// SweepOutcome describes what happened to one candidate issue.
type SweepOutcome struct {
	IssueID        string `json:"issueId"`
	Status         string `json:"status"` // 'escalated', 'skipped', 'error'
	Reason         string `json:"reason,omitempty"`
	From           string `json:"from,omitempty"`
	To             string `json:"to,omitempty"`
	AuthorityEmail string `json:"authorityEmail,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Sweep outcome status constants
const (
	SweepStatusEscalated = "escalated"
	SweepStatusSkipped   = "skipped"
	SweepStatusError     = "error"
)
