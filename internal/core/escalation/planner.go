package escalation

import (
	"fmt"
	"time"

	"github.com/example/vital/internal/core/effects"
)

// Type distinguishes how an escalation was triggered.
type Type string

const (
	TypeAuto   Type = "auto"
	TypeManual Type = "manual"
)

// Fixed history reasons.
const (
	SweepReason  = "due date passed and not resolved"
	ManualReason = "Villager escalated after due date"
)

// AutoReason is the history reason for the single-issue automatic path.
func AutoReason(daysPassed, slaDays int) string {
	return fmt.Sprintf("Auto escalated after %d days (SLA: %d days)", daysPassed, EffectiveSLADays(slaDays))
}

// Transition describes one step up the authority ladder.
type Transition struct {
	Type   Type
	From   Role
	To     Role
	Level  int // level after the transition
	Reason string
	At     time.Time
}

// NewTransition builds the transition from the current role to the next one.
// Returns false when from is terminal.
func NewTransition(kind Type, from Role, reason string, at time.Time) (Transition, bool) {
	to, ok := NextRole(from)
	if !ok {
		return Transition{}, false
	}
	level, _ := LevelForRole(to)
	return Transition{Type: kind, From: from, To: to, Level: level, Reason: reason, At: at}, true
}

// LogLevelWarn marks a planned log line as a warning.
const LogLevelWarn = "warn"

// PlanInput contains the facts needed to plan an escalation write.
type PlanInput struct {
	IssueID     string
	Transition  Transition
	AssigneeUID string
	// ManualUsed is the flag value before the transition; manual transitions set it.
	ManualUsed bool
}

// PlanEscalation returns the effects that apply a transition to an issue:
// the issue field update followed by the history append. Automatic
// transitions stamp autoEscalatedAt with the transition time. A transition
// without an assignee also plans a warning.
func PlanEscalation(in PlanInput) []effects.Effect {
	t := in.Transition

	update := effects.IssueUpdateEffect{
		IssueID:              in.IssueID,
		EscalatedLevel:       t.Level,
		AssignedRole:         string(t.To),
		AssignedToUID:        in.AssigneeUID,
		ManualEscalationUsed: in.ManualUsed || t.Type == TypeManual,
		UpdatedAt:            t.At,
	}
	if t.Type == TypeAuto {
		at := t.At
		update.AutoEscalatedAt = &at
	}

	history := effects.HistoryAppendEffect{
		IssueID: in.IssueID,
		Type:    string(t.Type),
		From:    string(t.From),
		To:      string(t.To),
		At:      t.At,
		Reason:  t.Reason,
		Level:   t.Level,
	}

	plan := []effects.Effect{update, history}
	if in.AssigneeUID == "" {
		plan = append(plan, effects.LogEffect{
			Level:   LogLevelWarn,
			Message: "No authority found, escalating without assignee",
			Fields:  map[string]any{"issueId": in.IssueID, "role": string(t.To)},
		})
	}
	return plan
}
