// Package effects defines effect types as data structures representing I/O operations.
// This is the foundation of the Functional Core / Imperative Shell pattern.
// Effects are pure data - they describe what should happen, not how.
package effects

import "time"

// Effect is the base interface for all effects.
// Effects represent I/O operations as data that can be interpreted by the shell.
type Effect interface {
	// EffectType returns a string identifier for the effect type.
	EffectType() string
}

// LogEffect represents a logging operation.
type LogEffect struct {
	Level   string // "warn" or "error"; anything else logs at info
	Message string
	Fields  map[string]any
}

func (e LogEffect) EffectType() string { return "log" }

// IssueUpdateEffect sets the escalation fields of an issue.
// AutoEscalatedAt nil leaves the stored value unchanged.
type IssueUpdateEffect struct {
	IssueID              string
	EscalatedLevel       int
	AssignedRole         string
	AssignedToUID        string // Empty clears the assignee
	ManualEscalationUsed bool
	AutoEscalatedAt      *time.Time
	UpdatedAt            time.Time
}

func (e IssueUpdateEffect) EffectType() string { return "issue_update" }

// HistoryAppendEffect appends one entry to an issue's escalation history.
type HistoryAppendEffect struct {
	IssueID string
	Type    string // "auto" or "manual"
	From    string
	To      string
	At      time.Time
	Reason  string
	Level   int
}

func (e HistoryAppendEffect) EffectType() string { return "history_append" }

// MailEnqueueEffect inserts a pending record into the mail queue.
type MailEnqueueEffect struct {
	ID        string
	To        string
	Subject   string
	HTML      string
	CreatedAt time.Time
}

func (e MailEnqueueEffect) EffectType() string { return "mail_enqueue" }
