package secondary

import (
	"context"
	"time"
)

// EventPublisher defines the secondary port for publishing escalation events
// to downstream consumers (analytics, dashboards). Publishing happens after
// the escalation transaction commits and is best effort.
type EventPublisher interface {
	// PublishEscalation publishes one escalation event.
	PublishEscalation(ctx context.Context, event EscalationEvent) error

	// Close flushes and releases the publisher.
	Close() error
}

// EscalationEvent describes a committed escalation.
type EscalationEvent struct {
	IssueID       string    `json:"issueId"`
	Type          string    `json:"type"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	Level         int       `json:"level"`
	Reason        string    `json:"reason"`
	AssignedToUID string    `json:"assignedToUid,omitempty"`
	At            time.Time `json:"at"`
}
