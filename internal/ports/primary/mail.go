package primary

import (
	"context"
	"time"
)

// MailService defines the primary port for the notification mail queue.
type MailService interface {
	// ListMail lists queued mail with optional filters.
	ListMail(ctx context.Context, filters MailFilters) ([]*MailItem, error)

	// DeliverPending sends up to limit pending records over SMTP.
	DeliverPending(ctx context.Context, limit int) (*DeliveryReport, error)
}

// MailItem represents a mail queue record at the port boundary.
type MailItem struct {
	ID        string
	To        string
	Subject   string
	Status    string // 'pending', 'sent', 'failed'
	Attempts  int
	LastError string // May be empty
	CreatedAt time.Time
	SentAt    *time.Time
}

// MailFilters contains filter options for listing mail.
type MailFilters struct {
	Status string
	Limit  int
}

// DeliveryReport summarizes one delivery pass.
type DeliveryReport struct {
	Attempted int
	Sent      int
	Retrying  int
	Failed    int
}

// Mail status constants
const (
	MailStatusPending = "pending"
	MailStatusSent    = "sent"
	MailStatusFailed  = "failed"
)
