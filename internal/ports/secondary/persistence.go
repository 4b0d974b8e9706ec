// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is wrapped by repositories when a record does not exist.
var ErrNotFound = errors.New("not found")

// IssueRepository defines the secondary port for issue persistence.
// Escalation writes go through EscalationTx, never through this interface.
type IssueRepository interface {
	// Create persists a new issue.
	Create(ctx context.Context, issue *IssueRecord) error

	// GetByID retrieves an issue by its ID, including its history.
	GetByID(ctx context.Context, id string) (*IssueRecord, error)

	// List retrieves issues matching the given filters.
	List(ctx context.Context, filters IssueFilters) ([]*IssueRecord, error)

	// ListOverdue retrieves unresolved issues with resolve_due_at <= now,
	// oldest due date first, at most limit rows.
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]*IssueRecord, error)

	// ListHistory retrieves the escalation history of an issue in append order.
	ListHistory(ctx context.Context, issueID string) ([]*HistoryRecord, error)
}

// IssueRecord represents an issue as stored in persistence.
type IssueRecord struct {
	ID                   string
	Title                string
	Description          string
	Category             string
	ReporterUID          string
	PanchayatID          string // Empty string means null
	Taluk                string // Empty string means null
	District             string // Empty string means null
	Status               string
	EscalatedLevel       int
	AssignedRole         string // Empty string means null
	AssignedToUID        string // Empty string means null
	SLADays              int    // 0 means null
	ResolveDueAt         *time.Time
	ManualEscalationUsed bool
	AutoEscalatedAt      *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
	History              []*HistoryRecord
}

// HistoryRecord represents one escalation history entry.
type HistoryRecord struct {
	Seq     int64
	IssueID string
	Type    string // 'auto', 'manual'
	From    string
	To      string
	At      time.Time
	Reason  string
	Level   int
}

// IssueFilters contains filter options for querying issues.
type IssueFilters struct {
	Status      string
	ReporterUID string
	DueBefore   *time.Time
	Limit       int
}

// AuthorityRepository defines the secondary port for authority persistence.
type AuthorityRepository interface {
	// Create persists a new authority.
	Create(ctx context.Context, authority *AuthorityRecord) error

	// GetByUID retrieves an authority by its UID.
	GetByUID(ctx context.Context, uid string) (*AuthorityRecord, error)

	// FindOne returns the first verified authority matching the query.
	// Order among several matches is unspecified.
	FindOne(ctx context.Context, query AuthorityQuery) (*AuthorityRecord, error)

	// List retrieves authorities matching the given filters.
	List(ctx context.Context, filters AuthorityFilters) ([]*AuthorityRecord, error)
}

// AuthorityRecord represents an authority as stored in persistence.
type AuthorityRecord struct {
	UID         string
	Name        string
	Email       string
	Role        string
	PanchayatID string // Empty string means null
	Taluk       string // Empty string means null
	District    string // Empty string means null
	Verified    bool
	CreatedAt   time.Time
}

// AuthorityQuery selects authorities for a role. Empty fields are not filtered.
type AuthorityQuery struct {
	Role        string
	PanchayatID string
	Taluk       string
	District    string
}

// AuthorityFilters contains filter options for listing authorities.
type AuthorityFilters struct {
	Role         string
	District     string
	VerifiedOnly bool
}

// MailQueueRepository defines the secondary port for the mail queue consumer.
// Inserts happen inside EscalationTx together with the issue update.
type MailQueueRepository interface {
	// GetByID retrieves a mail record by its ID.
	GetByID(ctx context.Context, id string) (*MailRecord, error)

	// List retrieves mail records matching the given filters, newest first.
	List(ctx context.Context, filters MailFilters) ([]*MailRecord, error)

	// ListPending retrieves pending records, oldest first.
	ListPending(ctx context.Context, limit int) ([]*MailRecord, error)

	// MarkSent marks a record as delivered.
	MarkSent(ctx context.Context, id string, sentAt time.Time) error

	// RecordFailure increments the attempt counter and stores the error.
	// When final is true the record moves to 'failed'.
	RecordFailure(ctx context.Context, id, lastError string, final bool) error
}

// MailRecord represents a mail queue record as stored in persistence.
type MailRecord struct {
	ID        string
	To        string
	Subject   string
	HTML      string
	Status    string // 'pending', 'sent', 'failed'
	Attempts  int
	LastError string // Empty string means null
	CreatedAt time.Time
	SentAt    *time.Time
}

// MailFilters contains filter options for querying mail records.
type MailFilters struct {
	Status string
	Limit  int
}

// Transactor runs a unit of work atomically.
type Transactor interface {
	// WithinTx runs fn in a transaction. The transaction commits when fn returns
	// nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx EscalationTx) error) error
}

// EscalationTx is the set of writes allowed inside an escalation transaction.
type EscalationTx interface {
	// UpdateIssueEscalation writes the escalation fields of an issue.
	UpdateIssueEscalation(ctx context.Context, update *IssueEscalationUpdate) error

	// AppendHistory appends one history entry.
	AppendHistory(ctx context.Context, entry *HistoryRecord) error

	// EnqueueMail inserts a pending mail record.
	EnqueueMail(ctx context.Context, mail *MailRecord) error
}

// IssueEscalationUpdate describes the fields written by an escalation.
type IssueEscalationUpdate struct {
	IssueID              string
	EscalatedLevel       int
	AssignedRole         string
	AssignedToUID        string // Empty string writes null
	ManualEscalationUsed bool
	AutoEscalatedAt      *time.Time // Nil keeps the stored value
	UpdatedAt            time.Time
}
