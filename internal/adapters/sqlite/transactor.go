package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/vital/internal/ports/secondary"
)

// Transactor implements secondary.Transactor with SQLite transactions.
type Transactor struct {
	db *sql.DB
}

// NewTransactor creates a new SQLite transactor.
func NewTransactor(db *sql.DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTx runs fn inside a single transaction. Any error from fn, or a
// panic, rolls back every write made through the EscalationTx.
func (t *Transactor) WithinTx(ctx context.Context, fn func(tx secondary.EscalationTx) error) (err error) {
	sqlTx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&escalationTx{tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// escalationTx implements secondary.EscalationTx over an open *sql.Tx.
type escalationTx struct {
	tx *sql.Tx
}

// UpdateIssueEscalation writes the escalation fields of one issue. A nil
// AutoEscalatedAt keeps the stored value.
func (e *escalationTx) UpdateIssueEscalation(ctx context.Context, u *secondary.IssueEscalationUpdate) error {
	result, err := e.tx.ExecContext(ctx,
		`UPDATE issues SET
			escalated_level = ?,
			assigned_role = ?,
			assigned_to_uid = ?,
			manual_escalation_used = ?,
			auto_escalated_at = COALESCE(?, auto_escalated_at),
			updated_at = ?
		 WHERE id = ?`,
		u.EscalatedLevel,
		u.AssignedRole,
		nullString(u.AssignedToUID),
		u.ManualEscalationUsed,
		nullTime(u.AutoEscalatedAt),
		storedTime(u.UpdatedAt),
		u.IssueID,
	)
	if err != nil {
		return fmt.Errorf("failed to update issue escalation: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("issue %s: %w", u.IssueID, secondary.ErrNotFound)
	}

	return nil
}

// AppendHistory appends one history entry. Sequence numbers are assigned
// by the database.
func (e *escalationTx) AppendHistory(ctx context.Context, h *secondary.HistoryRecord) error {
	result, err := e.tx.ExecContext(ctx,
		`INSERT INTO escalation_history (issue_id, type, from_role, to_role, at, reason, level)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.IssueID, h.Type, h.From, h.To, storedTime(h.At), h.Reason, h.Level,
	)
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}

	if seq, err := result.LastInsertId(); err == nil {
		h.Seq = seq
	}

	return nil
}

// EnqueueMail inserts a pending mail record.
func (e *escalationTx) EnqueueMail(ctx context.Context, mail *secondary.MailRecord) error {
	return insertMail(ctx, e.tx, mail)
}

// Ensure implementations satisfy the interfaces
var (
	_ secondary.Transactor   = (*Transactor)(nil)
	_ secondary.EscalationTx = (*escalationTx)(nil)
)
