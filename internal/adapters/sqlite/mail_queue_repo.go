package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/vital/internal/ports/secondary"
)

// MailQueueRepository implements secondary.MailQueueRepository with SQLite.
type MailQueueRepository struct {
	db *sql.DB
}

// NewMailQueueRepository creates a new SQLite mail queue repository.
func NewMailQueueRepository(db *sql.DB) *MailQueueRepository {
	return &MailQueueRepository{db: db}
}

const mailColumns = "id, to_address, subject, html, status, attempts, last_error, created_at, sent_at"

// insertMail writes a pending mail record through db or an open transaction.
func insertMail(ctx context.Context, ex execer, mail *secondary.MailRecord) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO mail_queue (id, to_address, subject, html, status, created_at)
		 VALUES (?, ?, ?, ?, 'pending', ?)`,
		mail.ID, mail.To, mail.Subject, mail.HTML, storedTime(mail.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue mail: %w", err)
	}
	return nil
}

// GetByID retrieves a mail record by its ID.
func (r *MailQueueRepository) GetByID(ctx context.Context, id string) (*secondary.MailRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+mailColumns+" FROM mail_queue WHERE id = ?", id)

	record, err := scanMail(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("mail %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mail: %w", err)
	}

	return record, nil
}

// List retrieves mail records matching the given filters, newest first.
func (r *MailQueueRepository) List(ctx context.Context, filters secondary.MailFilters) ([]*secondary.MailRecord, error) {
	var (
		where []string
		args  []any
	)

	if filters.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filters.Status)
	}

	query := "SELECT " + mailColumns + " FROM mail_queue"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	return r.query(ctx, query, args...)
}

// ListPending retrieves pending records, oldest first.
func (r *MailQueueRepository) ListPending(ctx context.Context, limit int) ([]*secondary.MailRecord, error) {
	return r.query(ctx,
		"SELECT "+mailColumns+" FROM mail_queue WHERE status = 'pending' ORDER BY created_at ASC, id ASC LIMIT ?",
		limit,
	)
}

// MarkSent marks a pending record as delivered.
func (r *MailQueueRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE mail_queue SET status = 'sent', sent_at = ?, attempts = attempts + 1, last_error = NULL WHERE id = ?",
		storedTime(sentAt), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark mail sent: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("mail %s: %w", id, secondary.ErrNotFound)
	}

	return nil
}

// RecordFailure increments the attempt counter and stores the error message.
func (r *MailQueueRepository) RecordFailure(ctx context.Context, id, lastError string, final bool) error {
	status := "pending"
	if final {
		status = "failed"
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE mail_queue SET status = ?, attempts = attempts + 1, last_error = ? WHERE id = ?",
		status, nullString(lastError), id,
	)
	if err != nil {
		return fmt.Errorf("failed to record mail failure: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("mail %s: %w", id, secondary.ErrNotFound)
	}

	return nil
}

func (r *MailQueueRepository) query(ctx context.Context, query string, args ...any) ([]*secondary.MailRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list mail: %w", err)
	}
	defer rows.Close()

	var records []*secondary.MailRecord
	for rows.Next() {
		record, err := scanMail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mail: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func scanMail(row rowScanner) (*secondary.MailRecord, error) {
	var (
		lastError sql.NullString
		createdAt time.Time
		sentAt    sql.NullTime
	)

	record := &secondary.MailRecord{}
	err := row.Scan(
		&record.ID,
		&record.To,
		&record.Subject,
		&record.HTML,
		&record.Status,
		&record.Attempts,
		&lastError,
		&createdAt,
		&sentAt,
	)
	if err != nil {
		return nil, err
	}

	record.LastError = lastError.String
	record.CreatedAt = createdAt.UTC()
	record.SentAt = timePtr(sentAt)

	return record, nil
}

// Ensure MailQueueRepository implements the interface
var _ secondary.MailQueueRepository = (*MailQueueRepository)(nil)
