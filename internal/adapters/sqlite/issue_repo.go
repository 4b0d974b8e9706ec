package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/vital/internal/core/escalation"
	"github.com/example/vital/internal/ports/secondary"
)

// IssueRepository implements secondary.IssueRepository with SQLite.
type IssueRepository struct {
	db *sql.DB
}

// NewIssueRepository creates a new SQLite issue repository.
func NewIssueRepository(db *sql.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

// dueAtExpr is the effective due date as a julian day: the stored
// resolve_due_at, or created_at plus the SLA (default when unset) for rows
// written without one. Takes the default SLA as its only parameter.
const dueAtExpr = `julianday(COALESCE(resolve_due_at,
	datetime(created_at, '+' || CASE WHEN sla_days > 0 THEN sla_days ELSE ? END || ' days')))`

const issueColumns = `id, title, description, category, reporter_uid, panchayat_id, taluk, district,
	status, escalated_level, assigned_role, assigned_to_uid, sla_days, resolve_due_at,
	manual_escalation_used, auto_escalated_at, created_at, updated_at`

// Create persists a new issue.
func (r *IssueRepository) Create(ctx context.Context, issue *secondary.IssueRecord) error {
	status := issue.Status
	if status == "" {
		status = "pending"
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO issues (`+issueColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		issue.ID,
		issue.Title,
		nullString(issue.Description),
		nullString(issue.Category),
		issue.ReporterUID,
		nullString(issue.PanchayatID),
		nullString(issue.Taluk),
		nullString(issue.District),
		status,
		issue.EscalatedLevel,
		nullString(issue.AssignedRole),
		nullString(issue.AssignedToUID),
		nullInt(issue.SLADays),
		nullTime(issue.ResolveDueAt),
		issue.ManualEscalationUsed,
		nullTime(issue.AutoEscalatedAt),
		storedTime(issue.CreatedAt),
		storedTime(issue.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create issue: %w", err)
	}

	return nil
}

// GetByID retrieves an issue by its ID, including its escalation history.
func (r *IssueRepository) GetByID(ctx context.Context, id string) (*secondary.IssueRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+issueColumns+" FROM issues WHERE id = ?", id)

	record, err := scanIssue(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("issue %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}

	history, err := r.ListHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	record.History = history

	return record, nil
}

// List retrieves issues matching the given filters, newest first.
func (r *IssueRepository) List(ctx context.Context, filters secondary.IssueFilters) ([]*secondary.IssueRecord, error) {
	var (
		where []string
		args  []any
	)

	if filters.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filters.Status)
	}
	if filters.ReporterUID != "" {
		where = append(where, "reporter_uid = ?")
		args = append(args, filters.ReporterUID)
	}
	if filters.DueBefore != nil {
		where = append(where, dueAtExpr+" <= julianday(?)")
		args = append(args, escalation.DefaultSLADays, storedTime(*filters.DueBefore))
	}

	query := "SELECT " + issueColumns + " FROM issues"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	return r.query(ctx, query, args...)
}

// ListOverdue retrieves issues that are not resolved or closed and whose
// effective due date has passed, oldest due date first.
func (r *IssueRepository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]*secondary.IssueRecord, error) {
	return r.query(ctx,
		"SELECT "+issueColumns+` FROM issues
		 WHERE status NOT IN ('resolved', 'closed')
		   AND `+dueAtExpr+` <= julianday(?)
		 ORDER BY `+dueAtExpr+` ASC, id ASC
		 LIMIT ?`,
		escalation.DefaultSLADays, storedTime(now), escalation.DefaultSLADays, limit,
	)
}

// ListHistory retrieves the escalation history of an issue in append order.
func (r *IssueRepository) ListHistory(ctx context.Context, issueID string) ([]*secondary.HistoryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, issue_id, type, from_role, to_role, at, reason, level
		 FROM escalation_history WHERE issue_id = ? ORDER BY seq ASC`,
		issueID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var history []*secondary.HistoryRecord
	for rows.Next() {
		entry := &secondary.HistoryRecord{}
		var at time.Time
		if err := rows.Scan(&entry.Seq, &entry.IssueID, &entry.Type, &entry.From, &entry.To, &at, &entry.Reason, &entry.Level); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		entry.At = at.UTC()
		history = append(history, entry)
	}

	return history, rows.Err()
}

func (r *IssueRepository) query(ctx context.Context, query string, args ...any) ([]*secondary.IssueRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer rows.Close()

	var issues []*secondary.IssueRecord
	for rows.Next() {
		record, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issues = append(issues, record)
	}

	return issues, rows.Err()
}

func scanIssue(row rowScanner) (*secondary.IssueRecord, error) {
	var (
		description     sql.NullString
		category        sql.NullString
		panchayatID     sql.NullString
		taluk           sql.NullString
		district        sql.NullString
		assignedRole    sql.NullString
		assignedToUID   sql.NullString
		slaDays         sql.NullInt64
		resolveDueAt    sql.NullTime
		autoEscalatedAt sql.NullTime
		createdAt       time.Time
		updatedAt       time.Time
	)

	record := &secondary.IssueRecord{}
	err := row.Scan(
		&record.ID,
		&record.Title,
		&description,
		&category,
		&record.ReporterUID,
		&panchayatID,
		&taluk,
		&district,
		&record.Status,
		&record.EscalatedLevel,
		&assignedRole,
		&assignedToUID,
		&slaDays,
		&resolveDueAt,
		&record.ManualEscalationUsed,
		&autoEscalatedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Description = description.String
	record.Category = category.String
	record.PanchayatID = panchayatID.String
	record.Taluk = taluk.String
	record.District = district.String
	record.AssignedRole = assignedRole.String
	record.AssignedToUID = assignedToUID.String
	record.SLADays = int(slaDays.Int64)
	record.ResolveDueAt = timePtr(resolveDueAt)
	record.AutoEscalatedAt = timePtr(autoEscalatedAt)
	record.CreatedAt = createdAt.UTC()
	record.UpdatedAt = updatedAt.UTC()

	return record, nil
}

// Ensure IssueRepository implements the interface
var _ secondary.IssueRepository = (*IssueRepository)(nil)
