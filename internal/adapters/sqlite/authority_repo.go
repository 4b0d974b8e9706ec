package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/vital/internal/ports/secondary"
)

// AuthorityRepository implements secondary.AuthorityRepository with SQLite.
type AuthorityRepository struct {
	db *sql.DB
}

// NewAuthorityRepository creates a new SQLite authority repository.
func NewAuthorityRepository(db *sql.DB) *AuthorityRepository {
	return &AuthorityRepository{db: db}
}

const authorityColumns = "uid, name, email, role, panchayat_id, taluk, district, verified, created_at"

// Create persists a new authority.
func (r *AuthorityRepository) Create(ctx context.Context, authority *secondary.AuthorityRecord) error {
	createdAt := authority.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO authorities ("+authorityColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		authority.UID,
		authority.Name,
		authority.Email,
		authority.Role,
		nullString(authority.PanchayatID),
		nullString(authority.Taluk),
		nullString(authority.District),
		authority.Verified,
		storedTime(createdAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create authority: %w", err)
	}

	return nil
}

// GetByUID retrieves an authority by its UID.
func (r *AuthorityRepository) GetByUID(ctx context.Context, uid string) (*secondary.AuthorityRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+authorityColumns+" FROM authorities WHERE uid = ?", uid)

	record, err := scanAuthority(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("authority %s: %w", uid, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get authority: %w", err)
	}

	return record, nil
}

// FindOne returns the first verified authority for the role whose
// jurisdiction fields equal the non-empty query fields. No ordering is
// applied; with several matches any one of them may be returned.
func (r *AuthorityRepository) FindOne(ctx context.Context, q secondary.AuthorityQuery) (*secondary.AuthorityRecord, error) {
	where := []string{"role = ?", "verified = 1"}
	args := []any{q.Role}

	if q.PanchayatID != "" {
		where = append(where, "panchayat_id = ?")
		args = append(args, q.PanchayatID)
	}
	if q.Taluk != "" {
		where = append(where, "taluk = ?")
		args = append(args, q.Taluk)
	}
	if q.District != "" {
		where = append(where, "district = ?")
		args = append(args, q.District)
	}

	row := r.db.QueryRowContext(ctx,
		"SELECT "+authorityColumns+" FROM authorities WHERE "+strings.Join(where, " AND ")+" LIMIT 1",
		args...,
	)

	record, err := scanAuthority(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("authority for %s: %w", q.Role, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find authority: %w", err)
	}

	return record, nil
}

// List retrieves authorities matching the given filters ordered by role then name.
func (r *AuthorityRepository) List(ctx context.Context, filters secondary.AuthorityFilters) ([]*secondary.AuthorityRecord, error) {
	var (
		where []string
		args  []any
	)

	if filters.Role != "" {
		where = append(where, "role = ?")
		args = append(args, filters.Role)
	}
	if filters.District != "" {
		where = append(where, "district = ?")
		args = append(args, filters.District)
	}
	if filters.VerifiedOnly {
		where = append(where, "verified = 1")
	}

	query := "SELECT " + authorityColumns + " FROM authorities"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY role ASC, name ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list authorities: %w", err)
	}
	defer rows.Close()

	var authorities []*secondary.AuthorityRecord
	for rows.Next() {
		record, err := scanAuthority(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan authority: %w", err)
		}
		authorities = append(authorities, record)
	}

	return authorities, rows.Err()
}

func scanAuthority(row rowScanner) (*secondary.AuthorityRecord, error) {
	var (
		panchayatID sql.NullString
		taluk       sql.NullString
		district    sql.NullString
		createdAt   sql.NullTime
	)

	record := &secondary.AuthorityRecord{}
	err := row.Scan(
		&record.UID,
		&record.Name,
		&record.Email,
		&record.Role,
		&panchayatID,
		&taluk,
		&district,
		&record.Verified,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	record.PanchayatID = panchayatID.String
	record.Taluk = taluk.String
	record.District = district.String
	if createdAt.Valid {
		record.CreatedAt = createdAt.Time.UTC()
	}

	return record, nil
}

// Ensure AuthorityRepository implements the interface
var _ secondary.AuthorityRepository = (*AuthorityRepository)(nil)
