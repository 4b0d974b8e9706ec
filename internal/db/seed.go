package db

import (
	"database/sql"
	"fmt"
	"time"
)

// SeedFixtures populates the database with development fixtures: one
// authority per role for a sample jurisdiction and a handful of issues at
// different points of the escalation ladder. Existing rows are kept.
func SeedFixtures(database *sql.DB) error {
	now := time.Now().UTC().Truncate(time.Second)
	days := func(n int) time.Time { return now.AddDate(0, 0, -n) }

	// Authorities
	authorities := []struct{ uid, name, email, role, panchayat, taluk, district string }{
		{"AUTH-PDO-001", "Lakshmi R", "pdo.hosahalli@example.org", "pdo", "PAN-001", "", ""},
		{"AUTH-TDO-001", "Suresh K", "tdo.kunigal@example.org", "tdo", "", "Kunigal", "Tumakuru"},
		{"AUTH-DDO-001", "Anitha M", "ddo.tumakuru@example.org", "ddo", "", "", "Tumakuru"},
	}
	for _, a := range authorities {
		if _, err := database.Exec(
			`INSERT OR IGNORE INTO authorities (uid, name, email, role, panchayat_id, taluk, district, verified, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?)`,
			a.uid, a.name, a.email, a.role, nullIfEmpty(a.panchayat), nullIfEmpty(a.taluk), nullIfEmpty(a.district), now,
		); err != nil {
			return fmt.Errorf("seed authorities: %w", err)
		}
	}

	// Issues
	issues := []struct {
		id, title, reporter, status, role string
		level, ageDays                    int
	}{
		{"ISSUE-001", "Broken streetlight near school", "USER-001", "pending", "pdo", 0, 2},
		{"ISSUE-002", "Drinking water pipeline leak", "USER-002", "pending", "pdo", 0, 9},
		{"ISSUE-003", "Road pothole on market road", "USER-001", "in_progress", "tdo", 1, 20},
		{"ISSUE-004", "Drainage overflow", "USER-003", "resolved", "pdo", 0, 12},
	}
	for _, is := range issues {
		created := days(is.ageDays)
		due := created.AddDate(0, 0, 7)
		if _, err := database.Exec(
			`INSERT OR IGNORE INTO issues (id, title, category, reporter_uid, panchayat_id, taluk, district, status,
			 escalated_level, assigned_role, sla_days, resolve_due_at, created_at, updated_at)
			 VALUES (?, ?, 'infrastructure', ?, 'PAN-001', 'Kunigal', 'Tumakuru', ?, ?, ?, 7, ?, ?, ?)`,
			is.id, is.title, is.reporter, is.status, is.level, is.role, due, created, created,
		); err != nil {
			return fmt.Errorf("seed issues: %w", err)
		}
	}

	return nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
