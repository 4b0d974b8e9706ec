// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() so tests run against the
// authoritative schema. Do not hardcode CREATE TABLE statements in test files.
package sqlite_test

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/vital/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// A single connection keeps every query on the same in-memory database.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	testDB.SetMaxOpenConns(1)

	if _, err := testDB.Exec(db.GetSchemaSQL()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// baseTime is a fixed instant used across repository tests.
var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func ptrTime(t time.Time) *time.Time { return &t }

// seedIssue inserts a pending level-0 issue created at createdAt with a 7 day SLA.
func seedIssue(t *testing.T, db *sql.DB, id string, createdAt time.Time) string {
	t.Helper()
	if id == "" {
		id = "ISSUE-001"
	}
	due := createdAt.AddDate(0, 0, 7)
	_, err := db.Exec(
		`INSERT INTO issues (id, title, reporter_uid, panchayat_id, taluk, district, status,
		 escalated_level, assigned_role, sla_days, resolve_due_at, created_at, updated_at)
		 VALUES (?, 'Test Issue', 'USER-001', 'PAN-001', 'Kunigal', 'Tumakuru', 'pending', 0, 'pdo', 7, ?, ?, ?)`,
		id, due, createdAt, createdAt,
	)
	if err != nil {
		t.Fatalf("failed to seed issue: %v", err)
	}
	return id
}

// seedAuthority inserts an authority with the given jurisdiction.
func seedAuthority(t *testing.T, db *sql.DB, uid, role, panchayatID, taluk, district string, verified bool) string {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO authorities (uid, name, email, role, panchayat_id, taluk, district, verified)
		 VALUES (?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''), ?)`,
		uid, "Officer "+uid, uid+"@example.org", role, panchayatID, taluk, district, verified,
	)
	if err != nil {
		t.Fatalf("failed to seed authority: %v", err)
	}
	return uid
}

// countRows returns the number of rows in table.
func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}
