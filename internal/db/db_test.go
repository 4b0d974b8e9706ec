package db

import (
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func schemaVersion(t *testing.T, conn *sql.DB) int {
	t.Helper()
	var v int
	if err := conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&v); err != nil {
		t.Fatalf("failed to read schema version: %v", err)
	}
	return v
}

func TestInitSchema_FreshInstall(t *testing.T) {
	conn := openMemory(t)

	if err := InitSchema(conn); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}

	if got, want := schemaVersion(t, conn), migrations[len(migrations)-1].Version; got != want {
		t.Errorf("expected schema version %d, got %d", want, got)
	}

	for _, table := range []string{"issues", "escalation_history", "authorities", "mail_queue"} {
		var n int
		if err := conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&n); err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if n != 1 {
			t.Errorf("expected table %s to exist", table)
		}
	}

	// Running again is a no-op
	if err := InitSchema(conn); err != nil {
		t.Fatalf("second InitSchema failed: %v", err)
	}
}

func TestInitSchema_MigratesLegacyTables(t *testing.T) {
	conn := openMemory(t)

	tx, err := conn.Begin()
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if err := migrationV1(tx); err != nil {
		t.Fatalf("legacy schema failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	_, err = conn.Exec(`INSERT INTO mail_queue (id, to_address, subject, html, created_at)
		VALUES ('MAIL-1', 'a@example.org', 's', '<p>x</p>', CURRENT_TIMESTAMP)`)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	_, err = conn.Exec(`INSERT INTO issues (id, title, reporter_uid, status, escalated_level, assigned_role,
		escalation_history, created_at, updated_at)
		VALUES
		('ISSUE-1', 'Broken handpump', 'USER-1', 'assigned', 2, 'ddo',
		 '[{"type":"auto","from":"pdo","to":"tdo","at":"2026-03-08 09:00:00+00:00","reason":"due date passed and not resolved","level":1},
		   {"type":"manual","from":"tdo","to":"ddo","at":"2026-03-10 09:00:00+00:00","reason":"Villager escalated after due date","level":2}]',
		 '2026-03-01 09:00:00+00:00', '2026-03-10 09:00:00+00:00'),
		('ISSUE-2', 'Streetlight', 'USER-2', 'pending', 0, 'pdo', NULL,
		 '2026-03-01 09:00:00+00:00', '2026-03-01 09:00:00+00:00'),
		('ISSUE-3', 'Drain', 'USER-3', 'pending', 0, 'pdo', 'not json',
		 '2026-03-01 09:00:00+00:00', '2026-03-01 09:00:00+00:00')`)
	if err != nil {
		t.Fatalf("insert legacy issues failed: %v", err)
	}

	if err := InitSchema(conn); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}

	var attempts int
	if err := conn.QueryRow("SELECT attempts FROM mail_queue WHERE id = 'MAIL-1'").Scan(&attempts); err != nil {
		t.Fatalf("expected attempts column after migration: %v", err)
	}
	if attempts != 0 {
		t.Errorf("expected attempts 0, got %d", attempts)
	}

	var n int
	if err := conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='escalation_history'").Scan(&n); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if n != 1 {
		t.Error("expected escalation_history table after migration")
	}

	rows, err := conn.Query(`SELECT issue_id, type, from_role, to_role, reason, level
		FROM escalation_history ORDER BY seq`)
	if err != nil {
		t.Fatalf("history query failed: %v", err)
	}
	defer rows.Close()
	var got []string
	for rows.Next() {
		var issueID, typ, from, to, reason string
		var level int
		if err := rows.Scan(&issueID, &typ, &from, &to, &reason, &level); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		got = append(got, fmt.Sprintf("%s %s %s->%s %d %s", issueID, typ, from, to, level, reason))
	}
	want := []string{
		"ISSUE-1 auto pdo->tdo 1 due date passed and not resolved",
		"ISSUE-1 manual tdo->ddo 2 Villager escalated after due date",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d history rows after migration, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("history row %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	var issues int
	if err := conn.QueryRow("SELECT COUNT(*) FROM issues").Scan(&issues); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if issues != 3 {
		t.Errorf("expected all 3 issues kept, got %d", issues)
	}
}

func TestSeedFixtures(t *testing.T) {
	conn := openMemory(t)
	if err := InitSchema(conn); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := SeedFixtures(conn); err != nil {
			t.Fatalf("SeedFixtures run %d failed: %v", i+1, err)
		}
	}

	var issues, authorities int
	conn.QueryRow("SELECT COUNT(*) FROM issues").Scan(&issues)
	conn.QueryRow("SELECT COUNT(*) FROM authorities WHERE verified = 1").Scan(&authorities)
	if issues != 4 {
		t.Errorf("expected 4 issues, got %d", issues)
	}
	if authorities != 3 {
		t.Errorf("expected 3 verified authorities, got %d", authorities)
	}
}
