package db

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_issues_authorities_mail_queue",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "move_escalation_history_to_table",
		Up:      migrationV2,
	},
	{
		Version: 3,
		Name:    "add_mail_delivery_columns",
		Up:      migrationV3,
	},
}

func createVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}

// RunMigrations executes all pending migrations
func RunMigrations(db *sql.DB) error {
	if err := createVersionTable(db); err != nil {
		return err
	}

	// Get current schema version
	var currentVersion int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	// Run pending migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		_, err = tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// migrationV1 creates the original tables. History lived in a JSON column
// on issues and mail records had no delivery bookkeeping.
func migrationV1(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS issues (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			category TEXT,
			reporter_uid TEXT NOT NULL,
			panchayat_id TEXT,
			taluk TEXT,
			district TEXT,
			status TEXT NOT NULL CHECK(status IN ('pending', 'verified', 'assigned', 'in_progress', 'resolved', 'closed')) DEFAULT 'pending',
			escalated_level INTEGER NOT NULL DEFAULT 0,
			assigned_role TEXT,
			assigned_to_uid TEXT,
			sla_days INTEGER,
			resolve_due_at DATETIME,
			manual_escalation_used INTEGER NOT NULL DEFAULT 0,
			auto_escalated_at DATETIME,
			escalation_history TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS authorities (
			uid TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			role TEXT NOT NULL CHECK(role IN ('pdo', 'tdo', 'ddo')),
			panchayat_id TEXT,
			taluk TEXT,
			district TEXT,
			verified INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS mail_queue (
			id TEXT PRIMARY KEY,
			to_address TEXT NOT NULL,
			subject TEXT NOT NULL,
			html TEXT NOT NULL,
			status TEXT NOT NULL CHECK(status IN ('pending', 'sent', 'failed')) DEFAULT 'pending',
			created_at DATETIME NOT NULL
		);
	`)
	return err
}

// migrationV2 moves escalation history into its own append-only table.
// Entries of the legacy JSON column are copied over in array order before
// the column is dropped. Unparseable JSON or entries with an unknown type
// are skipped.
func migrationV2(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS escalation_history (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			issue_id TEXT NOT NULL,
			type TEXT NOT NULL CHECK(type IN ('auto', 'manual')),
			from_role TEXT NOT NULL,
			to_role TEXT NOT NULL,
			at DATETIME NOT NULL,
			reason TEXT NOT NULL,
			level INTEGER NOT NULL,
			FOREIGN KEY (issue_id) REFERENCES issues(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_escalation_history_issue ON escalation_history(issue_id);
		CREATE INDEX IF NOT EXISTS idx_issues_status_due ON issues(status, resolve_due_at);
		CREATE INDEX IF NOT EXISTS idx_issues_reporter ON issues(reporter_uid);
		CREATE INDEX IF NOT EXISTS idx_authorities_role ON authorities(role, verified);

		INSERT INTO escalation_history (issue_id, type, from_role, to_role, at, reason, level)
		SELECT i.id,
			json_extract(e.value, '$.type'),
			COALESCE(json_extract(e.value, '$.from'), ''),
			COALESCE(json_extract(e.value, '$.to'), ''),
			COALESCE(json_extract(e.value, '$.at'), i.updated_at),
			COALESCE(json_extract(e.value, '$.reason'), ''),
			COALESCE(json_extract(e.value, '$.level'), i.escalated_level)
		FROM issues AS i,
			json_each(CASE WHEN json_valid(i.escalation_history) THEN i.escalation_history ELSE '[]' END) AS e
		WHERE json_extract(e.value, '$.type') IN ('auto', 'manual')
		ORDER BY i.id, e.key;

		ALTER TABLE issues DROP COLUMN escalation_history;
	`)
	return err
}

// migrationV3 adds delivery bookkeeping for the mail worker.
func migrationV3(tx *sql.Tx) error {
	_, err := tx.Exec(`
		ALTER TABLE mail_queue ADD COLUMN attempts INTEGER NOT NULL DEFAULT 0;
		ALTER TABLE mail_queue ADD COLUMN last_error TEXT;
		ALTER TABLE mail_queue ADD COLUMN sent_at DATETIME;
		CREATE INDEX IF NOT EXISTS idx_mail_queue_status ON mail_queue(status, created_at);
	`)
	return err
}
