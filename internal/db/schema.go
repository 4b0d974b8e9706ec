package db

import "database/sql"

// SchemaSQL is the complete modern schema for fresh VITAL installs.
// This schema reflects the current state after all migrations.
//
// # Schema Drift Protection
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All repository
// tests load it via GetSchemaSQL(); if repository code references a column
// that doesn't exist here, tests fail immediately with "no such column".
//
// When adding new columns or tables:
//  1. Add a migration in migrations.go
//  2. Update SchemaSQL here
//  3. Run `make test` to verify alignment
const SchemaSQL = `
-- Issues (villager reports under escalation)
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
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_issues_status_due ON issues(status, resolve_due_at);
CREATE INDEX IF NOT EXISTS idx_issues_reporter ON issues(reporter_uid);

-- Escalation history (append-only)
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

-- Authorities (verified officials scoped to a jurisdiction)
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

CREATE INDEX IF NOT EXISTS idx_authorities_role ON authorities(role, verified);

-- Mail queue (outbound notifications)
CREATE TABLE IF NOT EXISTS mail_queue (
	id TEXT PRIMARY KEY,
	to_address TEXT NOT NULL,
	subject TEXT NOT NULL,
	html TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('pending', 'sent', 'failed')) DEFAULT 'pending',
	attempts INTEGER NOT NULL DEFAULT 0,
	last_error TEXT,
	created_at DATETIME NOT NULL,
	sent_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_mail_queue_status ON mail_queue(status, created_at);
`

// InitSchema creates the database schema
func InitSchema(db *sql.DB) error {
	// Check if schema_version table exists to determine if this is a fresh install
	var tableCount int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount > 0 {
		// schema_version table exists - run any pending migrations
		return RunMigrations(db)
	}

	// Fresh install - check if we have pre-versioning tables (migrations needed)
	var oldTableCount int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name = 'issues'").Scan(&oldTableCount)
	if err != nil {
		return err
	}
	if oldTableCount > 0 {
		return RunMigrations(db)
	}

	// Completely fresh install - create modern schema directly
	if _, err := db.Exec(SchemaSQL); err != nil {
		return err
	}
	if err := createVersionTable(db); err != nil {
		return err
	}
	// Mark all migrations as applied for fresh installs
	for _, m := range migrations {
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return err
		}
	}
	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
