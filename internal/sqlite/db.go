package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps an
	// in-memory database from splitting across pool connections.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema if it does not exist yet.
func (db *DB) RunMigrations() error {
	migration := `
-- Report definitions
CREATE TABLE IF NOT EXISTS report_definitions (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT,
    runs INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Groups, users and role features
CREATE TABLE IF NOT EXISTS user_groups (
    id TEXT PRIMARY KEY,
    description TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    current_group_id TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (current_group_id) REFERENCES user_groups(id)
);

CREATE TABLE IF NOT EXISTS group_members (
    group_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    PRIMARY KEY (group_id, user_id),
    FOREIGN KEY (group_id) REFERENCES user_groups(id),
    FOREIGN KEY (user_id) REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_member_user ON group_members(user_id);

CREATE TABLE IF NOT EXISTS role_features (
    role TEXT NOT NULL,
    feature TEXT NOT NULL,
    PRIMARY KEY (role, feature)
);

-- API keys for authentication
CREATE TABLE IF NOT EXISTS api_keys (
    key_hash TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    last_used TIMESTAMP,
    description TEXT,
    FOREIGN KEY (user_id) REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_user_keys ON api_keys(user_id);

-- Report results
CREATE TABLE IF NOT EXISTS results (
    id TEXT PRIMARY KEY,
    report_definition_id TEXT,
    name TEXT NOT NULL,
    snapshot BLOB,
    owner_user_id TEXT NOT NULL,
    owner_group_id TEXT NOT NULL,
    task_id TEXT,
    payload_ref TEXT,
    payload_encoding TEXT CHECK(payload_encoding IS NULL OR payload_encoding IN ('object', 'text')),
    source TEXT NOT NULL CHECK(source IN ('direct-report', 'widget-report')),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    last_run_on TIMESTAMP,
    flagged INTEGER NOT NULL DEFAULT 0,
    flag_reason TEXT NOT NULL DEFAULT '',
    FOREIGN KEY (report_definition_id) REFERENCES report_definitions(id)
);
CREATE INDEX IF NOT EXISTS idx_result_definition ON results(report_definition_id);
CREATE INDEX IF NOT EXISTS idx_result_owner_group ON results(owner_group_id);
CREATE INDEX IF NOT EXISTS idx_result_owner_user ON results(owner_user_id);

-- Payload bytes, addressed by content hash
CREATE TABLE IF NOT EXISTS blobs (
    ref TEXT PRIMARY KEY,
    codec TEXT NOT NULL,
    size INTEGER NOT NULL,
    data BLOB NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Generation tasks for the local task runner
CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    state TEXT NOT NULL CHECK(state IN ('queued', 'running', 'finished-ok', 'finished-error')),
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Activity log
CREATE TABLE IF NOT EXISTS activity_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    result_id TEXT,
    user_id TEXT NOT NULL DEFAULT '',
    activity_type TEXT NOT NULL,
    summary TEXT NOT NULL,
    details TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_result_activity ON activity_log(result_id);
CREATE INDEX IF NOT EXISTS idx_activity_type ON activity_log(activity_type);
CREATE INDEX IF NOT EXISTS idx_created_at ON activity_log(created_at);

-- Full-text search over result names (SQLite FTS5)
CREATE VIRTUAL TABLE IF NOT EXISTS results_fts USING fts5(
    name,
    content='results',
    content_rowid='rowid'
);

-- Triggers to keep FTS index synchronized
CREATE TRIGGER IF NOT EXISTS results_ai AFTER INSERT ON results BEGIN
    INSERT INTO results_fts(rowid, name) VALUES (new.rowid, new.name);
END;

CREATE TRIGGER IF NOT EXISTS results_ad AFTER DELETE ON results BEGIN
    INSERT INTO results_fts(results_fts, rowid, name) VALUES('delete', old.rowid, old.name);
END;

CREATE TRIGGER IF NOT EXISTS results_au AFTER UPDATE OF name ON results BEGIN
    INSERT INTO results_fts(results_fts, rowid, name) VALUES('delete', old.rowid, old.name);
    INSERT INTO results_fts(rowid, name) VALUES (new.rowid, new.name);
END;
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
