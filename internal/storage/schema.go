// Package storage persists compiled module definitions and build history in
// SQLite.
package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// SchemaVersion is written to cache_metadata when the schema is created.
const SchemaVersion = "1.0"

// CreateSchema creates all tables and indexes in a single transaction.
//
// Must be called with SQLite PRAGMA foreign_keys = ON.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	tables := []struct {
		name string
		ddl  string
	}{
		{"builds", createBuildsTable},
		{"module_defs", createModuleDefsTable},
		{"module_dependencies", createModuleDependenciesTable},
		{"cache_metadata", createCacheMetadataTable},
	}

	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(
		`INSERT INTO cache_metadata (key, value, updated_at) VALUES ('schema_version', ?, ?)`,
		SchemaVersion, now,
	); err != nil {
		return fmt.Errorf("failed to bootstrap cache_metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

// GetSchemaVersion retrieves the schema version from cache_metadata.
// Returns "0" if the table doesn't exist (new database).
func GetSchemaVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='cache_metadata'").Scan(&tableExists)
	if err != nil {
		return "", fmt.Errorf("failed to check cache_metadata existence: %w", err)
	}
	if tableExists == 0 {
		return "0", nil
	}

	value, ok, err := GetMetadata(db, "schema_version")
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("schema_version key not found in cache_metadata")
	}
	return value, nil
}

const createBuildsTable = `
CREATE TABLE builds (
    build_id TEXT PRIMARY KEY,                   -- UUID
    root TEXT NOT NULL,                          -- Directory the build scanned
    status TEXT NOT NULL,                        -- running, succeeded, failed
    started_at TEXT NOT NULL,                    -- ISO 8601
    finished_at TEXT,                            -- NULL while running
    succeeded INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0
)
`

const createModuleDefsTable = `
CREATE TABLE module_defs (
    qualified_name TEXT PRIMARY KEY,             -- prefix://namespace:name
    prefix TEXT NOT NULL,
    namespace TEXT NOT NULL,
    name TEXT NOT NULL,
    tag_name TEXT NOT NULL,
    location_file TEXT NOT NULL,
    location_line INTEGER NOT NULL DEFAULT -1,
    access TEXT NOT NULL,                        -- INTERNAL or PUBLIC
    path TEXT NOT NULL,                          -- Base file path
    custom_element_name TEXT NOT NULL,
    compiled_code TEXT NOT NULL,
    own_hash TEXT NOT NULL,                      -- SHA-256 of qualified name + code
    support TEXT NOT NULL,
    min_version REAL,                            -- NULL when unset
    targets TEXT NOT NULL DEFAULT '[]',          -- JSON array
    attributes TEXT NOT NULL DEFAULT '{}',       -- JSON object keyed by attribute name
    fingerprint TEXT NOT NULL DEFAULT '',        -- Bundle content key
    build_id TEXT,
    updated_at TEXT NOT NULL,
    FOREIGN KEY (build_id) REFERENCES builds(build_id) ON DELETE SET NULL
)
`

const createModuleDependenciesTable = `
CREATE TABLE module_dependencies (
    qualified_name TEXT NOT NULL,
    position INTEGER NOT NULL,                   -- Order as reported by the compiler
    dependency TEXT NOT NULL,
    PRIMARY KEY (qualified_name, position),
    FOREIGN KEY (qualified_name) REFERENCES module_defs(qualified_name) ON DELETE CASCADE
)
`

const createCacheMetadataTable = `
CREATE TABLE cache_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
)
`

var indexes = []string{
	"CREATE INDEX idx_module_defs_namespace ON module_defs(namespace)",
	"CREATE INDEX idx_module_defs_build ON module_defs(build_id)",
	"CREATE INDEX idx_module_dependencies_dependency ON module_dependencies(dependency)",
	"CREATE INDEX idx_builds_started ON builds(started_at)",
}
