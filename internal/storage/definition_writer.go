package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/mvp-joe/modforge/internal/definition"
)

// Build statuses.
const (
	BuildRunning   = "running"
	BuildSucceeded = "succeeded"
	BuildFailed    = "failed"
)

// DefinitionWriter records builds and the definitions they produce.
type DefinitionWriter struct {
	db *sql.DB
}

// NewDefinitionWriter creates a DefinitionWriter instance.
// DB must have schema already created via CreateSchema().
func NewDefinitionWriter(db *sql.DB) *DefinitionWriter {
	return &DefinitionWriter{db: db}
}

// BeginBuild registers a running build for root and returns its ID.
func (w *DefinitionWriter) BeginBuild(root string) (string, error) {
	buildID := uuid.New().String()
	_, err := sq.Insert("builds").
		Columns("build_id", "root", "status", "started_at").
		Values(buildID, root, BuildRunning, time.Now().UTC().Format(time.RFC3339)).
		RunWith(w.db).
		Exec()
	if err != nil {
		return "", fmt.Errorf("failed to begin build: %w", err)
	}
	return buildID, nil
}

// FinishBuild stamps the outcome of a build. A build with failures is
// recorded as failed even though its successful definitions were kept.
func (w *DefinitionWriter) FinishBuild(buildID string, succeeded, failed int) error {
	status := BuildSucceeded
	if failed > 0 {
		status = BuildFailed
	}

	res, err := sq.Update("builds").
		Set("status", status).
		Set("finished_at", time.Now().UTC().Format(time.RFC3339)).
		Set("succeeded", succeeded).
		Set("failed", failed).
		Where(sq.Eq{"build_id": buildID}).
		RunWith(w.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to finish build %s: %w", buildID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("build %s not found", buildID)
	}
	return nil
}

// WriteDefinition stores def, replacing any earlier version, together with its
// ordered dependency list. buildID may be empty for one-off compiles.
func (w *DefinitionWriter) WriteDefinition(buildID string, def *definition.ModuleDef, fingerprint string) error {
	qn := def.Descriptor().QualifiedName()

	targets, err := json.Marshal(def.Targets())
	if err != nil {
		return fmt.Errorf("failed to encode targets for %s: %w", qn, err)
	}
	attributes, err := json.Marshal(def.Attributes())
	if err != nil {
		return fmt.Errorf("failed to encode attributes for %s: %w", qn, err)
	}
	var minVersion any
	if v, ok := def.MinVersion(); ok {
		minVersion = v
	}
	var build any
	if buildID != "" {
		build = buildID
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	if _, err := sq.Delete("module_dependencies").
		Where(sq.Eq{"qualified_name": qn}).
		RunWith(tx).
		Exec(); err != nil {
		return fmt.Errorf("failed to clear dependencies for %s: %w", qn, err)
	}

	desc := def.Descriptor()
	loc := def.Location()
	_, err = sq.Insert("module_defs").
		Columns(
			"qualified_name", "prefix", "namespace", "name", "tag_name",
			"location_file", "location_line", "access", "path", "custom_element_name",
			"compiled_code", "own_hash", "support", "min_version", "targets", "attributes",
			"fingerprint", "build_id", "updated_at",
		).
		Values(
			qn, desc.Prefix, desc.Namespace, desc.Name, def.TagName(),
			loc.File, loc.Line, string(def.Access()), def.Path(), def.CustomElementName(),
			def.CompiledCode(), def.OwnHash(), string(def.Support()), minVersion, string(targets), string(attributes),
			fingerprint, build, time.Now().UTC().Format(time.RFC3339),
		).
		Options("OR REPLACE").
		RunWith(tx).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to write definition %s: %w", qn, err)
	}

	deps := def.Dependencies()
	if len(deps) > 0 {
		insert := sq.Insert("module_dependencies").Columns("qualified_name", "position", "dependency")
		for i, dep := range deps {
			insert = insert.Values(qn, i, dep)
		}
		if _, err := insert.RunWith(tx).Exec(); err != nil {
			return fmt.Errorf("failed to write dependencies for %s: %w", qn, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit definition %s: %w", qn, err)
	}
	return nil
}

// DeleteDefinition removes desc and its dependency rows. Deleting a missing
// definition is not an error.
func (w *DefinitionWriter) DeleteDefinition(desc definition.Descriptor) error {
	_, err := sq.Delete("module_defs").
		Where(sq.Eq{"qualified_name": desc.QualifiedName()}).
		RunWith(w.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to delete definition %s: %w", desc, err)
	}
	return nil
}
