package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/mvp-joe/modforge/internal/definition"
)

// DefinitionReader loads stored definitions back into ModuleDefs.
type DefinitionReader struct {
	db *sql.DB
}

// NewDefinitionReader creates a DefinitionReader instance.
func NewDefinitionReader(db *sql.DB) *DefinitionReader {
	return &DefinitionReader{db: db}
}

// StoredDefinition is a definition plus the bookkeeping stored next to it.
type StoredDefinition struct {
	Definition  *definition.ModuleDef
	Fingerprint string
	BuildID     string
	UpdatedAt   time.Time
}

// Build is a row of the builds table.
type Build struct {
	ID         string
	Root       string
	Status     string
	StartedAt  time.Time
	FinishedAt time.Time
	Succeeded  int
	Failed     int
}

var definitionColumns = []string{
	"qualified_name", "prefix", "namespace", "name", "tag_name",
	"location_file", "location_line", "access", "path", "custom_element_name",
	"compiled_code", "own_hash", "support", "min_version", "targets", "attributes",
	"fingerprint", "build_id", "updated_at",
}

// Get returns the stored definition for desc.
// Returns (nil, nil) if the definition is not stored.
func (r *DefinitionReader) Get(desc definition.Descriptor) (*StoredDefinition, error) {
	row := sq.Select(definitionColumns...).
		From("module_defs").
		Where(sq.Eq{"qualified_name": desc.QualifiedName()}).
		RunWith(r.db).
		QueryRow()

	pending, err := scanDefinition(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get definition %s: %w", desc, err)
	}
	return r.finish(pending)
}

// List returns every stored definition ordered by qualified name. An empty
// namespace lists all namespaces.
func (r *DefinitionReader) List(namespace string) ([]*StoredDefinition, error) {
	query := sq.Select(definitionColumns...).
		From("module_defs").
		OrderBy("qualified_name")
	if namespace != "" {
		query = query.Where(sq.Eq{"namespace": namespace})
	}

	rows, err := query.RunWith(r.db).Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query definitions: %w", err)
	}

	var pending []*pendingDefinition
	for rows.Next() {
		p, err := scanDefinition(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan definition: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating definitions: %w", err)
	}
	rows.Close()

	// Dependencies are loaded after the cursor closes: the pool may have only
	// one connection.
	out := make([]*StoredDefinition, 0, len(pending))
	for _, p := range pending {
		stored, err := r.finish(p)
		if err != nil {
			return nil, err
		}
		out = append(out, stored)
	}
	return out, nil
}

// Dependencies returns the ordered dependency list stored for desc.
func (r *DefinitionReader) Dependencies(desc definition.Descriptor) ([]string, error) {
	rows, err := sq.Select("dependency").
		From("module_dependencies").
		Where(sq.Eq{"qualified_name": desc.QualifiedName()}).
		OrderBy("position").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query dependencies of %s: %w", desc, err)
	}
	defer rows.Close()

	deps := []string{}
	for rows.Next() {
		var dep string
		if err := rows.Scan(&dep); err != nil {
			return nil, fmt.Errorf("failed to scan dependency: %w", err)
		}
		deps = append(deps, dep)
	}
	return deps, rows.Err()
}

// Dependents returns the qualified names of stored modules importing dep.
func (r *DefinitionReader) Dependents(dep string) ([]string, error) {
	rows, err := sq.Select("qualified_name").
		Distinct().
		From("module_dependencies").
		Where(sq.Eq{"dependency": dep}).
		OrderBy("qualified_name").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query dependents of %s: %w", dep, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan dependent: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// LatestBuild returns the most recently started build.
// Returns (nil, nil) when no build has run.
func (r *DefinitionReader) LatestBuild() (*Build, error) {
	var (
		b          Build
		startedAt  string
		finishedAt sql.NullString
	)
	err := sq.Select("build_id", "root", "status", "started_at", "finished_at", "succeeded", "failed").
		From("builds").
		OrderBy("started_at DESC", "rowid DESC").
		Limit(1).
		RunWith(r.db).
		QueryRow().
		Scan(&b.ID, &b.Root, &b.Status, &startedAt, &finishedAt, &b.Succeeded, &b.Failed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest build: %w", err)
	}

	b.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	if finishedAt.Valid {
		b.FinishedAt, _ = time.Parse(time.RFC3339, finishedAt.String)
	}
	return &b, nil
}

// pendingDefinition is a scanned row still waiting for its dependencies.
type pendingDefinition struct {
	desc    definition.Descriptor
	builder *definition.ModuleDefBuilder
	stored  *StoredDefinition
}

func scanDefinition(row sq.RowScanner) (*pendingDefinition, error) {
	var (
		qn, prefix, namespace, name, tagName string
		locFile                              string
		locLine                              int
		access, path, customElementName      string
		code, ownHash, support               string
		minVersion                           sql.NullFloat64
		targetsJSON, attributesJSON          string
		fingerprint                          string
		buildID                              sql.NullString
		updatedAt                            string
	)
	if err := row.Scan(
		&qn, &prefix, &namespace, &name, &tagName,
		&locFile, &locLine, &access, &path, &customElementName,
		&code, &ownHash, &support, &minVersion, &targetsJSON, &attributesJSON,
		&fingerprint, &buildID, &updatedAt,
	); err != nil {
		return nil, err
	}

	var targets []string
	if err := json.Unmarshal([]byte(targetsJSON), &targets); err != nil {
		return nil, fmt.Errorf("invalid targets for %s: %w", qn, err)
	}
	var attributes map[string]definition.AttributeDef
	if err := json.Unmarshal([]byte(attributesJSON), &attributes); err != nil {
		return nil, fmt.Errorf("invalid attributes for %s: %w", qn, err)
	}

	desc := definition.NewModuleDescriptor(namespace, name)
	desc.Prefix = prefix

	builder := definition.NewModuleDefBuilder().
		SetDescriptor(desc).
		SetTagName(tagName).
		SetLocation(definition.Location{File: locFile, Line: locLine}).
		SetAccess(definition.Access(access)).
		SetPath(path).
		SetCustomElementName(customElementName).
		SetCompiledCode(code).
		SetOwnHash(ownHash).
		SetSupport(definition.SupportLevel(support)).
		SetTargets(targets).
		SetAttributes(attributes)
	if minVersion.Valid {
		builder.SetMinVersion(minVersion.Float64)
	}

	stored := &StoredDefinition{
		Fingerprint: fingerprint,
		BuildID:     buildID.String,
	}
	stored.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &pendingDefinition{desc: desc, builder: builder, stored: stored}, nil
}

// finish loads the dependency rows and freezes the definition.
func (r *DefinitionReader) finish(p *pendingDefinition) (*StoredDefinition, error) {
	deps, err := r.Dependencies(p.desc)
	if err != nil {
		return nil, err
	}
	p.stored.Definition = p.builder.SetDependencies(deps).Build()
	return p.stored, nil
}
