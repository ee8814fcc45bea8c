// Package watcher recompiles components when their source files change.
package watcher

import (
	"context"

	"github.com/mvp-joe/modforge/internal/definition"
)

// FileWatcher monitors source files for changes with debouncing and pause/resume support.
type FileWatcher interface {
	// Start begins watching source directories, calling callback with debounced file changes.
	Start(ctx context.Context, callback func(files []string)) error

	// Stop stops the file watcher and cleans up resources.
	Stop() error

	// Pause stops firing callbacks but continues accumulating events.
	Pause()

	// Resume resumes firing callbacks. If events accumulated during pause, fires immediately.
	Resume()
}

// ComponentCompiler compiles one component directory. *build.Builder satisfies it.
type ComponentCompiler interface {
	CompileDir(ctx context.Context, dir string) (*definition.ModuleDef, error)
}

// Invalidator forgets cached definitions. *cache.DefinitionCache satisfies it.
type Invalidator interface {
	Invalidate(desc definition.Descriptor)
}
