package watcher

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/mvp-joe/modforge/internal/bundle"
	"github.com/mvp-joe/modforge/internal/definition"
	"github.com/mvp-joe/modforge/internal/logging"
)

// Result is the outcome of recompiling one component after a change.
type Result struct {
	Dir        string
	Descriptor definition.Descriptor
	Definition *definition.ModuleDef
	Err        error
	// Removed is set when the component's base file no longer exists.
	Removed bool
}

// Coordinator maps file changes to component directories and recompiles them.
type Coordinator struct {
	files    FileWatcher
	compiler ComponentCompiler
	cache    Invalidator
	onResult func(Result)
	logger   *log.Logger
}

// NewCoordinator wires a watcher to a compiler. cache and onResult may be nil.
func NewCoordinator(files FileWatcher, compiler ComponentCompiler, cache Invalidator, onResult func(Result), logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = logging.Discard()
	}
	if onResult == nil {
		onResult = func(Result) {}
	}
	return &Coordinator{
		files:    files,
		compiler: compiler,
		cache:    cache,
		onResult: onResult,
		logger:   logger,
	}
}

// Run watches until ctx is cancelled, then stops the watcher.
func (c *Coordinator) Run(ctx context.Context) error {
	if err := c.files.Start(ctx, func(files []string) { c.HandleChanges(ctx, files) }); err != nil {
		return err
	}
	<-ctx.Done()
	if err := c.files.Stop(); err != nil {
		c.logger.Warn("file watcher stop failed", "err", err)
	}
	return ctx.Err()
}

// HandleChanges recompiles every component touched by files, once each and
// in directory order. Events arriving meanwhile are held until it returns.
func (c *Coordinator) HandleChanges(ctx context.Context, files []string) {
	dirs := affectedComponents(files)
	if len(dirs) == 0 {
		return
	}

	c.files.Pause()
	defer c.files.Resume()

	c.logger.Info("recompiling", "components", len(dirs))
	for _, dir := range dirs {
		if ctx.Err() != nil {
			return
		}
		c.onResult(c.recompile(ctx, dir))
	}
}

func (c *Coordinator) recompile(ctx context.Context, dir string) Result {
	comp, err := bundle.ComponentAt(dir)
	if err != nil {
		return Result{Dir: dir, Err: err}
	}
	res := Result{Dir: dir, Descriptor: comp.Descriptor}

	if c.cache != nil {
		c.cache.Invalidate(comp.Descriptor)
	}
	if !bundle.IsComponentDir(dir) {
		res.Removed = true
		c.logger.Info("component removed", "module", comp.Descriptor.DescriptorName())
		return res
	}

	res.Definition, res.Err = c.compiler.CompileDir(ctx, dir)
	if res.Err != nil {
		c.logger.Warn("recompile failed", "module", comp.Descriptor.DescriptorName(), "err", res.Err)
	} else {
		c.logger.Info("recompiled", "module", comp.Descriptor.DescriptorName(), "hash", res.Definition.OwnHash()[:12])
	}
	return res
}

// affectedComponents maps changed files to their component directories. A
// removed base file still maps to its directory so the removal is reported.
func affectedComponents(files []string) []string {
	seen := make(map[string]bool)
	for _, f := range files {
		dir, ok := bundle.ComponentDir(f)
		if !ok {
			parent := filepath.Dir(f)
			name := filepath.Base(parent)
			if !isBaseFileName(filepath.Base(f), name) {
				continue
			}
			dir = parent
		}
		seen[dir] = true
	}

	dirs := make([]string, 0, len(seen))
	for d := range seen {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

func isBaseFileName(file, component string) bool {
	for _, ext := range bundle.BaseExtensions {
		if file == component+ext {
			return true
		}
	}
	return false
}
