// Package build compiles every component under a root directory.
//
// Each component goes through the modules pipeline on its own; one failing
// component does not stop the others unless FailFast is set.
package build

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/modforge/internal/bundle"
	"github.com/mvp-joe/modforge/internal/cache"
	"github.com/mvp-joe/modforge/internal/definition"
	"github.com/mvp-joe/modforge/internal/logging"
	"github.com/mvp-joe/modforge/internal/storage"
)

// DefinitionFactory produces a definition from a component bundle.
// *modules.Factory satisfies it.
type DefinitionFactory interface {
	Definition(ctx context.Context, desc definition.Descriptor, b *bundle.Bundle) (*definition.ModuleDef, error)
}

// Options configures a Builder. Only Factory is required.
type Options struct {
	Factory DefinitionFactory
	// Cache skips recompiling bundles whose fingerprint is unchanged.
	Cache *cache.DefinitionCache
	// Writer persists successful definitions and build records.
	Writer *storage.DefinitionWriter
	// Reader lets unchanged components reuse stored definitions across runs.
	Reader *storage.DefinitionReader
	// Ignore filters files and directories during discovery and loading.
	Ignore *bundle.Matcher
	// Workers bounds concurrent compiles; zero means GOMAXPROCS.
	Workers int
	// FailFast cancels outstanding work after the first failure.
	FailFast bool
	// FingerprintSalt distinguishes compiler configurations in the cache.
	FingerprintSalt string
	Progress        ProgressReporter
	Logger          *log.Logger
}

// Failure is a component that did not compile.
type Failure struct {
	Descriptor definition.Descriptor
	Dir        string
	Err        error
}

// Report summarizes one Build call.
type Report struct {
	BuildID     string
	Root        string
	Definitions []*definition.ModuleDef
	Failures    []Failure
	Cached      int
	Duration    time.Duration
}

// Failed reports whether any component failed.
func (r *Report) Failed() bool {
	return len(r.Failures) > 0
}

// Builder discovers and compiles components.
type Builder struct {
	opts Options
}

// NewBuilder validates opts and creates a Builder.
func NewBuilder(opts Options) (*Builder, error) {
	if opts.Factory == nil {
		return nil, errors.New("factory is required")
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Progress == nil {
		opts.Progress = NoOpProgressReporter{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Builder{opts: opts}, nil
}

// Build compiles every component found under root.
//
// Component failures are collected in the report and do not produce an error.
// The returned error is reserved for discovery and storage problems, for
// context cancellation, and for the first failure when FailFast is set.
func (b *Builder) Build(ctx context.Context, root string) (*Report, error) {
	start := time.Now()
	report := &Report{Root: root}

	b.opts.Progress.OnDiscoveryStart(root)
	components, err := bundle.Discover(root, b.opts.Ignore)
	if err != nil {
		return nil, fmt.Errorf("failed to discover components: %w", err)
	}
	b.opts.Progress.OnDiscoveryComplete(len(components))
	b.opts.Logger.Info("discovered components", "root", root, "count", len(components))

	if b.opts.Writer != nil {
		report.BuildID, err = b.opts.Writer.BeginBuild(root)
		if err != nil {
			return nil, err
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)

	for _, c := range components {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			def, cached, err := b.compile(gctx, report.BuildID, c)
			b.opts.Progress.OnComponentDone(c.Descriptor, cached, err)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil && errors.Is(err, context.Canceled) {
					// Collateral of an earlier failure or of the caller cancelling.
					return nil
				}
				b.opts.Logger.Warn("component failed", "module", c.Descriptor.DescriptorName(), "err", err)
				report.Failures = append(report.Failures, Failure{Descriptor: c.Descriptor, Dir: c.Dir, Err: err})
				if b.opts.FailFast {
					return err
				}
				return nil
			}
			if cached {
				report.Cached++
			}
			report.Definitions = append(report.Definitions, def)
			return nil
		})
	}
	groupErr := g.Wait()

	sort.Slice(report.Definitions, func(i, j int) bool {
		return report.Definitions[i].Descriptor().QualifiedName() < report.Definitions[j].Descriptor().QualifiedName()
	})
	sort.Slice(report.Failures, func(i, j int) bool {
		return report.Failures[i].Dir < report.Failures[j].Dir
	})
	report.Duration = time.Since(start)

	if b.opts.Writer != nil {
		if err := b.opts.Writer.FinishBuild(report.BuildID, len(report.Definitions), len(report.Failures)); err != nil {
			return report, err
		}
	}

	b.opts.Progress.OnComplete(report)
	b.opts.Logger.Info("build finished",
		"compiled", len(report.Definitions),
		"cached", report.Cached,
		"failed", len(report.Failures),
		"duration", report.Duration.Round(time.Millisecond))

	if groupErr != nil {
		return report, groupErr
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// CompileDir compiles the single component at dir and stores it like a
// build would, but without a build record.
func (b *Builder) CompileDir(ctx context.Context, dir string) (*definition.ModuleDef, error) {
	c, err := bundle.ComponentAt(dir)
	if err != nil {
		return nil, err
	}
	def, _, err := b.compile(ctx, "", c)
	return def, err
}

func (b *Builder) compile(ctx context.Context, buildID string, c bundle.Component) (*definition.ModuleDef, bool, error) {
	bun, err := bundle.LoadDir(c.Dir, b.opts.Ignore)
	if err != nil {
		return nil, false, err
	}
	fingerprint := cache.Fingerprint(bun, b.opts.FingerprintSalt)

	var reused bool
	compileFn := func(ctx context.Context) (*definition.ModuleDef, error) {
		def, ok, err := b.stored(c.Descriptor, fingerprint)
		if err != nil {
			return nil, err
		}
		if ok {
			reused = true
			return def, nil
		}
		return b.opts.Factory.Definition(ctx, c.Descriptor, bun)
	}

	var (
		def    *definition.ModuleDef
		cached bool
	)
	if b.opts.Cache != nil {
		def, cached, err = b.opts.Cache.GetOrCompile(ctx, c.Descriptor, fingerprint, compileFn)
	} else {
		def, err = compileFn(ctx)
	}
	if err != nil {
		return nil, false, err
	}
	cached = cached || reused

	if b.opts.Writer != nil {
		if err := b.opts.Writer.WriteDefinition(buildID, def, fingerprint); err != nil {
			return nil, cached, err
		}
	}
	return def, cached, nil
}

// stored returns the persisted definition for desc when it was compiled from
// the same fingerprint.
func (b *Builder) stored(desc definition.Descriptor, fingerprint string) (*definition.ModuleDef, bool, error) {
	if b.opts.Reader == nil {
		return nil, false, nil
	}
	s, err := b.opts.Reader.Get(desc)
	if err != nil {
		return nil, false, err
	}
	if s == nil || s.Fingerprint != fingerprint {
		return nil, false, nil
	}
	b.opts.Logger.Debug("reusing stored definition", "module", desc.DescriptorName())
	return s.Definition, true, nil
}
