// Package cache keeps recently compiled module definitions in memory.
//
// Entries are keyed by qualified name and remember the bundle fingerprint they
// were compiled from, so a lookup with a different fingerprint is a miss.
package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/maypok86/otter"
	"golang.org/x/sync/singleflight"

	"github.com/mvp-joe/modforge/internal/definition"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 1024

type entry struct {
	def         *definition.ModuleDef
	fingerprint string
}

// Stats is a point-in-time view of cache effectiveness.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int
}

// Ratio returns the hit ratio, 0 when nothing was looked up yet.
func (s Stats) Ratio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// CompileFunc produces a definition on a cache miss.
type CompileFunc func(ctx context.Context) (*definition.ModuleDef, error)

// DefinitionCache is a bounded, concurrency-safe definition registry.
type DefinitionCache struct {
	store otter.Cache[string, entry]
	group singleflight.Group
}

// New creates a cache holding up to capacity definitions.
func New(capacity int) (*DefinitionCache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	store, err := otter.MustBuilder[string, entry](capacity).
		CollectStats().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build definition cache: %w", err)
	}
	return &DefinitionCache{store: store}, nil
}

// Get returns the cached definition for desc, whatever it was compiled from.
func (c *DefinitionCache) Get(desc definition.Descriptor) (*definition.ModuleDef, bool) {
	e, ok := c.store.Get(desc.QualifiedName())
	if !ok {
		return nil, false
	}
	return e.def, true
}

// Lookup returns the cached definition only if it was compiled from the
// bundle with the given fingerprint.
func (c *DefinitionCache) Lookup(desc definition.Descriptor, fingerprint string) (*definition.ModuleDef, bool) {
	e, ok := c.store.Get(desc.QualifiedName())
	if !ok || e.fingerprint != fingerprint {
		return nil, false
	}
	return e.def, true
}

// Put stores def, replacing any previous definition with the same descriptor.
func (c *DefinitionCache) Put(def *definition.ModuleDef, fingerprint string) {
	if def == nil {
		return
	}
	c.store.Set(def.Descriptor().QualifiedName(), entry{def: def, fingerprint: fingerprint})
}

// Invalidate drops the definition for desc.
func (c *DefinitionCache) Invalidate(desc definition.Descriptor) {
	c.store.Delete(desc.QualifiedName())
}

// Clear drops every definition.
func (c *DefinitionCache) Clear() {
	c.store.Clear()
}

// GetOrCompile returns the cached definition for (desc, fingerprint) or runs
// compile once, even when several goroutines miss at the same time. Failed
// compiles are not cached. The boolean reports a cache hit.
//
// The shared compile does not inherit ctx cancellation, so one caller giving
// up does not fail the others waiting on it; ctx only bounds this caller's
// wait. Deadlines for the compile itself come from the compiler's timeout.
func (c *DefinitionCache) GetOrCompile(ctx context.Context, desc definition.Descriptor, fingerprint string, compile CompileFunc) (*definition.ModuleDef, bool, error) {
	if def, ok := c.Lookup(desc, fingerprint); ok {
		return def, true, nil
	}

	key := desc.QualifiedName() + "@" + fingerprint
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		def, err := compile(shared)
		if err != nil {
			return nil, err
		}
		if def == nil {
			return nil, errors.New("compile returned no definition")
		}
		c.Put(def, fingerprint)
		return def, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(*definition.ModuleDef), false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Stats reports hits, misses and current size.
func (c *DefinitionCache) Stats() Stats {
	s := c.store.Stats()
	return Stats{
		Hits:   s.Hits(),
		Misses: s.Misses(),
		Size:   c.store.Size(),
	}
}

// Close stops the cache's background maintenance.
func (c *DefinitionCache) Close() {
	c.store.Close()
}
