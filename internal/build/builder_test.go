package build

// Test Plan for Builder:
// - Build compiles every discovered component and returns definitions sorted by name
// - Component failures are collected without failing the build
// - FailFast returns the first failure as the build error
// - A cache makes the second build of unchanged sources skip the compiler
// - Stored definitions with a matching fingerprint are reused across builders
// - Build records are written with success and failure counts
// - CompileDir compiles one component directory
// - Progress callbacks see discovery and every component

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/modforge/internal/bundle"
	"github.com/mvp-joe/modforge/internal/cache"
	"github.com/mvp-joe/modforge/internal/compiler"
	"github.com/mvp-joe/modforge/internal/definition"
	"github.com/mvp-joe/modforge/internal/modules"
	"github.com/mvp-joe/modforge/internal/storage"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// sourceTree lays out three components, one of them with an invalid namespace.
func sourceTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "c", "card", "card.js"), "export default 'card';")
	writeFile(t, filepath.Join(root, "c", "list", "list.js"), "import card from 'c/card';")
	writeFile(t, filepath.Join(root, "ui", "button", "button.js"), "export default 'button';")
	writeFile(t, filepath.Join(root, "My-ns", "thing", "thing.js"), "export default 1;")
	return root
}

type countingCompiler struct {
	calls atomic.Int32
}

func (c *countingCompiler) Compile(ctx context.Context, entry string, sources map[string]string) (*compiler.Result, error) {
	c.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &compiler.Result{Code: "define([], function() { return 1; })", Dependencies: []string{}}, nil
}

func newFactory(t *testing.T, c compiler.Compiler) *modules.Factory {
	t.Helper()
	f, err := modules.NewFactory(modules.Options{Compiler: c})
	require.NoError(t, err)
	return f
}

type recordingProgress struct {
	mu         sync.Mutex
	discovered int
	done       []string
	completed  bool
}

func (p *recordingProgress) OnDiscoveryStart(root string)       {}
func (p *recordingProgress) OnDiscoveryComplete(components int) { p.discovered = components }
func (p *recordingProgress) OnComponentDone(desc definition.Descriptor, cached bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = append(p.done, desc.DescriptorName())
}
func (p *recordingProgress) OnComplete(report *Report) { p.completed = true }

func TestBuilder_Build(t *testing.T) {
	t.Parallel()

	root := sourceTree(t)
	spy := &countingCompiler{}
	progress := &recordingProgress{}
	b, err := NewBuilder(Options{Factory: newFactory(t, spy), Workers: 2, Progress: progress})
	require.NoError(t, err)

	report, err := b.Build(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, report.Definitions, 3)
	assert.Equal(t, "markup://c:card", report.Definitions[0].Descriptor().QualifiedName())
	assert.Equal(t, "markup://c:list", report.Definitions[1].Descriptor().QualifiedName())
	assert.Equal(t, "markup://ui:button", report.Definitions[2].Descriptor().QualifiedName())

	require.Len(t, report.Failures, 1)
	var namingErr *modules.InvalidNamingError
	assert.ErrorAs(t, report.Failures[0].Err, &namingErr)
	assert.True(t, report.Failed())

	assert.Equal(t, int32(3), spy.calls.Load(), "invalid component never reaches the compiler")
	assert.Equal(t, 4, progress.discovered)
	assert.Len(t, progress.done, 4)
	assert.True(t, progress.completed)
}

func TestBuilder_FailFast(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "c", "card", "card.js"), "")
	boom := errors.New("boom")
	failing := compiler.Func(func(ctx context.Context, entry string, sources map[string]string) (*compiler.Result, error) {
		return nil, boom
	})

	b, err := NewBuilder(Options{Factory: newFactory(t, failing), FailFast: true})
	require.NoError(t, err)

	report, err := b.Build(context.Background(), root)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var compileErr *modules.CompileError
	assert.ErrorAs(t, err, &compileErr)
	require.NotNil(t, report)
	assert.Len(t, report.Failures, 1)
}

func TestBuilder_CacheSkipsUnchanged(t *testing.T) {
	t.Parallel()

	root := sourceTree(t)
	spy := &countingCompiler{}
	defs, err := cache.New(16)
	require.NoError(t, err)
	t.Cleanup(defs.Close)

	b, err := NewBuilder(Options{Factory: newFactory(t, spy), Cache: defs})
	require.NoError(t, err)

	_, err = b.Build(context.Background(), root)
	require.NoError(t, err)
	report, err := b.Build(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, int32(3), spy.calls.Load())
	assert.Equal(t, 3, report.Cached)

	writeFile(t, filepath.Join(root, "c", "card", "card.js"), "export default 'changed';")
	report, err = b.Build(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, int32(4), spy.calls.Load())
	assert.Equal(t, 2, report.Cached)
}

func TestBuilder_Storage(t *testing.T) {
	t.Parallel()

	root := sourceTree(t)
	db := storage.NewTestDB(t)
	writer := storage.NewDefinitionWriter(db)
	reader := storage.NewDefinitionReader(db)

	spy := &countingCompiler{}
	first, err := NewBuilder(Options{Factory: newFactory(t, spy), Writer: writer, Reader: reader})
	require.NoError(t, err)
	report, err := first.Build(context.Background(), root)
	require.NoError(t, err)
	require.NotEmpty(t, report.BuildID)

	build, err := reader.LatestBuild()
	require.NoError(t, err)
	assert.Equal(t, report.BuildID, build.ID)
	assert.Equal(t, storage.BuildFailed, build.Status)
	assert.Equal(t, 3, build.Succeeded)
	assert.Equal(t, 1, build.Failed)

	stored, err := reader.List("")
	require.NoError(t, err)
	assert.Len(t, stored, 3)

	// A fresh builder without a cache reuses what the first one stored.
	second, err := NewBuilder(Options{Factory: newFactory(t, spy), Writer: writer, Reader: reader})
	require.NoError(t, err)
	report, err = second.Build(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, int32(3), spy.calls.Load())
	assert.Equal(t, 3, report.Cached)
}

func TestBuilder_CompileDir(t *testing.T) {
	t.Parallel()

	root := sourceTree(t)
	b, err := NewBuilder(Options{Factory: newFactory(t, &countingCompiler{})})
	require.NoError(t, err)

	def, err := b.CompileDir(context.Background(), filepath.Join(root, "ui", "button"))
	require.NoError(t, err)
	assert.Equal(t, "ui:button", def.TagName())
	assert.Equal(t, "ui-button", def.CustomElementName())

	_, err = b.CompileDir(context.Background(), filepath.Join(root, "ui", "missing"))
	assert.Error(t, err)
}

func TestBuilder_IgnoredComponents(t *testing.T) {
	t.Parallel()

	root := sourceTree(t)
	writeFile(t, filepath.Join(root, "node_modules", "x", "y", "y.js"), "")
	ignore, err := bundle.NewMatcher(append(bundle.DefaultIgnore, "My-ns/**"))
	require.NoError(t, err)

	b, err := NewBuilder(Options{Factory: newFactory(t, &countingCompiler{}), Ignore: ignore})
	require.NoError(t, err)

	report, err := b.Build(context.Background(), root)
	require.NoError(t, err)
	assert.Len(t, report.Definitions, 3)
	assert.Empty(t, report.Failures)
}

func TestNewBuilder_RequiresFactory(t *testing.T) {
	t.Parallel()

	_, err := NewBuilder(Options{})
	assert.Error(t, err)
}
