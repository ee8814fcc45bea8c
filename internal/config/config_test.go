package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Config System:
// - Default() returns valid configuration with all expected defaults
// - Load uses defaults when no config file exists
// - Load reads .modforge/config.yml and .modforge/config.yaml
// - Load merges a partial config file with defaults
// - Environment variables override the config file and defaults
// - NewFileLoader reads an explicit file and fails when it is missing
// - Load returns errors for malformed YAML and invalid values
// - Validate rejects each invalid field with its sentinel error
// - Validate reports every problem at once
// - Path helpers resolve relative paths against the project root

func writeConfig(t *testing.T, root, name, content string) {
	t.Helper()
	dir := filepath.Join(root, Dir)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

// assertSameSettings compares configs while treating nil and empty slices alike.
func assertSameSettings(t *testing.T, want, got *Config) {
	t.Helper()
	assert.Equal(t, want.Bundles, got.Bundles)
	assert.Equal(t, want.Compiler, got.Compiler)
	assert.ElementsMatch(t, want.Access.InternalNamespaces, got.Access.InternalNamespaces)
	assert.Equal(t, want.Registry, got.Registry)
	assert.Equal(t, want.Support, got.Support)
	assert.Equal(t, want.Storage, got.Storage)
	assert.Equal(t, want.Cache, got.Cache)
	assert.Equal(t, want.Build, got.Build)
	assert.Equal(t, want.Log, got.Log)
}

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	t.Parallel()

	cfg := Default()

	assert.Equal(t, "src/modules", cfg.Bundles.Root)
	assert.Contains(t, cfg.Bundles.Ignore, "node_modules/**")
	assert.Equal(t, EngineEsbuild, cfg.Compiler.Engine)
	assert.Equal(t, 4, cfg.Compiler.PoolSize)
	assert.Equal(t, 30*time.Second, cfg.Compiler.Timeout)
	assert.Equal(t, "es2017", cfg.Compiler.Target)
	assert.Empty(t, cfg.Access.InternalNamespaces)
	assert.Equal(t, "$A.componentService.addModule", cfg.Registry.Function)
	assert.Equal(t, "PROTO", cfg.Support)
	assert.Equal(t, filepath.Join(".modforge", "modforge.db"), cfg.Storage.Database)
	assert.Equal(t, 1024, cfg.Cache.Capacity)
	assert.Zero(t, cfg.Build.Workers)
	assert.False(t, cfg.Build.FailFast)
	assert.Equal(t, "info", cfg.Log.Level)

	assert.NoError(t, Validate(cfg))
}

func TestLoad_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)
	assertSameSettings(t, Default(), cfg)
}

func TestLoad_ReadsConfigFile(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"config.yml", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			writeConfig(t, root, name, `
bundles:
  root: ui
  ignore:
    - "dist/**"
compiler:
  engine: script
  script: tools/compile.js
  pool_size: 2
  timeout: 5s
  minify: true
access:
  internal_namespaces: ["force", "ui*"]
registry:
  function: REGISTER
support: GA
storage:
  database: /var/lib/modforge.db
cache:
  capacity: 64
build:
  workers: 3
  fail_fast: true
log:
  level: debug
`)

			cfg, err := NewLoader(root).Load()
			require.NoError(t, err)

			assert.Equal(t, "ui", cfg.Bundles.Root)
			assert.Equal(t, []string{"dist/**"}, cfg.Bundles.Ignore)
			assert.Equal(t, EngineScript, cfg.Compiler.Engine)
			assert.Equal(t, "tools/compile.js", cfg.Compiler.Script)
			assert.Equal(t, 2, cfg.Compiler.PoolSize)
			assert.Equal(t, 5*time.Second, cfg.Compiler.Timeout)
			assert.True(t, cfg.Compiler.Minify)
			assert.Equal(t, []string{"force", "ui*"}, cfg.Access.InternalNamespaces)
			assert.Equal(t, "REGISTER", cfg.Registry.Function)
			assert.Equal(t, "GA", cfg.Support)
			assert.Equal(t, "/var/lib/modforge.db", cfg.Storage.Database)
			assert.Equal(t, 64, cfg.Cache.Capacity)
			assert.Equal(t, 3, cfg.Build.Workers)
			assert.True(t, cfg.Build.FailFast)
			assert.Equal(t, "debug", cfg.Log.Level)
		})
	}
}

func TestLoad_MergesConfigWithDefaults(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeConfig(t, root, "config.yml", `
registry:
  function: define.register
`)

	cfg, err := NewLoader(root).Load()
	require.NoError(t, err)

	want := Default()
	want.Registry.Function = "define.register"
	assertSameSettings(t, want, cfg)
}

func TestLoad_EnvironmentVariablesOverride(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	root := t.TempDir()
	writeConfig(t, root, "config.yml", `
compiler:
  timeout: 5s
log:
  level: warn
`)

	t.Setenv("MODFORGE_LOG_LEVEL", "debug")
	t.Setenv("MODFORGE_COMPILER_TIMEOUT", "45s")
	t.Setenv("MODFORGE_CACHE_CAPACITY", "10")
	t.Setenv("MODFORGE_BUILD_FAIL_FAST", "true")
	t.Setenv("MODFORGE_SUPPORT", "beta")

	cfg, err := NewLoader(root).Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 45*time.Second, cfg.Compiler.Timeout)
	assert.Equal(t, 10, cfg.Cache.Capacity)
	assert.True(t, cfg.Build.FailFast)
	assert.Equal(t, "beta", cfg.Support)
	assert.Equal(t, EngineEsbuild, cfg.Compiler.Engine)
}

func TestFileLoader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  capacity: 7\n"), 0644))

	cfg, err := NewFileLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Cache.Capacity)

	_, err = NewFileLoader(filepath.Join(t.TempDir(), "missing.yml")).Load()
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"malformed yaml", "bundles:\n  root: [unclosed\n", "failed to read config file"},
		{"invalid engine", "compiler:\n  engine: babel\n", "invalid configuration"},
		{"bad timeout", "compiler:\n  timeout: soon\n", "failed to unmarshal config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			writeConfig(t, root, "config.yml", tt.content)

			_, err := NewLoader(root).Load()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestValidate_RejectsInvalidFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"empty bundle root", func(c *Config) { c.Bundles.Root = " " }, ErrEmptyPath},
		{"bad ignore glob", func(c *Config) { c.Bundles.Ignore = []string{"[a"} }, ErrInvalidPattern},
		{"unknown engine", func(c *Config) { c.Compiler.Engine = "babel" }, ErrInvalidEngine},
		{"script without file", func(c *Config) { c.Compiler.Engine = EngineScript }, ErrMissingScript},
		{"script pool size", func(c *Config) {
			c.Compiler.Engine = EngineScript
			c.Compiler.Script = "compile.js"
			c.Compiler.PoolSize = 0
		}, ErrInvalidPoolSize},
		{"negative timeout", func(c *Config) { c.Compiler.Timeout = -time.Second }, ErrInvalidTimeout},
		{"bad namespace glob", func(c *Config) { c.Access.InternalNamespaces = []string{"[ui"} }, ErrInvalidPattern},
		{"empty registry", func(c *Config) { c.Registry.Function = "" }, ErrEmptyRegistry},
		{"unknown support", func(c *Config) { c.Support = "STABLE" }, ErrInvalidSupport},
		{"empty database", func(c *Config) { c.Storage.Database = "" }, ErrEmptyPath},
		{"zero capacity", func(c *Config) { c.Cache.Capacity = 0 }, ErrInvalidCapacity},
		{"negative workers", func(c *Config) { c.Build.Workers = -1 }, ErrInvalidWorkers},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }, ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, Validate(cfg), tt.want)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Compiler.Engine = "babel"
	cfg.Cache.Capacity = -1
	cfg.Log.Level = "loud"

	err := Validate(cfg)
	require.Error(t, err)
	for _, want := range []error{ErrInvalidEngine, ErrInvalidCapacity, ErrInvalidLogLevel} {
		assert.True(t, errors.Is(err, want), "missing %v", want)
	}
	assert.False(t, errors.Is(err, ErrEmptyRegistry))
}

func TestPathHelpers(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, filepath.Join("/proj", ".modforge", "modforge.db"), cfg.DatabasePath("/proj"))
	assert.Equal(t, filepath.Join("/proj", "src", "modules"), cfg.BundleRoot("/proj"))
	assert.Empty(t, cfg.ScriptPath("/proj"))

	cfg.Storage.Database = "/abs/defs.db"
	cfg.Bundles.Root = "/abs/src"
	cfg.Compiler.Script = "tools/compile.js"
	assert.Equal(t, "/abs/defs.db", cfg.DatabasePath("/proj"))
	assert.Equal(t, "/abs/src", cfg.BundleRoot("/proj"))
	assert.Equal(t, filepath.Join("/proj", "tools", "compile.js"), cfg.ScriptPath("/proj"))
}
