// Package config loads modforge settings from .modforge/config.yml with
// MODFORGE_* environment overrides.
package config

import (
	"path/filepath"
	"time"

	"github.com/mvp-joe/modforge/internal/bundle"
	"github.com/mvp-joe/modforge/internal/definition"
)

// Dir is the per-project configuration directory.
const Dir = ".modforge"

// Compiler engines.
const (
	EngineEsbuild = "esbuild"
	EngineScript  = "script"
)

// Config represents the complete modforge configuration.
type Config struct {
	Bundles  BundlesConfig  `yaml:"bundles" mapstructure:"bundles"`
	Compiler CompilerConfig `yaml:"compiler" mapstructure:"compiler"`
	Access   AccessConfig   `yaml:"access" mapstructure:"access"`
	Registry RegistryConfig `yaml:"registry" mapstructure:"registry"`
	Support  string         `yaml:"support" mapstructure:"support"` // PROTO, DEPRECATED, BETA or GA
	Storage  StorageConfig  `yaml:"storage" mapstructure:"storage"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Build    BuildConfig    `yaml:"build" mapstructure:"build"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// BundlesConfig locates component sources.
type BundlesConfig struct {
	Root   string   `yaml:"root" mapstructure:"root"`     // <root>/<namespace>/<name>/
	Ignore []string `yaml:"ignore" mapstructure:"ignore"` // glob patterns to ignore
}

// CompilerConfig selects and tunes the compiler engine.
type CompilerConfig struct {
	Engine   string        `yaml:"engine" mapstructure:"engine"`       // "esbuild" or "script"
	Script   string        `yaml:"script" mapstructure:"script"`       // compiler script for the script engine
	PoolSize int           `yaml:"pool_size" mapstructure:"pool_size"` // script runtimes kept warm
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`     // per-component compile deadline
	Minify   bool          `yaml:"minify" mapstructure:"minify"`
	Target   string        `yaml:"target" mapstructure:"target"` // esbuild language target
}

// AccessConfig lists namespaces whose modules are INTERNAL.
type AccessConfig struct {
	InternalNamespaces []string `yaml:"internal_namespaces" mapstructure:"internal_namespaces"`
}

// RegistryConfig names the runtime registration call.
type RegistryConfig struct {
	Function string `yaml:"function" mapstructure:"function"`
}

// StorageConfig locates the definition database.
type StorageConfig struct {
	Database string `yaml:"database" mapstructure:"database"` // relative paths resolve against the project root
}

// CacheConfig bounds the in-memory definition cache.
type CacheConfig struct {
	Capacity int `yaml:"capacity" mapstructure:"capacity"`
}

// BuildConfig tunes batch builds.
type BuildConfig struct {
	Workers  int  `yaml:"workers" mapstructure:"workers"` // 0 means GOMAXPROCS
	FailFast bool `yaml:"fail_fast" mapstructure:"fail_fast"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Bundles: BundlesConfig{
			Root:   "src/modules",
			Ignore: append([]string(nil), bundle.DefaultIgnore...),
		},
		Compiler: CompilerConfig{
			Engine:   EngineEsbuild,
			PoolSize: 4,
			Timeout:  30 * time.Second,
			Target:   "es2017",
		},
		Registry: RegistryConfig{
			Function: "$A.componentService.addModule",
		},
		Support: string(definition.SupportProto),
		Storage: StorageConfig{
			Database: filepath.Join(Dir, "modforge.db"),
		},
		Cache: CacheConfig{
			Capacity: 1024,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DatabasePath resolves the storage database against the project root.
func (c *Config) DatabasePath(root string) string {
	if filepath.IsAbs(c.Storage.Database) {
		return c.Storage.Database
	}
	return filepath.Join(root, c.Storage.Database)
}

// BundleRoot resolves the bundle root against the project root.
func (c *Config) BundleRoot(root string) string {
	if filepath.IsAbs(c.Bundles.Root) {
		return c.Bundles.Root
	}
	return filepath.Join(root, c.Bundles.Root)
}

// ScriptPath resolves the compiler script against the project root.
func (c *Config) ScriptPath(root string) string {
	if c.Compiler.Script == "" || filepath.IsAbs(c.Compiler.Script) {
		return c.Compiler.Script
	}
	return filepath.Join(root, c.Compiler.Script)
}
