package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// NewLoader creates a loader that searches <rootDir>/.modforge for config.yml.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// NewFileLoader creates a loader for an explicit config file. The file must exist.
func NewFileLoader(path string) Loader {
	return &loader{rootDir: filepath.Dir(path), configFile: path}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (MODFORGE_*)
// 2. Config file (.modforge/config.yml or .modforge/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, Dir))
	}

	// MODFORGE_COMPILER_ENGINE -> compiler.engine
	v.SetEnvPrefix("MODFORGE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// AutomaticEnv only covers keys viper already knows about; nested keys
	// need explicit binding before Unmarshal sees them.
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

var envKeys = []string{
	"bundles.root",
	"compiler.engine",
	"compiler.script",
	"compiler.pool_size",
	"compiler.timeout",
	"compiler.minify",
	"compiler.target",
	"registry.function",
	"support",
	"storage.database",
	"cache.capacity",
	"build.workers",
	"build.fail_fast",
	"log.level",
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("bundles.root", defaults.Bundles.Root)
	v.SetDefault("bundles.ignore", defaults.Bundles.Ignore)

	v.SetDefault("compiler.engine", defaults.Compiler.Engine)
	v.SetDefault("compiler.script", defaults.Compiler.Script)
	v.SetDefault("compiler.pool_size", defaults.Compiler.PoolSize)
	v.SetDefault("compiler.timeout", defaults.Compiler.Timeout)
	v.SetDefault("compiler.minify", defaults.Compiler.Minify)
	v.SetDefault("compiler.target", defaults.Compiler.Target)

	v.SetDefault("access.internal_namespaces", defaults.Access.InternalNamespaces)
	v.SetDefault("registry.function", defaults.Registry.Function)
	v.SetDefault("support", defaults.Support)
	v.SetDefault("storage.database", defaults.Storage.Database)
	v.SetDefault("cache.capacity", defaults.Cache.Capacity)

	v.SetDefault("build.workers", defaults.Build.Workers)
	v.SetDefault("build.fail_fast", defaults.Build.FailFast)

	v.SetDefault("log.level", defaults.Log.Level)
}

// LoadConfig is a convenience function that loads config for the current
// working directory.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
