package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/modforge/internal/definition"
	"github.com/mvp-joe/modforge/internal/logging"
)

var (
	// ErrInvalidEngine indicates an unsupported compiler engine
	ErrInvalidEngine = errors.New("invalid compiler engine")

	// ErrMissingScript indicates the script engine has no compiler script
	ErrMissingScript = errors.New("missing compiler script")

	// ErrInvalidPoolSize indicates a non-positive runtime pool
	ErrInvalidPoolSize = errors.New("invalid pool size")

	// ErrInvalidTimeout indicates a negative compile timeout
	ErrInvalidTimeout = errors.New("invalid compile timeout")

	// ErrInvalidPattern indicates a glob that does not compile
	ErrInvalidPattern = errors.New("invalid glob pattern")

	// ErrEmptyRegistry indicates a missing registry function
	ErrEmptyRegistry = errors.New("empty registry function")

	// ErrInvalidSupport indicates an unknown support level
	ErrInvalidSupport = errors.New("invalid support level")

	// ErrEmptyPath indicates a required path is blank
	ErrEmptyPath = errors.New("empty path")

	// ErrInvalidCapacity indicates a non-positive cache capacity
	ErrInvalidCapacity = errors.New("invalid cache capacity")

	// ErrInvalidWorkers indicates a negative worker count
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrInvalidLogLevel indicates an unknown log level
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// Validate checks that the configuration is valid and complete. Every problem
// is reported, joined with errors.Join.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateBundles(&cfg.Bundles)...)
	errs = append(errs, validateCompiler(&cfg.Compiler)...)

	for _, p := range cfg.Access.InternalNamespaces {
		if _, err := glob.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("%w: access.internal_namespaces %q: %v", ErrInvalidPattern, p, err))
		}
	}

	if strings.TrimSpace(cfg.Registry.Function) == "" {
		errs = append(errs, fmt.Errorf("%w: registry.function is required", ErrEmptyRegistry))
	}

	if _, err := definition.ParseSupportLevel(cfg.Support); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidSupport, err))
	}

	if strings.TrimSpace(cfg.Storage.Database) == "" {
		errs = append(errs, fmt.Errorf("%w: storage.database is required", ErrEmptyPath))
	}

	if cfg.Cache.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidCapacity, cfg.Cache.Capacity))
	}

	if cfg.Build.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: workers cannot be negative, got %d", ErrInvalidWorkers, cfg.Build.Workers))
	}

	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidLogLevel, err))
	}

	return errors.Join(errs...)
}

func validateBundles(cfg *BundlesConfig) []error {
	var errs []error

	if strings.TrimSpace(cfg.Root) == "" {
		errs = append(errs, fmt.Errorf("%w: bundles.root is required", ErrEmptyPath))
	}
	for _, p := range cfg.Ignore {
		if _, err := glob.Compile(p, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: bundles.ignore %q: %v", ErrInvalidPattern, p, err))
		}
	}

	return errs
}

func validateCompiler(cfg *CompilerConfig) []error {
	var errs []error

	switch strings.ToLower(cfg.Engine) {
	case EngineEsbuild:
	case EngineScript:
		if strings.TrimSpace(cfg.Script) == "" {
			errs = append(errs, fmt.Errorf("%w: compiler.script is required for the script engine", ErrMissingScript))
		}
		if cfg.PoolSize <= 0 {
			errs = append(errs, fmt.Errorf("%w: pool_size must be positive, got %d", ErrInvalidPoolSize, cfg.PoolSize))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: must be '%s' or '%s', got '%s'", ErrInvalidEngine, EngineEsbuild, EngineScript, cfg.Engine))
	}

	if cfg.Timeout < 0 {
		errs = append(errs, fmt.Errorf("%w: timeout cannot be negative, got %s", ErrInvalidTimeout, cfg.Timeout))
	}

	return errs
}
