package cli

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/mvp-joe/modforge/internal/access"
	"github.com/mvp-joe/modforge/internal/build"
	"github.com/mvp-joe/modforge/internal/bundle"
	"github.com/mvp-joe/modforge/internal/cache"
	"github.com/mvp-joe/modforge/internal/compiler"
	"github.com/mvp-joe/modforge/internal/config"
	"github.com/mvp-joe/modforge/internal/definition"
	"github.com/mvp-joe/modforge/internal/lock"
	"github.com/mvp-joe/modforge/internal/logging"
	"github.com/mvp-joe/modforge/internal/modules"
	"github.com/mvp-joe/modforge/internal/storage"
)

// appOptions selects what a command needs from the wiring.
type appOptions struct {
	globalOptions
	// WithBuilder also sets up the compiler, cache and builder.
	WithBuilder bool
	Progress    build.ProgressReporter
	FailFast    bool
	// Workers overrides build.workers when positive.
	Workers int
	// LogWriter defaults to stderr.
	LogWriter io.Writer
}

// app is the wired object graph shared by the commands.
type app struct {
	root    string
	cfg     *config.Config
	logger  *log.Logger
	db      *sql.DB
	reader  *storage.DefinitionReader
	writer  *storage.DefinitionWriter
	ignore  *bundle.Matcher
	cache   *cache.DefinitionCache
	builder *build.Builder
}

func newApp(opts appOptions) (*app, error) {
	root, err := resolveProject(opts.Project)
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfig(root, opts.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := cfg.Log.Level
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	w := opts.LogWriter
	if w == nil {
		w = os.Stderr
	}
	logger, err := logging.NewWithWriter(w, level, "modforge")
	if err != nil {
		return nil, err
	}

	ignore, err := bundle.NewMatcher(cfg.Bundles.Ignore)
	if err != nil {
		return nil, err
	}

	db, err := storage.Open(cfg.DatabasePath(root))
	if err != nil {
		return nil, fmt.Errorf("failed to open definition database: %w", err)
	}

	a := &app{
		root:   root,
		cfg:    cfg,
		logger: logger,
		db:     db,
		reader: storage.NewDefinitionReader(db),
		writer: storage.NewDefinitionWriter(db),
		ignore: ignore,
	}

	if opts.WithBuilder {
		if err := a.initBuilder(opts); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *app) initBuilder(opts appOptions) error {
	comp, salt, err := newCompiler(a.cfg, a.root)
	if err != nil {
		return err
	}

	classifier, err := access.NewGlobClassifier(a.cfg.Access.InternalNamespaces)
	if err != nil {
		return err
	}
	support, err := definition.ParseSupportLevel(a.cfg.Support)
	if err != nil {
		return err
	}

	factory, err := modules.NewFactory(modules.Options{
		Compiler:         comp,
		Classifier:       classifier,
		RegistryFunction: a.cfg.Registry.Function,
		Timeout:          a.cfg.Compiler.Timeout,
		Support:          support,
		Logger:           a.logger.WithPrefix("modules"),
	})
	if err != nil {
		return err
	}

	a.cache, err = cache.New(a.cfg.Cache.Capacity)
	if err != nil {
		return err
	}

	workers := a.cfg.Build.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}

	a.builder, err = build.NewBuilder(build.Options{
		Factory:         factory,
		Cache:           a.cache,
		Writer:          a.writer,
		Reader:          a.reader,
		Ignore:          a.ignore,
		Workers:         workers,
		FailFast:        opts.FailFast || a.cfg.Build.FailFast,
		FingerprintSalt: salt,
		Progress:        opts.Progress,
		Logger:          a.logger.WithPrefix("build"),
	})
	return err
}

// Close releases the cache and the database.
// lockRegistry takes the build lock for the app's database. Callers that
// write definitions hold it until they return.
func (a *app) lockRegistry() (*lock.RegistryLock, error) {
	lk := lock.ForDatabase(a.cfg.DatabasePath(a.root))
	if err := lk.Acquire(); err != nil {
		return nil, err
	}
	return lk, nil
}

func (a *app) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close definition database", "err", err)
	}
}

// newCompiler builds the configured engine and a salt that changes whenever
// a setting that affects compiled output changes.
func newCompiler(cfg *config.Config, root string) (compiler.Compiler, string, error) {
	var (
		comp compiler.Compiler
		salt string
	)

	switch strings.ToLower(cfg.Compiler.Engine) {
	case config.EngineScript:
		path := cfg.ScriptPath(root)
		sc, err := compiler.LoadScriptCompiler(path, cfg.Compiler.PoolSize)
		if err != nil {
			return nil, "", err
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, "", err
		}
		comp = sc
		salt = fmt.Sprintf("script|%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
	default:
		comp = compiler.NewEsbuildCompiler(compiler.EsbuildOptions{
			Minify: cfg.Compiler.Minify,
			Target: cfg.Compiler.Target,
		})
		salt = fmt.Sprintf("esbuild|%s|%t", cfg.Compiler.Target, cfg.Compiler.Minify)
	}

	salt += "|" + cfg.Registry.Function + "|" + strings.ToUpper(cfg.Support) + "|" + strings.Join(cfg.Access.InternalNamespaces, ",")
	return comp, salt, nil
}

func resolveProject(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		return wd, nil
	}
	return filepath.Abs(dir)
}

func loadConfig(root, file string) (*config.Config, error) {
	if file != "" {
		return config.NewFileLoader(file).Load()
	}
	return config.LoadConfigFromDir(root)
}
