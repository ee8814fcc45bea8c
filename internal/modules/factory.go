// Package modules turns a component bundle into a compiled ModuleDef.
//
// The pipeline is strictly linear and every stage failure is terminal:
//
//	locate base file → validate naming → compile → rewrite define() → hash → build
//
// A Factory holds no per-call state, so Definition may be called from many
// goroutines at once.
package modules

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mvp-joe/modforge/internal/access"
	"github.com/mvp-joe/modforge/internal/bundle"
	"github.com/mvp-joe/modforge/internal/compiler"
	"github.com/mvp-joe/modforge/internal/definition"
	"github.com/mvp-joe/modforge/internal/logging"
)

// Options configures a Factory.
type Options struct {
	// Compiler is required.
	Compiler compiler.Compiler
	// Classifier decides the access level; nil makes every module PUBLIC.
	Classifier access.Classifier
	// RegistryFunction defaults to DefaultRegistryFunction.
	RegistryFunction string
	// Timeout bounds each compile call; zero disables it.
	Timeout time.Duration
	// Support is stamped on every definition; empty keeps PROTO.
	Support definition.SupportLevel
	Logger  *log.Logger
}

// Factory produces module definitions from bundles.
type Factory struct {
	compiler   compiler.Compiler
	classifier access.Classifier
	registryFn string
	support    definition.SupportLevel
	logger     *log.Logger
}

// NewFactory validates opts and creates a Factory.
func NewFactory(opts Options) (*Factory, error) {
	if opts.Compiler == nil {
		return nil, errors.New("compiler is required")
	}
	if opts.RegistryFunction == "" {
		opts.RegistryFunction = DefaultRegistryFunction
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	return &Factory{
		compiler:   compiler.WithTimeout(opts.Compiler, opts.Timeout),
		classifier: opts.Classifier,
		registryFn: opts.RegistryFunction,
		support:    opts.Support,
		logger:     opts.Logger,
	}, nil
}

var errNoResult = errors.New("compiler returned no result")

// Definition compiles the bundle for desc into an immutable ModuleDef.
func (f *Factory) Definition(ctx context.Context, desc definition.Descriptor, b *bundle.Bundle) (*definition.ModuleDef, error) {
	logger := f.logger.With("module", desc.DescriptorName())

	base, err := bundle.LocateBase(desc, b)
	if err != nil {
		return nil, &MissingBaseFileError{
			Descriptor: desc,
			Location:   definition.NewLocation(desc.Namespace + "/" + desc.Name),
			Err:        err,
		}
	}
	location := definition.NewLocation(base.Path)

	if namingErr := ValidateNaming(base.ComponentPath); namingErr != nil {
		namingErr.Descriptor = desc
		namingErr.Location = location
		return nil, namingErr
	}

	sources := b.Sources(base.Prefix)
	logger.Debug("compiling", "entry", base.ComponentPath, "sources", len(sources))

	start := time.Now()
	result, err := f.compiler.Compile(ctx, base.ComponentPath, sources)
	if err != nil {
		return nil, &CompileError{Descriptor: desc, Location: location, Err: err}
	}
	if result == nil {
		return nil, &CompileError{Descriptor: desc, Location: location, Err: errNoResult}
	}

	code, err := ProcessCompiledCode(f.registryFn, desc, result.Code)
	if err != nil {
		var outputErr *UnexpectedCompilerOutputError
		if errors.As(err, &outputErr) {
			outputErr.Location = location
		}
		return nil, err
	}

	hash := OwnHash(desc, code)
	logger.Debug("compiled", "duration", time.Since(start), "dependencies", len(result.Dependencies), "hash", hash[:12])

	return definition.NewModuleDefBuilder().
		SetDescriptor(desc).
		SetTagName(desc.DescriptorName()).
		SetLocation(location).
		SetAccess(access.LevelFor(f.classifier, desc.Namespace)).
		SetPath(base.Path).
		SetCustomElementName(bundle.CustomElementName(base.ComponentPath)).
		SetCompiledCode(code).
		SetDependencies(result.Dependencies).
		SetOwnHash(hash).
		SetSupport(f.support).
		Build(), nil
}
