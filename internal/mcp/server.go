// Package mcp exposes module compilation and the definition registry as MCP
// tools over stdio.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/modforge/internal/cache"
	"github.com/mvp-joe/modforge/internal/definition"
	"github.com/mvp-joe/modforge/internal/logging"
	"github.com/mvp-joe/modforge/internal/storage"
)

// ComponentCompiler compiles one component directory. *build.Builder satisfies it.
type ComponentCompiler interface {
	CompileDir(ctx context.Context, dir string) (*definition.ModuleDef, error)
}

// Lookup is the in-memory registry consulted first. *cache.DefinitionCache satisfies it.
type Lookup interface {
	Get(desc definition.Descriptor) (*definition.ModuleDef, bool)
}

// DefinitionStore is the persisted registry. *storage.DefinitionReader satisfies it.
type DefinitionStore interface {
	Get(desc definition.Descriptor) (*storage.StoredDefinition, error)
	List(namespace string) ([]*storage.StoredDefinition, error)
	Dependents(dep string) ([]string, error)
}

var _ Lookup = (*cache.DefinitionCache)(nil)

// ServerConfig wires the server to the rest of modforge. Compiler is required;
// without a Store only compile_module and get_definition are offered.
type ServerConfig struct {
	Name     string
	Version  string
	Compiler ComponentCompiler
	Lookup   Lookup
	Store    DefinitionStore
	Logger   *log.Logger
}

// Server manages the MCP server lifecycle.
type Server struct {
	mcp    *server.MCPServer
	logger *log.Logger
}

// NewServer creates a server and registers its tools.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Compiler == nil {
		return nil, errors.New("compiler is required")
	}
	if cfg.Name == "" {
		cfg.Name = "modforge-mcp"
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}

	s := server.NewMCPServer(
		cfg.Name,
		cfg.Version,
		server.WithToolCapabilities(true),
	)

	AddCompileModuleTool(s, cfg.Compiler)
	AddGetDefinitionTool(s, cfg.Lookup, cfg.Store)
	if cfg.Store != nil {
		AddListDefinitionsTool(s, cfg.Store)
		AddDependentsTool(s, cfg.Store)
	}

	return &Server{mcp: s, logger: cfg.Logger}, nil
}

// MCP returns the underlying mcp-go server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Serve runs on stdio until the client disconnects, a signal arrives or ctx
// is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting MCP server on stdio")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-sigCh:
		s.logger.Info("received shutdown signal, stopping")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
