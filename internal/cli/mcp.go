package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/modforge/internal/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol (MCP) server so coding assistants can
compile components and query the definition registry.

The MCP server:
- compile_module compiles a component directory
- get_definition looks up a definition by descriptor
- list_definitions and module_dependents query the registry
- Communicates via stdio (standard MCP transport)

Example:
  modforge mcp`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	// stdout carries the protocol, so logs go to stderr.
	a, err := newApp(appOptions{
		globalOptions: currentGlobals(),
		WithBuilder:   true,
		LogWriter:     os.Stderr,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	server, err := mcp.NewServer(mcp.ServerConfig{
		Name:     "modforge-mcp",
		Version:  Version,
		Compiler: a.builder,
		Lookup:   a.cache,
		Store:    a.reader,
		Logger:   a.logger.WithPrefix("mcp"),
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
