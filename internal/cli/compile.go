package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	compileJSON bool
	compileCode bool
)

// compileCmd represents the compile command
var compileCmd = &cobra.Command{
	Use:   "compile <dir>",
	Short: "Compile one component directory",
	Long: `Compile a single component directory (<root>/<namespace>/<name>) and store
the resulting module definition. Fails while a build or watch holds the
registry lock.

Examples:
  # Compile and summarize
  modforge compile src/modules/c/card

  # Print the full definition as JSON
  modforge compile src/modules/c/card --json
`,
	Args: cobra.ExactArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().BoolVar(&compileJSON, "json", false, "Print the definition as JSON")
	compileCmd.Flags().BoolVar(&compileCode, "code", false, "Include the compiled code in the summary")
}

type compileOptions struct {
	globalOptions
	Dir  string
	JSON bool
	Code bool
}

func runCompile(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	return executeCompile(ctx, cmd.OutOrStdout(), compileOptions{
		globalOptions: currentGlobals(),
		Dir:           args[0],
		JSON:          compileJSON,
		Code:          compileCode,
	})
}

func executeCompile(ctx context.Context, out io.Writer, opts compileOptions) error {
	a, err := newApp(appOptions{globalOptions: opts.globalOptions, WithBuilder: true})
	if err != nil {
		return err
	}
	defer a.Close()

	lk, err := a.lockRegistry()
	if err != nil {
		return err
	}
	defer lk.Release()

	dir := opts.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(a.root, dir)
	}

	def, err := a.builder.CompileDir(ctx, dir)
	if err != nil {
		return fmt.Errorf("compile failed: %w", err)
	}

	if opts.JSON {
		return writeJSON(out, def)
	}
	printDefinition(out, def, opts.Code)
	return nil
}
