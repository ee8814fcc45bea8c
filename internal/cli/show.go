package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/modforge/internal/definition"
)

var (
	showJSON bool
	showCode bool
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <descriptor>",
	Short: "Show a stored module definition",
	Long: `Show a module definition from the registry by descriptor, written either as
"namespace:name" or "markup://namespace:name".

Example:
  modforge show c:card --code
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeShow(cmd.OutOrStdout(), showOptions{
			globalOptions: currentGlobals(),
			Descriptor:    args[0],
			JSON:          showJSON,
			Code:          showCode,
		})
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print the definition as JSON")
	showCmd.Flags().BoolVar(&showCode, "code", false, "Include the compiled code in the summary")
}

type showOptions struct {
	globalOptions
	Descriptor string
	JSON       bool
	Code       bool
}

func executeShow(out io.Writer, opts showOptions) error {
	desc, err := definition.ParseDescriptor(opts.Descriptor)
	if err != nil {
		return err
	}

	a, err := newApp(appOptions{globalOptions: opts.globalOptions})
	if err != nil {
		return err
	}
	defer a.Close()

	stored, err := a.reader.Get(desc)
	if err != nil {
		return err
	}
	if stored == nil {
		return fmt.Errorf("no definition for %s; run 'modforge build' first", desc.QualifiedName())
	}

	if opts.JSON {
		return writeJSON(out, stored.Definition)
	}
	printDefinition(out, stored.Definition, false)
	fmt.Fprintf(out, "  Updated:      %s\n", stored.UpdatedAt.Local().Format(time.DateTime))
	if stored.BuildID != "" {
		fmt.Fprintf(out, "  Build:        %s\n", stored.BuildID)
	}
	if opts.Code {
		fmt.Fprintln(out)
		fmt.Fprintln(out, stored.Definition.CompiledCode())
	}
	return nil
}
