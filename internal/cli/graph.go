package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/modforge/internal/definition"
	"github.com/mvp-joe/modforge/internal/depgraph"
)

var (
	graphDOT       bool
	graphNamespace string
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the module dependency graph",
	Long: `Print stored modules in dependency order (imports first), or the whole graph
in Graphviz DOT format. Imports that are not stored modules are shown as
external.

Examples:
  modforge graph
  modforge graph --dot | dot -Tsvg > modules.svg
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeGraph(cmd.OutOrStdout(), graphOptions{
			globalOptions: currentGlobals(),
			DOT:           graphDOT,
			Namespace:     graphNamespace,
		})
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().BoolVar(&graphDOT, "dot", false, "Write Graphviz DOT instead of an ordered list")
	graphCmd.Flags().StringVarP(&graphNamespace, "namespace", "n", "", "Only include modules from this namespace")
}

type graphOptions struct {
	globalOptions
	DOT       bool
	Namespace string
}

func executeGraph(out io.Writer, opts graphOptions) error {
	a, err := newApp(appOptions{globalOptions: opts.globalOptions})
	if err != nil {
		return err
	}
	defer a.Close()

	stored, err := a.reader.List(opts.Namespace)
	if err != nil {
		return err
	}
	defs := make([]*definition.ModuleDef, 0, len(stored))
	for _, sd := range stored {
		defs = append(defs, sd.Definition)
	}

	g, err := depgraph.New(defs)
	if err != nil {
		return fmt.Errorf("failed to build dependency graph: %w", err)
	}

	if opts.DOT {
		return g.WriteDOT(out)
	}

	cycles, err := g.Cycles()
	if err != nil {
		return err
	}
	if len(cycles) > 0 {
		for _, c := range cycles {
			fmt.Fprintf(out, "cycle: %s\n", strings.Join(c, " -> "))
		}
		return fmt.Errorf("dependency graph has %d cycle(s)", len(cycles))
	}

	order, err := g.TopologicalOrder()
	if err != nil {
		return err
	}
	nodes, edges, err := g.Len()
	if err != nil {
		return err
	}

	for _, id := range order {
		node, _ := g.Node(id)
		if node.Kind == depgraph.KindExternal {
			fmt.Fprintf(out, "%s (external)\n", id)
			continue
		}
		deps, err := g.Dependencies(id)
		if err != nil {
			return err
		}
		if len(deps) == 0 {
			fmt.Fprintln(out, id)
			continue
		}
		fmt.Fprintf(out, "%s <- %s\n", id, strings.Join(deps, ", "))
	}
	fmt.Fprintf(out, "\n%s nodes, %s edges\n", formatNumber(nodes), formatNumber(edges))
	return nil
}
