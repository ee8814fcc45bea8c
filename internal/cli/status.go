package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/modforge/internal/storage"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the registry and the most recent build",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return executeStatus(cmd.OutOrStdout(), currentGlobals())
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func executeStatus(out io.Writer, opts globalOptions) error {
	a, err := newApp(appOptions{globalOptions: opts})
	if err != nil {
		return err
	}
	defer a.Close()

	version, err := storage.GetSchemaVersion(a.db)
	if err != nil {
		return err
	}
	defs, err := a.reader.List("")
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Registry:     %s (schema %s)\n", a.cfg.DatabasePath(a.root), version)
	fmt.Fprintf(out, "Bundle root:  %s\n", a.cfg.BundleRoot(a.root))
	fmt.Fprintf(out, "Definitions:  %s\n", formatNumber(len(defs)))

	build, err := a.reader.LatestBuild()
	if err != nil {
		return err
	}
	if build == nil {
		fmt.Fprintln(out, "Last build:   never")
		return nil
	}

	fmt.Fprintf(out, "Last build:   %s (%s)\n", build.ID, build.Status)
	fmt.Fprintf(out, "  Started:    %s\n", build.StartedAt.Local().Format(time.DateTime))
	if !build.FinishedAt.IsZero() {
		fmt.Fprintf(out, "  Duration:   %s\n", build.FinishedAt.Sub(build.StartedAt).Round(time.Millisecond))
	}
	fmt.Fprintf(out, "  Succeeded:  %s\n", formatNumber(build.Succeeded))
	fmt.Fprintf(out, "  Failed:     %s\n", formatNumber(build.Failed))
	return nil
}
