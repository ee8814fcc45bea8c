package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/modforge/internal/watcher"
)

var (
	buildWatch    bool
	buildFailFast bool
	buildQuiet    bool
	buildWorkers  int
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build [root]",
	Short: "Compile every component under the bundle root",
	Long: `Build discovers every <namespace>/<name>/<name>.js component under the bundle
root (bundles.root, or the argument) and compiles them concurrently. Unchanged
components reuse their stored definitions.

Examples:
  # Build the configured bundle root
  modforge build

  # Stop at the first failure
  modforge build --fail-fast

  # Build, then recompile components as their files change
  modforge build --watch
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().BoolVarP(&buildWatch, "watch", "w", false, "Watch for changes and recompile affected components")
	buildCmd.Flags().BoolVar(&buildFailFast, "fail-fast", false, "Cancel the build after the first failure")
	buildCmd.Flags().BoolVarP(&buildQuiet, "quiet", "q", false, "Disable progress bars and non-error output")
	buildCmd.Flags().IntVarP(&buildWorkers, "workers", "j", 0, "Concurrent compiles (default: build.workers)")
}

type buildOptions struct {
	globalOptions
	Root     string
	Watch    bool
	FailFast bool
	Quiet    bool
	Workers  int
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	opts := buildOptions{
		globalOptions: currentGlobals(),
		Watch:         buildWatch,
		FailFast:      buildFailFast,
		Quiet:         buildQuiet,
		Workers:       buildWorkers,
	}
	if len(args) == 1 {
		opts.Root = args[0]
	}
	return executeBuild(ctx, cmd.OutOrStdout(), opts)
}

func executeBuild(ctx context.Context, out io.Writer, opts buildOptions) error {
	a, err := newApp(appOptions{
		globalOptions: opts.globalOptions,
		WithBuilder:   true,
		Progress:      NewCLIProgressReporter(out, opts.Quiet),
		FailFast:      opts.FailFast,
		Workers:       opts.Workers,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	lk, err := a.lockRegistry()
	if err != nil {
		return err
	}
	defer lk.Release()

	root := a.cfg.BundleRoot(a.root)
	if opts.Root != "" {
		if root, err = filepath.Abs(opts.Root); err != nil {
			return err
		}
	}

	report, err := a.builder.Build(ctx, root)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("build cancelled")
		}
		return fmt.Errorf("build failed: %w", err)
	}

	if opts.Quiet {
		fmt.Fprintf(out, "Build complete: %d modules, %d failed in %.2fs\n",
			len(report.Definitions), len(report.Failures), report.Duration.Seconds())
	}

	if !opts.Watch {
		if report.Failed() {
			return fmt.Errorf("%d of %d components failed", len(report.Failures), len(report.Failures)+len(report.Definitions))
		}
		return nil
	}

	return watchAndRecompile(ctx, out, a, root)
}

// watchAndRecompile blocks until ctx is cancelled.
func watchAndRecompile(ctx context.Context, out io.Writer, a *app, root string) error {
	fw, err := watcher.NewFileWatcher(root, watcher.Options{
		Ignore: a.ignore,
		Logger: a.logger.WithPrefix("watch"),
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	onResult := func(r watcher.Result) {
		if r.Removed {
			if err := a.writer.DeleteDefinition(r.Descriptor); err != nil {
				a.logger.Warn("failed to delete definition", "module", r.Descriptor.DescriptorName(), "err", err)
			}
		}
		printWatchResult(out, r)
	}

	fmt.Fprintf(out, "Watching %s for changes (Ctrl+C to stop)\n", root)
	coord := watcher.NewCoordinator(fw, a.builder, a.cache, onResult, a.logger.WithPrefix("watch"))
	if err := coord.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch mode failed: %w", err)
	}
	fmt.Fprintln(out, "Watch mode stopped")
	return nil
}
