package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	projectDir string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "modforge",
	Short: "Compile UI component bundles into module definitions",
	Long: `modforge compiles component bundles laid out as <root>/<namespace>/<name>/
into module definitions: validated, compiled, wrapped in a registration call
and hashed. Definitions are kept in a local SQLite registry.

Configuration is read from .modforge/config.yml in the project root and can
be overridden with MODFORGE_* environment variables.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <project>/.modforge/config.yml)")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "p", "", "project root (default is the working directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level: debug, info, warn, error")
}

// globalOptions carries the persistent flags into the run functions.
type globalOptions struct {
	ConfigFile string
	Project    string
	LogLevel   string
}

func currentGlobals() globalOptions {
	return globalOptions{
		ConfigFile: cfgFile,
		Project:    projectDir,
		LogLevel:   logLevel,
	}
}

// signalContext is cancelled on Ctrl+C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
