// Package main provides the feature-compare CLI entrypoint.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/app"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/config"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/observability"
)

const version = "1.0.0"

var (
	// Global flags
	cfgFile    string
	outputJSON bool
	verbose    bool
	noColor    bool

	// Configuration and logger
	cfg    *config.Config
	logger *observability.Logger
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "feature-compare",
	Short: "Extract and compare refrigeration controller datasheet features",
	Long: `feature-compare turns vendor PDF datasheets into per-device feature records
organized in eight fixed categories, and compares a reference vendor's device
against a competitor's device category by category.

Use this tool to:
- Extract feature records from a directory of PDF datasheets
- Import sectioned reference data
- List vendors and devices
- Produce comparison reports as text, Markdown or HTML`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		level := cfg.Observability.LogLevel
		if verbose {
			level = "debug"
		}
		logFormat := "console"
		if outputJSON {
			logFormat = "json"
		}

		logger = observability.NewLogger(observability.LogConfig{
			Level:       level,
			Format:      logFormat,
			Output:      os.Stderr,
			ServiceName: "feature-compare",
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newExtractCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newVendorsCmd())
	rootCmd.AddCommand(newDevicesCmd())
	rootCmd.AddCommand(newCompareCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openApp wires the services for one command run.
func openApp(ctx context.Context) (*app.App, error) {
	return app.New(ctx, cfg, logger)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "feature-compare version %s\n", version)
		},
	}
}
