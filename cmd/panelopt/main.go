package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/assaykit/panelopt/internal/pipeline"
	"github.com/assaykit/panelopt/pkg/config"
	"github.com/assaykit/panelopt/pkg/errors"
	csvio "github.com/assaykit/panelopt/pkg/formats/csv"
	"github.com/assaykit/panelopt/pkg/logger"
	"github.com/assaykit/panelopt/pkg/metrics"
)

var version = "0.1.0"

// Exit codes distinguish the run outcomes callers script against.
const (
	exitOK         = 0
	exitError      = 1
	exitSchema     = 2
	exitInfeasible = 3
	exitSolver     = 4
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "panelopt",
		Short: "panelopt - response-group selection for assay panels",
		Long: `panelopt turns raw per-donor assay measurements into a ranked,
decorrelated subset of response groups (population x reagent x condition)
that is simultaneously high-signal, variance-informative and non-redundant.`,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("panelopt v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(newValidateCmd())
	root.AddCommand(newRunCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <input.csv>",
		Short: "Check that an input table carries the required columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := csvio.ValidateSchema(args[0]); err != nil {
				return err
			}
			fmt.Printf("%s: schema ok\n", args[0])
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	var configFile, inputFile, logLevel string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the selection pipeline",
		Long: `Run the full pipeline: filter and normalize observations, remove
outliers, aggregate per-group statistics, build the correlation matrix and
solve the selection program.

Example:
  panelopt run --config run.yaml
  panelopt run --input sup.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configFile != "" {
				if err := config.Load(configFile, cfg); err != nil {
					return err
				}
			}
			if inputFile != "" {
				cfg.Input.Path = inputFile
			}
			if logLevel != "" {
				cfg.Runtime.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if err := logger.Init(logger.Config{
				Level:    cfg.Runtime.LogLevel,
				Encoding: "console",
			}); err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			log := logger.With(zap.String("component", "panelopt-cli"))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			if cfg.Runtime.EnableMetrics {
				go func() {
					if err := metrics.Serve(ctx, cfg.Runtime.MetricsAddr); err != nil {
						log.Warn("metrics endpoint failed", zap.Error(err))
					}
				}()
			}

			result, err := pipeline.New(cfg, log).Run(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("selected %d groups (objective %.6g, %s):\n",
				len(result.Selected), result.Objective, result.Status)
			for _, label := range result.Labels {
				fmt.Printf("  - %s\n", label)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to run configuration YAML file")
	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Path to the observation CSV (overrides config)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	return cmd
}

// exitCode maps the error taxonomy to the documented exit codes.
func exitCode(err error) int {
	switch errors.TypeOf(err) {
	case errors.ErrorTypeSchema:
		return exitSchema
	case errors.ErrorTypeInfeasible:
		return exitInfeasible
	case errors.ErrorTypeSolver:
		return exitSolver
	default:
		return exitError
	}
}
