package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/daap14/todolist/internal/config"
	"github.com/daap14/todolist/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "todolist",
		Short:         "Todo list API backed by PostgreSQL",
		Long:          `todolist serves a JSON CRUD API over the todolist table and manages its Kubernetes deployment.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			RunE:  runServe,
		},
		newSchemaCmd(),
		newManifestCmd(),
		newProvisionCmd(),
		newTeardownCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Show version information",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("loading configuration: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "todolist %s\n", cfg.Version)
				return nil
			},
		},
	)

	return rootCmd
}

// loadConfig reads the environment and installs the process logger.
// The returned closer flushes the optional log file.
func loadConfig() (*config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	closer := logging.Setup(cfg.LogLevel, cfg.IsProduction(), cfg.LogFile)
	return cfg, func() { _ = closer.Close() }, nil
}
