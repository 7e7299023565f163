// Command studentctl runs maintenance tasks against the student services database and upload store
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/studentserving/backend/libs/config"
	"github.com/studentserving/backend/libs/logger"
)

// app holds what every subcommand needs after PersistentPreRunE has run
type app struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "studentctl",
		Short: "Maintenance CLI for the student services backend",
		Long: `studentctl applies schema migrations and reclaims orphaned uploads.

Configuration is read from the same environment variables (and optional .env file) as the API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := logger.Init(cfg.Logging.Level); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.cfg = cfg
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	rootCmd.AddCommand(newMigrateCmd(a))
	rootCmd.AddCommand(newSweepCmd(a))
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
