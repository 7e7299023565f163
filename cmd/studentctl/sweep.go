package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/studentserving/backend/internal/database"
	"github.com/studentserving/backend/internal/repositories"
	"github.com/studentserving/backend/internal/storage"
	"github.com/studentserving/backend/internal/sweeper"
	"github.com/studentserving/backend/libs/logger"
)

func newSweepCmd(a *app) *cobra.Command {
	var (
		gracePeriod time.Duration
		timeout     time.Duration
	)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete uploaded files that no record references",
		Long: `Scan the certificate and news upload directories once and delete every file
that is older than the grace period and not referenced by a certificate or news record.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("grace-period") {
				gracePeriod = a.cfg.Cleanup.OrphanGracePeriod
			}

			db, err := database.Connect(a.cfg.DSN())
			if err != nil {
				return err
			}
			defer db.Close()

			s := sweeper.NewSweeper(
				storage.NewFileStore(a.cfg.Storage.UploadRoot),
				repositories.NewCertificateRepository(db),
				repositories.NewNewsRepository(db),
				gracePeriod,
				logger.Logger,
			)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			result, err := s.Sweep(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "scanned %d, deleted %d, kept %d, failed %d\n",
				result.Scanned, result.Deleted, result.Kept, result.Failed)
			return nil
		},
	}

	sweepCmd.Flags().DurationVar(&gracePeriod, "grace-period", 24*time.Hour, "only delete files older than this (defaults to ORPHAN_GRACE_PERIOD)")
	sweepCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "abort the sweep after this long")
	return sweepCmd
}
