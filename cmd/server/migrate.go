package main

import (
	"fmt"

	"github.com/actuallystonmai/movie-recommender/internal/repository"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply or roll back database migrations",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"up", "down"},
	RunE:      runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	pool, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	switch args[0] {
	case "up":
		err = repository.MigrateUp(ctx, pool, logger)
	case "down":
		err = repository.MigrateDown(ctx, pool, logger)
	default:
		return fmt.Errorf("unknown direction %q, want up or down", args[0])
	}
	if err != nil {
		return err
	}
	logger.Info().Str("direction", args[0]).Msg("migrations complete")
	return nil
}
