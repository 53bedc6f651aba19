package main

import (
	"context"
	"fmt"

	"github.com/actuallystonmai/movie-recommender/internal/config"
	"github.com/actuallystonmai/movie-recommender/internal/repository"
	"github.com/actuallystonmai/movie-recommender/seeds"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace all data with the deterministic demo dataset",
	RunE:  runSeed,
}

var seedForce bool

func init() {
	seedCmd.Flags().BoolVar(&seedForce, "force", false, "Seed even when users already exist")
}

func runSeed(cmd *cobra.Command, args []string) error {
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

	if err := repository.MigrateUp(ctx, pool, logger); err != nil {
		return err
	}
	if seedForce {
		return seeds.Setup(ctx, pool, cfg.EngineOptions().Scale, logger)
	}
	return checkSeed(ctx, pool, cfg, logger)
}

// checkSeed seeds only an empty database.
func checkSeed(ctx context.Context, pool *pgxpool.Pool, cfg *config.Config, logger zerolog.Logger) error {
	count, err := repository.New(pool).CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("check users count: %w", err)
	}
	if count > 0 {
		logger.Info().Int("users", count).Msg("database already seeded, skipping")
		return nil
	}
	return seeds.Setup(ctx, pool, cfg.EngineOptions().Scale, logger)
}
