package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/actuallystonmai/movie-recommender/internal/cache"
	"github.com/actuallystonmai/movie-recommender/internal/catalog"
	"github.com/actuallystonmai/movie-recommender/internal/engine"
	"github.com/actuallystonmai/movie-recommender/internal/handler"
	"github.com/actuallystonmai/movie-recommender/internal/metrics"
	"github.com/actuallystonmai/movie-recommender/internal/repository"
	"github.com/actuallystonmai/movie-recommender/internal/router"
	"github.com/actuallystonmai/movie-recommender/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (default)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	// ------------ PostgreSQL ---------------
	pool, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := repository.MigrateUp(ctx, pool, logger); err != nil {
		return err
	}
	if cfg.SeedOnStart {
		if err := checkSeed(ctx, pool, cfg, logger); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	repo := repository.New(pool)

	// ------------ Engine ---------------
	table, err := loadCatalog(ctx, repo, cfg.CatalogCSV, logger)
	if err != nil {
		return err
	}
	eng, err := engine.Load(table.Embeddings, table, cfg.EngineOptions(), logger)
	if err != nil {
		return fmt.Errorf("load engine: %w", err)
	}
	metrics.CatalogSize.Set(float64(eng.Size()))

	// ------------ Redis ---------------
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	recCache := cache.NewCache(rdb, cfg.CacheTTL, logger)
	if err := recCache.Ping(ctx); err != nil {
		logger.Warn().Err(err).Msg("redis unreachable, serving without cache until it recovers")
	}

	// ---------------- Server --------------------
	svc := service.NewService(repo, recCache, eng, service.Options{
		BatchConcurrency:    cfg.BatchConcurrency,
		MinRatingsToPersist: cfg.MinRatingsToPersist,
	}, logger)
	h := handler.NewHandler(svc, logger)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.Setup(h, logger, cfg.RequestTimeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	h.Wait()
	logger.Info().Msg("server stopped")
	return nil
}

type catalogStore interface {
	LoadCatalog(ctx context.Context) (*catalog.Table, error)
	InsertMovies(ctx context.Context, table *catalog.Table) (int64, error)
}

// loadCatalog prefers the movies table and falls back to the csv at csvPath.
// An empty table is filled from the csv so ratings and saved rankings can
// reference its movies. A table that cannot be read is left alone and the csv
// is served from memory only.
func loadCatalog(ctx context.Context, store catalogStore, csvPath string, logger zerolog.Logger) (*catalog.Table, error) {
	table, dbErr := store.LoadCatalog(ctx)
	if dbErr == nil && table.Len() > 0 {
		logger.Info().Int("movies", table.Len()).Msg("catalog loaded from database")
		return table, nil
	}
	if csvPath == "" {
		if dbErr != nil {
			return nil, dbErr
		}
		return table, nil
	}

	table, err := catalog.LoadCSVFile(csvPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog csv: %w", err)
	}
	table.MaterializeIDs()
	logger.Info().Int("movies", table.Len()).Str("path", csvPath).Msg("catalog loaded from csv")

	if dbErr != nil {
		logger.Warn().Err(dbErr).Str("path", csvPath).
			Msg("database catalog unavailable, csv movies are not persisted and writes will fail")
		return table, nil
	}

	n, err := store.InsertMovies(ctx, table.Unique())
	if err != nil {
		return nil, fmt.Errorf("persist catalog csv: %w", err)
	}
	logger.Info().Int64("movies", n).Msg("csv catalog written to database")
	return table, nil
}
