package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/actuallystonmai/movie-recommender/internal/domain"
	"github.com/actuallystonmai/movie-recommender/internal/engine"
	"github.com/actuallystonmai/movie-recommender/internal/metrics"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

const (
	defaultLimit    = 10
	maxLimit        = 50
	batchRecLimit   = 10
	defaultPerRated = 3
	maxPerRated     = 20
	onboardingSize  = 5
)

type Repository interface {
	GetUserByID(ctx context.Context, userID int64) (*domain.User, error)
	GetUserRatings(ctx context.Context, userID int64) ([]domain.Rating, error)
	GetSeenMovieIDs(ctx context.Context, userID int64) ([]int64, error)
	UpsertRating(ctx context.Context, userID, movieID int64, score float64) error
	MarkSeen(ctx context.Context, userID, movieID int64) error
	SaveRecommendations(ctx context.Context, userID int64, strategy domain.Strategy, recs []domain.ScoredRecommendation) error
	GetSavedRecommendations(ctx context.Context, userID int64) ([]domain.SavedRecommendation, error)
	GetUserIDsPaginated(ctx context.Context, page, limit int) ([]int64, error)
	CountUsers(ctx context.Context) (int, error)
}

type Cache interface {
	Get(ctx context.Context, userID int64, limit int) (*domain.RecommendationResult, bool, error)
	Set(ctx context.Context, userID int64, limit int, result *domain.RecommendationResult) error
	ClearUserCache(ctx context.Context, userID int64) error
}

type Options struct {
	BatchConcurrency    int
	MinRatingsToPersist int
}

type Service struct {
	repo   Repository
	cache  Cache
	engine *engine.Engine
	opts   Options
	logger zerolog.Logger
}

func NewService(repo Repository, cache Cache, eng *engine.Engine, opts Options, logger zerolog.Logger) *Service {
	if opts.BatchConcurrency < 1 {
		opts.BatchConcurrency = 10
	}
	return &Service{
		repo:   repo,
		cache:  cache,
		engine: eng,
		opts:   opts,
		logger: logger.With().Str("component", "service").Logger(),
	}
}

func clampLimit(limit, def, hi int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, hi)
}

func (s *Service) GetRecommendations(ctx context.Context, userID int64, limit int) (*domain.RecommendationResult, error) {
	limit = clampLimit(limit, defaultLimit, maxLimit)

	cached, found, err := s.cache.Get(ctx, userID, limit)
	if err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("cache get failed")
	}
	if found {
		return cached, nil
	}

	result, err := s.rank(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, userID, limit, result); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("cache set failed")
	}
	return result, nil
}

// GenerateAndSave ranks for the user and replaces their stored ranking. Users
// with fewer than MinRatingsToPersist ratings get ErrNotEnoughRatings.
func (s *Service) GenerateAndSave(ctx context.Context, userID int64, limit int) (*domain.RecommendationResult, error) {
	limit = clampLimit(limit, defaultLimit, maxLimit)

	p, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.RatingCount() < s.opts.MinRatingsToPersist {
		return nil, fmt.Errorf("%w: user %d has %d, needs %d",
			domain.ErrNotEnoughRatings, userID, p.RatingCount(), s.opts.MinRatingsToPersist)
	}

	result, err := s.recommend(ctx, p, limit)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveRecommendations(ctx, userID, result.Strategy, result.Recommendations); err != nil {
		return nil, fmt.Errorf("save recommendations: %w", err)
	}
	metrics.RecommendationsSaved.Add(float64(len(result.Recommendations)))

	s.logger.Info().
		Int64("user_id", userID).
		Str("strategy", string(result.Strategy)).
		Int("saved", len(result.Recommendations)).
		Msg("recommendations saved")
	return result, nil
}

func (s *Service) GetSavedRecommendations(ctx context.Context, userID int64) ([]domain.SavedRecommendation, error) {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.GetSavedRecommendations(ctx, userID)
}

func (s *Service) rank(ctx context.Context, userID int64, limit int) (*domain.RecommendationResult, error) {
	p, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.recommend(ctx, p, limit)
}

func (s *Service) recommend(ctx context.Context, p *engine.Profile, limit int) (*domain.RecommendationResult, error) {
	start := time.Now()
	res, err := s.engine.Recommend(ctx, p, limit)
	if err != nil {
		return nil, fmt.Errorf("rank catalog: %w", err)
	}

	strategy := string(res.Strategy)
	metrics.RecommendationsTotal.WithLabelValues(strategy).Inc()
	metrics.RankingDuration.WithLabelValues(strategy).Observe(time.Since(start).Seconds())

	return &domain.RecommendationResult{
		Recommendations: res.Recommendations,
		Strategy:        res.Strategy,
	}, nil
}

// profile loads the user's ratings and seen set into a fresh engine profile.
func (s *Service) profile(ctx context.Context, userID int64) (*engine.Profile, error) {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("fetch user: %w", err)
	}

	ratings, err := s.repo.GetUserRatings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch ratings: %w", err)
	}
	seen, err := s.repo.GetSeenMovieIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch seen movies: %w", err)
	}

	p := s.engine.NewProfile()
	p.SetUserData(ratings, seen)
	return p, nil
}

func (s *Service) GetBatchRecommendations(ctx context.Context, page, limit int) (*domain.BatchResponse, error) {
	start := time.Now()
	runID := ulid.Make().String()

	userIDs, err := s.repo.GetUserIDsPaginated(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch user ids: %w", err)
	}

	totalUsers, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	results := make([]domain.BatchUserResult, len(userIDs))
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.opts.BatchConcurrency)

	for i, userID := range userIDs {
		wg.Add(1)
		go func(idx int, uid int64) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx] = s.processUserForBatch(ctx, runID, uid)
		}(i, userID)
	}
	wg.Wait()

	successCount := 0
	failedCount := 0
	for _, r := range results {
		if r.Status == domain.StatusSuccess {
			successCount++
		} else {
			failedCount++
		}
	}
	metrics.BatchUsers.WithLabelValues(domain.StatusSuccess).Add(float64(successCount))
	metrics.BatchUsers.WithLabelValues(domain.StatusFailed).Add(float64(failedCount))

	elapsed := time.Since(start)
	s.logger.Info().
		Str("run_id", runID).
		Int("page", page).
		Int("users", len(userIDs)).
		Int("failed", failedCount).
		Dur("took", elapsed).
		Msg("batch complete")

	return &domain.BatchResponse{
		Page:       page,
		Limit:      limit,
		TotalUsers: totalUsers,
		Results:    results,
		Summary: domain.BatchSummary{
			SuccessCount:     successCount,
			FailedCount:      failedCount,
			ProcessingTimeMs: elapsed.Milliseconds(),
		},
		Metadata: domain.BatchMeta{
			RunID:       runID,
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

func (s *Service) processUserForBatch(ctx context.Context, runID string, userID int64) domain.BatchUserResult {
	result, err := s.GetRecommendations(ctx, userID, batchRecLimit)
	if err != nil {
		s.logger.Warn().Err(err).Str("run_id", runID).Int64("user_id", userID).Msg("batch user failed")
		code, msg := categorizeError(err)
		return domain.BatchUserResult{
			UserID:  userID,
			Status:  domain.StatusFailed,
			Error:   code,
			Message: msg,
		}
	}

	return domain.BatchUserResult{
		UserID:          userID,
		Recommendations: result.Recommendations,
		Strategy:        result.Strategy,
		Status:          domain.StatusSuccess,
	}
}

// AddRating stores a rating and drops the user's cached rankings.
func (s *Service) AddRating(ctx context.Context, userID, movieID int64, score float64) error {
	if _, ok := s.engine.Catalog().RowOf(movieID); !ok {
		return domain.ErrMovieNotFound
	}
	if scale := s.engine.Options().Scale; !scale.Contains(score) {
		return fmt.Errorf("%w: %g outside [%g, %g]", domain.ErrInvalidRating, score, scale.Min, scale.Max)
	}

	if err := s.repo.UpsertRating(ctx, userID, movieID, score); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// SkipMovie marks a movie as seen without rating it.
func (s *Service) SkipMovie(ctx context.Context, userID, movieID int64) error {
	if _, ok := s.engine.Catalog().RowOf(movieID); !ok {
		return domain.ErrMovieNotFound
	}
	if err := s.repo.MarkSeen(ctx, userID, movieID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, userID int64) {
	if err := s.cache.ClearUserCache(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", userID).Msg("cache invalidation failed")
	}
}

func (s *Service) SimilarMovies(movieID int64, limit int) ([]domain.SimilarMovie, error) {
	similar, err := s.engine.Similar(movieID, clampLimit(limit, defaultLimit, maxLimit))
	if errors.Is(err, engine.ErrUnknownMovie) {
		return nil, domain.ErrMovieNotFound
	}
	return similar, err
}

// OnboardingMovies returns a seeded random sample of the catalog for new
// users to rate.
func (s *Service) OnboardingMovies(n int, seed int64) []domain.Movie {
	return s.engine.Sample(clampLimit(n, onboardingSize, maxLimit), rand.New(rand.NewSource(seed)))
}

// Explain pairs each rated movie with its closest unseen neighbours.
func (s *Service) Explain(ctx context.Context, userID int64, perRated int) ([]domain.Explanation, error) {
	p, err := s.profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.engine.Explain(p, clampLimit(perRated, defaultPerRated, maxPerRated))
}

func categorizeError(err error) (string, string) {
	if errors.Is(err, domain.ErrUserNotFound) {
		return "user_not_found", "user not found"
	}
	if engine.IsCancelled(err) {
		return "request_timeout", "ranking did not finish in time"
	}
	return "internal_error", "an unexpected error occurred"
}
