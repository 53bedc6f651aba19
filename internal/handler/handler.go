package handler

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/actuallystonmai/movie-recommender/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

type RecommendationService interface {
	GetRecommendations(ctx context.Context, userID int64, limit int) (*domain.RecommendationResult, error)
	GenerateAndSave(ctx context.Context, userID int64, limit int) (*domain.RecommendationResult, error)
	GetSavedRecommendations(ctx context.Context, userID int64) ([]domain.SavedRecommendation, error)
	GetBatchRecommendations(ctx context.Context, page, limit int) (*domain.BatchResponse, error)
	AddRating(ctx context.Context, userID, movieID int64, score float64) error
	SkipMovie(ctx context.Context, userID, movieID int64) error
	SimilarMovies(movieID int64, limit int) ([]domain.SimilarMovie, error)
	Explain(ctx context.Context, userID int64, perRated int) ([]domain.Explanation, error)
	OnboardingMovies(n int, seed int64) []domain.Movie
}

type Handler struct {
	service RecommendationService
	logger  zerolog.Logger
	jobs    sync.WaitGroup
}

func NewHandler(svc RecommendationService, logger zerolog.Logger) *Handler {
	return &Handler{
		service: svc,
		logger:  logger.With().Str("component", "handler").Logger(),
	}
}

// Wait blocks until background generation jobs have finished.
func (h *Handler) Wait() {
	h.jobs.Wait()
}

// write JSON response
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writes JSON error response.
func writeError(w http.ResponseWriter, status int, errCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   errCode,
		Message: message,
	})
}

func parseUserID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseMovieID accepts 0, since catalogs without an id column number their
// movies from 0.
func parseMovieID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "movieID"), 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// queryInt returns def when the parameter is absent and false when it is
// present but not an integer in [lo, hi].
func queryInt(r *http.Request, name string, def, lo, hi int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		return 0, false
	}
	return v, true
}
