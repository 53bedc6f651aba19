package router

import (
	"net/http"
	"time"

	"github.com/actuallystonmai/movie-recommender/internal/handler"
	"github.com/actuallystonmai/movie-recommender/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func Setup(h *handler.Handler, logger zerolog.Logger, timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", healthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/recommendations", h.GetRecommendations)
			r.Post("/recommendations/generate", h.GenerateRecommendations)
			r.Get("/recommendations/saved", h.GetSavedRecommendations)
			r.Get("/recommendations/explain", h.ExplainRecommendations)
			r.Put("/ratings/{movieID}", h.PutRating)
			r.Post("/seen/{movieID}", h.MarkSeen)
		})
		r.Get("/movies/{movieID}/similar", h.GetSimilarMovies)
		r.Get("/onboarding", h.GetOnboarding)
		r.Get("/recommendations/batch", h.GetBatchRecommendations)
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
