package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/actuallystonmai/movie-recommender/internal/domain"
)

// GET /movies/{movieID}/similar
func (h *Handler) GetSimilarMovies(w http.ResponseWriter, r *http.Request) {
	movieID, ok := parseMovieID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid movie_id parameter")
		return
	}

	limit, ok := queryInt(r, "limit", 10, 1, 50)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit parameter")
		return
	}

	similar, err := h.service.SimilarMovies(movieID, limit)
	if err != nil {
		if errors.Is(err, domain.ErrMovieNotFound) {
			writeError(w, http.StatusNotFound, "movie_not_found", "Movie is not in the catalog")
			return
		}
		h.logger.Error().Err(err).Int64("movie_id", movieID).Msg("similar movies failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}

	writeJSON(w, http.StatusOK, SimilarResponse{MovieID: movieID, Similar: similar})
}

// GET /onboarding
func (h *Handler) GetOnboarding(w http.ResponseWriter, r *http.Request) {
	n, ok := queryInt(r, "n", 5, 1, 50)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid n parameter")
		return
	}

	seed := time.Now().UnixNano()
	if raw := r.URL.Query().Get("seed"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid seed parameter")
			return
		}
		seed = v
	}

	writeJSON(w, http.StatusOK, OnboardingResponse{
		Seed:   seed,
		Movies: h.service.OnboardingMovies(n, seed),
	})
}
