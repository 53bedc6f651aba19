package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/actuallystonmai/movie-recommender/internal/domain"
	"github.com/actuallystonmai/movie-recommender/internal/engine"
)

// GET /users/{userID}/recommendations
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid user_id parameter")
		return
	}

	limit, ok := queryInt(r, "limit", 10, 1, 50)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit parameter")
		return
	}

	result, err := h.service.GetRecommendations(r.Context(), userID, limit)
	if err != nil {
		h.writeServiceError(w, err, userID)
		return
	}

	resp := RecommendationResponse{
		UserID:          userID,
		Recommendations: result.Recommendations,
		Metadata: domain.RecommendationMeta{
			CacheHit:    result.CacheHit,
			Strategy:    result.Strategy,
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			TotalCount:  len(result.Recommendations),
		},
	}

	writeJSON(w, http.StatusOK, resp)
}

// POST /users/{userID}/recommendations/generate
//
// The ranking is computed and stored after the response is sent.
func (h *Handler) GenerateRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid user_id parameter")
		return
	}

	limit, ok := queryInt(r, "limit", 10, 1, 50)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit parameter")
		return
	}

	ctx := context.WithoutCancel(r.Context())
	h.jobs.Add(1)
	go func() {
		defer h.jobs.Done()
		if _, err := h.service.GenerateAndSave(ctx, userID, limit); err != nil {
			ev := h.logger.Error()
			if errors.Is(err, domain.ErrNotEnoughRatings) || errors.Is(err, domain.ErrUserNotFound) {
				ev = h.logger.Warn()
			}
			ev.Err(err).Int64("user_id", userID).Msg("background generation failed")
		}
	}()

	writeJSON(w, http.StatusAccepted, AcceptedResponse{
		Status:  "accepted",
		Message: fmt.Sprintf("Generating recommendations for user %d", userID),
	})
}

// GET /users/{userID}/recommendations/saved
func (h *Handler) GetSavedRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid user_id parameter")
		return
	}

	saved, err := h.service.GetSavedRecommendations(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err, userID)
		return
	}

	writeJSON(w, http.StatusOK, SavedRecommendationsResponse{UserID: userID, Recommendations: saved})
}

// GET /users/{userID}/recommendations/explain
func (h *Handler) ExplainRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid user_id parameter")
		return
	}

	perRated, ok := queryInt(r, "per_rated", 3, 1, 20)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid per_rated parameter")
		return
	}

	out, err := h.service.Explain(r.Context(), userID, perRated)
	if err != nil {
		h.writeServiceError(w, err, userID)
		return
	}

	writeJSON(w, http.StatusOK, ExplainResponse{UserID: userID, Explanations: out})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, userID int64) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user_not_found",
			fmt.Sprintf("User with ID %d does not exist", userID))
	case errors.Is(err, domain.ErrMovieNotFound):
		writeError(w, http.StatusNotFound, "movie_not_found", "Movie is not in the catalog")
	case errors.Is(err, domain.ErrInvalidRating):
		writeError(w, http.StatusBadRequest, "invalid_rating", err.Error())
	case engine.IsCancelled(err):
		writeError(w, http.StatusServiceUnavailable, "request_timeout",
			"Request timed out, please try again")
	default:
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
