package handler

import (
	"net/http"

	"github.com/goccy/go-json"
)

// PUT /users/{userID}/ratings/{movieID}
func (h *Handler) PutRating(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid user_id parameter")
		return
	}
	movieID, ok := parseMovieID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid movie_id parameter")
		return
	}

	var req RatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Rating == nil {
		writeError(w, http.StatusBadRequest, "invalid_body", `Body must be {"rating": <number>}`)
		return
	}

	if err := h.service.AddRating(r.Context(), userID, movieID, *req.Rating); err != nil {
		h.writeServiceError(w, err, userID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /users/{userID}/seen/{movieID}
func (h *Handler) MarkSeen(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid user_id parameter")
		return
	}
	movieID, ok := parseMovieID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid movie_id parameter")
		return
	}

	if err := h.service.SkipMovie(r.Context(), userID, movieID); err != nil {
		h.writeServiceError(w, err, userID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
