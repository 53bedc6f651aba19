package handler

import "github.com/actuallystonmai/movie-recommender/internal/domain"

type RecommendationResponse struct {
	UserID          int64                         `json:"user_id"`
	Recommendations []domain.ScoredRecommendation `json:"recommendations"`
	Metadata        domain.RecommendationMeta     `json:"metadata"`
}

type SavedRecommendationsResponse struct {
	UserID          int64                        `json:"user_id"`
	Recommendations []domain.SavedRecommendation `json:"recommendations"`
}

type ExplainResponse struct {
	UserID       int64                `json:"user_id"`
	Explanations []domain.Explanation `json:"explanations"`
}

type SimilarResponse struct {
	MovieID int64                 `json:"movie_id"`
	Similar []domain.SimilarMovie `json:"similar"`
}

// OnboardingResponse echoes the seed so a client can replay the same sample.
type OnboardingResponse struct {
	Seed   int64          `json:"seed"`
	Movies []domain.Movie `json:"movies"`
}

type AcceptedResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type RatingRequest struct {
	Rating *float64 `json:"rating"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
