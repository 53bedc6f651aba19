package domain

import "time"

// Strategy names the scoring path that produced a ranking.
type Strategy string

const (
	StrategyKNN       Strategy = "knn"
	StrategyCentroid  Strategy = "centroid"
	StrategyColdStart Strategy = "cold_start"
)

// ScoredRecommendation is one ranked movie. Score is only comparable with
// scores produced by the same Strategy.
type ScoredRecommendation struct {
	MovieID       int64   `json:"movie_id"`
	Title         string  `json:"title"`
	Genre         string  `json:"genre"`
	QualitySignal float64 `json:"quality_signal"`
	Score         float64 `json:"score"`
}

type RecommendationMeta struct {
	CacheHit    bool     `json:"cache_hit"`
	Strategy    Strategy `json:"strategy,omitempty"`
	GeneratedAt string   `json:"generated_at"`
	TotalCount  int      `json:"total_count"`
}

type RecommendationResult struct {
	Recommendations []ScoredRecommendation `json:"recommendations"`
	Strategy        Strategy               `json:"strategy"`
	CacheHit        bool                   `json:"-"`
}

// SavedRecommendation is a persisted ranking row.
type SavedRecommendation struct {
	MovieID        int64     `json:"movie_id"`
	Title          string    `json:"title"`
	PredictedScore float64   `json:"predicted_score"`
	Position       int       `json:"position"`
	Strategy       Strategy  `json:"strategy"`
	GeneratedAt    time.Time `json:"generated_at"`
}

type SimilarMovie struct {
	Movie      Movie   `json:"movie"`
	Similarity float64 `json:"similarity"`
}

// Explanation lists the movies closest to one of the user's rated movies.
type Explanation struct {
	Rated   Movie          `json:"rated"`
	Rating  float64        `json:"rating"`
	Similar []SimilarMovie `json:"similar"`
}

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

type BatchUserResult struct {
	UserID          int64                  `json:"user_id"`
	Recommendations []ScoredRecommendation `json:"recommendations,omitempty"`
	Strategy        Strategy               `json:"strategy,omitempty"`
	Status          string                 `json:"status"`
	Error           string                 `json:"error,omitempty"`
	Message         string                 `json:"message,omitempty"`
}

type BatchSummary struct {
	SuccessCount     int   `json:"success_count"`
	FailedCount      int   `json:"failed_count"`
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

type BatchMeta struct {
	RunID       string `json:"run_id"`
	GeneratedAt string `json:"generated_at"`
}

type BatchResponse struct {
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalUsers int               `json:"total_users"`
	Results    []BatchUserResult `json:"results"`
	Summary    BatchSummary      `json:"summary"`
	Metadata   BatchMeta         `json:"metadata"`
}
