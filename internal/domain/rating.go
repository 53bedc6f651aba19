package domain

import "time"

type Rating struct {
	MovieID int64     `json:"movie_id"`
	Score   float64   `json:"rating"`
	RatedAt time.Time `json:"rated_at"`
}
