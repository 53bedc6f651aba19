package domain

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrMovieNotFound    = errors.New("movie not found")
	ErrInvalidRating    = errors.New("rating outside the configured scale")
	ErrNotEnoughRatings = errors.New("not enough ratings to generate recommendations")
)
