package engine

import (
	"errors"
	"fmt"
)

var (
	ErrRowCountMismatch  = errors.New("embedding rows do not match catalog rows")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrZeroDimension     = errors.New("embeddings have zero dimension")
	ErrNonFinite         = errors.New("embedding contains NaN or Inf")
	ErrForeignProfile    = errors.New("profile belongs to a different engine")
	ErrUnknownMovie      = errors.New("movie not in catalog")
)

// LoadError reports why Load refused to build an engine. Row is -1 when the
// failure is not tied to a single row.
type LoadError struct {
	Row  int
	Want int
	Got  int
	Err  error
}

func (e *LoadError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("load engine: %v (want %d, got %d)", e.Err, e.Want, e.Got)
	}
	return fmt.Sprintf("load engine: row %d: %v (want %d, got %d)", e.Row, e.Err, e.Want, e.Got)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func IsLoadError(err error) bool {
	var target *LoadError
	return errors.As(err, &target)
}
