package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/actuallystonmai/movie-recommender/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const foreignKeyViolation = "23503"

// GetUserRatings returns the user's ratings oldest first, which is the order
// neighbour ties are broken in.
func (r *Repository) GetUserRatings(ctx context.Context, userID int64) ([]domain.Rating, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT movie_id, rating, rated_at
		FROM user_ratings
		WHERE user_id = $1
		ORDER BY rated_at, movie_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("get ratings for user %d: %w", userID, err)
	}
	defer rows.Close()

	var items []domain.Rating
	for rows.Next() {
		var item domain.Rating
		if err := rows.Scan(&item.MovieID, &item.Score, &item.RatedAt); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate over ratings: %w", err)
	}
	return items, nil
}

// GetSeenMovieIDs returns rated and skipped movies.
func (r *Repository) GetSeenMovieIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT movie_id FROM user_ratings WHERE user_id = $1
		UNION
		SELECT movie_id FROM user_seen WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("get seen movies for user %d: %w", userID, err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("collect seen movies: %w", err)
	}
	return ids, nil
}

func (r *Repository) UpsertRating(ctx context.Context, userID, movieID int64, score float64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_ratings (user_id, movie_id, rating, rated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, movie_id) DO UPDATE SET rating = EXCLUDED.rating`,
		userID, movieID, score,
	)
	if err != nil {
		return mapWriteError(fmt.Errorf("upsert rating user=%d movie=%d: %w", userID, movieID, err))
	}
	return nil
}

// MarkSeen records a movie the user passed on without rating.
func (r *Repository) MarkSeen(ctx context.Context, userID, movieID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_seen (user_id, movie_id, seen_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, movie_id) DO NOTHING`,
		userID, movieID,
	)
	if err != nil {
		return mapWriteError(fmt.Errorf("mark seen user=%d movie=%d: %w", userID, movieID, err))
	}
	return nil
}

// mapWriteError turns foreign key failures into ErrUserNotFound or
// ErrMovieNotFound.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != foreignKeyViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case "fk_user":
		return fmt.Errorf("%w: %v", domain.ErrUserNotFound, err)
	case "fk_movie":
		return fmt.Errorf("%w: %v", domain.ErrMovieNotFound, err)
	}
	return err
}
