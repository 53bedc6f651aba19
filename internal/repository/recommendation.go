package repository

import (
	"context"
	"fmt"

	"github.com/actuallystonmai/movie-recommender/internal/domain"
	"github.com/jackc/pgx/v5"
)

// SaveRecommendations replaces the user's stored ranking. Positions start at 1.
func (r *Repository) SaveRecommendations(ctx context.Context, userID int64, strategy domain.Strategy, recs []domain.ScoredRecommendation) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_recommendations WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("clear recommendations for user %d: %w", userID, err)
		}

		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"user_recommendations"},
			[]string{"user_id", "movie_id", "predicted_score", "position", "strategy"},
			pgx.CopyFromSlice(len(recs), func(i int) ([]any, error) {
				return []any{userID, recs[i].MovieID, recs[i].Score, i + 1, string(strategy)}, nil
			}),
		)
		if err != nil {
			return mapWriteError(fmt.Errorf("copy recommendations for user %d: %w", userID, err))
		}
		return nil
	})
}

func (r *Repository) GetSavedRecommendations(ctx context.Context, userID int64) ([]domain.SavedRecommendation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ur.movie_id, m.title, ur.predicted_score, ur.position, ur.strategy, ur.generated_at
		FROM user_recommendations ur
		JOIN movies m ON m.id = ur.movie_id
		WHERE ur.user_id = $1
		ORDER BY ur.position`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query saved recommendations for user %d: %w", userID, err)
	}
	defer rows.Close()

	items := []domain.SavedRecommendation{}
	for rows.Next() {
		var item domain.SavedRecommendation
		var strategy string
		err := rows.Scan(&item.MovieID, &item.Title, &item.PredictedScore, &item.Position, &strategy, &item.GeneratedAt)
		if err != nil {
			return nil, fmt.Errorf("scan saved recommendation: %w", err)
		}
		item.Strategy = domain.Strategy(strategy)
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate over saved recommendations: %w", err)
	}
	return items, nil
}
