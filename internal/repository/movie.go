package repository

import (
	"context"
	"fmt"

	"github.com/actuallystonmai/movie-recommender/internal/catalog"
	"github.com/actuallystonmai/movie-recommender/internal/domain"
	"github.com/jackc/pgx/v5"
)

// LoadCatalog reads every movie with its embedding in id order.
func (r *Repository) LoadCatalog(ctx context.Context) (*catalog.Table, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM movies`).Scan(&total); err != nil {
		return nil, fmt.Errorf("count movies: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, title, genre, quality_signal, embedding
		FROM movies
		ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query movies: %w", err)
	}
	defer rows.Close()

	table := catalog.NewTable(total)
	for rows.Next() {
		var m domain.Movie
		var embedding []float32
		if err := rows.Scan(&m.ID, &m.Title, &m.Genre, &m.QualitySignal, &embedding); err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		table.Append(m, embedding)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate over movies: %w", err)
	}
	return table, nil
}

// InsertMovies bulk-loads movies with COPY.
func (r *Repository) InsertMovies(ctx context.Context, table *catalog.Table) (int64, error) {
	n, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"movies"},
		[]string{"id", "title", "genre", "quality_signal", "embedding"},
		pgx.CopyFromSlice(table.Len(), func(i int) ([]any, error) {
			m := table.Movies[i]
			return []any{m.ID, m.Title, m.Genre, m.QualitySignal, table.Embeddings[i]}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("copy movies: %w", err)
	}
	return n, nil
}
