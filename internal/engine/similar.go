package engine

import (
	"cmp"
	"slices"

	"github.com/actuallystonmai/movie-recommender/internal/domain"
)

// Similar returns the n catalog movies closest to movieID by cosine
// similarity, excluding the movie itself.
func (e *Engine) Similar(movieID int64, n int) ([]domain.SimilarMovie, error) {
	row, ok := e.catalog.RowOf(movieID)
	if !ok {
		return nil, ErrUnknownMovie
	}
	return e.nearestRows(row, n, func(r int) bool { return r != row }), nil
}

// Explain lists, for each rated movie in rating order, the perRated closest
// movies the user has not seen yet.
func (e *Engine) Explain(p *Profile, perRated int) ([]domain.Explanation, error) {
	if p.catalog != e.catalog {
		return nil, ErrForeignProfile
	}

	out := make([]domain.Explanation, 0, len(p.rated))
	for _, r := range p.rated {
		similar := e.nearestRows(r.row, perRated, func(row int) bool {
			return row != r.row && !p.IsSeen(e.catalog.MovieID(row))
		})
		out = append(out, domain.Explanation{
			Rated:   e.catalog.Movie(r.row),
			Rating:  r.score,
			Similar: similar,
		})
	}
	return out, nil
}

func (e *Engine) nearestRows(row, n int, keep func(int) bool) []domain.SimilarMovie {
	if n <= 0 {
		return []domain.SimilarMovie{}
	}

	sims := make([]float64, e.matrix.Rows())
	e.matrix.CosineAll(e.matrix.Row(row), sims)

	rows := make([]int, 0, len(sims))
	for i := range sims {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	slices.SortFunc(rows, func(a, b int) int {
		if c := cmp.Compare(sims[b], sims[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	if len(rows) > n {
		rows = rows[:n]
	}

	out := make([]domain.SimilarMovie, len(rows))
	for i, r := range rows {
		out[i] = domain.SimilarMovie{Movie: e.catalog.Movie(r), Similarity: sims[r]}
	}
	return out
}
