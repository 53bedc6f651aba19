package engine

import (
	"cmp"
	"math/rand"
	"slices"

	"github.com/actuallystonmai/movie-recommender/internal/domain"
)

// coldStart ranks unseen movies by quality signal without touching
// embeddings. Ties keep catalog order.
func (e *Engine) coldStart(p *Profile, n int) []domain.ScoredRecommendation {
	rows := make([]int, 0, e.catalog.Size())
	e.catalog.Each(func(row int, m domain.Movie) bool {
		if !p.IsSeen(m.ID) {
			rows = append(rows, row)
		}
		return true
	})

	slices.SortStableFunc(rows, func(a, b int) int {
		return cmp.Compare(e.catalog.Movie(b).QualitySignal, e.catalog.Movie(a).QualitySignal)
	})

	if len(rows) > n {
		rows = rows[:n]
	}
	recs := make([]domain.ScoredRecommendation, len(rows))
	for i, row := range rows {
		m := e.catalog.Movie(row)
		recs[i] = toRecommendation(m, m.QualitySignal)
	}
	return recs
}

// Sample draws up to n distinct catalog movies in the order rng picks them.
// The same seed over the same catalog yields the same sample.
func (e *Engine) Sample(n int, rng *rand.Rand) []domain.Movie {
	n = min(max(n, 0), e.catalog.Size())
	out := make([]domain.Movie, n)
	for i, row := range rng.Perm(e.catalog.Size())[:n] {
		out[i] = e.catalog.Movie(row)
	}
	return out
}
