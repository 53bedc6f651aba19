package engine

import (
	"testing"

	"github.com/actuallystonmai/movie-recommender/internal/domain"
	"github.com/rs/zerolog"
)

type testRows []CatalogRow

func (r testRows) Len() int             { return len(r) }
func (r testRows) Row(i int) CatalogRow { return r[i] }

func rowsWithIDs(ids ...int64) testRows {
	rows := make(testRows, len(ids))
	for i, id := range ids {
		rows[i] = CatalogRow{ID: id, HasID: true, Movie: domain.Movie{Title: "movie"}}
	}
	return rows
}

func mustLoad(t *testing.T, embeddings [][]float32, rows Rows, opts Options) *Engine {
	t.Helper()
	e, err := Load(embeddings, rows, opts, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return e
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Workers = 2
	opts.BatchSize = 2
	return opts
}

func ids(recs []domain.ScoredRecommendation) []int64 {
	out := make([]int64, len(recs))
	for i, r := range recs {
		out[i] = r.MovieID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
