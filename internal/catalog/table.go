// Package catalog adapts movie sources (database rows, CSV exports) into the
// row sequence the engine loads from.
package catalog

import (
	"github.com/actuallystonmai/movie-recommender/internal/domain"
	"github.com/actuallystonmai/movie-recommender/internal/engine"
)

// Table is an in-memory catalog with one embedding per movie.
type Table struct {
	Movies     []domain.Movie
	Embeddings [][]float32
	// HasIDs is false when the source had no identifier column.
	HasIDs bool
}

func NewTable(capacity int) *Table {
	return &Table{
		Movies:     make([]domain.Movie, 0, capacity),
		Embeddings: make([][]float32, 0, capacity),
		HasIDs:     true,
	}
}

func (t *Table) Append(m domain.Movie, embedding []float32) {
	t.Movies = append(t.Movies, m)
	t.Embeddings = append(t.Embeddings, embedding)
}

func (t *Table) Len() int { return len(t.Movies) }

func (t *Table) Row(i int) engine.CatalogRow {
	m := t.Movies[i]
	return engine.CatalogRow{ID: m.ID, HasID: t.HasIDs, Movie: m}
}

// MaterializeIDs numbers movies by row when the source had no identifier
// column, matching the ids the engine would assign.
func (t *Table) MaterializeIDs() {
	if t.HasIDs {
		return
	}
	for i := range t.Movies {
		t.Movies[i].ID = int64(i)
	}
	t.HasIDs = true
}

// Unique returns a table with one row per movie id, keeping the last
// occurrence of each and preserving the order of those rows.
func (t *Table) Unique() *Table {
	last := make(map[int64]int, len(t.Movies))
	for i, m := range t.Movies {
		last[m.ID] = i
	}
	if len(last) == len(t.Movies) {
		return t
	}

	out := NewTable(len(last))
	out.HasIDs = t.HasIDs
	for i, m := range t.Movies {
		if last[m.ID] == i {
			out.Append(m, t.Embeddings[i])
		}
	}
	return out
}
