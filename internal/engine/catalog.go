package engine

import "github.com/actuallystonmai/movie-recommender/internal/domain"

// CatalogRow is one normalized catalog record as handed over by a format
// adapter. HasID is false when the source had no identifier for the row.
type CatalogRow struct {
	ID    int64
	HasID bool
	Movie domain.Movie
}

// Rows is the row-sequence abstraction Load consumes. Adapters for CSV files,
// database tables and in-memory slices live outside this package.
type Rows interface {
	Len() int
	Row(i int) CatalogRow
}

// Catalog maps external movie ids to matrix rows and back. It is immutable
// once built.
type Catalog struct {
	movies []domain.Movie
	rowOf  map[int64]int
}

// NewCatalog indexes rows in order. Rows without an id get their row index,
// so a source with no id column ends up with ids 0..n-1. Duplicate ids are
// kept as separate rows and the later one wins the id lookup.
func NewCatalog(rows Rows) *Catalog {
	n := rows.Len()
	c := &Catalog{
		movies: make([]domain.Movie, n),
		rowOf:  make(map[int64]int, n),
	}

	for i := range n {
		r := rows.Row(i)
		m := r.Movie
		m.ID = int64(i)
		if r.HasID {
			m.ID = r.ID
		}
		c.movies[i] = m
		c.rowOf[m.ID] = i
	}
	return c
}

func (c *Catalog) Size() int { return len(c.movies) }

// RowOf resolves a movie id. Unknown ids report false.
func (c *Catalog) RowOf(movieID int64) (int, bool) {
	row, ok := c.rowOf[movieID]
	return row, ok
}

func (c *Catalog) MovieID(row int) int64 { return c.movies[row].ID }

func (c *Catalog) Movie(row int) domain.Movie { return c.movies[row] }

// Each visits rows in catalog order until fn returns false.
func (c *Catalog) Each(fn func(row int, m domain.Movie) bool) {
	for i, m := range c.movies {
		if !fn(i, m) {
			return
		}
	}
}
