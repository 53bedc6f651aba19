package engine

import (
	"sync"

	"github.com/actuallystonmai/movie-recommender/internal/domain"
)

type ratedRow struct {
	row   int
	score float64
}

// Profile is one user's ratings and seen set, resolved against an engine's
// catalog. Create one per user or request; engines never hold a profile.
type Profile struct {
	catalog *Catalog
	rated   []ratedRow  // insertion order
	slot    map[int]int // row -> index in rated
	seen    map[int64]struct{}

	mu       sync.Mutex
	centroid []float32
}

// NewProfile returns an empty profile bound to the engine's catalog.
func (e *Engine) NewProfile() *Profile {
	return &Profile{
		catalog: e.catalog,
		slot:    map[int]int{},
		seen:    map[int64]struct{}{},
	}
}

// SetUserData replaces the profile's state. Ratings for movies missing from
// the catalog are dropped. A movie rated twice keeps its first position and
// its last score. Every rated movie is also marked seen.
func (p *Profile) SetUserData(ratings []domain.Rating, seen []int64) {
	p.rated = make([]ratedRow, 0, len(ratings))
	p.slot = make(map[int]int, len(ratings))
	p.seen = make(map[int64]struct{}, len(seen)+len(ratings))

	for _, r := range ratings {
		row, ok := p.catalog.RowOf(r.MovieID)
		if !ok {
			continue
		}
		p.seen[r.MovieID] = struct{}{}
		if i, dup := p.slot[row]; dup {
			p.rated[i].score = r.Score
			continue
		}
		p.slot[row] = len(p.rated)
		p.rated = append(p.rated, ratedRow{row: row, score: r.Score})
	}
	for _, id := range seen {
		p.seen[id] = struct{}{}
	}

	p.mu.Lock()
	p.centroid = nil
	p.mu.Unlock()
}

func (p *Profile) RatingCount() int { return len(p.rated) }

func (p *Profile) SeenCount() int { return len(p.seen) }

func (p *Profile) IsSeen(movieID int64) bool {
	_, ok := p.seen[movieID]
	return ok
}

// profileVector returns the mean embedding of the rated rows, computing it on
// first use after SetUserData.
func (p *Profile) profileVector(m *Matrix) []float32 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.centroid != nil {
		return p.centroid
	}
	if len(p.rated) == 0 {
		return nil
	}

	sum := make([]float64, m.Dim())
	for _, r := range p.rated {
		for j, x := range m.Row(r.row) {
			sum[j] += float64(x)
		}
	}
	n := float64(len(p.rated))
	c := make([]float32, len(sum))
	for j, s := range sum {
		c[j] = float32(s / n)
	}
	p.centroid = c
	return c
}
