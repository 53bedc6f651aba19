// Package engine scores a fixed movie catalog against one user's ratings.
//
// An Engine holds only immutable state (catalog index and embedding matrix)
// and is safe for concurrent use. Per-user state lives in a Profile that the
// caller passes to each call.
package engine

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/actuallystonmai/movie-recommender/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	KNeighbors       int
	MinRatingsForKNN int
	Scale            Scale
	Workers          int
	BatchSize        int
}

func DefaultOptions() Options {
	return Options{
		KNeighbors:       10,
		MinRatingsForKNN: 5,
		Scale:            Scale{Min: 0, Max: 10},
		Workers:          runtime.GOMAXPROCS(0),
		BatchSize:        512,
	}
}

func (o Options) Validate() error {
	if o.KNeighbors < 1 {
		return fmt.Errorf("k_neighbors must be at least 1, got %d", o.KNeighbors)
	}
	if o.MinRatingsForKNN < 1 {
		return fmt.Errorf("min_ratings_for_knn must be at least 1, got %d", o.MinRatingsForKNN)
	}
	if o.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", o.Workers)
	}
	if o.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1, got %d", o.BatchSize)
	}
	return o.Scale.Validate()
}

type Engine struct {
	catalog *Catalog
	matrix  *Matrix
	opts    Options
	logger  zerolog.Logger
}

// Result is one ranking and the strategy that produced it.
type Result struct {
	Strategy        domain.Strategy
	Recommendations []domain.ScoredRecommendation
}

// Load validates embeddings against rows and builds an engine. Any mismatch
// fails the whole load.
func Load(embeddings [][]float32, rows Rows, opts Options, logger zerolog.Logger) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if len(embeddings) != rows.Len() {
		return nil, &LoadError{Row: -1, Want: rows.Len(), Got: len(embeddings), Err: ErrRowCountMismatch}
	}

	m, err := newMatrix(embeddings)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		catalog: NewCatalog(rows),
		matrix:  m,
		opts:    opts,
		logger:  logger.With().Str("component", "engine").Logger(),
	}
	e.logger.Info().
		Int("movies", m.Rows()).
		Int("dim", m.Dim()).
		Int("k_neighbors", opts.KNeighbors).
		Int("min_ratings_for_knn", opts.MinRatingsForKNN).
		Float64("scale_min", opts.Scale.Min).
		Float64("scale_max", opts.Scale.Max).
		Msg("engine loaded")
	return e, nil
}

func (e *Engine) Catalog() *Catalog { return e.catalog }

func (e *Engine) Options() Options { return e.opts }

func (e *Engine) Size() int { return e.catalog.Size() }

// StrategyFor reports which strategy Recommend would use for p.
func (e *Engine) StrategyFor(p *Profile) domain.Strategy {
	switch {
	case p.RatingCount() == 0:
		return domain.StrategyColdStart
	case p.RatingCount() >= e.opts.MinRatingsForKNN:
		return domain.StrategyKNN
	default:
		return domain.StrategyCentroid
	}
}

// Recommend ranks every unseen movie for p and returns at most n of them,
// highest score first. It only fails when ctx is done or p was built by
// another engine.
//
// Equal scores are ordered by the strategy's support value, then by
// ascending row. Support is the mean neighbour weight for knn and the raw
// cosine to the centroid for centroid, so among movies clamped to the same
// score the one with closer evidence comes first. Callers must not assume
// that equal scores come back in catalog order.
func (e *Engine) Recommend(ctx context.Context, p *Profile, n int) (Result, error) {
	if p.catalog != e.catalog {
		return Result{}, ErrForeignProfile
	}

	strategy := e.StrategyFor(p)
	res := Result{Strategy: strategy, Recommendations: []domain.ScoredRecommendation{}}
	if n <= 0 {
		return res, nil
	}
	if strategy == domain.StrategyColdStart {
		res.Recommendations = e.coldStart(p, n)
		return res, nil
	}

	start := time.Now()
	var s scorer
	if strategy == domain.StrategyKNN {
		s = newKNNScorer(e.matrix, p, e.opts.KNeighbors, e.opts.Scale)
	} else {
		s = newCentroidScorer(e.matrix, p, e.opts.Scale)
	}

	scores, support, err := e.scoreAll(ctx, s)
	if err != nil {
		return Result{}, err
	}

	candidates := make([]int, 0, len(scores))
	for row := range scores {
		if !p.IsSeen(e.catalog.MovieID(row)) {
			candidates = append(candidates, row)
		}
	}
	slices.SortFunc(candidates, func(a, b int) int {
		if c := cmp.Compare(scores[b], scores[a]); c != 0 {
			return c
		}
		if c := cmp.Compare(support[b], support[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}

	res.Recommendations = make([]domain.ScoredRecommendation, len(candidates))
	for i, row := range candidates {
		res.Recommendations[i] = toRecommendation(e.catalog.Movie(row), scores[row])
	}

	e.logger.Debug().
		Str("strategy", string(strategy)).
		Int("ratings", p.RatingCount()).
		Int("seen", p.SeenCount()).
		Int("returned", len(res.Recommendations)).
		Dur("took", time.Since(start)).
		Msg("ranking complete")
	return res, nil
}

// scoreAll runs s over every row in batches. ctx is checked before each batch
// and the only write targets are the returned slices.
func (e *Engine) scoreAll(ctx context.Context, s scorer) ([]float64, []float64, error) {
	rows := e.matrix.Rows()
	scores := make([]float64, rows)
	support := make([]float64, rows)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for lo := 0; lo < rows; lo += e.opts.BatchSize {
		hi := min(lo+e.opts.BatchSize, rows)
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s.scoreRows(lo, hi, scores[lo:hi], support[lo:hi])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return scores, support, nil
}

// IsCancelled reports whether err came from an abandoned ranking.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func toRecommendation(m domain.Movie, score float64) domain.ScoredRecommendation {
	return domain.ScoredRecommendation{
		MovieID:       m.ID,
		Title:         m.Title,
		Genre:         m.Genre,
		QualitySignal: m.QualitySignal,
		Score:         score,
	}
}
