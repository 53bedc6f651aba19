package engine

import (
	"bytes"
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/actuallystonmai/movie-recommender/internal/domain"
	"github.com/rs/zerolog"
)

func TestLoadRowCountMismatch(t *testing.T) {
	_, err := Load([][]float32{{1, 0}}, rowsWithIDs(1, 2), testOptions(), zerolog.Nop())
	if !errors.Is(err, ErrRowCountMismatch) {
		t.Fatalf("expected ErrRowCountMismatch, got %v", err)
	}
	if !IsLoadError(err) {
		t.Error("should detect LoadError")
	}
}

func TestLoadLogsOnce(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Load([][]float32{{1, 0}}, rowsWithIDs(1), testOptions(), zerolog.New(&buf)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	out := buf.String()
	if strings.Count(out, "engine loaded") != 1 {
		t.Errorf("expected one load line, got %q", out)
	}
	if strings.Count(out, `"component":"engine"`) != 1 {
		t.Errorf("expected component field once, got %q", out)
	}
}

func TestLoadRejectsInvalidOptions(t *testing.T) {
	opts := testOptions()
	opts.Scale = Scale{Min: 10, Max: 10}
	if _, err := Load(nil, testRows{}, opts, zerolog.Nop()); err == nil {
		t.Fatal("expected error for empty scale")
	}

	opts = testOptions()
	opts.KNeighbors = 0
	if _, err := Load(nil, testRows{}, opts, zerolog.Nop()); err == nil {
		t.Fatal("expected error for k=0")
	}
}

func TestRecommendNearestNeighbour(t *testing.T) {
	opts := testOptions()
	opts.MinRatingsForKNN = 1
	opts.KNeighbors = 1
	e := mustLoad(t, [][]float32{{1, 0}, {0, 1}, {0.7, 0.7}}, rowsWithIDs(10, 20, 30), opts)

	p := e.NewProfile()
	p.SetUserData([]domain.Rating{{MovieID: 10, Score: 10}}, nil)

	res, err := e.Recommend(context.Background(), p, 2)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.Strategy != domain.StrategyKNN {
		t.Errorf("expected knn, got %s", res.Strategy)
	}
	if got := ids(res.Recommendations); !equalIDs(got, []int64{30, 20}) {
		t.Errorf("expected [30 20], got %v", got)
	}
}

func TestRecommendColdStart(t *testing.T) {
	rows := testRows{
		{ID: 1, HasID: true, Movie: domain.Movie{Title: "ok", QualitySignal: 5.0}},
		{ID: 2, HasID: true, Movie: domain.Movie{Title: "great", QualitySignal: 9.0}},
	}
	e := mustLoad(t, [][]float32{{1, 0}, {0, 1}}, rows, testOptions())

	res, err := e.Recommend(context.Background(), e.NewProfile(), 10)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.Strategy != domain.StrategyColdStart {
		t.Errorf("expected cold start, got %s", res.Strategy)
	}
	if got := ids(res.Recommendations); !equalIDs(got, []int64{2, 1}) {
		t.Errorf("expected [2 1], got %v", got)
	}
	if res.Recommendations[0].Score != 9.0 {
		t.Errorf("cold start score should be the quality signal, got %f", res.Recommendations[0].Score)
	}
}

func TestColdStartTiesKeepCatalogOrder(t *testing.T) {
	rows := testRows{
		{ID: 5, HasID: true, Movie: domain.Movie{QualitySignal: 7}},
		{ID: 3, HasID: true, Movie: domain.Movie{QualitySignal: 8}},
		{ID: 9, HasID: true, Movie: domain.Movie{QualitySignal: 7}},
	}
	e := mustLoad(t, [][]float32{{1}, {1}, {1}}, rows, testOptions())

	p := e.NewProfile()
	p.SetUserData(nil, []int64{3})
	res, _ := e.Recommend(context.Background(), p, 5)
	if got := ids(res.Recommendations); !equalIDs(got, []int64{5, 9}) {
		t.Errorf("expected [5 9], got %v", got)
	}
}

func TestRecommendEmptyCatalog(t *testing.T) {
	e := mustLoad(t, nil, testRows{}, testOptions())

	res, err := e.Recommend(context.Background(), e.NewProfile(), 5)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(res.Recommendations) != 0 {
		t.Errorf("expected empty list, got %d", len(res.Recommendations))
	}
}

func TestRecommendNonPositiveN(t *testing.T) {
	e := mustLoad(t, [][]float32{{1, 0}, {0, 1}}, rowsWithIDs(1, 2), testOptions())

	cold := e.NewProfile()
	rated := e.NewProfile()
	rated.SetUserData([]domain.Rating{{MovieID: 1, Score: 4}}, nil)

	for _, p := range []*Profile{cold, rated} {
		for _, n := range []int{0, -3} {
			res, err := e.Recommend(context.Background(), p, n)
			if err != nil {
				t.Fatalf("Recommend(%d): %v", n, err)
			}
			if res.Recommendations == nil || len(res.Recommendations) != 0 {
				t.Errorf("n=%d: expected empty non-nil list, got %v", n, res.Recommendations)
			}
		}
	}
}

func TestRecommendFewerCandidatesThanN(t *testing.T) {
	e := mustLoad(t, [][]float32{{1, 0}, {0, 1}, {1, 1}}, rowsWithIDs(1, 2, 3), testOptions())
	p := e.NewProfile()
	p.SetUserData([]domain.Rating{{MovieID: 1, Score: 4}}, []int64{2})

	res, _ := e.Recommend(context.Background(), p, 50)
	if got := ids(res.Recommendations); !equalIDs(got, []int64{3}) {
		t.Errorf("expected [3], got %v", got)
	}
}

func TestStrategySwitchBoundary(t *testing.T) {
	embeddings, rows := randomCatalog(20, 4, 1)
	e := mustLoad(t, embeddings, rows, testOptions())

	p := e.NewProfile()
	p.SetUserData(ratingsFor(1, 2, 3, 4), nil)
	res, _ := e.Recommend(context.Background(), p, 3)
	if res.Strategy != domain.StrategyCentroid {
		t.Errorf("4 ratings: expected centroid, got %s", res.Strategy)
	}

	p.SetUserData(ratingsFor(1, 2, 3, 4, 5), nil)
	res, _ = e.Recommend(context.Background(), p, 3)
	if res.Strategy != domain.StrategyKNN {
		t.Errorf("5 ratings: expected knn, got %s", res.Strategy)
	}
}

func TestKNNScoresStayWithinRatedRange(t *testing.T) {
	embeddings, rows := randomCatalog(200, 8, 7)
	opts := testOptions()
	opts.BatchSize = 17
	e := mustLoad(t, embeddings, rows, opts)

	rng := rand.New(rand.NewSource(3))
	ratings := make([]domain.Rating, 12)
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range ratings {
		score := 2 + rng.Float64()*6
		ratings[i] = domain.Rating{MovieID: int64(i * 13), Score: score}
		lo, hi = math.Min(lo, score), math.Max(hi, score)
	}

	p := e.NewProfile()
	p.SetUserData(ratings, nil)
	res, err := e.Recommend(context.Background(), p, 1000)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.Strategy != domain.StrategyKNN {
		t.Fatalf("expected knn, got %s", res.Strategy)
	}
	if len(res.Recommendations) != 200-len(ratings) {
		t.Errorf("expected %d candidates, got %d", 200-len(ratings), len(res.Recommendations))
	}
	for _, r := range res.Recommendations {
		if r.Score < lo-1e-9 || r.Score > hi+1e-9 {
			t.Errorf("movie %d score %f outside [%f, %f]", r.MovieID, r.Score, lo, hi)
		}
	}
}

func TestCentroidScoresMonotonicInSimilarity(t *testing.T) {
	embeddings, rows := randomCatalog(100, 6, 11)
	e := mustLoad(t, embeddings, rows, testOptions())

	p := e.NewProfile()
	p.SetUserData(ratingsFor(3, 40, 77), nil)
	res, err := e.Recommend(context.Background(), p, 100)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	centroid := p.profileVector(e.matrix)
	scale := e.Options().Scale
	prevSim := math.Inf(1)
	for _, r := range res.Recommendations {
		row, _ := e.Catalog().RowOf(r.MovieID)
		sim := Cosine(centroid, e.matrix.Row(row))
		if sim > prevSim+1e-6 {
			t.Errorf("movie %d similarity %f ranked below lower similarity %f", r.MovieID, sim, prevSim)
		}
		prevSim = sim
		if !scale.Contains(r.Score) {
			t.Errorf("score %f outside scale", r.Score)
		}
	}
}

func TestRecommendExcludesSeen(t *testing.T) {
	embeddings, rows := randomCatalog(50, 5, 2)
	e := mustLoad(t, embeddings, rows, testOptions())

	seen := []int64{0, 4, 8, 15, 16, 23, 42}
	for _, ratings := range [][]domain.Rating{nil, ratingsFor(1, 2), ratingsFor(1, 2, 3, 5, 7, 11)} {
		p := e.NewProfile()
		p.SetUserData(ratings, seen)
		res, _ := e.Recommend(context.Background(), p, 50)
		for _, r := range res.Recommendations {
			if p.IsSeen(r.MovieID) {
				t.Errorf("%s: seen movie %d in output", res.Strategy, r.MovieID)
			}
		}
	}
}

func TestRecommendIdempotent(t *testing.T) {
	embeddings, rows := randomCatalog(80, 5, 5)
	e := mustLoad(t, embeddings, rows, testOptions())
	p := e.NewProfile()
	p.SetUserData(ratingsFor(1, 2, 3, 4, 5, 6), nil)

	first, _ := e.Recommend(context.Background(), p, 20)
	second, _ := e.Recommend(context.Background(), p, 20)
	if !equalIDs(ids(first.Recommendations), ids(second.Recommendations)) {
		t.Fatalf("rankings differ: %v vs %v", ids(first.Recommendations), ids(second.Recommendations))
	}
	for i := range first.Recommendations {
		if first.Recommendations[i].Score != second.Recommendations[i].Score {
			t.Errorf("position %d score differs", i)
		}
	}
}

func TestEqualCentroidScoresOrderedByRow(t *testing.T) {
	embeddings := [][]float32{{1, 0}, {0, 1}, {0.5, 0.5}, {0.5, 0.5}, {1, -1}}
	e := mustLoad(t, embeddings, rowsWithIDs(50, 60, 70, 20, 10), testOptions())

	p := e.NewProfile()
	p.SetUserData([]domain.Rating{{MovieID: 50, Score: 6}, {MovieID: 60, Score: 6}}, nil)
	res, _ := e.Recommend(context.Background(), p, 3)

	if got := ids(res.Recommendations); !equalIDs(got, []int64{70, 20, 10}) {
		t.Errorf("expected [70 20 10], got %v", got)
	}
	if res.Recommendations[0].Score != res.Recommendations[1].Score {
		t.Errorf("expected equal scores, got %f vs %f", res.Recommendations[0].Score, res.Recommendations[1].Score)
	}
}

func TestKNNZeroNormRatedRow(t *testing.T) {
	opts := testOptions()
	opts.MinRatingsForKNN = 1
	opts.KNeighbors = 2
	embeddings := [][]float32{{0, 0}, {1, 0}, {1, 0}, {0, 1}}
	e := mustLoad(t, embeddings, rowsWithIDs(1, 2, 3, 4), opts)

	p := e.NewProfile()
	p.SetUserData([]domain.Rating{{MovieID: 1, Score: 2}, {MovieID: 2, Score: 8}}, nil)
	res, err := e.Recommend(context.Background(), p, 10)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if got := ids(res.Recommendations); !equalIDs(got, []int64{3, 4}) {
		t.Fatalf("expected [3 4], got %v", got)
	}

	// the zero-norm rated row sits at distance 1 from everything, weight 0.5
	want := []float64{(0.5*2 + 1*8) / 1.5, (0.5*2 + 0.5*8) / 1.0}
	for i, r := range res.Recommendations {
		if math.Abs(r.Score-want[i]) > 1e-9 {
			t.Errorf("movie %d: expected score %f, got %f", r.MovieID, want[i], r.Score)
		}
	}
}

func TestCentroidOnShiftedScale(t *testing.T) {
	opts := testOptions()
	opts.Scale = Scale{Min: 1, Max: 10}
	embeddings := [][]float32{{1, 0}, {0, 1}, {1, 0}, {-1, 0}}
	e := mustLoad(t, embeddings, rowsWithIDs(1, 2, 3, 4), opts)

	p := e.NewProfile()
	p.SetUserData([]domain.Rating{{MovieID: 1, Score: 5}}, nil)
	res, err := e.Recommend(context.Background(), p, 10)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if res.Strategy != domain.StrategyCentroid {
		t.Fatalf("expected centroid, got %s", res.Strategy)
	}

	// orthogonal and opposite both land on Min; the orthogonal one is closer
	if got := ids(res.Recommendations); !equalIDs(got, []int64{3, 2, 4}) {
		t.Fatalf("expected [3 2 4], got %v", got)
	}
	want := []float64{10, 1, 1}
	for i, r := range res.Recommendations {
		if math.Abs(r.Score-want[i]) > 1e-9 {
			t.Errorf("movie %d: expected score %f, got %f", r.MovieID, want[i], r.Score)
		}
	}
}

func TestSampleDeterministic(t *testing.T) {
	embeddings, rows := randomCatalog(20, 3, 4)
	e := mustLoad(t, embeddings, rows, testOptions())

	first := e.Sample(5, rand.New(rand.NewSource(99)))
	second := e.Sample(5, rand.New(rand.NewSource(99)))
	if len(first) != 5 {
		t.Fatalf("expected 5 movies, got %d", len(first))
	}
	seen := map[int64]bool{}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("position %d differs for equal seeds: %d vs %d", i, first[i].ID, second[i].ID)
		}
		if seen[first[i].ID] {
			t.Errorf("movie %d sampled twice", first[i].ID)
		}
		seen[first[i].ID] = true
	}

	if got := e.Sample(100, rand.New(rand.NewSource(1))); len(got) != 20 {
		t.Errorf("expected sample capped at catalog size, got %d", len(got))
	}
	if got := e.Sample(-1, rand.New(rand.NewSource(1))); len(got) != 0 {
		t.Errorf("expected empty sample, got %d", len(got))
	}
}

func TestRecommendCancelled(t *testing.T) {
	embeddings, rows := randomCatalog(30, 4, 9)
	e := mustLoad(t, embeddings, rows, testOptions())
	p := e.NewProfile()
	p.SetUserData(ratingsFor(1, 2, 3, 4, 5), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Recommend(ctx, p, 5)
	if !IsCancelled(err) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
}

func TestRecommendForeignProfile(t *testing.T) {
	a := mustLoad(t, [][]float32{{1}}, rowsWithIDs(1), testOptions())
	b := mustLoad(t, [][]float32{{1}}, rowsWithIDs(1), testOptions())

	if _, err := a.Recommend(context.Background(), b.NewProfile(), 1); !errors.Is(err, ErrForeignProfile) {
		t.Errorf("expected ErrForeignProfile, got %v", err)
	}
}

func TestNearestStable(t *testing.T) {
	dist := []float64{0.5, 0.2, 0.5, 0.1, 0.2}

	got := nearest(dist, 3, nil)
	want := []int{3, 1, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	got = nearest(dist, 5, nil)
	want = []int{3, 1, 4, 0, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func randomCatalog(n, dim int, seed int64) ([][]float32, testRows) {
	rng := rand.New(rand.NewSource(seed))
	embeddings := make([][]float32, n)
	rows := make(testRows, n)
	for i := range n {
		v := make([]float32, dim)
		for j := range v {
			v[j] = float32(rng.NormFloat64())
		}
		embeddings[i] = v
		rows[i] = CatalogRow{ID: int64(i), HasID: true, Movie: domain.Movie{QualitySignal: rng.Float64() * 10}}
	}
	return embeddings, rows
}

func ratingsFor(movieIDs ...int64) []domain.Rating {
	out := make([]domain.Rating, len(movieIDs))
	for i, id := range movieIDs {
		out[i] = domain.Rating{MovieID: id, Score: float64(1 + i%10)}
	}
	return out
}
