package engine

import (
	"testing"

	"github.com/actuallystonmai/movie-recommender/internal/domain"
)

func TestSetUserDataDropsUnknownMovies(t *testing.T) {
	e := mustLoad(t, [][]float32{{1, 0}, {0, 1}}, rowsWithIDs(10, 20), testOptions())
	p := e.NewProfile()

	p.SetUserData([]domain.Rating{
		{MovieID: 10, Score: 8},
		{MovieID: 999, Score: 3},
	}, nil)

	if p.RatingCount() != 1 {
		t.Errorf("expected 1 rating, got %d", p.RatingCount())
	}
	if p.IsSeen(999) {
		t.Error("dropped rating should not be marked seen")
	}
	if !p.IsSeen(10) {
		t.Error("rated movie should be seen")
	}
}

func TestSetUserDataReplacesState(t *testing.T) {
	e := mustLoad(t, [][]float32{{1, 0}, {0, 1}, {1, 1}}, rowsWithIDs(1, 2, 3), testOptions())
	p := e.NewProfile()

	p.SetUserData([]domain.Rating{{MovieID: 1, Score: 5}}, []int64{3})
	p.SetUserData([]domain.Rating{{MovieID: 2, Score: 7}}, nil)

	if p.RatingCount() != 1 {
		t.Fatalf("expected 1 rating, got %d", p.RatingCount())
	}
	if p.IsSeen(1) || p.IsSeen(3) {
		t.Error("previous seen set should be replaced")
	}
	if !p.IsSeen(2) {
		t.Error("movie 2 should be seen")
	}
}

func TestSetUserDataDuplicateRating(t *testing.T) {
	e := mustLoad(t, [][]float32{{1, 0}, {0, 1}}, rowsWithIDs(1, 2), testOptions())
	p := e.NewProfile()

	p.SetUserData([]domain.Rating{
		{MovieID: 1, Score: 2},
		{MovieID: 2, Score: 4},
		{MovieID: 1, Score: 9},
	}, []int64{2, 2})

	if p.RatingCount() != 2 {
		t.Fatalf("expected 2 ratings, got %d", p.RatingCount())
	}
	if p.rated[0].row != 0 || p.rated[0].score != 9 {
		t.Errorf("expected first slot row 0 score 9, got %+v", p.rated[0])
	}
	if p.SeenCount() != 2 {
		t.Errorf("expected 2 seen, got %d", p.SeenCount())
	}
}

func TestProfileVectorInvalidated(t *testing.T) {
	e := mustLoad(t, [][]float32{{1, 0}, {0, 1}}, rowsWithIDs(1, 2), testOptions())
	p := e.NewProfile()

	p.SetUserData([]domain.Rating{{MovieID: 1, Score: 5}}, nil)
	first := p.profileVector(e.matrix)
	if first[0] != 1 || first[1] != 0 {
		t.Fatalf("expected [1 0], got %v", first)
	}

	p.SetUserData([]domain.Rating{{MovieID: 1, Score: 5}, {MovieID: 2, Score: 5}}, nil)
	second := p.profileVector(e.matrix)
	if second[0] != 0.5 || second[1] != 0.5 {
		t.Errorf("expected recomputed [0.5 0.5], got %v", second)
	}
}
