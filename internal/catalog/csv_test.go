package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/actuallystonmai/movie-recommender/internal/engine"
	"github.com/rs/zerolog"
)

const sampleCSV = `movie_id,series_title,genre,imdb_rating,embedding
10,Heat,Crime,8.3,"[1, 0]"
20,Amelie,Romance,8.0,"[0, 1]"
30,Collateral,Crime,7.5,"[0.7, 0.7]"
`

func TestReadCSV(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}

	if table.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", table.Len())
	}
	if !table.HasIDs {
		t.Error("movie_id column should be used as id")
	}
	row := table.Row(1)
	if row.ID != 20 || row.Movie.Title != "Amelie" || row.Movie.QualitySignal != 8.0 {
		t.Errorf("unexpected row %+v", row)
	}
	if len(table.Embeddings[2]) != 2 || table.Embeddings[2][0] != 0.7 {
		t.Errorf("unexpected embedding %v", table.Embeddings[2])
	}
}

func TestReadCSVWithoutIDColumn(t *testing.T) {
	input := "title,embedding\nA,\"[1,0]\"\nB,\"[0,1]\"\n"
	table, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if table.HasIDs {
		t.Fatal("expected HasIDs false")
	}

	e, err := engine.Load(table.Embeddings, table, engine.DefaultOptions(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if row, ok := e.Catalog().RowOf(1); !ok || row != 1 {
		t.Errorf("expected synthesized id 1 at row 1, got %d %v", row, ok)
	}
	if e.Catalog().Movie(0).Genre != "Unknown" {
		t.Errorf("missing genre should default to Unknown, got %q", e.Catalog().Movie(0).Genre)
	}
}

func TestReadCSVFloatIDs(t *testing.T) {
	input := "id,embedding\n42.0,\"[1]\"\n"
	table, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if table.Movies[0].ID != 42 {
		t.Errorf("expected id 42, got %d", table.Movies[0].ID)
	}
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no embedding column", "id,title\n1,A\n"},
		{"bad embedding", "id,embedding\n1,not-json\n"},
		{"bad id", "id,embedding\n1.5,\"[1]\"\n"},
		{"bad quality", "id,imdb_rating,embedding\n1,great,\"[1]\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadCSV(strings.NewReader(tt.input)); err == nil {
				t.Error("expected error")
			}
		})
	}

	_, err := ReadCSV(strings.NewReader("id,title\n"))
	if !errors.Is(err, ErrNoEmbeddingColumn) {
		t.Errorf("expected ErrNoEmbeddingColumn, got %v", err)
	}
}

func TestLoadRejectsDimensionMismatchFromCSV(t *testing.T) {
	input := "id,embedding\n1,\"[1,0]\"\n2,\"[1,0,0]\"\n"
	table, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	_, err = engine.Load(table.Embeddings, table, engine.DefaultOptions(), zerolog.Nop())
	if !errors.Is(err, engine.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}
