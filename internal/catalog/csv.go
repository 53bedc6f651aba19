package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/actuallystonmai/movie-recommender/internal/domain"
	"github.com/goccy/go-json"
)

var (
	idColumns      = []string{"id", "movie_id", "movieId", "Movie_Id", "ID", "tmdb_id"}
	titleColumns   = []string{"series_title", "title"}
	genreColumns   = []string{"genre"}
	qualityColumns = []string{"imdb_rating", "quality_signal", "rating"}
	embedColumns   = []string{"embedding"}
)

var ErrNoEmbeddingColumn = errors.New("csv has no embedding column")

// LoadCSVFile reads a catalog export from disk.
func LoadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog csv: %w", err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read catalog csv %s: %w", path, err)
	}
	return t, nil
}

// ReadCSV parses a header-driven catalog export. The embedding column holds a
// JSON array per row. Without an id column the table reports HasIDs false and
// the engine numbers rows itself.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}

	idCol := findColumn(cols, idColumns)
	titleCol := findColumn(cols, titleColumns)
	genreCol := findColumn(cols, genreColumns)
	qualityCol := findColumn(cols, qualityColumns)
	embedCol := findColumn(cols, embedColumns)
	if embedCol < 0 {
		return nil, ErrNoEmbeddingColumn
	}

	t := NewTable(0)
	t.HasIDs = idCol >= 0

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		var m domain.Movie
		if idCol >= 0 {
			id, err := parseID(rec[idCol])
			if err != nil {
				return nil, fmt.Errorf("line %d: id %q: %w", line, rec[idCol], err)
			}
			m.ID = id
		}
		m.Title = field(rec, titleCol, "Unknown")
		m.Genre = field(rec, genreCol, "Unknown")
		if q := field(rec, qualityCol, ""); q != "" {
			m.QualitySignal, err = strconv.ParseFloat(q, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: quality %q: %w", line, q, err)
			}
		}

		var embedding []float32
		if err := json.Unmarshal([]byte(rec[embedCol]), &embedding); err != nil {
			return nil, fmt.Errorf("line %d: embedding: %w", line, err)
		}
		t.Append(m, embedding)
	}
	return t, nil
}

func findColumn(cols map[string]int, names []string) int {
	for _, n := range names {
		if i, ok := cols[n]; ok {
			return i
		}
	}
	return -1
}

func field(rec []string, col int, fallback string) string {
	if col < 0 || col >= len(rec) {
		return fallback
	}
	if v := strings.TrimSpace(rec[col]); v != "" {
		return v
	}
	return fallback
}

// parseID accepts integer ids written as floats ("42.0"), which pandas
// exports produce.
func parseID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("not an integer")
	}
	return int64(f), nil
}
