package seeds

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/actuallystonmai/movie-recommender/internal/catalog"
	"github.com/actuallystonmai/movie-recommender/internal/domain"
	"github.com/actuallystonmai/movie-recommender/internal/engine"
	"github.com/actuallystonmai/movie-recommender/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	embeddingDim = 16
	userCount    = 20
)

var genres = []string{"Action", "Drama", "Comedy", "Thriller", "Sci-Fi"}

var titles = map[string][]string{
	"Action": {
		"Die Hard", "Mad Max: Fury Road", "John Wick", "The Dark Knight",
		"Gladiator", "Top Gun: Maverick", "The Raid", "Mission: Impossible",
		"Casino Royale", "The Avengers",
	},
	"Drama": {
		"The Shawshank Redemption", "Forrest Gump", "The Godfather",
		"Schindler's List", "A Beautiful Mind", "12 Angry Men",
		"Parasite", "Moonlight", "Whiplash", "The Green Mile",
	},
	"Comedy": {
		"Superbad", "The Hangover", "Bridesmaids", "Step Brothers",
		"Anchorman", "Mean Girls", "Borat", "Hot Fuzz",
		"Groundhog Day", "The Grand Budapest Hotel",
	},
	"Thriller": {
		"Se7en", "Gone Girl", "Zodiac", "Prisoners",
		"Sicario", "No Country for Old Men", "Nightcrawler",
		"Shutter Island", "The Silence of the Lambs", "Oldboy",
	},
	"Sci-Fi": {
		"Blade Runner 2049", "Interstellar", "The Matrix", "Arrival",
		"Dune", "Ex Machina", "Alien", "Inception",
		"Edge of Tomorrow", "2001: A Space Odyssey",
	},
}

// Setup truncates and repopulates users, movies, ratings and skipped movies.
// Output is deterministic for a given scale.
func Setup(ctx context.Context, pool *pgxpool.Pool, scale engine.Scale, logger zerolog.Logger) error {
	rng := rand.New(rand.NewSource(42))
	logger = logger.With().Str("component", "seed").Logger()

	logger.Info().Msg("truncating existing data")
	if _, err := pool.Exec(ctx, `
		TRUNCATE user_recommendations, user_seen, user_ratings, movies, users RESTART IDENTITY CASCADE
	`); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	logger.Info().Int("users", userCount).Msg("inserting users")
	if err := seedUsers(ctx, pool, userCount); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}

	table := Catalog(rng)
	n, err := repository.New(pool).InsertMovies(ctx, table)
	if err != nil {
		return fmt.Errorf("seed movies: %w", err)
	}
	logger.Info().Int64("movies", n).Msg("inserted movies")

	ratings, seen := Interactions(rng, table, userCount, scale)
	logger.Info().Int("ratings", len(ratings)).Int("seen", len(seen)).Msg("inserting interactions")
	if err := seedRatings(ctx, pool, ratings); err != nil {
		return fmt.Errorf("seed ratings: %w", err)
	}
	if err := seedSeen(ctx, pool, seen); err != nil {
		return fmt.Errorf("seed seen: %w", err)
	}

	logger.Info().Msg("seeding complete")
	return nil
}

// Catalog builds the seed movies. Each genre gets a random direction and its
// movies are small perturbations of it, so same-genre movies sit close together.
func Catalog(rng *rand.Rand) *catalog.Table {
	centres := make(map[string][]float64, len(genres))
	for _, g := range genres {
		centres[g] = randomUnit(rng, embeddingDim)
	}

	table := catalog.NewTable(len(genres) * 10)
	id := int64(1)
	for i := 0; i < 10; i++ {
		for _, g := range genres {
			emb := make([]float32, embeddingDim)
			for d, c := range centres[g] {
				emb[d] = float32(c + rng.NormFloat64()*0.1)
			}
			table.Append(domain.Movie{
				ID:            id,
				Title:         titles[g][i],
				Genre:         g,
				QualitySignal: qualitySignal(rng),
			}, emb)
			id++
		}
	}
	return table
}

type Rating struct {
	UserID  int64
	MovieID int64
	Score   float64
	RatedAt time.Time
}

type Seen struct {
	UserID  int64
	MovieID int64
}

// Interactions draws ratings and skips. Each user favours one genre and rates
// it near the top of scale. Users 1-3 get no ratings so cold start is
// reachable, users 4-6 get fewer than five so the centroid path is too.
func Interactions(rng *rand.Rand, table *catalog.Table, users int, scale engine.Scale) ([]Rating, []Seen) {
	var ratings []Rating
	var seen []Seen
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for u := 1; u <= users; u++ {
		var count int
		switch {
		case u <= 3:
			count = 0
		case u <= 6:
			count = 1 + rng.Intn(4)
		default:
			count = 6 + rng.Intn(10)
		}
		favourite := genres[rng.Intn(len(genres))]

		picked := rng.Perm(table.Len())
		for i, row := range picked[:count] {
			m := table.Movies[row]
			affinity := 0.35
			if m.Genre == favourite {
				affinity = 0.85
			}
			frac := math.Max(0, math.Min(1, affinity+rng.NormFloat64()*0.1))
			score := math.Round((scale.Min+frac*(scale.Max-scale.Min))*2) / 2
			score = math.Max(scale.Min, math.Min(scale.Max, score))
			ratings = append(ratings, Rating{
				UserID:  int64(u),
				MovieID: m.ID,
				Score:   score,
				RatedAt: base.Add(time.Duration(u*100+i) * time.Hour),
			})
		}

		for _, row := range picked[count : count+rng.Intn(3)] {
			seen = append(seen, Seen{UserID: int64(u), MovieID: table.Movies[row].ID})
		}
	}
	return ratings, seen
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, n int) error {
	rows := []string{}
	args := []any{}

	for i := range n {
		createdAt := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i*7)
		base := len(args)
		rows = append(rows, fmt.Sprintf("($%d, $%d)", base+1, base+2))
		args = append(args, fmt.Sprintf("user%02d", i+1), createdAt)
	}

	if len(rows) == 0 {
		return nil
	}

	query := "INSERT INTO users (username, created_at) VALUES " + strings.Join(rows, ", ")
	_, err := pool.Exec(ctx, query, args...)
	return err
}

func seedRatings(ctx context.Context, pool *pgxpool.Pool, ratings []Rating) error {
	rows := []string{}
	args := []any{}

	for _, r := range ratings {
		base := len(args)
		rows = append(rows, fmt.Sprintf("($%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4))
		args = append(args, r.UserID, r.MovieID, r.Score, r.RatedAt)
	}

	if len(rows) == 0 {
		return nil
	}

	query := "INSERT INTO user_ratings (user_id, movie_id, rating, rated_at) VALUES " +
		strings.Join(rows, ", ")
	_, err := pool.Exec(ctx, query, args...)
	return err
}

func seedSeen(ctx context.Context, pool *pgxpool.Pool, seen []Seen) error {
	rows := []string{}
	args := []any{}

	for _, s := range seen {
		base := len(args)
		rows = append(rows, fmt.Sprintf("($%d, $%d)", base+1, base+2))
		args = append(args, s.UserID, s.MovieID)
	}

	if len(rows) == 0 {
		return nil
	}

	query := "INSERT INTO user_seen (user_id, movie_id) VALUES " + strings.Join(rows, ", ")
	_, err := pool.Exec(ctx, query, args...)
	return err
}

func randomUnit(rng *rand.Rand, dim int) []float64 {
	v := make([]float64, dim)
	var norm float64
	for i := range v {
		v[i] = rng.NormFloat64()
		norm += v[i] * v[i]
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] /= norm
	}
	return v
}

// qualitySignal is an IMDb-style rating between 5.0 and 9.5, skewed high.
func qualitySignal(rng *rand.Rand) float64 {
	raw := 5.0 + 4.5*math.Sqrt(rng.Float64())
	return math.Round(raw*10) / 10
}
