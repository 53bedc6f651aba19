package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/actuallystonmai/movie-recommender/internal/domain"
	"github.com/actuallystonmai/movie-recommender/internal/metrics"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const DefaultTTL = 10 * time.Minute

type Cache struct {
	client  redis.UniversalClient
	breaker *breaker
	ttl     time.Duration
}

func NewCache(client redis.UniversalClient, ttl time.Duration, logger zerolog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		client:  client,
		breaker: newBreaker("redis-cache", logger.With().Str("component", "cache").Logger()),
		ttl:     ttl,
	}
}

func buildKey(userID int64, limit int) string {
	return fmt.Sprintf("rec:user:%d:limit:%d", userID, limit)
}

type entry struct {
	Strategy        domain.Strategy               `json:"strategy"`
	Recommendations []domain.ScoredRecommendation `json:"recommendations"`
}

// Get returns a cached ranking. found is false on a miss.
func (c *Cache) Get(ctx context.Context, userID int64, limit int) (*domain.RecommendationResult, bool, error) {
	key := buildKey(userID, limit)

	val, err := execute(c.breaker, func() ([]byte, error) {
		b, err := c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return b, err
	})
	if err != nil {
		metrics.CacheErrors.WithLabelValues("get").Inc()
		return nil, false, fmt.Errorf("get recommendations %s: %w", key, err)
	}
	if val == nil {
		metrics.CacheMisses.Inc()
		return nil, false, nil
	}

	var e entry
	if err := json.Unmarshal(val, &e); err != nil {
		metrics.CacheErrors.WithLabelValues("decode").Inc()
		return nil, false, fmt.Errorf("unmarshal recommendations %s: %w", key, err)
	}

	metrics.CacheHits.Inc()
	return &domain.RecommendationResult{
		Recommendations: e.Recommendations,
		Strategy:        e.Strategy,
		CacheHit:        true,
	}, true, nil
}

func (c *Cache) Set(ctx context.Context, userID int64, limit int, result *domain.RecommendationResult) error {
	key := buildKey(userID, limit)
	val, err := json.Marshal(entry{Strategy: result.Strategy, Recommendations: result.Recommendations})
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}

	_, err = execute(c.breaker, func() (struct{}, error) {
		return struct{}{}, c.client.Set(ctx, key, val, c.ttl).Err()
	})
	if err != nil {
		metrics.CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("set recommendations %s: %w", key, err)
	}
	return nil
}

// ClearUserCache drops every cached limit for the user. Called whenever the
// user's ratings or seen set change.
func (c *Cache) ClearUserCache(ctx context.Context, userID int64) error {
	pattern := fmt.Sprintf("rec:user:%d:limit:*", userID)

	_, err := execute(c.breaker, func() (int, error) {
		var keys []string
		iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return 0, err
		}
		if len(keys) == 0 {
			return 0, nil
		}
		return len(keys), c.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		metrics.CacheErrors.WithLabelValues("clear").Inc()
		return fmt.Errorf("clear cache for user %d: %w", userID, err)
	}
	return nil
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
