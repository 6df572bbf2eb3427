package middleware

import (
	"context"
	"shop-api/internal/config"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// NewRateLimiterStore picks the limiter backend. The memory store is per process; the redis
// store is shared by every replica.
func NewRateLimiterStore(cfg *config.RateLimit, rdb *redis.Client, logger zerolog.Logger) echomw.RateLimiterStore {
	if cfg.Store == "redis" && rdb != nil {
		return NewRedisRateLimiterStore(rdb, int(cfg.Rate), time.Second, logger)
	}
	return echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.Rate),
		Burst:     cfg.Burst,
		ExpiresIn: 3 * time.Minute,
	})
}

// RateLimit limits requests per client ip.
func RateLimit(store echomw.RateLimiterStore) echo.MiddlewareFunc {
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.ErrForbidden
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.ErrTooManyRequests
		},
	})
}

// RedisRateLimiterStore is a fixed window counter: INCR the key of the current window and
// expire it with the window. Redis failures let the request through.
type RedisRateLimiterStore struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	logger zerolog.Logger
}

func NewRedisRateLimiterStore(client *redis.Client, limit int, window time.Duration, logger zerolog.Logger) *RedisRateLimiterStore {
	if limit < 1 {
		limit = 1
	}
	return &RedisRateLimiterStore{
		client: client,
		limit:  limit,
		window: window,
		prefix: "ratelimit:",
		logger: logger,
	}
}

func (s *RedisRateLimiterStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	slot := time.Now().UnixNano() / int64(s.window)
	key := s.prefix + identifier + ":" + strconv.FormatInt(slot, 10)

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn().Err(err).Str("client", identifier).Msg("redis rate limit check failed")
		return true, nil
	}

	return incr.Val() <= int64(s.limit), nil
}
