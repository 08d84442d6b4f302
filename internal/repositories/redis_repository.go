package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/cache"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RateLimitRepository interface {
	// CheckCheckoutRateLimit returns isAllowed, attempts left, seconds to wait.
	CheckCheckoutRateLimit(ctx context.Context, sessionID string) (bool, int, int, error)
}

type redisRepository struct {
	client redis.UniversalClient
	cfg    config.RateLimit
	now    func() time.Time
	member func() string
}

func NewRedisClient(cfg *config.Config) (*redis.Client, error) {

	redisURL := cfg.RedisConnect.GetDSN()
	slog.Info("Connecting to Redis", slog.String("url", fmt.Sprintf("redis://%s:<password>@%s:%s", cfg.RedisConnect.Username, cfg.RedisConnect.Host, cfg.RedisConnect.Port)))

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		slog.Error("Failed to parse Redis URL", slog.Any("error", err))
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opt.DB = cfg.RedisConnect.DB

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("Failed to connect to Redis", slog.Any("error", err))
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("✅ Successfully connected to Redis")
	return client, nil

}

func NewRateLimitRepo(client redis.UniversalClient, cfg config.RateLimit) RateLimitRepository {
	return &redisRepository{client: client, cfg: cfg, now: time.Now, member: uuid.NewString}
}

func (r *redisRepository) CheckCheckoutRateLimit(ctx context.Context, sessionID string) (bool, int, int, error) {

	logger := middleware.LoggerFromContext(ctx)

	key := cache.Key(cache.CheckoutAttemptsKeyPrefix, sessionID)

	now := r.now().Unix()
	window := int64(r.cfg.WindowSize.Seconds())

	// only attempts after windowStart are counted
	windowStart := now - window

	pipe := r.client.Pipeline()

	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))

	// members must be unique or attempts within the same second collapse into one
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: r.member()})

	count := pipe.ZCard(ctx, key)

	pipe.Expire(ctx, key, r.cfg.WindowSize)

	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("Redis pipeline execution failed for rate limit", slog.String("key", key), slog.Any("error", err))
		return false, 0, 0, fmt.Errorf("redis pipeline error for rate limit check: %w", err)
	}

	attempts := count.Val()

	if attempts > r.cfg.MaxAttempts {

		scores, err := r.client.ZRangeArgsWithScores(ctx, redis.ZRangeArgs{
			Key: key, Start: 0, Stop: 0,
		}).Result()
		if err != nil || len(scores) == 0 {
			logger.Error("Failed to get oldest attempt time for rate limit", slog.String("key", key), slog.Any("error", err))
			return false, 0, int(window), fmt.Errorf("failed to get oldest attempt time: %w", err)
		}

		retryAfter := max(int64(scores[0].Score)+window-now, 0)

		logger.Warn("Checkout rate limit exceeded", slog.Int64("attempts", attempts))
		return false, 0, int(retryAfter), nil
	}

	remaining := r.cfg.MaxAttempts - attempts

	logger.Debug("Rate limit check passed", slog.Int64("attempts", attempts), slog.Int64("remaining", remaining))
	return true, int(remaining), 0, nil
}
