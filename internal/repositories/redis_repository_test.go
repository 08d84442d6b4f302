package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/config"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRateLimiter(t *testing.T, maxAttempts int64) (*redisRepository, redismock.ClientMock, time.Time) {
	t.Helper()

	client, mock := redismock.NewClientMock()
	t.Cleanup(func() { client.Close() })

	now := time.Unix(1_700_000_100, 0)

	repo := &redisRepository{
		client: client,
		cfg:    config.RateLimit{MaxAttempts: maxAttempts, WindowSize: time.Minute},
		now:    func() time.Time { return now },
		member: func() string { return "attempt" },
	}

	return repo, mock, now
}

func expectAttempt(mock redismock.ClientMock, key string, now time.Time, count int64) {
	mock.ExpectZRemRangeByScore(key, "0", "1700000040").SetVal(0)
	mock.ExpectZAdd(key, redis.Z{Score: float64(now.Unix()), Member: "attempt"}).SetVal(1)
	mock.ExpectZCard(key).SetVal(count)
	mock.ExpectExpire(key, time.Minute).SetVal(true)
}

func TestCheckCheckoutRateLimit(t *testing.T) {
	const key = "checkout_attempts:sess-1"

	t.Run("Allowed", func(t *testing.T) {
		// Arrange
		repo, mock, now := newTestRateLimiter(t, 3)
		expectAttempt(mock, key, now, 1)

		// Act
		allowed, remaining, retryAfter, err := repo.CheckCheckoutRateLimit(t.Context(), "sess-1")

		// Assert
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, 2, remaining)
		assert.Zero(t, retryAfter)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Last Allowed Attempt", func(t *testing.T) {
		// Arrange
		repo, mock, now := newTestRateLimiter(t, 3)
		expectAttempt(mock, key, now, 3)

		// Act
		allowed, remaining, _, err := repo.CheckCheckoutRateLimit(t.Context(), "sess-1")

		// Assert
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Zero(t, remaining)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Exceeded", func(t *testing.T) {
		// Arrange
		repo, mock, now := newTestRateLimiter(t, 3)
		expectAttempt(mock, key, now, 4)
		mock.ExpectZRangeArgsWithScores(redis.ZRangeArgs{Key: key, Start: 0, Stop: 0}).
			SetVal([]redis.Z{{Score: float64(now.Unix() - 20), Member: "attempt"}})

		// Act
		allowed, remaining, retryAfter, err := repo.CheckCheckoutRateLimit(t.Context(), "sess-1")

		// Assert
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.Zero(t, remaining)
		assert.Equal(t, 40, retryAfter)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Pipeline Error", func(t *testing.T) {
		// Arrange
		repo, mock, _ := newTestRateLimiter(t, 3)
		mock.ExpectZRemRangeByScore(key, "0", "1700000040").SetErr(errors.New("connection refused"))

		// Act
		allowed, _, _, err := repo.CheckCheckoutRateLimit(t.Context(), "sess-1")

		// Assert
		require.Error(t, err)
		assert.False(t, allowed)
	})
}
