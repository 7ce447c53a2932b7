package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xerrors "primefit-service/internal/pkg/errors"
)

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRateLimiterAllowsFiveAttemptsPerWindow(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	limiter := NewRateLimiter(client, 0)

	for i := 1; i <= 5; i++ {
		allowed, remaining, err := limiter.CheckLoginAttempt(ctx, "9876543210")
		require.NoError(t, err)
		assert.True(t, allowed, "attempt %d", i)
		assert.Equal(t, int64(5-i), remaining)
	}

	allowed, remaining, err := limiter.CheckLoginAttempt(ctx, "9876543210")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Zero(t, remaining)

	// Other members are unaffected
	allowed, _, err = limiter.CheckLoginAttempt(ctx, "8765432109")
	require.NoError(t, err)
	assert.True(t, allowed)

	assert.Equal(t, 15*time.Minute, mr.TTL("ratelimit:login:9876543210"))
	mr.FastForward(16 * time.Minute)

	left, err := limiter.GetRemainingAttempts(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, int64(5), left)
}

func TestRateLimiterReset(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)
	limiter := NewRateLimiter(client, 2)

	_, _, err := limiter.CheckLoginAttempt(ctx, "9876543210")
	require.NoError(t, err)
	left, err := limiter.GetRemainingAttempts(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, int64(1), left)

	require.NoError(t, limiter.ResetLoginAttempts(ctx, "9876543210"))
	left, err = limiter.GetRemainingAttempts(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, int64(2), left)
}

func TestManagerSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)
	m := NewManager(client)

	expires := time.Now().Add(time.Hour)
	sess := &SessionData{
		JTI:        "01HZX0TESTJTI",
		CustomerID: "PFS001",
		Mobile:     "9876543210",
		LoginAt:    time.Now().UTC().Truncate(time.Second),
		ExpiresAt:  expires.UTC().Truncate(time.Second),
	}
	require.NoError(t, m.CreateSession(ctx, sess))

	got, err := m.GetSession(ctx, "PFS001", "01HZX0TESTJTI")
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	sessions, err := m.GetCustomerSessions(ctx, "PFS001")
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	require.NoError(t, m.InvalidateSession(ctx, "PFS001", "01HZX0TESTJTI", expires))

	_, err = m.GetSession(ctx, "PFS001", "01HZX0TESTJTI")
	assert.ErrorIs(t, err, xerrors.ErrSessionExpired)

	blacklisted, err := m.IsTokenBlacklisted(ctx, "01HZX0TESTJTI")
	require.NoError(t, err)
	assert.True(t, blacklisted)
}

func TestManagerRejectsExpiredSession(t *testing.T) {
	client, _ := newTestClient(t)
	m := NewManager(client)

	err := m.CreateSession(context.Background(), &SessionData{
		JTI:        "x",
		CustomerID: "PFS001",
		ExpiresAt:  time.Now().Add(-time.Minute),
	})
	assert.Error(t, err)
}
