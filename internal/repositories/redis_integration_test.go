package repositories_test

import (
	"context"
	"testing"
	"time"

	"jewelconnect/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisBlacklist(t *testing.T) {
	repo := repositories.NewRedisRepository(requireRedis(t))
	ctx := context.Background()

	require.NoError(t, repo.Blacklist(ctx, "jti-expired", 0))
	listed, err := repo.IsBlacklisted(ctx, "jti-expired")
	require.NoError(t, err)
	assert.False(t, listed, "tokens past expiry are not stored")

	require.NoError(t, repo.Blacklist(ctx, "jti-1", time.Minute))
	listed, err = repo.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, listed)
}

func TestRedisIdempotencyClaim(t *testing.T) {
	repo := repositories.NewRedisRepository(requireRedis(t))
	ctx := context.Background()

	val, claimed, err := repo.Claim(ctx, "user:order-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Empty(t, val)

	val, claimed, err = repo.Claim(ctx, "user:order-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Empty(t, val, "in-flight claims carry no result")

	require.NoError(t, repo.Complete(ctx, "user:order-1", "order-id", time.Minute))
	val, claimed, err = repo.Claim(ctx, "user:order-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Equal(t, "order-id", val)

	require.NoError(t, repo.Release(ctx, "user:order-1"))
	_, claimed, err = repo.Claim(ctx, "user:order-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)

	assert.NoError(t, repo.Ping(ctx))
}
