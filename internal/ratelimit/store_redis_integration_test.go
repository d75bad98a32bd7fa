//go:build integration

package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"medvault/internal/ratelimit"
	"medvault/pkg/testutil/containers"
)

func TestRedisStoreSlidingWindow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	rc := containers.NewRedisContainer(t)
	store := ratelimit.NewRedisStore(rc.Client)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := store.Allow(ctx, "10.0.0.1", 3, time.Minute)
		require.NoError(t, err)
		require.True(t, result.Allowed)
		require.Equal(t, 2-i, result.Remaining)
	}

	denied, err := store.Allow(ctx, "10.0.0.1", 3, time.Minute)
	require.NoError(t, err)
	require.False(t, denied.Allowed)
	require.Zero(t, denied.Remaining)

	// Other keys are unaffected.
	other, err := store.Allow(ctx, "10.0.0.2", 3, time.Minute)
	require.NoError(t, err)
	require.True(t, other.Allowed)

	require.NoError(t, store.Reset(ctx, "10.0.0.1"))
	again, err := store.Allow(ctx, "10.0.0.1", 3, time.Minute)
	require.NoError(t, err)
	require.True(t, again.Allowed)
}

func TestRedisStoreWindowExpires(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	rc := containers.NewRedisContainer(t)
	store := ratelimit.NewRedisStore(rc.Client)
	ctx := context.Background()

	_, err := store.Allow(ctx, "10.0.0.1", 1, 100*time.Millisecond)
	require.NoError(t, err)

	denied, err := store.Allow(ctx, "10.0.0.1", 1, 100*time.Millisecond)
	require.NoError(t, err)
	require.False(t, denied.Allowed)

	time.Sleep(150 * time.Millisecond)

	allowed, err := store.Allow(ctx, "10.0.0.1", 1, 100*time.Millisecond)
	require.NoError(t, err)
	require.True(t, allowed.Allowed)
}
