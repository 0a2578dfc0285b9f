package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMemoryRoundGuard(t *testing.T) {
	ctx := context.Background()
	clock := clockz.NewFakeClock()
	guard := NewMemoryRoundGuard(clock)
	id := primitive.NewObjectID()

	ok, err := guard.Acquire(ctx, id, 1, 15*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = guard.Acquire(ctx, id, 2, 15*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	other, err := guard.Acquire(ctx, primitive.NewObjectID(), 1, 15*time.Second)
	require.NoError(t, err)
	assert.True(t, other)

	require.NoError(t, guard.Release(ctx, id, 1))
	ok, err = guard.Acquire(ctx, id, 2, 15*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	// A holder that never releases loses the guard after the ttl.
	clock.Advance(15 * time.Second)
	ok, err = guard.Acquire(ctx, id, 3, 15*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStaleRoundCannotReleaseNewerRound(t *testing.T) {
	ctx := context.Background()
	clock := clockz.NewFakeClock()
	guard := NewMemoryRoundGuard(clock)
	id := primitive.NewObjectID()

	ok, err := guard.Acquire(ctx, id, 1, 15*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	// Round 1 lapses before its expiry timer runs and round 2 takes over.
	clock.Advance(15 * time.Second)
	ok, err = guard.Acquire(ctx, id, 2, 15*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, guard.Release(ctx, id, 1))
	ok, err = guard.Acquire(ctx, id, 3, 15*time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "round 2 must still hold the guard")

	require.NoError(t, guard.Release(ctx, id, 2))
	ok, err = guard.Acquire(ctx, id, 3, 15*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}
