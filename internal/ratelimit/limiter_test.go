package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquireBlocksUntilMinInterval(t *testing.T) {
	l := New(map[string]time.Duration{"engine_a": 20 * time.Millisecond})
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx, "engine_a"))
	start := time.Now()
	require.NoError(t, l.Acquire(ctx, "engine_a"))
	require.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestAcquireIsCancelable(t *testing.T) {
	l := New(map[string]time.Duration{"engine_a": time.Second})
	ctx := context.Background()
	require.NoError(t, l.Acquire(ctx, "engine_a"))

	cancelCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()

	err := l.Acquire(cancelCtx, "engine_a")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAcquireKeysAreIndependent(t *testing.T) {
	l := New(map[string]time.Duration{"a": time.Hour, "b": time.Millisecond})
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx, "a"))
	require.NoError(t, l.Acquire(ctx, "b"))
}
