package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterAllowsUpToLimit(t *testing.T) {
	l := NewMemoryLimiter()
	defer l.Close()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(context.Background(), "key-1", 3)
		require.NoError(t, err)
		require.True(t, ok)
	}

	ok, err := l.Allow(context.Background(), "key-1", 3)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryLimiterTracksKeysIndependently(t *testing.T) {
	l := NewMemoryLimiter()
	defer l.Close()

	ok, err := l.Allow(context.Background(), "key-1", 1)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Allow(context.Background(), "key-2", 1)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Allow(context.Background(), "key-1", 1)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRingBufferEvictsOutsideWindow(t *testing.T) {
	buf := &ringBuffer{}
	now := time.Now()

	require.True(t, buf.allow(now, 1))
	require.False(t, buf.allow(now, 1))
	require.True(t, buf.allow(now.Add(slidingWindow+time.Second), 1))
}
