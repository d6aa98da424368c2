package importer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterAcquireRelease(t *testing.T) {
	l := NewLimiter(2, time.Second)

	require.NoError(t, l.Acquire(context.Background()))
	require.NoError(t, l.Acquire(context.Background()))
	assert.Equal(t, 2, l.Active())

	l.Release()
	l.Release()
	assert.Equal(t, 0, l.Active())
}

func TestLimiterBusyAfterWaitWindow(t *testing.T) {
	l := NewLimiter(1, 20*time.Millisecond)

	require.NoError(t, l.Acquire(context.Background()))
	defer l.Release()

	err := l.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
}

func TestLimiterHonoursCancellation(t *testing.T) {
	l := NewLimiter(1, time.Minute)

	require.NoError(t, l.Acquire(context.Background()))
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLimiterFreedSlotIsReusable(t *testing.T) {
	l := NewLimiter(1, time.Second)

	require.NoError(t, l.Acquire(context.Background()))
	done := make(chan error, 1)
	go func() {
		done <- l.Acquire(context.Background())
	}()

	l.Release()
	select {
	case err := <-done:
		require.NoError(t, err)
		l.Release()
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the freed slot")
	}
}
