package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Acquire(t *testing.T) {
	rl := newRateLimiter(2)
	defer rl.Close()

	assert.Equal(t, 2, rl.available())
	assert.True(t, rl.tryAcquire())
	assert.True(t, rl.tryAcquire())
	assert.False(t, rl.tryAcquire())
	assert.Equal(t, 0, rl.available())
}

func TestRateLimiter_WaitCanceled(t *testing.T) {
	rl := newRateLimiter(1)
	defer rl.Close()
	require.True(t, rl.tryAcquire())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := rl.wait(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiter_Refill(t *testing.T) {
	// 6000 per minute refills every 10ms.
	rl := newRateLimiter(6000)
	defer rl.Close()

	rl.mu.Lock()
	rl.tokens = 0
	rl.mu.Unlock()

	require.Eventually(t, func() bool { return rl.available() > 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, rl.wait(context.Background()))
}

func TestRateLimiter_DefaultCapacity(t *testing.T) {
	rl := newRateLimiter(0)
	defer rl.Close()
	assert.Equal(t, 60, rl.capacity)

	rl.Close()
}
