package ntpcheck

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestRateLimiter_AllowWithinBurst(t *testing.T) {
	rl := NewRateLimiter(60, 3)

	assert.True(t, rl.Allow("a.example"))
	assert.True(t, rl.Allow("a.example"))
	assert.True(t, rl.Allow("a.example"))

	// Burst exhausted, next query is denied.
	assert.False(t, rl.Allow("a.example"))
}

func TestRateLimiter_PerServerLimiters(t *testing.T) {
	// Generous global budget, tight per-server burst. The global limiter is
	// rebuilt so it starts with a full 100-token bucket.
	rl := NewRateLimiter(600, 1)
	rl.global = rate.NewLimiter(rate.Every(100*time.Millisecond), 100)

	assert.True(t, rl.Allow("a.example"))
	assert.False(t, rl.Allow("a.example"))

	// A different server has its own untouched budget.
	assert.True(t, rl.Allow("b.example"))
}

func TestRateLimiter_WaitHonorsContext(t *testing.T) {
	// One query per minute with burst 1; the second Wait must block until
	// the context deadline hits.
	rl := NewRateLimiter(1, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.NoError(t, rl.Wait(ctx, "a.example"))

	err := rl.Wait(ctx, "a.example")
	assert.Error(t, err)
}
