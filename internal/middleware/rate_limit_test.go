package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiterWithConfig(60, 5)
	defer rl.Stop()

	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow("auth0|operator"), "request %d within burst", i)
	}
	assert.False(t, rl.Allow("auth0|operator"), "burst exhausted")
}

func TestRateLimiter_IsolatesOperators(t *testing.T) {
	rl := NewRateLimiterWithConfig(60, 1)
	defer rl.Stop()

	assert.True(t, rl.Allow("auth0|a"))
	assert.False(t, rl.Allow("auth0|a"))

	// A different operator has their own bucket.
	assert.True(t, rl.Allow("auth0|b"))
}
