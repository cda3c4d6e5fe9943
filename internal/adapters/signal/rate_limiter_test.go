package signal

import (
	"testing"

	"github.com/dkeye/Signal/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestConnRateLimiter_Burst(t *testing.T) {
	rl := NewConnRateLimiter(0.001, 2)
	a := domain.ConnectionID("a")

	require.True(t, rl.Allow(a))
	require.True(t, rl.Allow(a))
	require.False(t, rl.Allow(a))

	// other connections have their own bucket
	require.True(t, rl.Allow("b"))
}

func TestConnRateLimiter_ForgetResets(t *testing.T) {
	rl := NewConnRateLimiter(0.001, 1)
	require.True(t, rl.Allow("a"))
	require.False(t, rl.Allow("a"))

	rl.Forget("a")

	require.True(t, rl.Allow("a"))
}

func TestConnRateLimiter_Disabled(t *testing.T) {
	rl := NewConnRateLimiter(0, 0)
	for range 1000 {
		require.True(t, rl.Allow("a"))
	}
}
