package signal

import (
	"sync"

	"github.com/dkeye/Signal/internal/domain"
	"golang.org/x/time/rate"
)

// ConnRateLimiter caps inbound messages per connection.
type ConnRateLimiter struct {
	mu       sync.Mutex
	limiters map[domain.ConnectionID]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewConnRateLimiter allows perSecond messages with the given burst.
// perSecond <= 0 disables limiting.
func NewConnRateLimiter(perSecond float64, burst int) *ConnRateLimiter {
	return &ConnRateLimiter{
		limiters: make(map[domain.ConnectionID]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

func (rl *ConnRateLimiter) Allow(cid domain.ConnectionID) bool {
	if rl.limit <= 0 {
		return true
	}
	rl.mu.Lock()
	l, ok := rl.limiters[cid]
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[cid] = l
	}
	rl.mu.Unlock()
	return l.Allow()
}

func (rl *ConnRateLimiter) Forget(cid domain.ConnectionID) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.limiters, cid)
}
