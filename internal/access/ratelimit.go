package access

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/httprate"
)

// Limiter throttles hits against a logical key. Implementations must
// serialize updates to a key so two concurrent hits never both slip past a
// boundary that should reject the second.
type Limiter interface {
	// Allow records a hit and reports whether it is within budget. Rate
	// headers are written to w either way.
	Allow(w http.ResponseWriter, r *http.Request, key string, limit int, window time.Duration) bool
}

// RateLimiter implements Limiter on httprate's sliding-window counters, one
// counter set per (limit, window) class.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*httprate.RateLimiter
}

// NewRateLimiter constructs an empty limiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{limiters: make(map[string]*httprate.RateLimiter)}
}

// Allow implements Limiter.
func (l *RateLimiter) Allow(w http.ResponseWriter, r *http.Request, key string, limit int, window time.Duration) bool {
	return !l.limiterFor(limit, window).OnLimit(w, r, key)
}

func (l *RateLimiter) limiterFor(limit int, window time.Duration) *httprate.RateLimiter {
	class := fmt.Sprintf("%d/%s", limit, window)
	l.mu.Lock()
	defer l.mu.Unlock()
	rl, ok := l.limiters[class]
	if !ok {
		rl = httprate.NewRateLimiter(limit, window)
		l.limiters[class] = rl
	}
	return rl
}
