package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer delays a caller until it may send the next request to host.
type Pacer interface {
	Wait(ctx context.Context, host string) error
}

// DomainLimiter enforces a minimum interval between requests to the same
// host. Each host gets a token bucket of size one refilled every interval,
// so concurrent callers for one host queue behind each other.
type DomainLimiter struct {
	interval time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewDomainLimiter creates a DomainLimiter. An interval <= 0 disables pacing.
func NewDomainLimiter(interval time.Duration) *DomainLimiter {
	return &DomainLimiter{
		interval: interval,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until a request to host is allowed or ctx is done.
func (l *DomainLimiter) Wait(ctx context.Context, host string) error {
	if l == nil || l.interval <= 0 {
		return nil
	}
	return l.limiter(host).Wait(ctx)
}

// Domains reports how many hosts have been paced so far.
func (l *DomainLimiter) Domains() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *DomainLimiter) limiter(host string) *rate.Limiter {
	host = strings.ToLower(host)

	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Every(l.interval), 1)
		l.limiters[host] = lim
	}
	return lim
}
