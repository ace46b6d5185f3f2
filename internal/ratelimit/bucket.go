// Package ratelimit implements the process-wide token bucket the Fetcher blocks on before
// every HTTP call. It never rejects a caller; acquire always eventually returns.
package ratelimit

import (
	"sync"
	"time"
)

// Bucket is a token bucket with capacity maxBurst and a steady refill rate of rps
// tokens/sec. The zero value is not usable; construct with New.
type Bucket struct {
	mu             sync.Mutex
	tokens         int
	maxBurst       int
	refillInterval time.Duration
	lastRefill     time.Time

	// now and sleep are swappable for deterministic tests; production code leaves them nil
	// and New installs time.Now/time.Sleep.
	now   func() time.Time
	sleep func(time.Duration)
}

// New constructs a Bucket starting full (maxBurst tokens available immediately).
func New(rps, maxBurst int) *Bucket {
	if rps <= 0 {
		rps = 1
	}
	if maxBurst <= 0 {
		maxBurst = 1
	}
	return &Bucket{
		tokens:         maxBurst,
		maxBurst:       maxBurst,
		refillInterval: time.Second / time.Duration(rps),
		lastRefill:     time.Now(),
		now:            time.Now,
		sleep:          time.Sleep,
	}
}

// Acquire blocks until a token is available, then consumes it.
func (b *Bucket) Acquire() {
	for {
		b.mu.Lock()
		if b.tokens > 0 {
			b.tokens--
			b.mu.Unlock()
			return
		}

		now := b.now()
		elapsed := now.Sub(b.lastRefill)
		if elapsed >= b.refillInterval {
			refill := int(elapsed / b.refillInterval)
			b.tokens = min(b.tokens+refill, b.maxBurst)
			b.lastRefill = now
			b.mu.Unlock()
			continue
		}

		wait := b.refillInterval - elapsed
		b.mu.Unlock()
		b.sleep(wait)
	}
}
