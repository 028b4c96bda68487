package geocode

import (
	"sync"
	"time"
)

// rateGate enforces a minimum interval between outbound calls across the
// whole process. Acquire blocks the caller until the interval since the
// previous call has elapsed, then claims the slot. Holding the lock while
// waiting serializes concurrent callers, which is exactly the contract:
// at most one request per interval, globally.
type rateGate struct {
	mu       sync.Mutex
	last     time.Time
	interval time.Duration
}

func newRateGate(interval time.Duration) *rateGate {
	return &rateGate{interval: interval}
}

func (g *rateGate) acquire() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if wait := g.interval - time.Since(g.last); wait > 0 {
		time.Sleep(wait)
	}
	g.last = time.Now()
}
