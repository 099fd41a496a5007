package pace

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Range is a closed interval for a randomized pacing delay. A zero Range
// disables the delay.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// Seconds builds a Range from fractional seconds.
func Seconds(min, max float64) Range {
	return Range{
		Min: time.Duration(min * float64(time.Second)),
		Max: time.Duration(max * float64(time.Second)),
	}
}

// IsZero reports whether the range produces no delay.
func (r Range) IsZero() bool { return r.Min <= 0 && r.Max <= 0 }

// Pacer waits a random duration within a Range before network calls to keep
// request patterns irregular. Waits are interrupted by context cancellation.
type Pacer struct {
	mu   sync.Mutex
	rnd  *rand.Rand
	wait func(ctx context.Context, d time.Duration) error
}

// New returns a Pacer seeded from the clock.
func New() *Pacer {
	return &Pacer{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewWithSleeper lets tests observe requested delays without sleeping.
func NewWithSleeper(seed int64, sleep func(ctx context.Context, d time.Duration) error) *Pacer {
	return &Pacer{rnd: rand.New(rand.NewSource(seed)), wait: sleep}
}

// Pick draws a duration uniformly from r.
func (p *Pacer) Pick(r Range) time.Duration {
	if r.IsZero() {
		return 0
	}
	lo, hi := r.Min, r.Max
	if hi < lo {
		lo, hi = hi, lo
	}
	if hi == lo {
		return lo
	}
	p.mu.Lock()
	n := p.rnd.Int63n(int64(hi - lo))
	p.mu.Unlock()
	return lo + time.Duration(n)
}

// Wait sleeps for a duration picked from r. It returns ctx.Err() when the
// context ends first and the picked duration otherwise.
func (p *Pacer) Wait(ctx context.Context, r Range) (time.Duration, error) {
	if p == nil {
		return 0, ctx.Err()
	}
	d := p.Pick(r)
	if p.wait != nil {
		return d, p.wait(ctx, d)
	}
	return d, Sleep(ctx, d)
}

// Intn returns a random int in [0,n) from the pacer's source. Callers that
// need randomness tied to pacing (proxy choice, user-agent rotation) share it.
func (p *Pacer) Intn(n int) int {
	if p == nil || n <= 0 {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rnd.Intn(n)
}

// Float64 returns a random float in [0,1). A nil Pacer always returns 0.
func (p *Pacer) Float64() float64 {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rnd.Float64()
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
