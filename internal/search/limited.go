package search

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limited caps the request rate to an underlying provider. It complements
// the per-tier pacing delays with a hard ceiling when consecutive runs of one
// process share the provider.
type Limited struct {
	Provider Provider
	limiter  *rate.Limiter
}

// NewLimited allows one request per interval with the given burst. A
// non-positive interval disables limiting.
func NewLimited(p Provider, interval time.Duration, burst int) *Limited {
	if burst < 1 {
		burst = 1
	}
	lim := rate.NewLimiter(rate.Inf, burst)
	if interval > 0 {
		lim = rate.NewLimiter(rate.Every(interval), burst)
	}
	return &Limited{Provider: p, limiter: lim}
}

func (l *Limited) Name() string { return l.Provider.Name() }

func (l *Limited) Search(ctx context.Context, query string, limit int, proxy string) ([]Hit, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return l.Provider.Search(ctx, query, limit, proxy)
}
