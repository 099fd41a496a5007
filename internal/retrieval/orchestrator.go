// Package retrieval runs the tiered search, fetch and fallback sequence that
// turns a query into one validated page.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goknowledge/internal/fetch"
	"github.com/hyperifyio/goknowledge/internal/filter"
	"github.com/hyperifyio/goknowledge/internal/pace"
	"github.com/hyperifyio/goknowledge/internal/planner"
	"github.com/hyperifyio/goknowledge/internal/search"
	"github.com/hyperifyio/goknowledge/internal/whitelist"
)

// Fetcher retrieves and validates a single page.
type Fetcher interface {
	Fetch(ctx context.Context, url string, proxy string) fetch.Outcome
}

// Planner produces the search tiers for a query.
type Planner interface {
	Plan(query string, category planner.Category) []planner.Tier
}

// Config is the tunable behaviour of an Orchestrator.
type Config struct {
	// MaxResults is the number of hits requested per tier.
	MaxResults int
	// FirstTierDelay precedes tier 0; LaterTierDelay precedes every other tier.
	FirstTierDelay pace.Range
	LaterTierDelay pace.Range
	// Proxies is the pool a tier's proxy is drawn from. With probability
	// ProxyProbability a proxy is used, otherwise the connection is direct.
	Proxies          []string
	ProxyProbability float64
	// BlockForbiddenHosts skips further URLs on a host after it answered 403
	// during the same run.
	BlockForbiddenHosts bool
	// Deadline bounds a whole run. Zero disables it.
	Deadline time.Duration
}

// DefaultConfig returns the stock pacing and result settings.
func DefaultConfig() Config {
	return Config{
		MaxResults:          8,
		FirstTierDelay:      pace.Seconds(5, 10),
		LaterTierDelay:      pace.Seconds(3, 6),
		ProxyProbability:    0.9,
		BlockForbiddenHosts: true,
	}
}

// Orchestrator is configured once and then only read, so one instance can
// serve concurrent runs. Each run keeps its own trace and forbidden-host set.
type Orchestrator struct {
	Config    Config
	Planner   Planner
	Provider  search.Provider
	Filter    *filter.Filter
	Fetcher   Fetcher
	Whitelist *whitelist.Resolver
	Pacer     *pace.Pacer
}

// run holds the per-invocation state.
type run struct {
	o         *Orchestrator
	trace     *Trace
	forbidden map[string]bool
}

func (r *run) skipReason(rawURL string) string {
	if !r.o.Config.BlockForbiddenHosts {
		return ""
	}
	if r.forbidden[hostOf(rawURL)] {
		return "forbidden earlier"
	}
	return ""
}

// Fetch lets the run sit between the whitelist resolver and the real fetcher
// so 403 answers there are remembered too.
func (r *run) Fetch(ctx context.Context, rawURL string, proxy string) fetch.Outcome {
	out := r.o.Fetcher.Fetch(ctx, rawURL, proxy)
	if out.Forbidden && r.o.Config.BlockForbiddenHosts {
		r.forbidden[hostOf(rawURL)] = true
	}
	return out
}

// Run executes the tiers in order and stops at the first accepted page. When
// every tier fails the whitelist fallback runs. It returns either a Result or
// an error, never both. The error is a *ExhaustedError, or the context's
// error when the caller cancelled.
func (o *Orchestrator) Run(ctx context.Context, q Query) (Result, error) {
	parent := ctx
	if o.Config.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Config.Deadline)
		defer cancel()
	}
	r := &run{o: o, trace: &Trace{}, forbidden: make(map[string]bool)}

	for _, tier := range o.Planner.Plan(q.Text, q.Category) {
		res, ok, err := r.tier(ctx, q, tier)
		if err != nil {
			return Result{}, r.interrupted(parent, q, err)
		}
		if ok {
			return res, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return Result{}, r.interrupted(parent, q, err)
	}
	log.Info().Str("query", q.Text).Msg("all search tiers failed, trying whitelist fallback")
	if o.Whitelist != nil {
		wr := *o.Whitelist
		wr.Fetcher = r
		wr.Skip = r.skipReason
		cand, ok, attempts := wr.Resolve(ctx, q.Text)
		r.trace.Whitelist = attempts
		if ok {
			return Result{
				Query:       q,
				SourceText:  cand.Text,
				SourceTitle: cand.Title,
				SourceURL:   cand.URL,
				ServedBy:    WhitelistFallback,
				Trace:       r.trace,
			}, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return Result{}, r.interrupted(parent, q, err)
	}
	return Result{}, &ExhaustedError{Query: q, Trace: r.trace}
}

// interrupted maps a context error: the caller's cancellation is returned as
// is, the run's own deadline becomes exhaustion with the trace so far.
func (r *run) interrupted(parent context.Context, q Query, err error) error {
	if perr := parent.Err(); perr != nil {
		return perr
	}
	return &ExhaustedError{Query: q, Trace: r.trace, Cause: err}
}

// tier runs one search tier. ok reports success; err is only ever a context
// error.
func (r *run) tier(ctx context.Context, q Query, tier planner.Tier) (Result, bool, error) {
	o := r.o
	if err := ctx.Err(); err != nil {
		return Result{}, false, err
	}
	delay := o.Config.LaterTierDelay
	if tier.Index == 0 {
		delay = o.Config.FirstTierDelay
	}
	wait, err := o.Pacer.Wait(ctx, delay)
	if err != nil {
		return Result{}, false, err
	}
	proxy := o.pickProxy()
	r.trace.Tiers = append(r.trace.Tiers, TierTrace{Tier: tier.Index, Label: tier.Label, Query: tier.Query, Proxy: proxy})
	tt := &r.trace.Tiers[len(r.trace.Tiers)-1]

	log.Info().Int("tier", tier.Index).Str("label", tier.Label).Dur("waited", wait).
		Str("proxy", proxyLabel(proxy)).Str("query", tier.Query).Msg("searching")

	max := o.Config.MaxResults
	if max <= 0 {
		max = 8
	}
	hits, err := o.Provider.Search(ctx, tier.Query, max, proxy)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, false, ctx.Err()
		}
		log.Warn().Int("tier", tier.Index).Err(err).Msg("search failed")
		tt.Errors = append(tt.Errors, fmt.Sprintf("search provider %s failed: %v", o.Provider.Name(), unwrapProvider(err)))
		return Result{}, false, nil
	}
	tt.Hits = len(hits)
	if len(hits) == 0 {
		log.Warn().Int("tier", tier.Index).Msg("no search results")
		return Result{}, false, nil
	}

	kept := hits
	if o.Filter != nil {
		var skipped []filter.Skip
		kept, skipped = o.Filter.Apply(hits)
		for _, s := range skipped {
			tt.Skipped = append(tt.Skipped, Skip{URL: s.Hit.URL, Reason: s.Reason})
		}
	}

	for _, h := range kept {
		if err := ctx.Err(); err != nil {
			return Result{}, false, err
		}
		if reason := r.skipReason(h.URL); reason != "" {
			tt.Skipped = append(tt.Skipped, Skip{URL: h.URL, Reason: reason})
			continue
		}
		tt.HitsConsidered++
		log.Info().Int("tier", tier.Index).Int("rank", h.Rank).Str("url", h.URL).Msg("trying source")
		out := r.Fetch(ctx, h.URL, proxy)
		if out.OK() {
			title := h.Title
			if title == "" {
				title = out.Title
			}
			return Result{
				Query:         q,
				SourceText:    out.Text,
				SourceTitle:   title,
				SourceURL:     h.URL,
				ServedBy:      Tier(tier.Index),
				TierLabel:     tier.Label,
				AlternateHits: alternates(hits, h),
				Trace:         r.trace,
			}, true, nil
		}
		if ctx.Err() != nil {
			return Result{}, false, ctx.Err()
		}
		if out.Kind == fetch.Rejected {
			tt.Skipped = append(tt.Skipped, Skip{URL: h.URL, Reason: out.Reason})
		} else {
			tt.Errors = append(tt.Errors, fmt.Sprintf("%s: %s", h.URL, out.Reason))
		}
	}
	return Result{}, false, nil
}

func (o *Orchestrator) pickProxy() string {
	if len(o.Config.Proxies) == 0 {
		return ""
	}
	if o.Pacer.Float64() >= o.Config.ProxyProbability {
		return ""
	}
	return o.Config.Proxies[o.Pacer.Intn(len(o.Config.Proxies))]
}

// alternates returns every hit of the tier except the winner, in rank order.
func alternates(hits []search.Hit, winner search.Hit) []search.Hit {
	out := make([]search.Hit, 0, len(hits))
	for _, h := range hits {
		if h.URL == winner.URL && h.Rank == winner.Rank {
			continue
		}
		out = append(out, h)
	}
	return out
}

func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func proxyLabel(p string) string {
	if p == "" {
		return "direct"
	}
	return p
}

func unwrapProvider(err error) error {
	var pe *search.ProviderError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}
