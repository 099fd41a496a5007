package retrieval

import (
	"errors"
	"fmt"

	"github.com/hyperifyio/goknowledge/internal/whitelist"
)

// Skip is a candidate URL that was not used, with the reason.
type Skip struct {
	URL    string
	Reason string
}

// TierTrace records what happened in one search tier.
type TierTrace struct {
	Tier           int
	Label          string
	Query          string
	Proxy          string
	Hits           int // hits returned by the provider
	HitsConsidered int // hits actually fetched
	Skipped        []Skip
	Errors         []string
}

// Trace accumulates diagnostics for one retrieval. It never drives control
// flow.
type Trace struct {
	Tiers     []TierTrace
	Whitelist []whitelist.Attempt
}

// Lines flattens the trace into human-readable lines in the order events
// happened.
func (t *Trace) Lines() []string {
	if t == nil {
		return nil
	}
	var out []string
	for _, tt := range t.Tiers {
		for _, s := range tt.Skipped {
			out = append(out, fmt.Sprintf("tier %d (%s): %s: %s", tt.Tier, tt.Label, s.URL, s.Reason))
		}
		for _, e := range tt.Errors {
			out = append(out, fmt.Sprintf("tier %d (%s): %s", tt.Tier, tt.Label, e))
		}
		if tt.Hits == 0 && len(tt.Errors) == 0 {
			out = append(out, fmt.Sprintf("tier %d (%s): no search results", tt.Tier, tt.Label))
		}
	}
	for _, a := range t.Whitelist {
		out = append(out, fmt.Sprintf("whitelist: %s: %s", a.URL, a.Reason))
	}
	return out
}

// ErrExhausted is matched by every *ExhaustedError.
var ErrExhausted = errors.New("no online document could be extracted after all search tiers and the whitelist fallback")

// ExhaustedError is the only failure a retrieval reports. It carries the
// full trace. Cause is set when the run's own deadline cut it short.
type ExhaustedError struct {
	Query Query
	Trace *Trace
	Cause error
}

func (e *ExhaustedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%v)", ErrExhausted.Error(), e.Cause)
	}
	return ErrExhausted.Error()
}

func (e *ExhaustedError) Is(target error) bool { return target == ErrExhausted }

func (e *ExhaustedError) Unwrap() error { return e.Cause }
