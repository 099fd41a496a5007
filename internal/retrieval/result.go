package retrieval

import (
	"fmt"

	"github.com/hyperifyio/goknowledge/internal/planner"
	"github.com/hyperifyio/goknowledge/internal/search"
)

// Query is one user request. It is never mutated.
type Query struct {
	Text     string
	Category planner.Category
}

// ServedBy tells which path produced a Result: a search tier index (0-based)
// or the whitelist fallback.
type ServedBy int

// WhitelistFallback marks results from the trusted-site fallback.
const WhitelistFallback ServedBy = -1

// Tier returns the ServedBy value for search tier i.
func Tier(i int) ServedBy { return ServedBy(i) }

// IsWhitelist reports whether the whitelist fallback served the result.
func (s ServedBy) IsWhitelist() bool { return s == WhitelistFallback }

func (s ServedBy) String() string {
	if s.IsWhitelist() {
		return "whitelist fallback"
	}
	return fmt.Sprintf("tier %d", int(s))
}

// Result is the outcome of a successful retrieval. AlternateHits lists the
// other hits of the winning tier and is empty for whitelist results.
type Result struct {
	Query         Query
	SourceText    string
	SourceTitle   string
	SourceURL     string
	ServedBy      ServedBy
	TierLabel     string
	AlternateHits []search.Hit
	Trace         *Trace
}
