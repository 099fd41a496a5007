package search

import (
	"context"
	"fmt"
)

// Hit is a single search result. Rank is the 1-based position in the
// provider's ordering, which callers treat as authoritative.
type Hit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
	Rank    int    `json:"rank,omitempty"`
	Source  string `json:"-"` // provider name for observability
}

// Provider is a web search backend. Zero hits is a valid answer, not an
// error. Providers never retry; proxy is a proxy URL or "" for direct.
type Provider interface {
	Search(ctx context.Context, query string, limit int, proxy string) ([]Hit, error)
	Name() string
}

// ProviderError wraps any failure of a search backend.
type ProviderError struct {
	Provider string
	Query    string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("search provider %s failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func wrap(p string, q string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: p, Query: q, Err: err}
}

// rank assigns 1-based ranks in order.
func rank(hits []Hit) []Hit {
	for i := range hits {
		hits[i].Rank = i + 1
	}
	return hits
}
