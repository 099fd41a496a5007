package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hyperifyio/goknowledge/internal/filter"
	"github.com/hyperifyio/goknowledge/internal/planner"
	"github.com/hyperifyio/goknowledge/internal/search"
)

// debugsearch prints the planned tiers for a query and, per tier, the raw
// hits and what the result filter does with them. No pages are fetched.
func main() {
	provider := flag.String("search", "duckduckgo", "Search provider: duckduckgo or searxng")
	searxURL := flag.String("searx.url", os.Getenv("SEARX_URL"), "SearxNG base URL")
	category := flag.String("category", "general", "Query category")
	tierOnly := flag.Int("tier", -1, "Only run this tier index")
	flag.Parse()

	q := "Was ist Photosynthese"
	if flag.NArg() > 0 {
		q = strings.Join(flag.Args(), " ")
	}
	cat, err := planner.ParseCategory(*category)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	var prov search.Provider = &search.DuckDuckGo{Region: "de-de"}
	if *provider == "searxng" {
		prov = &search.SearxNG{BaseURL: *searxURL, UserAgent: "debugsearch/1.0"}
	}
	f := filter.Default()

	for _, tier := range planner.New(planner.DefaultConfig()).Plan(q, cat) {
		if *tierOnly >= 0 && tier.Index != *tierOnly {
			continue
		}
		fmt.Printf("== tier %d (%s): %s\n", tier.Index, tier.Label, tier.Query)
		ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		hits, err := prov.Search(ctx, tier.Query, 8, "")
		cancel()
		if err != nil {
			fmt.Println("err:", err)
			continue
		}
		kept, skipped := f.Apply(hits)
		for _, h := range kept {
			fmt.Printf("  %d. %s - %s\n", h.Rank, h.Title, h.URL)
		}
		for _, s := range skipped {
			fmt.Printf("  skip %s: %s\n", s.Hit.URL, s.Reason)
		}
	}
}
