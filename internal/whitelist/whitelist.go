// Package whitelist tries a fixed list of trusted sites directly when web
// search did not produce a usable page.
package whitelist

import (
	"context"
	"net/url"
	"strings"

	"github.com/hyperifyio/goknowledge/internal/fetch"
	"github.com/hyperifyio/goknowledge/internal/pace"
	"github.com/rs/zerolog/log"
)

// Entry is a trusted site and the URL pattern used to look a query up on it.
// Pattern is appended to Base after placeholder substitution:
//
//	{underscore}  query with spaces replaced by "_", path escaped
//	{plus}        query form-encoded, spaces become "+"
type Entry struct {
	Base    string `yaml:"base" json:"base"`
	Pattern string `yaml:"pattern" json:"pattern"`
}

// URL builds the lookup URL for query.
func (e Entry) URL(query string) string {
	q := strings.Join(strings.Fields(query), " ")
	underscore := url.PathEscape(strings.ReplaceAll(q, " ", "_"))
	plus := url.QueryEscape(q)
	r := strings.NewReplacer("{underscore}", underscore, "{plus}", plus)
	return e.Base + r.Replace(e.Pattern)
}

// Host returns the host part of Base.
func (e Entry) Host() string {
	u, err := url.Parse(e.Base)
	if err != nil || u.Host == "" {
		return e.Base
	}
	return u.Host
}

// DefaultEntries lists German reference and public-institution sites in the
// order they are tried.
func DefaultEntries() []Entry {
	entries := []Entry{
		{Base: "https://de.wikipedia.org/", Pattern: "wiki/{underscore}"},
		{Base: "https://de.wikipedia.org/", Pattern: "w/index.php?search={plus}"},
		{Base: "https://www.spektrum.de/lexikon/", Pattern: "spektrum-a/lexikon-a/{plus}"},
		{Base: "https://docs.python.org/3/", Pattern: "search.html?q={plus}"},
	}
	for _, base := range []string{
		"https://www.bmbf.de/",
		"https://www.destatis.de/",
		"https://www.bpb.de/",
		"https://www.bundestag.de/",
		"https://www.umweltbundesamt.de/",
		"https://www.mpg.de/",
		"https://www.helmholtz.de/",
		"https://www.scinexx.de/",
		"https://www.leibniz-gemeinschaft.de/",
		"https://www.python-forum.de/",
	} {
		entries = append(entries, Entry{Base: base, Pattern: "suche?q={plus}"})
	}
	return entries
}

// PageFetcher is the subset of fetch.PageFetcher the resolver needs.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, proxy string) fetch.Outcome
}

// Candidate is an accepted whitelist page.
type Candidate struct {
	Title string
	URL   string
	Text  string
}

// Attempt records one tried entry.
type Attempt struct {
	URL     string
	Kind    fetch.Kind
	Reason  string
	Skipped bool // not fetched, e.g. host forbidden earlier
}

// Resolver walks Entries in order. It applies no blacklist; the entry list
// itself is trusted.
type Resolver struct {
	Entries []Entry
	Fetcher PageFetcher
	Pacer   *pace.Pacer
	Delay   pace.Range
	// Skip, when set, is consulted before fetching a URL and returns a
	// reason to skip it.
	Skip func(rawURL string) string
}

// Resolve tries every entry until one yields accepted text. It stops early
// when ctx is done; the caller inspects ctx to tell cancellation apart from
// exhaustion.
func (r *Resolver) Resolve(ctx context.Context, query string) (Candidate, bool, []Attempt) {
	var attempts []Attempt
	for _, e := range r.Entries {
		if ctx.Err() != nil {
			break
		}
		u := e.URL(query)
		if r.Skip != nil {
			if reason := r.Skip(u); reason != "" {
				attempts = append(attempts, Attempt{URL: u, Kind: fetch.Failed, Reason: reason, Skipped: true})
				continue
			}
		}
		if _, err := r.Pacer.Wait(ctx, r.Delay); err != nil {
			break
		}
		log.Info().Str("url", u).Msg("trying whitelist source")
		out := r.Fetcher.Fetch(ctx, u, "")
		attempts = append(attempts, Attempt{URL: u, Kind: out.Kind, Reason: out.Reason})
		if out.OK() {
			return Candidate{Title: "Whitelist: " + e.Host(), URL: u, Text: out.Text}, true, attempts
		}
		if out.Forbidden {
			log.Debug().Str("url", u).Msg("whitelist source forbidden")
		}
	}
	return Candidate{}, false, attempts
}
