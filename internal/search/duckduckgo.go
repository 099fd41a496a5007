package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hyperifyio/goknowledge/internal/transport"
	"golang.org/x/net/html"
)

// DefaultDuckDuckGoEndpoint is the JavaScript-free HTML frontend.
const DefaultDuckDuckGoEndpoint = "https://html.duckduckgo.com/html/"

// ErrRateLimited is returned when the engine serves a challenge page instead
// of results.
var ErrRateLimited = errors.New("search engine rate limited the request")

// DuckDuckGo scrapes the HTML results page. It honours site:/-site: operators
// because they are passed through verbatim to the engine.
type DuckDuckGo struct {
	Endpoint       string // defaults to DefaultDuckDuckGoEndpoint
	Region         string // kl parameter, e.g. "de-de"
	UserAgent      string
	AcceptLanguage string
	Clients        *transport.Pool
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

func (d *DuckDuckGo) Search(ctx context.Context, query string, limit int, proxy string) ([]Hit, error) {
	hits, err := d.search(ctx, query, limit, proxy)
	return hits, wrap(d.Name(), query, err)
}

func (d *DuckDuckGo) search(ctx context.Context, query string, limit int, proxy string) ([]Hit, error) {
	endpoint := d.Endpoint
	if endpoint == "" {
		endpoint = DefaultDuckDuckGoEndpoint
	}
	form := url.Values{}
	form.Set("q", query)
	if d.Region != "" {
		form.Set("kl", d.Region)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "https://duckduckgo.com/")
	if d.UserAgent != "" {
		req.Header.Set("User-Agent", d.UserAgent)
	}
	if d.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", d.AcceptLanguage)
	}
	hc, err := clientFor(d.Clients, proxy)
	if err != nil {
		return nil, err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("duckduckgo status: %d", resp.StatusCode)
	}
	return parseDuckDuckGo(io.LimitReader(resp.Body, 4<<20), limit)
}

// parseDuckDuckGo reads result anchors and snippets from the HTML page in
// document order. Sponsored results are skipped.
func parseDuckDuckGo(r io.Reader, limit int) ([]Hit, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse duckduckgo html: %w", err)
	}
	var (
		hits      []Hit
		challenge bool
	)
	var walk func(n *html.Node, ad bool)
	walk = func(n *html.Node, ad bool) {
		if n.Type == html.ElementNode {
			cls := attr(n, "class")
			if hasClass(cls, "result--ad") {
				ad = true
			}
			if hasClass(cls, "anomaly-modal__modal") || attr(n, "id") == "challenge-form" {
				challenge = true
			}
			switch {
			case n.Data == "a" && hasClass(cls, "result__a") && !ad:
				if u := resolveRedirect(attr(n, "href")); u != "" {
					hits = append(hits, Hit{Title: nodeText(n), URL: u, Source: "duckduckgo"})
				}
				return
			case hasClass(cls, "result__snippet") && !ad:
				if len(hits) > 0 && hits[len(hits)-1].Snippet == "" {
					hits[len(hits)-1].Snippet = nodeText(n)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, ad)
		}
	}
	walk(doc, false)
	if len(hits) == 0 && challenge {
		return nil, ErrRateLimited
	}
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return rank(hits), nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= click-tracking links and
// returns "" for anything that is not an absolute http(s) URL.
func resolveRedirect(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(u.Hostname(), "duckduckgo.com") {
		// Query().Get already decodes the target once.
		target := strings.TrimSpace(u.Query().Get("uddg"))
		if target == "" {
			return ""
		}
		u, err = url.Parse(target)
		if err != nil {
			return ""
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	if u.Host == "" {
		return ""
	}
	return u.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(classes, want string) bool {
	for _, c := range strings.Fields(classes) {
		if c == want {
			return true
		}
	}
	return false
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
