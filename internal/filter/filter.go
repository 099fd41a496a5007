// Package filter drops search hits from untrusted domains, with irrelevant
// titles or pointing at a page already listed. Ordering of the surviving hits is never changed.
package filter

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/cases"

	"github.com/hyperifyio/goknowledge/internal/search"
)

// DefaultBlacklist lists domains whose pages are rarely useful answers.
// Entries may carry a path prefix ("reddit.com/r/").
var DefaultBlacklist = []string{
	"baidu.com", "quora.com", "pinterest.com", "twitter.com", "vk.com",
	"reddit.com/r/", "youtube.com", "amazon.com", "aliexpress.com",
}

// DefaultIrrelevantKeywords are title words that indicate travel or shopping
// spam rather than knowledge content.
var DefaultIrrelevantKeywords = []string{
	"flüge", "airfare", "cheap", "reisen", "travel", "flights", "points",
}

// Skip records why a hit was dropped.
type Skip struct {
	Hit    search.Hit
	Reason string
}

type rule struct {
	entry      string
	host       string
	pathPrefix string
}

// Filter is immutable after New and safe for concurrent use.
type Filter struct {
	rules    []rule
	keywords []string
}

// New compiles blacklist entries and keywords.
func New(blacklist, irrelevantKeywords []string) *Filter {
	f := &Filter{}
	for _, e := range blacklist {
		if r, ok := parseRule(e); ok {
			f.rules = append(f.rules, r)
		}
	}
	for _, k := range irrelevantKeywords {
		k = strings.TrimSpace(k)
		if k != "" {
			f.keywords = append(f.keywords, cases.Fold().String(k))
		}
	}
	return f
}

// Default uses DefaultBlacklist and DefaultIrrelevantKeywords.
func Default() *Filter { return New(DefaultBlacklist, DefaultIrrelevantKeywords) }

func parseRule(entry string) (rule, bool) {
	e := strings.ToLower(strings.TrimSpace(entry))
	e = strings.TrimPrefix(e, "https://")
	e = strings.TrimPrefix(e, "http://")
	if e == "" {
		return rule{}, false
	}
	host, path := e, ""
	if i := strings.Index(e, "/"); i >= 0 {
		host, path = e[:i], e[i:]
	}
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return rule{}, false
	}
	if path == "/" {
		path = ""
	}
	return rule{entry: strings.TrimSpace(entry), host: host, pathPrefix: path}, true
}

func (r rule) matches(host, path string) bool {
	if host != r.host && !strings.HasSuffix(host, "."+r.host) {
		return false
	}
	return r.pathPrefix == "" || strings.HasPrefix(strings.ToLower(path), r.pathPrefix)
}

// Apply returns the hits that survive, in input order, and the dropped ones
// with their reasons. Later hits for an already kept page are dropped.
func (f *Filter) Apply(hits []search.Hit) (kept []search.Hit, skipped []Skip) {
	kept = make([]search.Hit, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		u, reason := f.check(h)
		if reason == "" {
			key := canonicalURL(u)
			if _, dup := seen[key]; dup {
				reason = "duplicate url"
			} else {
				seen[key] = struct{}{}
			}
		}
		if reason != "" {
			skipped = append(skipped, Skip{Hit: h, Reason: reason})
			continue
		}
		kept = append(kept, h)
	}
	return kept, skipped
}

func (f *Filter) check(h search.Hit) (*url.URL, string) {
	raw := strings.TrimSpace(h.URL)
	if raw == "" {
		return nil, "missing url"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return nil, "invalid url"
	}
	return u, f.reason(u, h.Title)
}

func (f *Filter) reason(u *url.URL, title string) string {
	host := strings.ToLower(u.Hostname())
	for _, r := range f.rules {
		if r.matches(host, u.Path) {
			return fmt.Sprintf("blacklisted domain (%s)", r.entry)
		}
	}
	folded := cases.Fold().String(title)
	for _, k := range f.keywords {
		if strings.Contains(folded, k) {
			return fmt.Sprintf("irrelevant title keyword (%s)", k)
		}
	}
	return ""
}
