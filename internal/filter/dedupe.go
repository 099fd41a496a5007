package filter

import (
	"net/url"
	"strings"
)

var trackingParams = []string{
	"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "utm_id",
	"gclid", "fbclid",
}

// canonicalURL is the key under which two hits count as the same page: no
// fragment, lowercase host without "www.", no tracking parameters and no
// trailing slash on the path.
func canonicalURL(u *url.URL) string {
	c := *u
	c.Fragment = ""
	c.Host = strings.TrimPrefix(strings.ToLower(c.Host), "www.")
	c.Scheme = strings.ToLower(c.Scheme)
	if c.Scheme == "http" {
		c.Scheme = "https"
	}
	q := c.Query()
	for _, p := range trackingParams {
		q.Del(p)
	}
	c.RawQuery = q.Encode()
	c.Path = strings.TrimSuffix(c.Path, "/")
	return c.String()
}
