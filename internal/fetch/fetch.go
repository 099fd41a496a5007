package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hyperifyio/goknowledge/internal/cache"
	"github.com/hyperifyio/goknowledge/internal/extract"
	"github.com/hyperifyio/goknowledge/internal/pace"
	"github.com/hyperifyio/goknowledge/internal/transport"
	"github.com/hyperifyio/goknowledge/internal/validate"
	"github.com/rs/zerolog/log"
)

// Defaults for page retrieval.
const (
	DefaultTimeout        = 20 * time.Second
	DefaultMaxRedirects   = 5
	DefaultMaxBodyBytes   = 8 << 20
	DefaultReferer        = "https://duckduckgo.com/"
	DefaultAcceptLanguage = "de-DE,de;q=0.9,en-US;q=0.8,en;q=0.7"
)

// DefaultUserAgents is the rotation pool of desktop browser identities.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
}

// PageFetcher retrieves one URL and turns it into validated main-content
// text. The zero value is usable; unset fields take the defaults above.
type PageFetcher struct {
	// Clients supplies HTTP clients per proxy. When nil a pool with the
	// redirect policy is created on first use.
	Clients        *transport.Pool
	UserAgents     []string
	Referer        string
	AcceptLanguage string
	// Timeout bounds one fetch including the body read.
	Timeout      time.Duration
	MaxRedirects int
	MaxBodyBytes int64

	// Pacer and Delay add a randomized wait before every request. A nil
	// Pacer or zero Delay disables it.
	Pacer *pace.Pacer
	Delay pace.Range

	Extractor extract.Extractor
	Validator *validate.Validator

	// Optional on-disk cache for HTTP bodies with conditional revalidation.
	Cache       *cache.PageCache
	BypassCache bool

	poolOnce sync.Once
	pool     *transport.Pool
}

// Fetch retrieves url through proxy ("" for direct). It never returns an
// error; every failure is described by the Outcome.
func (f *PageFetcher) Fetch(ctx context.Context, rawURL string, proxy string) Outcome {
	out := Outcome{URL: rawURL}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !isHTTPScheme(u) || u.Host == "" {
		if err == nil {
			err = fmt.Errorf("unsupported URL: %q", rawURL)
		}
		return out.failed(err)
	}
	if err := ctx.Err(); err != nil {
		return out.failed(err)
	}
	if _, err := f.Pacer.Wait(ctx, f.Delay); err != nil {
		return out.failed(err)
	}

	body, err := f.get(ctx, u, proxy)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			out.Status = se.Code
			out.Forbidden = se.Code == http.StatusForbidden
		}
		log.Debug().Str("url", rawURL).Err(err).Msg("fetch failed")
		return out.failed(err)
	}

	doc := f.extractor().Extract(body, u)
	out.Title = doc.Title
	if err := f.validator().Check(doc.Text); err != nil {
		out.Kind = Rejected
		out.Err = err
		out.Reason = err.Error()
		log.Debug().Str("url", rawURL).Str("reason", out.Reason).Msg("content rejected")
		return out
	}
	out.Kind = OK
	out.Text = doc.Text
	return out
}

func (f *PageFetcher) get(ctx context.Context, u *url.URL, proxy string) ([]byte, error) {
	var meta *cache.PageMeta
	if f.Cache != nil && !f.BypassCache {
		if m, err := f.Cache.Meta(ctx, u.String()); err == nil {
			meta = m
		}
	}
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent())
	req.Header.Set("Referer", firstNonEmpty(f.Referer, DefaultReferer))
	req.Header.Set("Accept-Language", firstNonEmpty(f.AcceptLanguage, DefaultAcceptLanguage))
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	if meta != nil {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	hc, err := f.clients().Client(proxy)
	if err != nil {
		return nil, err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && meta != nil {
		body, err := f.Cache.Body(ctx, u.String())
		if err == nil {
			return body, nil
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, URL: u.String()}
	}
	ct := resp.Header.Get("Content-Type")
	if !isAllowedHTMLContentType(ct) {
		return nil, fmt.Errorf("unsupported content type: %s", ct)
	}
	limit := f.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if f.Cache != nil {
		m := cache.PageMeta{
			URL:          u.String(),
			ContentType:  ct,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := f.Cache.Put(ctx, m, body); err != nil {
			log.Warn().Err(err).Str("url", u.String()).Msg("page cache write failed")
		}
	}
	return body, nil
}

func (f *PageFetcher) clients() *transport.Pool {
	if f.Clients != nil {
		return f.Clients
	}
	f.poolOnce.Do(func() {
		f.pool = &transport.Pool{CheckRedirect: RedirectPolicy(f.MaxRedirects)}
	})
	return f.pool
}

func (f *PageFetcher) userAgent() string {
	pool := f.UserAgents
	if len(pool) == 0 {
		pool = DefaultUserAgents
	}
	return pool[f.Pacer.Intn(len(pool))]
}

func (f *PageFetcher) extractor() extract.Extractor {
	if f.Extractor == nil {
		return extract.HeuristicExtractor{}
	}
	return f.Extractor
}

func (f *PageFetcher) validator() *validate.Validator {
	if f.Validator == nil {
		return validate.Default()
	}
	return f.Validator
}

// RedirectPolicy follows at most max redirects (DefaultMaxRedirects when
// max <= 0) and only to http/https targets.
func RedirectPolicy(max int) func(req *http.Request, via []*http.Request) error {
	if max <= 0 {
		max = DefaultMaxRedirects
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if req.URL == nil || !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isAllowedHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	// Servers that omit the header are given the benefit of the doubt.
	if ct == "" {
		return true
	}
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
