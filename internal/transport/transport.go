package transport

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Pool hands out HTTP clients keyed by proxy URL. The empty proxy means a
// direct connection (no environment proxy either, so runs are reproducible).
// Clients are created once per proxy and reused so keep-alive connections
// survive across tiers.
type Pool struct {
	// Timeout bounds a whole request including redirects and body read.
	Timeout time.Duration
	// CheckRedirect is installed on every client.
	CheckRedirect func(req *http.Request, via []*http.Request) error
	// Base, when set, is used for direct connections instead of building a
	// transport. Tests inject httptest clients here.
	Base *http.Client

	mu      sync.Mutex
	clients map[string]*http.Client
}

// Client returns the client for proxy, creating it on first use.
func (p *Pool) Client(proxy string) (*http.Client, error) {
	proxy = strings.TrimSpace(proxy)
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[proxy]; ok {
		return c, nil
	}
	var c *http.Client
	if proxy == "" && p.Base != nil {
		cp := *p.Base
		if p.CheckRedirect != nil {
			cp.CheckRedirect = p.CheckRedirect
		}
		if p.Timeout > 0 {
			cp.Timeout = p.Timeout
		}
		c = &cp
	} else {
		tr, err := newTransport(proxy)
		if err != nil {
			return nil, err
		}
		c = &http.Client{Transport: tr, Timeout: p.Timeout, CheckRedirect: p.CheckRedirect}
	}
	if p.clients == nil {
		p.clients = make(map[string]*http.Client)
	}
	p.clients[proxy] = c
	return c, nil
}

// ParseProxy validates a proxy URL. Only http, https and socks5 are accepted.
func ParseProxy(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("parse proxy: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "socks5":
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("proxy host is empty")
	}
	return u, nil
}

func newTransport(proxy string) (*http.Transport, error) {
	tr := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if proxy != "" {
		u, err := ParseProxy(proxy)
		if err != nil {
			return nil, err
		}
		tr.Proxy = http.ProxyURL(u)
	}
	return tr, nil
}
