package webenv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperifyio/goresearch-verify/internal/capability"
	"github.com/hyperifyio/goresearch-verify/internal/rerr"
)

// HTTPFetcher is a capability.DocumentFetcher backed by net/http, tuned for
// high-parallelism outbound fetches. Adapted from the teacher's
// internal/fetch.Client and internal/app.newHighThroughputHTTPClient.
type HTTPFetcher struct {
	Client            *http.Client
	UserAgent         string
	PerRequestTimeout time.Duration
	RedirectMaxHops   int
}

// NewHTTPFetcher builds an HTTPFetcher with a connection-pool-tuned
// transport, matching the teacher's newHighThroughputHTTPClient.
func NewHTTPFetcher(userAgent string, perRequestTimeout time.Duration) *HTTPFetcher {
	f := &HTTPFetcher{UserAgent: userAgent, PerRequestTimeout: perRequestTimeout, RedirectMaxHops: 5}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   1024,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	f.Client = &http.Client{
		Transport:     transport,
		CheckRedirect: f.checkRedirectFunc(),
	}
	return f
}

// Fetch retrieves a single URL, rejecting non-HTTP(S) schemes and enforcing
// the per-request timeout (spec.md 4.2).
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (capability.FetchedDocument, error) {
	u, err := url.Parse(rawURL)
	if err != nil || !isHTTPScheme(u) {
		return capability.FetchedDocument{}, fmt.Errorf("unsupported url %q: %w", rawURL, rerr.ErrPermanent)
	}

	timeout := f.PerRequestTimeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return capability.FetchedDocument{}, fmt.Errorf("new request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		// Timeouts, connection resets, and DNS hiccups are all worth a
		// retry on a later attempt.
		return capability.FetchedDocument{}, fmt.Errorf("%w: %w", rerr.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 && resp.StatusCode <= 599 {
		return capability.FetchedDocument{}, fmt.Errorf("server error %d: %w", resp.StatusCode, rerr.ErrTransient)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return capability.FetchedDocument{}, fmt.Errorf("unexpected status %d: %w", resp.StatusCode, rerr.ErrPermanent)
	}
	contentType := resp.Header.Get("Content-Type")
	if !isAllowedHTMLContentType(contentType) {
		return capability.FetchedDocument{}, fmt.Errorf("unsupported content type %s: %w", contentType, rerr.ErrPermanent)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return capability.FetchedDocument{}, fmt.Errorf("read body: %w", rerr.ErrTransient)
	}
	return capability.FetchedDocument{URL: rawURL, ContentType: contentType, Body: body}, nil
}

func (f *HTTPFetcher) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := f.RedirectMaxHops
	if max <= 0 {
		max = 5
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
	ct = strings.ToLower(ct)
	if ct == "" {
		// Some servers omit Content-Type; be permissive and let the HTML
		// parser fail closed on genuinely non-HTML bodies.
		return true
	}
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml") || strings.Contains(ct, "text/plain")
}
