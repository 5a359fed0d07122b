package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/fbarthel/serpd/internal/bypass"
	"github.com/fbarthel/serpd/internal/fingerprint"
	"github.com/fbarthel/serpd/internal/metrics"
	"github.com/fbarthel/serpd/pkg/httpclient"
	"github.com/fbarthel/serpd/pkg/proxy"
	"github.com/fbarthel/serpd/pkg/ratelimit"
	"github.com/fbarthel/serpd/pkg/useragent"
)

type contextKey string

const proxyKey contextKey = "proxy_url"

// FetchResult is the outcome of fetching one page, attempt retries
// included. A transport-level failure is carried in Error rather than
// returned, so callers always get timing and attempt data.
type FetchResult struct {
	ID         string
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	Attempts   int
	Blocked    bool
	BlockSrc   string
	CreatedAt  time.Time
	Error      string
}

// Failed reports whether the fetch produced no usable page.
func (r *FetchResult) Failed() bool {
	return r.Error != "" || r.Blocked
}

// FetchConfig configures a Fetcher.
type FetchConfig struct {
	Timeout      time.Duration
	MaxRedirects int
	// MaxRetries is the number of additional attempts after a failed or
	// blocked fetch.
	MaxRetries   int
	UseCookieJar bool
	ProxyPool    *proxy.Pool
	UAPool       *useragent.Pool
	Fingerprint  fingerprint.Profile
	// Limiter paces attempts, first and retried alike.
	Limiter *ratelimit.Limiter
}

// Fetcher performs GET fetches with UA rotation, optional proxy rotation,
// TLS fingerprinting, and bounded retries. One Fetcher holds one client so
// cookies and pooled connections survive across requests.
type Fetcher struct {
	config FetchConfig
	client *httpclient.Client
}

// NewFetcher initializes a Fetcher from the configuration.
func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil)
	}
	if string(cfg.Fingerprint) == "" {
		cfg.Fingerprint = fingerprint.ProfileChrome
	}

	// The proxy is injected per request through the context so one shared
	// transport can rotate proxies without being rebuilt.
	proxyFunc := func(req *http.Request) (*url.URL, error) {
		if val := req.Context().Value(proxyKey); val != nil {
			if u, ok := val.(*url.URL); ok {
				return u, nil
			}
		}
		return http.ProxyFromEnvironment(req)
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint, proxyFunc)
	if err != nil {
		return nil, fmt.Errorf("setup transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		UseCookieJar: cfg.UseCookieJar,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	return &Fetcher{config: cfg, client: client}, nil
}

// Fetch GETs the target URL, retrying up to MaxRetries times when the
// transport fails or the response looks blocked. The extra headers are
// applied on top of the fetcher's defaults, so callers can shape the
// request profile (Accept-Language, Referer, fetch metadata) per target.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string, extra http.Header) (*FetchResult, error) {
	start := time.Now()

	result := &FetchResult{
		ID:        uuid.New().String(),
		URL:       targetURL,
		CreatedAt: start.UTC(),
	}

	attempts := 1 + f.config.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		result.Attempts = attempt + 1

		if f.config.Limiter != nil {
			if err := f.config.Limiter.Wait(ctx); err != nil {
				result.Error = fmt.Sprintf("rate limiter: %v", err)
				result.Duration = time.Since(start)
				return result, nil
			}
		}

		f.attempt(ctx, targetURL, extra, result)
		metrics.RecordFetch(result.StatusCode, result.Blocked, result.Error != "", len(result.Body))

		if !result.Failed() {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

// attempt performs one request and overwrites the attempt-scoped fields
// of result.
func (f *Fetcher) attempt(ctx context.Context, targetURL string, extra http.Header, result *FetchResult) {
	result.StatusCode = 0
	result.Headers = nil
	result.Body = nil
	result.Blocked = false
	result.BlockSrc = ""
	result.Error = ""

	var activeProxy *url.URL
	if f.config.ProxyPool != nil {
		activeProxy = f.config.ProxyPool.Next()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		result.Error = fmt.Sprintf("create request: %v", err)
		return
	}

	if activeProxy != nil {
		req = req.WithContext(context.WithValue(req.Context(), proxyKey, activeProxy))
	}

	req.Header.Set("User-Agent", f.config.UAPool.Next())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for key, vals := range extra {
		req.Header.Del(key)
		for _, v := range vals {
			req.Header.Add(key, v)
		}
	}

	resp, err := f.client.Do(req.Context(), req)
	if err != nil {
		if activeProxy != nil {
			_ = f.config.ProxyPool.MarkFailure(activeProxy)
			metrics.ProxyFailures.WithLabelValues(activeProxy.String()).Inc()
		}
		result.Error = fmt.Sprintf("request failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if activeProxy != nil {
		_ = f.config.ProxyPool.MarkSuccess(activeProxy)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		result.Error = fmt.Sprintf("read body: %v", err)
	}

	result.StatusCode = resp.StatusCode
	result.Headers = resp.Header
	result.Body = body

	result.Blocked, result.BlockSrc = bypass.Analyze(bypass.Page{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}, bypass.DefaultDetectors())
}
