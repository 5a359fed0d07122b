package serp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/fbarthel/serpd/internal/scraper"
)

// GoogleConfig tunes the Google provider.
type GoogleConfig struct {
	// BaseURL of the search frontend. Defaults to https://www.google.com;
	// tests point it at a local server.
	BaseURL string
	// Concurrency bounds simultaneous page fetches.
	Concurrency int
	// RespectRobots consults the frontend's robots.txt before each page.
	RespectRobots bool
	// RobotsAgent is the User-Agent name matched against robots.txt groups.
	RobotsAgent string
}

// Google scrapes result pages from the classic Google HTML frontend.
type Google struct {
	cfg     GoogleConfig
	fetcher *scraper.Fetcher
	auditor *scraper.RobotsAuditor
	logger  *slog.Logger
}

var _ Provider = (*Google)(nil)

// NewGoogle creates the provider around an existing fetcher, which
// carries the retry, pacing, and fingerprint configuration.
func NewGoogle(cfg GoogleConfig, fetcher *scraper.Fetcher, logger *slog.Logger) *Google {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.google.com"
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if cfg.RobotsAgent == "" {
		cfg.RobotsAgent = "*"
	}
	if logger == nil {
		logger = slog.Default()
	}

	var auditor *scraper.RobotsAuditor
	if cfg.RespectRobots {
		auditor = scraper.NewRobotsAuditor(fetcher, logger)
	}

	return &Google{
		cfg:     cfg,
		fetcher: fetcher,
		auditor: auditor,
		logger:  logger,
	}
}

// Search fetches every page in the query's pagination plan and returns
// the raw collected records in ascending offset order; document order is
// preserved within a page. Callers run Normalize on the output. Any page
// failing after the fetcher's retries fails the whole search.
func (g *Google) Search(ctx context.Context, q Query) ([]Result, error) {
	plan := NewPlan(q)
	headers := plan.Headers()

	pages := make([][]Result, len(plan.Offsets))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Concurrency)

	for i, offset := range plan.Offsets {
		eg.Go(func() error {
			pageURL := plan.PageURL(g.cfg.BaseURL, offset)

			records, err := g.fetchPage(gCtx, pageURL, headers)
			if err != nil {
				return err
			}

			pages[i] = records
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var all []Result
	for _, p := range pages {
		all = append(all, p...)
	}

	g.logger.Debug("search complete", "query", q.Term, "pages", len(plan.Offsets), "collected", len(all))
	return all, nil
}

func (g *Google) fetchPage(ctx context.Context, pageURL string, headers http.Header) ([]Result, error) {
	if g.auditor != nil {
		allowed, err := g.auditor.IsAllowed(ctx, pageURL, g.cfg.RobotsAgent)
		if err != nil {
			g.logger.Warn("robots.txt check failed", "url", pageURL, "err", err)
		} else if !allowed {
			return nil, fmt.Errorf("disallowed by robots.txt: %s", pageURL)
		}
	}

	g.logger.Debug("fetching results page", "url", pageURL)

	res, err := g.fetcher.Fetch(ctx, pageURL, headers)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	if res.Blocked {
		return nil, &BlockedError{Source: res.BlockSrc, URL: pageURL}
	}
	if res.Error != "" {
		return nil, fmt.Errorf("fetch %s: %s", pageURL, res.Error)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", pageURL, res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	col := NewCollector(pageURL)
	col.Collect(doc)
	return col.Results(), nil
}
