package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fbarthel/serpd/internal/history"
	"github.com/fbarthel/serpd/internal/metrics"
	"github.com/fbarthel/serpd/internal/serp"
)

// ErrEmptyQuery rejects requests whose trimmed query is empty. It is
// detected before any network activity.
var ErrEmptyQuery = errors.New("query must not be empty")

// Outcome is the result of one search invocation.
type Outcome struct {
	Query   string
	Pages   int
	Lang    string
	Results []serp.Result
}

// Service runs the search flow: validate, scrape, normalize, record.
type Service struct {
	provider serp.Provider
	backend  history.Backend
	maxPages int
	logger   *slog.Logger
}

// New wires a Service. A nil backend disables history; maxPages <= 0
// means no clamp.
func New(provider serp.Provider, backend history.Backend, maxPages int, logger *slog.Logger) *Service {
	if backend == nil {
		backend = history.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		provider: provider,
		backend:  backend,
		maxPages: maxPages,
		logger:   logger,
	}
}

// Run validates the raw request, scrapes, and normalizes. Validation
// failures return before the provider is touched.
func (s *Service) Run(ctx context.Context, rawQuery string, pages int, lang string) (*Outcome, error) {
	term := strings.TrimSpace(rawQuery)
	if term == "" {
		metrics.SearchesTotal.WithLabelValues("invalid").Inc()
		return nil, ErrEmptyQuery
	}

	if pages < 1 {
		pages = 1
	}
	if s.maxPages > 0 && pages > s.maxPages {
		pages = s.maxPages
	}
	if lang == "" {
		lang = "en"
	}

	q := serp.Query{Term: term, Pages: pages, Lang: lang}
	start := time.Now()

	collected, err := s.provider.Search(ctx, q)
	duration := time.Since(start)

	if err != nil {
		metrics.RecordSearch("error", duration, 0)
		s.record(ctx, q, 0, duration, err)
		return nil, err
	}

	results := serp.Normalize(collected, pages)

	metrics.RecordSearch("ok", duration, len(results))
	s.record(ctx, q, len(results), duration, nil)

	s.logger.Info("search served",
		"query", term, "pages", pages, "lang", lang,
		"collected", len(collected), "returned", len(results),
		"duration", duration)

	return &Outcome{Query: term, Pages: pages, Lang: lang, Results: results}, nil
}

// record appends the invocation to the history backend. History is an
// audit trail: failures are logged and never surfaced to the caller.
func (s *Service) record(ctx context.Context, q serp.Query, results int, duration time.Duration, searchErr error) {
	rec := &history.Record{
		ID:        uuid.New().String(),
		Query:     q.Term,
		Pages:     q.Pages,
		Lang:      q.Lang,
		Results:   results,
		Duration:  duration,
		CreatedAt: time.Now().UTC(),
	}
	if searchErr != nil {
		rec.Error = searchErr.Error()
	}

	// The record should survive a client hangup mid-response.
	if err := s.backend.Save(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Error("failed to record search history", "query", q.Term, "err", err)
	}
}
