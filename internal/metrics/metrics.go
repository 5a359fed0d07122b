package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serpd_searches_total",
			Help: "Total number of search requests handled",
		},
		[]string{"status"},
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "serpd_search_duration_seconds",
			Help:    "End-to-end duration of search requests in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	SearchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "serpd_search_results",
			Help:    "Number of results returned per search",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		},
	)

	PageFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serpd_page_fetches_total",
			Help: "Total SERP page fetch attempts",
		},
		[]string{"status", "blocked"},
	)

	PageFetchBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "serpd_page_fetch_bytes_total",
			Help: "Total bytes downloaded from SERP pages",
		},
	)

	ProxyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serpd_proxy_failures_total",
			Help: "Total proxy failures during page fetches",
		},
		[]string{"proxy_url"},
	)
)

// RecordSearch updates the search-level metrics for one /search call.
func RecordSearch(status string, duration time.Duration, results int) {
	SearchesTotal.WithLabelValues(status).Inc()
	SearchDuration.Observe(duration.Seconds())
	if status == "ok" {
		SearchResults.Observe(float64(results))
	}
}

// RecordFetch updates the fetch-level metrics for one page attempt.
func RecordFetch(statusCode int, blocked bool, failed bool, bytes int) {
	status := strconv.Itoa(statusCode)
	if failed && statusCode == 0 {
		status = "error"
	}
	PageFetchesTotal.WithLabelValues(status, strconv.FormatBool(blocked)).Inc()
	PageFetchBytes.Add(float64(bytes))
}

// Server encapsulates the standalone Prometheus endpoint. It listens on
// its own port so the API route table stays exactly /, /search, /health.
type Server struct {
	srv *http.Server
}

// Start begins serving /metrics on the given port.
func Start(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server failed: %v\n", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
