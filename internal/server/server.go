package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/fbarthel/serpd/internal/search"
)

// Config carries the server-level settings.
type Config struct {
	Port       int
	Dev        bool
	CORS       bool
	CORSOrigin string
}

// Server is the API front: stateless request/response, one search
// service call per /search request.
type Server struct {
	cfg    Config
	svc    *search.Service
	logger *slog.Logger
	srv    *http.Server
}

// New assembles the server around a search service.
func New(cfg Config, svc *search.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{cfg: cfg, svc: svc, logger: logger}
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the route table. Exposed so tests can drive the server
// through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("/", s.handleNotFound)

	var handler http.Handler = mux
	if s.cfg.CORS {
		c := cors.New(cors.Options{
			AllowedOrigins: []string{s.cfg.CORSOrigin},
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		})
		handler = c.Handler(handler)
	}

	return s.withRequestID(s.withRecovery(handler))
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info("api server listening", "addr", s.srv.Addr)
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// withRequestID tags every request with a uuid, echoed in the
// X-Request-Id response header and attached to log lines.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(contextWithRequestID(r.Context(), id)))
	})
}

// withRecovery converts panics into a generic 500 envelope. Stack detail
// reaches the client only in dev mode.
func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic serving request", "path", r.URL.Path, "panic", rec)

				resp := errorResponse{
					Success: false,
					Error:   "internal server error",
					Message: "An unexpected error occurred.",
				}
				if s.cfg.Dev {
					resp.Detail = fmt.Sprint(rec)
				}
				writeJSON(w, http.StatusInternalServerError, resp)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

func contextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request's id, or "" outside a request.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}
