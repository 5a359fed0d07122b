package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fbarthel/serpd/internal/search"
	"github.com/fbarthel/serpd/internal/serp"
)

var endpoints = []string{"GET /", "GET /search?q=&pages=&lang=", "GET /health"}

type searchResponse struct {
	Success      bool          `json:"success"`
	Query        string        `json:"query"`
	Pages        int           `json:"pages"`
	TotalResults int           `json:"totalResults"`
	Timestamp    string        `json:"timestamp"`
	Results      []serp.Result `json:"results"`
}

type errorResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

type notFoundResponse struct {
	Success   bool     `json:"success"`
	Error     string   `json:"error"`
	Endpoints []string `json:"endpoints"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":     "serpd",
		"description": "Google search results as JSON",
		"usage":       "/search?q=<query>&pages=<n>&lang=<code>",
		"endpoints":   endpoints,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "serpd",
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, notFoundResponse{
		Success:   false,
		Error:     "route not found: " + r.URL.Path,
		Endpoints: endpoints,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	pages := 1
	if raw := r.URL.Query().Get("pages"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			pages = n
		}
	}
	lang := r.URL.Query().Get("lang")

	out, err := s.svc.Run(r.Context(), q, pages, lang)
	if err != nil {
		s.writeSearchError(w, r, err)
		return
	}

	results := out.Results
	if results == nil {
		results = []serp.Result{}
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Success:      true,
		Query:        out.Query,
		Pages:        out.Pages,
		TotalResults: len(results),
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Results:      results,
	})
}

func (s *Server) writeSearchError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, search.ErrEmptyQuery) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Success: false,
			Error:   "validation error",
			Message: "Query parameter 'q' is required and must not be empty.",
		})
		return
	}

	s.logger.Error("search failed",
		"request_id", RequestID(r.Context()), "query", r.URL.Query().Get("q"), "err", err)

	resp := errorResponse{
		Success:    false,
		Error:      "scrape failed",
		Message:    err.Error(),
		Suggestion: "Retry the request, or reduce the page count.",
	}

	var blocked *serp.BlockedError
	if errors.As(err, &blocked) {
		resp.Error = "scrape blocked"
		resp.Suggestion = "The search engine challenged the request. Wait before retrying, or configure proxies."
	}

	if !s.cfg.Dev {
		// Outside dev mode the raw upstream error stays in the logs.
		resp.Message = "Failed to fetch search results."
	}

	writeJSON(w, http.StatusInternalServerError, resp)
}
