package serp

import (
	"context"
	"fmt"
)

// PageSize is how many organic results Google serves per page; it drives
// both pagination offsets and the normalizer's output cap.
const PageSize = 10

// Result is one normalized search-result entry returned to the API
// caller. Link and Snippet are omitted from JSON when the collector
// could not extract them.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link,omitempty"`
	Snippet string `json:"snippet,omitempty"`
	Source  string `json:"source"`
}

// Query is a validated search request.
type Query struct {
	Term  string
	Pages int
	Lang  string
}

// Provider abstracts a search engine that can return result records for
// a query. Implementations may scrape, call official APIs, or stub.
type Provider interface {
	Search(ctx context.Context, q Query) ([]Result, error)
}

// BlockedError reports that the engine refused to serve a results page,
// identifying which protection layer intervened.
type BlockedError struct {
	Source string
	URL    string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("request blocked by %s fetching %s", e.Source, e.URL)
}
