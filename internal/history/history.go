package history

import (
	"context"
	"time"
)

// Record is one completed search invocation. Only the invocation itself
// is retained; the extracted result records are never persisted.
type Record struct {
	ID        string        `json:"id"`
	Query     string        `json:"query"`
	Pages     int           `json:"pages"`
	Lang      string        `json:"lang"`
	Results   int           `json:"results"`
	Duration  time.Duration `json:"duration_ms"`
	Error     string        `json:"error,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Filter narrows a history query.
type Filter struct {
	Query  string
	Since  *time.Time
	Limit  int
	Offset int
}

// Backend stores and queries search history records.
type Backend interface {
	Save(ctx context.Context, rec *Record) error
	Query(ctx context.Context, filter Filter) ([]*Record, error)
	Close() error
}

// Nop is a Backend that discards everything; used when history is
// disabled in configuration.
type Nop struct{}

var _ Backend = Nop{}

func (Nop) Save(ctx context.Context, rec *Record) error { return nil }

func (Nop) Query(ctx context.Context, filter Filter) ([]*Record, error) { return nil, nil }

func (Nop) Close() error { return nil }
