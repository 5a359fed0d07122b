package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/fbarthel/serpd/internal/history"
)

func TestPostgresBackend(t *testing.T) {
	// Only runs against a real database.
	dsn := os.Getenv("SERPD_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("Skipping Postgres backend test: SERPD_TEST_PG_DSN not set")
	}

	ctx := context.Background()
	b, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to create Postgres backend: %v", err)
	}
	defer b.Close()

	rec := &history.Record{
		ID:        "pg-test-1",
		Query:     "postgres history",
		Pages:     3,
		Lang:      "en",
		Results:   28,
		Duration:  12 * time.Second,
		CreatedAt: time.Now().UTC(),
	}

	if err := b.Save(ctx, rec); err != nil {
		t.Fatalf("failed to save record: %v", err)
	}

	records, err := b.Query(ctx, history.Filter{Query: "postgres history", Limit: 1})
	if err != nil {
		t.Fatalf("failed to query records: %v", err)
	}
	if len(records) < 1 {
		t.Fatalf("expected at least 1 record, got %d", len(records))
	}

	got := records[0]
	if got.Query != rec.Query || got.Pages != rec.Pages {
		t.Errorf("round-trip mismatch: %+v", got)
	}
}
