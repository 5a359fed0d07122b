package jsonl

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fbarthel/serpd/internal/history"
)

func TestJSONLBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")

	b, err := New(path)
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	for i, q := range []string{"alpha", "beta", "alpha"} {
		rec := &history.Record{
			ID:        string(rune('a' + i)),
			Query:     q,
			Pages:     1,
			Lang:      "en",
			Results:   i,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := b.Save(ctx, rec); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	records, err := b.Query(ctx, history.Filter{Query: "alpha"})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 alpha records, got %d", len(records))
	}
	if records[0].Results != 2 {
		t.Errorf("expected newest record first, got %+v", records[0])
	}

	records, err = b.Query(ctx, history.Filter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record with limit/offset, got %d", len(records))
	}
}

func TestJSONLBackend_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	ctx := context.Background()

	b, err := New(path)
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	rec := &history.Record{ID: "x", Query: "persist", Pages: 1, Lang: "en", CreatedAt: time.Now().UTC()}
	if err := b.Save(ctx, rec); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	b2, err := New(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer b2.Close()

	records, err := b2.Query(ctx, history.Filter{})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(records) != 1 || records[0].Query != "persist" {
		t.Errorf("expected persisted record, got %v", records)
	}
}
