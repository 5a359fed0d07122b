package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fbarthel/serpd/internal/history"
)

var _ history.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS searches (
	id TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	pages INTEGER NOT NULL,
	lang TEXT NOT NULL,
	results INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	error TEXT,
	created_at DATETIME NOT NULL
);
`

// New creates a SQLite-backed history.Backend.
func New(dsn string) (history.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Save(ctx context.Context, rec *history.Record) error {
	query := `
	INSERT INTO searches (id, query, pages, lang, results, duration_ms, error, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := b.db.ExecContext(ctx, query,
		rec.ID,
		rec.Query,
		rec.Pages,
		rec.Lang,
		rec.Results,
		rec.Duration.Milliseconds(),
		rec.Error,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert search record: %w", err)
	}
	return nil
}

func (b *sqliteBackend) Query(ctx context.Context, filter history.Filter) ([]*history.Record, error) {
	query := `SELECT id, query, pages, lang, results, duration_ms, error, created_at FROM searches WHERE 1=1`
	args := []any{}

	if filter.Query != "" {
		query += ` AND query = ?`
		args = append(args, filter.Query)
	}
	if filter.Since != nil {
		query += ` AND created_at >= ?`
		args = append(args, *filter.Since)
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query search records: %w", err)
	}
	defer rows.Close()

	var records []*history.Record
	for rows.Next() {
		var r history.Record
		var durationMs int64

		if err := rows.Scan(&r.ID, &r.Query, &r.Pages, &r.Lang, &r.Results, &durationMs, &r.Error, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan search record: %w", err)
		}

		r.Duration = time.Duration(durationMs) * time.Millisecond
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search records: %w", err)
	}
	return records, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
