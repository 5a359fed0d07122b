package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fbarthel/serpd/internal/history"
)

var _ history.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS searches (
	id TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	pages INTEGER NOT NULL,
	lang TEXT NOT NULL,
	results INTEGER NOT NULL,
	duration_ms BIGINT NOT NULL,
	error TEXT,
	created_at TIMESTAMPTZ NOT NULL
);
`

// New creates a Postgres-backed history.Backend.
func New(ctx context.Context, dsn string) (history.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &postgresBackend{pool: pool}, nil
}

func (b *postgresBackend) Save(ctx context.Context, rec *history.Record) error {
	query := `
	INSERT INTO searches (id, query, pages, lang, results, duration_ms, error, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := b.pool.Exec(ctx, query,
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

func (b *postgresBackend) Query(ctx context.Context, filter history.Filter) ([]*history.Record, error) {
	query := `SELECT id, query, pages, lang, results, duration_ms, error, created_at FROM searches WHERE 1=1`
	args := []any{}
	arg := 0

	if filter.Query != "" {
		arg++
		query += fmt.Sprintf(` AND query = $%d`, arg)
		args = append(args, filter.Query)
	}
	if filter.Since != nil {
		arg++
		query += fmt.Sprintf(` AND created_at >= $%d`, arg)
		args = append(args, *filter.Since)
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		arg++
		query += fmt.Sprintf(` LIMIT $%d`, arg)
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		arg++
		query += fmt.Sprintf(` OFFSET $%d`, arg)
		args = append(args, filter.Offset)
	}

	rows, err := b.pool.Query(ctx, query, args...)
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

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}
