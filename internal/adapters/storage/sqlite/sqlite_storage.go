// Package sqlite disponibiliza o storage de registros persistido em SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JeanGrijp/cardguard/internal/core/domain"
	"github.com/JeanGrijp/cardguard/internal/core/ports"
)

const schema = `CREATE TABLE IF NOT EXISTS rate_limits (
	identifier      TEXT PRIMARY KEY,
	count           INTEGER NOT NULL,
	window_reset_at INTEGER NOT NULL
)`

type Storage struct {
	db *sql.DB
}

var _ ports.Storage = (*Storage)(nil)

type Config struct {
	// Path do arquivo do banco; ":memory:" mantém tudo em memória.
	Path string
}

func New(ctx context.Context, cfg Config) (*Storage, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Uma conexão serializa as transações de Hit e mantém ":memory:" num único banco.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create rate_limits table: %w", err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) Hit(ctx context.Context, identifier string, rule domain.RateLimitRule, now time.Time) (domain.Decision, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("begin rate limit transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, found, err := getRecord(ctx, tx, identifier)
	if err != nil {
		return domain.Decision{}, err
	}

	next, decision := domain.Evaluate(current, found, identifier, rule, now)
	if !decision.Allowed {
		return decision, nil
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO rate_limits (identifier, count, window_reset_at)
		VALUES (?, ?, ?)
		ON CONFLICT (identifier) DO UPDATE SET
			count = excluded.count,
			window_reset_at = excluded.window_reset_at`,
		identifier, next.Count, next.WindowResetAt.UnixMilli())
	if err != nil {
		return domain.Decision{}, fmt.Errorf("upsert rate limit record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Decision{}, fmt.Errorf("commit rate limit transaction: %w", err)
	}
	return decision, nil
}

func (s *Storage) Get(ctx context.Context, identifier string) (domain.RateLimitRecord, bool, error) {
	return getRecord(ctx, s.db, identifier)
}

func (s *Storage) Sweep(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rate_limits WHERE window_reset_at <= ?`, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("delete expired rate limits: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getRecord(ctx context.Context, q queryer, identifier string) (domain.RateLimitRecord, bool, error) {
	var (
		count   int64
		resetAt int64
	)
	err := q.QueryRowContext(ctx,
		`SELECT count, window_reset_at FROM rate_limits WHERE identifier = ?`, identifier,
	).Scan(&count, &resetAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RateLimitRecord{}, false, nil
	}
	if err != nil {
		return domain.RateLimitRecord{}, false, fmt.Errorf("select rate limit record: %w", err)
	}
	return domain.RateLimitRecord{
		Identifier:    identifier,
		Count:         count,
		WindowResetAt: time.UnixMilli(resetAt),
	}, true, nil
}
