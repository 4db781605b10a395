package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PostgresStore keeps session entries in the pos_session_cache table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	var payload string
	err := p.db.QueryRowContext(ctx, `SELECT payload FROM pos_session_cache WHERE cache_key = $1`, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("select cache entry: %w", err)
	}
	return payload, nil
}

func (p *PostgresStore) Set(ctx context.Context, key string, value string) error {
	query := `
	    INSERT INTO pos_session_cache (cache_key, payload, updated_at)
	    VALUES ($1, $2, NOW())
	    ON CONFLICT (cache_key)
	    DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
	if _, err := p.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("upsert cache entry: %w", err)
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM pos_session_cache WHERE cache_key = $1`, key); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

func (p *PostgresStore) DeletePrefix(ctx context.Context, prefix string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM pos_session_cache WHERE cache_key LIKE $1`, escapeLike(prefix)+"%"); err != nil {
		return fmt.Errorf("delete cache prefix: %w", err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
