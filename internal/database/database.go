package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"pos_tables_backend/pkg/utils"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Config holds the PostgreSQL connection settings.
type Config struct {
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SchemaPath string
}

// DSN builds the lib/pq connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

const sessionCacheSchema = `
CREATE TABLE IF NOT EXISTS pos_session_cache (
    cache_key  TEXT PRIMARY KEY,
    payload    TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS pos_session_cache_updated_at_idx ON pos_session_cache (updated_at);`

// InitDB opens the connection pool, checks it, and makes sure the session cache table exists.
func InitDB(ctx context.Context, cfg Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	utils.LogInfo("Successfully connected to the database", map[string]interface{}{"host": cfg.Host, "db": cfg.Name})

	if err := applySchema(ctx, db, cfg.SchemaPath); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// applySchema creates the session cache table, then runs the optional extra schema file.
func applySchema(ctx context.Context, db *sql.DB, schemaPath string) error {
	if _, err := db.ExecContext(ctx, sessionCacheSchema); err != nil {
		return fmt.Errorf("could not create session cache table: %w", err)
	}
	if schemaPath == "" {
		return nil
	}
	content, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("could not read schema file %s: %w", schemaPath, err)
	}
	if _, err = db.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("could not execute schema script: %w", err)
	}
	utils.LogInfo("Database schema applied", map[string]interface{}{"path": schemaPath})
	return nil
}

// PurgeStale deletes cache rows untouched for longer than maxAge.
// Sessions that were never closed would otherwise linger in the table.
func PurgeStale(ctx context.Context, db *sql.DB, maxAge time.Duration) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM pos_session_cache WHERE updated_at < $1`, time.Now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("purge stale session cache rows: %w", err)
	}
	return res.RowsAffected()
}
