package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "pos", Password: "secret", Name: "pos_cache", SSLMode: "disable"}
	require.Equal(t, "host=db port=5432 user=pos password=secret dbname=pos_cache sslmode=disable", cfg.DSN())
}

func TestApplySchemaCreatesCacheTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS pos_session_cache`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, applySchema(context.Background(), db, ""))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPurgeStale(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM pos_session_cache WHERE updated_at < \$1`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := PurgeStale(context.Background(), db, 12*time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 4, n)
	require.NoError(t, mock.ExpectationsWereMet())
}
