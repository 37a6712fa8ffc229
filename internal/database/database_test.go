package database

import (
	"context"
	"path/filepath"
	"testing"

	"playcafe/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "playcafe.db")
	logger := zerolog.Nop()

	db, err := Open(config.DatabaseConfig{Driver: config.DriverSQLite, Path: path}, &logger)
	require.NoError(t, err)
	assert.Equal(t, config.DriverSQLite, db.Driver())
	assert.Equal(t, path, db.Path())
	require.NoError(t, db.Close())

	// Reopening runs the schema and column migration again.
	db, err = NewDB(path, &logger)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "postgres"}, nil)
	require.Error(t, err)
}

func TestEnsureColumn_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.ensureColumn(ctx, "cafes", "telegram_chat_id", "INTEGER NOT NULL DEFAULT 0"))
	require.Error(t, db.ensureColumn(ctx, "missing_table", "x", "TEXT"))
}

func TestLibsqlDSN(t *testing.T) {
	assert.Equal(t, "libsql://db.turso.io", libsqlDSN("libsql://db.turso.io", ""))
	assert.Equal(t, "libsql://db.turso.io?authToken=abc", libsqlDSN("libsql://db.turso.io", "abc"))
	assert.Equal(t, "http://localhost:8080?tls=0&authToken=abc", libsqlDSN("http://localhost:8080?tls=0", "abc"))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}
