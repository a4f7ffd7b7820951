package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "sub", "prices.db"), Name: "prices"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew_CreatesDirectoryAndDefaults(t *testing.T) {
	db := newTestDB(t)

	assert.FileExists(t, db.Path())
	assert.Equal(t, "prices", db.Name())
	assert.True(t, filepath.IsAbs(db.Path()))

	var mode string
	require.NoError(t, db.Conn().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate())

	for _, table := range []string{"oil_prices", "price_calculations", "sync_runs"} {
		var name string
		err := db.Conn().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestMigrate_UnknownSchema(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "x.db"), Name: "unknown"})
	require.NoError(t, err)
	defer db.Close()

	assert.Error(t, db.Migrate())
}

func TestWithTransaction(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Migrate())

	insert := func(tx *sql.Tx, date string) error {
		_, err := tx.Exec(`INSERT INTO oil_prices (date, source, price_type, value) VALUES (?, 'EIA', 'WTI_CUSHING_SPOT', 70)`, date)
		return err
	}
	count := func() int {
		var n int
		require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM oil_prices").Scan(&n))
		return n
	}

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error { return insert(tx, "2026-01-02") })
	require.NoError(t, err)
	assert.Equal(t, 1, count())

	boom := errors.New("boom")
	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		require.NoError(t, insert(tx, "2026-01-05"))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, count())

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		require.NoError(t, insert(tx, "2026-01-06"))
		panic("bad")
	})
	assert.ErrorContains(t, err, "panic in transaction")
	assert.Equal(t, 1, count())

	assert.Error(t, WithTransaction(nil, func(*sql.Tx) error { return nil }))
}

func TestHealthChecks(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Migrate())
	ctx := context.Background()

	assert.NoError(t, db.QuickCheck(ctx))
	assert.NoError(t, db.HealthCheck(ctx))
	assert.NoError(t, db.WALCheckpoint(ctx, ""))
	assert.Error(t, db.WALCheckpoint(ctx, "NOPE"))

	stats, err := db.GetStats(ctx)
	require.NoError(t, err)
	assert.Positive(t, stats.PageCount)
	assert.Positive(t, stats.PageSize)
}

func TestBuildConnectionString(t *testing.T) {
	standard := buildConnectionString("/tmp/a.db", ProfileStandard)
	assert.Contains(t, standard, "/tmp/a.db?_pragma=journal_mode(WAL)")
	assert.Contains(t, standard, "synchronous(NORMAL)")

	cache := buildConnectionString("file:mem?mode=memory", ProfileCache)
	assert.Contains(t, cache, "file:mem?mode=memory&_pragma=journal_mode(WAL)")
	assert.Contains(t, cache, "synchronous(OFF)")
}

func TestSnapshot(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Migrate())

	ctx := context.Background()
	_, err := db.Conn().ExecContext(ctx,
		`INSERT INTO oil_prices (date, source, price_type, value) VALUES ('2026-02-27', 'EIA', 'WTI_CUSHING_SPOT', 70.25)`)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "copy.db")
	require.NoError(t, db.Snapshot(ctx, path))

	copyDB, err := New(Config{Path: path, Name: "copy"})
	require.NoError(t, err)
	defer copyDB.Close()

	var count int
	require.NoError(t, copyDB.Conn().QueryRow("SELECT COUNT(*) FROM oil_prices").Scan(&count))
	assert.Equal(t, 1, count)

	// VACUUM INTO refuses to overwrite
	assert.Error(t, db.Snapshot(ctx, path))
}
