package migrations_test

import (
	"context"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/jobboard/db"
	"github.com/Skryldev/jobboard/migrations"
)

func openSQLite(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.OpenWithDriver("sqlite3", db.DriverOptions{Database: ":memory:"}, db.Config{MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestSource_EveryDialect(t *testing.T) {
	for _, name := range []string{"postgres", "mysql", "sqlite3"} {
		t.Run(name, func(t *testing.T) {
			src, err := migrations.Source(name)
			require.NoError(t, err)
			defer src.Close()

			first, err := src.First()
			require.NoError(t, err)
			assert.EqualValues(t, 1, first)

			next, err := src.Next(first)
			require.NoError(t, err)
			assert.EqualValues(t, 2, next)
		})
	}
}

func TestSource_Unknown(t *testing.T) {
	_, err := migrations.Source("oracle")
	assert.Error(t, err)
}

func TestUp_SQLite(t *testing.T) {
	d := openSQLite(t)
	require.NoError(t, migrations.Up(d))
	// second run is a no-op
	require.NoError(t, migrations.Up(d))

	ctx := context.Background()
	var n int
	require.NoError(t, d.QueryRow(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('companies', 'jobs')`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestDown_SQLite(t *testing.T) {
	d := openSQLite(t)
	m, err := migrations.New(d)
	require.NoError(t, err)

	require.NoError(t, m.Up())
	v, dirty, err := m.Version()
	require.NoError(t, err)
	assert.EqualValues(t, 2, v)
	assert.False(t, dirty)

	require.NoError(t, m.Steps(-1))
	v, _, err = m.Version()
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)

	require.NoError(t, m.Down())
	_, _, err = m.Version()
	assert.ErrorIs(t, err, migrate.ErrNilVersion)
}

func TestDrop_SQLite(t *testing.T) {
	d := openSQLite(t)
	m, err := migrations.New(d)
	require.NoError(t, err)
	require.NoError(t, m.Up())

	ctx := context.Background()
	var n int
	require.NoError(t, d.QueryRow(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name LIKE 'sqlite_%'`).Scan(&n))
	assert.Zero(t, n, "schema must not create internal sqlite tables")

	require.NoError(t, m.Drop())
	require.NoError(t, d.QueryRow(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('companies', 'jobs')`).Scan(&n))
	assert.Zero(t, n)
}
