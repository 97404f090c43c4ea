// Package migrations embeds the schema for every supported dialect and runs
// it with golang-migrate.
package migrations

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/Skryldev/jobboard/db"
)

//go:embed postgres/*.sql mysql/*.sql sqlite3/*.sql
var files embed.FS

// Source returns the embedded migrations for a dialect name ("postgres",
// "mysql" or "sqlite3").
func Source(dialect string) (source.Driver, error) {
	src, err := iofs.New(files, dialect)
	if err != nil {
		return nil, fmt.Errorf("migrations: no source for %q: %w", dialect, err)
	}
	return src, nil
}

// New returns a Migrate instance running on d's own pool.
//
// Closing the returned instance closes d as well.
func New(d *db.DB) (*migrate.Migrate, error) {
	name := d.Dialect().Name()
	src, err := Source(name)
	if err != nil {
		return nil, err
	}

	var drv database.Driver
	switch name {
	case "postgres":
		drv, err = migratepg.WithInstance(d.Raw(), &migratepg.Config{})
	case "mysql":
		drv, err = migratemysql.WithInstance(d.Raw(), &migratemysql.Config{})
	case "sqlite3":
		drv, err = migratesqlite.WithInstance(d.Raw(), &migratesqlite.Config{})
	default:
		err = fmt.Errorf("unsupported dialect %q", name)
	}
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("migrations: database driver: %w", err)
	}

	return migrate.NewWithInstance("iofs", src, name, drv)
}

// Up applies every pending migration. An up-to-date schema is not an error.
func Up(d *db.DB) error {
	m, err := New(d)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrations: up: %w", err)
	}
	return nil
}
