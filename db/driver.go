package db

import (
	"fmt"
	"maps"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/go-sql-driver/mysql"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Skryldev/jobboard/query"
)

// ─────────────────────────────────────────────────────────────────────────────
// Driver
// ─────────────────────────────────────────────────────────────────────────────

// Driver bundles what differs between databases: DSN construction, error
// mapping and SQL dialect.
type Driver interface {
	// Name is the database/sql driver name, e.g. "pgx", "mysql".
	Name() string

	// DSN converts structured options into the driver's DSN format.
	DSN(opts DriverOptions) (string, error)

	// ErrorMapper returns a mapper tuned to this driver's error types.
	ErrorMapper() ErrorMapper

	// Dialect is the placeholder/quoting style statements must use.
	Dialect() query.Dialect

	// Register ensures the driver is registered with database/sql. It must
	// be idempotent.
	Register()
}

// DriverOptions carries connection parameters in driver-agnostic form.
type DriverOptions struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	// Extra holds driver-specific parameters, appended in key order.
	Extra map[string]string
}

// ─────────────────────────────────────────────────────────────────────────────
// Registry
// ─────────────────────────────────────────────────────────────────────────────

var (
	driversMu sync.RWMutex
	drivers   = map[string]Driver{}
)

// RegisterDriver adds or replaces d in the registry.
func RegisterDriver(d Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[d.Name()] = d
}

// LookupDriver returns the registered Driver by name.
func LookupDriver(name string) (Driver, error) {
	driversMu.RLock()
	defer driversMu.RUnlock()
	d, ok := drivers[name]
	if !ok {
		return nil, fmt.Errorf("jobboard/db: driver %q not registered", name)
	}
	return d, nil
}

// OpenWithDriver builds the DSN from opts through the named driver and opens
// it.
//
//	d, err := db.OpenWithDriver("pgx", db.DriverOptions{
//	    Host: "localhost", User: "jobboard", Database: "jobboard",
//	}, db.Config{MaxOpenConns: 25})
func OpenWithDriver(driverName string, opts DriverOptions, cfg Config) (*DB, error) {
	drv, err := LookupDriver(driverName)
	if err != nil {
		return nil, err
	}
	dsn, err := drv.DSN(opts)
	if err != nil {
		return nil, fmt.Errorf("jobboard/db: DSN construction failed: %w", err)
	}
	cfg.DriverName = drv.Name()
	cfg.DSN = dsn
	return Open(cfg)
}

func init() {
	RegisterDriver(PostgresDriver{})
	RegisterDriver(PgxDriver{})
	RegisterDriver(MySQLDriver{})
	RegisterDriver(SQLiteDriver{})
}

func sortedExtra(extra map[string]string) []string {
	return slices.Sorted(maps.Keys(extra))
}

// ─────────────────────────────────────────────────────────────────────────────
// PostgreSQL (lib/pq)
// ─────────────────────────────────────────────────────────────────────────────

// PostgresDriver is the lib/pq adapter.
type PostgresDriver struct{}

func (PostgresDriver) Name() string { return "postgres" }

// DSN renders a key=value connection string, quoting values as libpq
// expects.
func (PostgresDriver) DSN(o DriverOptions) (string, error) {
	if o.Host == "" || o.Database == "" {
		return "", fmt.Errorf("postgres driver: Host and Database are required")
	}
	port := o.Port
	if port == 0 {
		port = 5432
	}
	sslMode := o.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	parts := []string{
		"host=" + pqQuote(o.Host),
		"port=" + strconv.Itoa(port),
		"dbname=" + pqQuote(o.Database),
		"sslmode=" + pqQuote(sslMode),
	}
	if o.User != "" {
		parts = append(parts, "user="+pqQuote(o.User))
	}
	if o.Password != "" {
		parts = append(parts, "password="+pqQuote(o.Password))
	}
	for _, k := range sortedExtra(o.Extra) {
		parts = append(parts, k+"="+pqQuote(o.Extra[k]))
	}
	return strings.Join(parts, " "), nil
}

func pqQuote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func (PostgresDriver) ErrorMapper() ErrorMapper { return ErrorMapperFunc(pqOnly) }
func (PostgresDriver) Dialect() query.Dialect   { return query.Postgres }
func (PostgresDriver) Register()                {}

func pqOnly(err error) error {
	if m := mapPQError(err); m != nil {
		return m
	}
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// PostgreSQL (pgx stdlib)
// ─────────────────────────────────────────────────────────────────────────────

// PgxDriver is the jackc/pgx adapter. Its DSN is a postgres:// URL.
type PgxDriver struct{}

func (PgxDriver) Name() string { return "pgx" }

func (PgxDriver) DSN(o DriverOptions) (string, error) {
	if o.Host == "" || o.Database == "" {
		return "", fmt.Errorf("pgx driver: Host and Database are required")
	}
	port := o.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(o.Host, strconv.Itoa(port)),
		Path:   "/" + o.Database,
	}
	if o.User != "" {
		u.User = url.UserPassword(o.User, o.Password)
	}
	q := url.Values{}
	sslMode := o.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	q.Set("sslmode", sslMode)
	for _, k := range sortedExtra(o.Extra) {
		q.Set(k, o.Extra[k])
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (PgxDriver) ErrorMapper() ErrorMapper { return ErrorMapperFunc(pgxOnly) }
func (PgxDriver) Dialect() query.Dialect   { return query.Postgres }
func (PgxDriver) Register()                {}

func pgxOnly(err error) error {
	if m := mapPGXError(err); m != nil {
		return m
	}
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// MySQL
// ─────────────────────────────────────────────────────────────────────────────

// MySQLDriver is the go-sql-driver/mysql adapter.
type MySQLDriver struct{}

func (MySQLDriver) Name() string { return "mysql" }

func (MySQLDriver) DSN(o DriverOptions) (string, error) {
	if o.Host == "" || o.Database == "" {
		return "", fmt.Errorf("mysql driver: Host and Database are required")
	}
	port := o.Port
	if port == 0 {
		port = 3306
	}
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(o.Host, strconv.Itoa(port))
	cfg.User = o.User
	cfg.Passwd = o.Password
	cfg.DBName = o.Database
	cfg.ParseTime = true
	// RowsAffected counts matched rows, so an UPDATE that changes nothing
	// is not mistaken for a missing row.
	cfg.ClientFoundRows = true
	if len(o.Extra) > 0 {
		cfg.Params = maps.Clone(o.Extra)
	}
	return cfg.FormatDSN(), nil
}

func (MySQLDriver) ErrorMapper() ErrorMapper { return ErrorMapperFunc(mysqlOnly) }
func (MySQLDriver) Dialect() query.Dialect   { return query.MySQL }
func (MySQLDriver) Register()                {}

func mysqlOnly(err error) error {
	if m := mapMySQLError(err); m != nil {
		return m
	}
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// SQLite
// ─────────────────────────────────────────────────────────────────────────────

// SQLiteDriver is the mattn/go-sqlite3 adapter. Database is the file path
// (or ":memory:"); foreign keys are switched on unless Extra says otherwise.
type SQLiteDriver struct{}

func (SQLiteDriver) Name() string { return "sqlite3" }

func (SQLiteDriver) DSN(o DriverOptions) (string, error) {
	if o.Database == "" {
		return "", fmt.Errorf("sqlite3 driver: Database (file path) is required")
	}
	params := url.Values{}
	params.Set("_foreign_keys", "on")
	for _, k := range sortedExtra(o.Extra) {
		params.Set(k, o.Extra[k])
	}
	return "file:" + o.Database + "?" + params.Encode(), nil
}

func (SQLiteDriver) ErrorMapper() ErrorMapper { return ErrorMapperFunc(sqliteOnly) }
func (SQLiteDriver) Dialect() query.Dialect   { return query.SQLite }
func (SQLiteDriver) Register()                {}

func sqliteOnly(err error) error {
	if m := mapSQLiteError(err); m != nil {
		return m
	}
	return err
}
