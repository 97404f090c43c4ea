// Package query assembles parameterized SQL fragments. Nothing here touches
// a database: callers receive SQL text plus an ordered value list and hand
// both to the db package.
package query

import (
	"strconv"
	"strings"
)

// Dialect captures the per-database spelling differences the builders care
// about.
type Dialect interface {
	// Name is the database/sql driver family, e.g. "postgres".
	Name() string
	// Placeholder returns the marker for the n-th (1-based) bound value.
	Placeholder(n int) string
	// QuoteIdent quotes a column or table name, escaping embedded quotes.
	QuoteIdent(name string) string
	// ILike is the case-insensitive LIKE operator.
	ILike() string
	// LikeEscape is appended after a LIKE operand so a backslash escapes
	// the pattern metacharacters. Empty where backslash is already the
	// default escape.
	LikeEscape() string
	// Returning reports whether INSERT/UPDATE ... RETURNING is available.
	Returning() bool
}

type markStyle uint8

const (
	markDollar   markStyle = iota // $1
	markNumbered                  // ?1
	markAnon                      // ?
)

type dialect struct {
	name      string
	mark      markStyle
	quote     string
	ilike     string
	escape    string
	returning bool
}

func (d dialect) Name() string    { return d.name }
func (d dialect) ILike() string      { return d.ilike }
func (d dialect) LikeEscape() string { return d.escape }
func (d dialect) Returning() bool    { return d.returning }

func (d dialect) Placeholder(n int) string {
	switch d.mark {
	case markNumbered:
		return "?" + strconv.Itoa(n)
	case markAnon:
		return "?"
	default:
		return "$" + strconv.Itoa(n)
	}
}

func (d dialect) QuoteIdent(name string) string {
	return d.quote + strings.ReplaceAll(name, d.quote, d.quote+d.quote) + d.quote
}

var (
	// Postgres serves both lib/pq and pgx.
	Postgres Dialect = dialect{name: "postgres", mark: markDollar, quote: `"`, ilike: "ILIKE", returning: true}

	// SQLite uses numbered ?NNN markers so values bind by position.
	// LIKE there has no escape character unless one is named.
	SQLite Dialect = dialect{name: "sqlite3", mark: markNumbered, quote: `"`, ilike: "LIKE", escape: ` ESCAPE '\'`, returning: true}

	// MySQL markers are anonymous; values bind in order of appearance.
	MySQL Dialect = dialect{name: "mysql", mark: markAnon, quote: "`", ilike: "LIKE"}
)
