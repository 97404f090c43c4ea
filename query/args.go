package query

import (
	"strings"

	"github.com/Skryldev/jobboard/apperr"
)

// ErrNoData is returned when a partial update names no fields.
var ErrNoData = apperr.BadRequest("No data")

// Args collects bound values and hands out their placeholders. It is the
// single owner of the placeholder counter for one statement: every fragment
// of that statement (SET, WHERE, trailing id predicate) must draw its
// placeholders from the same Args.
type Args struct {
	dialect Dialect
	values  []any
}

// NewArgs returns an empty Args for d. A nil d means Postgres.
func NewArgs(d Dialect) *Args {
	if d == nil {
		d = Postgres
	}
	return &Args{dialect: d}
}

// Add binds v and returns its placeholder.
func (a *Args) Add(v any) string {
	a.values = append(a.values, v)
	return a.dialect.Placeholder(len(a.values))
}

// Len is the number of values bound so far.
func (a *Args) Len() int { return len(a.values) }

// Values returns the bound values in placeholder order.
func (a *Args) Values() []any { return a.values }

// Dialect returns the dialect placeholders are rendered for.
func (a *Args) Dialect() Dialect { return a.dialect }

// Assignment is one field of a partial update.
type Assignment struct {
	Field string
	Value any
}

// Assignments is an ordered partial update. Order determines placeholder
// numbering.
type Assignments []Assignment

// Aliases maps a logical field name to its physical column.
type Aliases map[string]string

// Column resolves field, falling back to the field name itself.
func (al Aliases) Column(field string) string {
	if col, ok := al[field]; ok {
		return col
	}
	return field
}

// Set renders a SET clause body for updates, binding each value in order.
// It fails with ErrNoData when updates is empty.
func (a *Args) Set(updates Assignments, aliases Aliases) (string, error) {
	if len(updates) == 0 {
		return "", ErrNoData
	}
	frags := make([]string, 0, len(updates))
	for _, u := range updates {
		if u.Field == "" {
			return "", apperr.BadRequest("empty field name in update")
		}
		col := a.dialect.QuoteIdent(aliases.Column(u.Field))
		frags = append(frags, col+"="+a.Add(u.Value))
	}
	return strings.Join(frags, ", "), nil
}

// CompileSet is Set on a fresh Postgres Args, returning the clause and its
// values.
//
//	CompileSet(Assignments{{"a", 1}, {"b", 2}}, Aliases{"b": "b_col"})
//	// `"a"=$1, "b_col"=$2`, [1 2]
func CompileSet(updates Assignments, aliases Aliases) (string, []any, error) {
	args := NewArgs(Postgres)
	set, err := args.Set(updates, aliases)
	if err != nil {
		return "", nil, err
	}
	return set, args.Values(), nil
}
