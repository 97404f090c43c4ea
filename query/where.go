package query

import "strings"

// Where accumulates AND-joined predicates whose values are bound on the
// parent Args.
type Where struct {
	args  *Args
	preds []string
}

// Where starts an empty predicate list bound to a.
func (a *Args) Where() *Where { return &Where{args: a} }

// Cmp appends "<expr> <op> <placeholder>". expr and op are trusted SQL from
// the calling code; only v is caller data.
func (w *Where) Cmp(expr, op string, v any) *Where {
	w.preds = append(w.preds, expr+" "+op+" "+w.args.Add(v))
	return w
}

// Contains appends a case-insensitive substring match of s against expr.
// Wildcards in s match literally.
func (w *Where) Contains(expr, s string) *Where {
	d := w.args.Dialect()
	w.preds = append(w.preds, expr+" "+d.ILike()+" "+w.args.Add(ContainsPattern(s))+d.LikeEscape())
	return w
}

// ContainsPattern wraps s in % after escaping \, % and _ with a backslash.
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Raw appends a predicate that binds nothing.
func (w *Where) Raw(pred string) *Where {
	w.preds = append(w.preds, pred)
	return w
}

// Empty reports whether no predicate was added.
func (w *Where) Empty() bool { return len(w.preds) == 0 }

// String returns the predicates joined by AND, or "" when empty.
func (w *Where) String() string { return strings.Join(w.preds, " AND ") }

// Clause returns " WHERE <predicates>", or "" when empty so the caller's
// statement stays unfiltered.
func (w *Where) Clause() string {
	if w.Empty() {
		return ""
	}
	return " WHERE " + w.String()
}
