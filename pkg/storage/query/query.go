// Package query builds parameterized SQL statements.
//
// Table and column names passed to the builders are trusted identifiers and
// are written into the SQL text as-is. Values never are: every predicate and
// column becomes a named parameter (":name") that the caller binds through
// database/sql, typically with the Params helper.
//
// Builders are values. Every fluent method returns an updated copy and
// leaves its receiver untouched, so a partially configured statement can be
// shared and extended safely.
package query

import (
	"database/sql"
	"slices"
	"sort"
	"strings"
)

// Operator is the comparison used by a WHERE predicate
type Operator int

const (
	// Equals compares with "=".
	Equals Operator = iota
	// Like compares with "LIKE"; callers supply the wildcards in the value.
	Like
	// Match compares with "MATCH" against a full-text search table.
	Match
)

// String returns the SQL spelling of the operator
func (o Operator) String() string {
	switch o {
	case Like:
		return "LIKE"
	case Match:
		return "MATCH"
	default:
		return "="
	}
}

// Direction is an ORDER BY direction
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

type predicate struct {
	clause string
	op     Operator
}

// Param returns the bind-parameter name (without the leading colon) used for
// a column or a SELECT predicate on clause. Dots in qualified names are
// replaced with underscores: "h.exit_code" becomes "h_exit_code".
func Param(clause string) string {
	return strings.ReplaceAll(clause, ".", "_")
}

// WhereParam returns the bind-parameter name used for an UPDATE or DELETE
// predicate on clause. The "w_" prefix keeps it apart from SET parameters
// naming the same column.
func WhereParam(clause string) string {
	return "w_" + Param(clause)
}

// writeWhere appends " WHERE a = :a AND b LIKE :b" to sb
func writeWhere(sb *strings.Builder, preds []predicate, param func(string) string) {
	if len(preds) == 0 {
		return
	}

	sb.WriteString(" WHERE ")
	for i, p := range preds {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		sb.WriteString(p.clause)
		sb.WriteString(" ")
		sb.WriteString(p.op.String())
		sb.WriteString(" :")
		sb.WriteString(param(p.clause))
	}
}

// Params holds named parameter values keyed by bare parameter name
type Params map[string]any

// Args converts the values into sql.NamedArg arguments, sorted by name so
// the argument list is deterministic.
func (p Params) Args() []any {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)

	args := make([]any, 0, len(names))
	for _, name := range names {
		args = append(args, sql.Named(name, p[name]))
	}
	return args
}

// with appends v to a copy of s
func with[T any](s []T, v T) []T {
	return append(slices.Clip(s), v)
}
