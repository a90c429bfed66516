package query

import (
	"strconv"
	"strings"
)

type selectExpr struct {
	expr  string
	alias string
}

type ordering struct {
	column    string
	direction Direction
}

// Select describes a SELECT statement
type Select struct {
	selects  []selectExpr
	from     []string
	where    []predicate
	limit    int
	hasLimit bool
	order    []ordering
}

// NewSelect returns an empty SELECT statement
func NewSelect() Select {
	return Select{}
}

// Column adds a plain column expression to the select list
func (s Select) Column(column string) Select {
	s.selects = with(s.selects, selectExpr{expr: column})
	return s
}

// Count adds "COUNT(expr) AS alias" to the select list
func (s Select) Count(expr, alias string) Select {
	s.selects = with(s.selects, selectExpr{expr: "COUNT(" + expr + ")", alias: alias})
	return s
}

// From adds a table (or join expression) to the FROM clause
func (s Select) From(table string) Select {
	s.from = with(s.from, table)
	return s
}

// ResetFrom drops every table from the FROM clause
func (s Select) ResetFrom() Select {
	s.from = nil
	return s
}

// Where adds an equality predicate bound to ":clause"
func (s Select) Where(clause string) Select {
	s.where = with(s.where, predicate{clause: clause, op: Equals})
	return s
}

// Like adds a LIKE predicate bound to ":clause"
func (s Select) Like(clause string) Select {
	s.where = with(s.where, predicate{clause: clause, op: Like})
	return s
}

// Match adds a full-text MATCH predicate bound to ":clause"
func (s Select) Match(clause string) Select {
	s.where = with(s.where, predicate{clause: clause, op: Match})
	return s
}

// Limit caps the number of returned rows
func (s Select) Limit(n int) Select {
	s.limit = n
	s.hasLimit = true
	return s
}

// OrderBy sets the ORDER BY column, replacing any previous ordering
func (s Select) OrderBy(column string, direction Direction) Select {
	s.order = []ordering{{column: column, direction: direction}}
	return s
}

// ThenBy adds a tie-breaking column after the current ordering
func (s Select) ThenBy(column string, direction Direction) Select {
	s.order = with(s.order, ordering{column: column, direction: direction})
	return s
}

// ToSQL renders the statement
func (s Select) ToSQL() string {
	var sb strings.Builder

	sb.WriteString("SELECT ")
	if len(s.selects) == 0 {
		sb.WriteString("*")
	}
	for i, sel := range s.selects {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(sel.expr)
		if sel.alias != "" {
			sb.WriteString(" AS ")
			sb.WriteString(sel.alias)
		}
	}

	sb.WriteString(" FROM ")
	sb.WriteString(strings.Join(s.from, ", "))

	writeWhere(&sb, s.where, Param)

	for i, o := range s.order {
		if i == 0 {
			sb.WriteString(" ORDER BY ")
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(o.column)
		if o.direction != "" {
			sb.WriteString(" ")
			sb.WriteString(string(o.direction))
		}
	}

	if s.hasLimit {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(s.limit))
	}

	return sb.String()
}
