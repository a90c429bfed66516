package query

import "strings"

// Delete describes a DELETE statement. Predicates bind to ":w_column".
//
// A Delete without predicates removes every row of the table.
type Delete struct {
	table string
	where []predicate
}

// NewDelete returns a DELETE statement for table
func NewDelete(table string) Delete {
	return Delete{table: table}
}

// Where adds an equality predicate
func (d Delete) Where(clause string) Delete {
	d.where = with(d.where, predicate{clause: clause, op: Equals})
	return d
}

// Like adds a LIKE predicate
func (d Delete) Like(clause string) Delete {
	d.where = with(d.where, predicate{clause: clause, op: Like})
	return d
}

// Match adds a full-text MATCH predicate
func (d Delete) Match(clause string) Delete {
	d.where = with(d.where, predicate{clause: clause, op: Match})
	return d
}

// ToSQL renders the statement
func (d Delete) ToSQL() string {
	var sb strings.Builder

	sb.WriteString("DELETE FROM ")
	sb.WriteString(d.table)
	writeWhere(&sb, d.where, WhereParam)

	return sb.String()
}
