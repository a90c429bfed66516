package query

import "strings"

// Update describes an UPDATE statement. SET columns bind to ":column",
// predicates to ":w_column".
type Update struct {
	table   string
	columns []string
	where   []predicate
}

// NewUpdate returns an UPDATE statement for table
func NewUpdate(table string) Update {
	return Update{table: table}
}

// Column adds a column to the SET list
func (u Update) Column(column string) Update {
	u.columns = with(u.columns, column)
	return u
}

// Where adds an equality predicate
func (u Update) Where(clause string) Update {
	u.where = with(u.where, predicate{clause: clause, op: Equals})
	return u
}

// Like adds a LIKE predicate
func (u Update) Like(clause string) Update {
	u.where = with(u.where, predicate{clause: clause, op: Like})
	return u
}

// Match adds a full-text MATCH predicate
func (u Update) Match(clause string) Update {
	u.where = with(u.where, predicate{clause: clause, op: Match})
	return u
}

// ToSQL renders the statement
func (u Update) ToSQL() string {
	var sb strings.Builder

	sb.WriteString("UPDATE ")
	sb.WriteString(u.table)
	sb.WriteString(" SET ")
	for i, col := range u.columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(col)
		sb.WriteString(" = :")
		sb.WriteString(Param(col))
	}

	writeWhere(&sb, u.where, WhereParam)

	return sb.String()
}
