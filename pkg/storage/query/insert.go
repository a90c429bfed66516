package query

import "strings"

// Insert describes an INSERT statement. Every column is bound to a
// parameter of the same name.
type Insert struct {
	table   string
	columns []string
}

// NewInsert returns an INSERT statement for table
func NewInsert(table string) Insert {
	return Insert{table: table}
}

// Column adds a column to the statement
func (i Insert) Column(column string) Insert {
	i.columns = with(i.columns, column)
	return i
}

// ToSQL renders the statement
func (i Insert) ToSQL() string {
	params := make([]string, len(i.columns))
	for idx, col := range i.columns {
		params[idx] = ":" + Param(col)
	}

	return "INSERT INTO " + i.table +
		" (" + strings.Join(i.columns, ", ") + ")" +
		" VALUES (" + strings.Join(params, ", ") + ")"
}
