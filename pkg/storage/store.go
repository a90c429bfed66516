package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spideyz0r/hx/pkg/history"
	"github.com/spideyz0r/hx/pkg/storage/query"
)

const historyTable = "history"

var (
	// ErrInvalidID is returned when updating a record that was never saved
	ErrInvalidID = errors.New("cannot update a record without an id, save it first")

	// ErrRowCountMismatch is returned when a statement touched an unexpected
	// number of rows
	ErrRowCountMismatch = errors.New("unexpected number of rows affected")
)

// Store defines the interface for history storage operations
type Store interface {
	Save(h *history.History) (int64, error)
	SaveBulk(hs []*history.History) ([]int64, error)
	Get(id int64) (*history.History, error)
	Update(h *history.History) error
	Delete(id int64) error
	Search(q string, filters Filters) ([]*history.History, error)
	CountTotal() (int64, error)
	Close() error
}

// Filters narrows a search
type Filters struct {
	ExitCode *int64    // Only commands that exited with this code
	Cwd      string    // Only commands run in this directory
	Limit    int       // Max results, 0 for no limit
	Mode     MatchMode // How the query text is matched
	Rank     bool      // Order by full-text relevance instead of recency
}

var recordColumns = []string{"h.id", "h.timestamp", "h.command", "h.cwd", "h.exit_code"}

func insertStatement() query.Insert {
	return query.NewInsert(historyTable).
		Column("timestamp").
		Column("command").
		Column("cwd").
		Column("exit_code")
}

// recordParams binds the mutable columns of h
func recordParams(h *history.History) query.Params {
	return query.Params{
		"timestamp": h.Timestamp.Unix(),
		"command":   h.Command,
		"cwd":       h.Cwd,
		"exit_code": h.ExitCode,
	}
}

// Save inserts h and returns its new id. h.ID is ignored.
func (db *DB) Save(h *history.History) (int64, error) {
	result, err := db.conn.Exec(insertStatement().ToSQL(), recordParams(h).Args()...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted id: %w", err)
	}

	return id, nil
}

// SaveBulk inserts every record in one transaction and returns their ids in
// input order. Nothing is persisted if any insert fails.
func (db *DB) SaveBulk(hs []*history.History) ([]int64, error) {
	if len(hs) == 0 {
		return []int64{}, nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.Prepare(insertStatement().ToSQL())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	ids := make([]int64, 0, len(hs))
	for _, h := range hs {
		result, err := stmt.Exec(recordParams(h).Args()...)
		if err != nil {
			return nil, fmt.Errorf("failed to insert entry: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to get inserted id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return ids, nil
}

// Get retrieves a record by id. It returns nil and no error when the id
// does not exist.
func (db *DB) Get(id int64) (*history.History, error) {
	stmt := selectRecords().From("history h").Where("h.id")

	h, err := scanRecord(db.conn.QueryRow(stmt.ToSQL(), sql.Named(query.Param("h.id"), id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	return h, nil
}

// Update overwrites every mutable column of the stored record h.ID. An id
// below 1 returns ErrInvalidID.
func (db *DB) Update(h *history.History) error {
	if h.ID < 1 {
		return ErrInvalidID
	}

	stmt := query.NewUpdate(historyTable).
		Column("timestamp").
		Column("command").
		Column("cwd").
		Column("exit_code").
		Where("id")

	params := recordParams(h)
	params[query.WhereParam("id")] = h.ID

	result, err := db.conn.Exec(stmt.ToSQL(), params.Args()...)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows != 1 {
		return fmt.Errorf("update of id %d affected %d rows: %w", h.ID, rows, ErrRowCountMismatch)
	}

	return nil
}

// Delete removes the record id. Deleting a missing id is not an error.
func (db *DB) Delete(id int64) error {
	stmt := query.NewDelete(historyTable).Where("id")

	result, err := db.conn.Exec(stmt.ToSQL(), sql.Named(query.WhereParam("id"), id))
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	slog.Debug("deleted entry", "id", id, "rows", rows)
	if rows > 1 {
		return fmt.Errorf("delete of id %d affected %d rows: %w", id, rows, ErrRowCountMismatch)
	}

	return nil
}

// Search returns the records matching q and filters, newest first with ties
// broken by id, unless filters.Rank asks for relevance order. An empty (or
// blank) q matches every record.
func (db *DB) Search(q string, filters Filters) ([]*history.History, error) {
	stmt, params := buildSearch(q, filters)
	sqlText := stmt.ToSQL()

	slog.Debug("search", "sql", sqlText, "params", params)

	rows, err := db.conn.Query(sqlText, params.Args()...)
	if err != nil {
		return nil, fmt.Errorf("failed to search entries: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []*history.History
	for rows.Next() {
		h, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

// buildSearch assembles the search statement and its parameters
func buildSearch(q string, filters Filters) (query.Select, query.Params) {
	params := query.Params{}
	stmt := selectRecords().
		From("history h").
		OrderBy("h.timestamp", query.Desc).
		ThenBy("h.id", query.Desc)

	if strings.TrimSpace(q) != "" {
		if filters.Mode.usesFTS() {
			stmt = stmt.ResetFrom().
				From("history_fts fts JOIN history h ON h.id = fts.rowid").
				Match("fts.command")
			params[query.Param("fts.command")] = GenerateMatchParameter(q, filters.Mode)

			if filters.Rank {
				stmt = stmt.OrderBy("fts.rank", query.Asc).
					ThenBy("h.timestamp", query.Desc).
					ThenBy("h.id", query.Desc)
			}
		} else {
			stmt = stmt.Like("h.command")
			params[query.Param("h.command")] = "%" + q + "%"
		}
	}

	if filters.ExitCode != nil {
		stmt = stmt.Where("h.exit_code")
		params[query.Param("h.exit_code")] = *filters.ExitCode
	}

	if filters.Cwd != "" {
		stmt = stmt.Where("h.cwd")
		params[query.Param("h.cwd")] = filters.Cwd
	}

	if filters.Limit > 0 {
		stmt = stmt.Limit(filters.Limit)
	}

	return stmt, params
}

// CountTotal returns the number of stored records
func (db *DB) CountTotal() (int64, error) {
	stmt := query.NewSelect().Count("*", "total").From(historyTable)

	var count int64
	if err := db.conn.QueryRow(stmt.ToSQL()).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

func selectRecords() query.Select {
	stmt := query.NewSelect()
	for _, col := range recordColumns {
		stmt = stmt.Column(col)
	}
	return stmt
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*history.History, error) {
	h := &history.History{}
	var ts int64

	if err := row.Scan(&h.ID, &ts, &h.Command, &h.Cwd, &h.ExitCode); err != nil {
		return nil, err
	}

	h.Timestamp = history.FromUnix(ts)
	return h, nil
}
