package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

const nowExpr = "strftime('%Y-%m-%d %H:%M:%f', 'now')"

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLite is a Store backed by a local SQLite database file
type SQLite struct {
	db *sql.DB
	// table -> column set, used to reject unknown identifiers before they
	// are interpolated into SQL
	columns map[string]map[string]bool
}

// NewSQLite opens the database at path, creating it and its schema if needed
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite: empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("sqlite: create data dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: init schema: %w", err)
	}

	s := &SQLite{db: db, columns: make(map[string]map[string]bool)}
	if err := s.loadColumns(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) loadColumns() error {
	for _, table := range []string{TableTasks, TableInspirations, TableGoals, TableMilestones} {
		rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
		if err != nil {
			return fmt.Errorf("sqlite: inspect %s: %w", table, err)
		}
		cols := make(map[string]bool)
		for rows.Next() {
			var (
				cid, notNull, pk int
				name, ctype      string
				dflt             any
			)
			if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
				rows.Close()
				return err
			}
			cols[name] = true
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return err
		}
		s.columns[table] = cols
	}
	return nil
}

// Close closes the underlying database
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) checkTable(table string) error {
	if _, ok := s.columns[table]; !ok {
		return fmt.Errorf("sqlite: unknown table %q", table)
	}
	return nil
}

func (s *SQLite) checkColumn(table, column string) error {
	if err := s.checkTable(table); err != nil {
		return err
	}
	if !s.columns[table][column] {
		return fmt.Errorf("sqlite: unknown column %q in %s", column, table)
	}
	return nil
}

// where builds the WHERE clause for filters. table is checked even when
// there are no filters since it is interpolated by every caller.
func (s *SQLite) where(table string, filters []Filter) (string, []any, error) {
	if err := s.checkTable(table); err != nil {
		return "", nil, err
	}
	if len(filters) == 0 {
		return "", nil, nil
	}
	conds := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	for _, f := range filters {
		if err := s.checkColumn(table, f.Column); err != nil {
			return "", nil, err
		}
		conds = append(conds, f.Column+" = ?")
		v, err := bindValue(f.Value)
		if err != nil {
			return "", nil, err
		}
		args = append(args, v)
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// Select returns the rows of table matching q
func (s *SQLite) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	return s.selectRows(ctx, s.db, table, q)
}

func (s *SQLite) selectRows(ctx context.Context, qr queryer, table string, q Query) ([]Row, error) {
	where, args, err := s.where(table, q.Filters)
	if err != nil {
		return nil, err
	}
	query := "SELECT * FROM " + table + where

	if len(q.Order) > 0 {
		parts := make([]string, 0, len(q.Order)+1)
		for _, o := range q.Order {
			if err := s.checkColumn(table, o.Column); err != nil {
				return nil, err
			}
			parts = append(parts, o.Column+direction(o.Ascending))
		}
		// Ties keep insertion order in the same direction as the last key
		parts = append(parts, "rowid"+direction(q.Order[len(q.Order)-1].Ascending))
		query += " ORDER BY " + strings.Join(parts, ", ")
	}

	rows, err := qr.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

// Insert writes rows in a single transaction. Rows without an id get a UUID.
func (s *SQLite) Insert(ctx context.Context, table string, rows ...Row) ([]Row, error) {
	if err := s.checkTable(table); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		row := make(Row, len(r)+1)
		for k, v := range r {
			row[k] = v
		}
		id, _ := row["id"].(string)
		if id == "" {
			id = uuid.NewString()
			row["id"] = id
		}

		cols := sortedKeys(row)
		args := make([]any, len(cols))
		for i, c := range cols {
			if err := s.checkColumn(table, c); err != nil {
				return nil, err
			}
			if args[i], err = bindValue(row[c]); err != nil {
				return nil, err
			}
		}
		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table, strings.Join(cols, ", "), placeholders(len(cols)))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	out, err := s.rowsByID(ctx, tx, table, ids)
	if err != nil {
		return nil, err
	}
	return out, tx.Commit()
}

// Update applies patch to the rows matching filters and returns them as
// stored afterwards. updated_at is refreshed on tables that have it. At
// least one filter is required.
func (s *SQLite) Update(ctx context.Context, table string, patch Row, filters ...Filter) ([]Row, error) {
	if len(filters) == 0 {
		return nil, fmt.Errorf("sqlite: refusing unfiltered update on %s", table)
	}
	if err := s.checkTable(table); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	ids, err := s.matchingIDs(ctx, tx, table, filters)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Row{}, tx.Commit()
	}

	var (
		sets []string
		args []any
	)
	for _, c := range sortedKeys(patch) {
		if c == "id" {
			continue
		}
		if err := s.checkColumn(table, c); err != nil {
			return nil, err
		}
		v, err := bindValue(patch[c])
		if err != nil {
			return nil, err
		}
		sets = append(sets, c+" = ?")
		args = append(args, v)
	}
	if _, explicit := patch["updated_at"]; !explicit && s.columns[table]["updated_at"] {
		sets = append(sets, "updated_at = "+nowExpr)
	}

	if len(sets) > 0 {
		query := fmt.Sprintf("UPDATE %s SET %s WHERE id IN (%s)",
			table, strings.Join(sets, ", "), placeholders(len(ids)))
		for _, id := range ids {
			args = append(args, id)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, err
		}
	}

	out, err := s.rowsByID(ctx, tx, table, ids)
	if err != nil {
		return nil, err
	}
	return out, tx.Commit()
}

// Delete removes the rows matching filters. At least one filter is required.
func (s *SQLite) Delete(ctx context.Context, table string, filters ...Filter) error {
	if len(filters) == 0 {
		return fmt.Errorf("sqlite: refusing unfiltered delete on %s", table)
	}
	where, args, err := s.where(table, filters)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, "DELETE FROM "+table+where, args...)
	return err
}

func (s *SQLite) matchingIDs(ctx context.Context, qr queryer, table string, filters []Filter) ([]string, error) {
	where, args, err := s.where(table, filters)
	if err != nil {
		return nil, err
	}
	rows, err := qr.QueryContext(ctx, "SELECT id FROM "+table+where+" ORDER BY rowid", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// rowsByID re-reads rows by primary key, preserving the order of ids
func (s *SQLite) rowsByID(ctx context.Context, qr queryer, table string, ids []string) ([]Row, error) {
	out := make([]Row, 0, len(ids))
	for _, id := range ids {
		rows, err := s.selectRows(ctx, qr, table, Query{Filters: []Filter{Eq("id", id)}})
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("sqlite: re-read %s %s: %w", table, id, ErrNotFound)
		}
		out = append(out, rows[0])
	}
	return out, nil
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			v := vals[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[c] = v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// bindValue converts values SQLite cannot store natively. Slices and maps
// are stored as JSON text.
func bindValue(v any) (any, error) {
	switch v.(type) {
	case []string, []any, map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	return v, nil
}

func direction(asc bool) string {
	if asc {
		return " ASC"
	}
	return " DESC"
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func sortedKeys(r Row) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
