// Package store is the boundary to the table-oriented backing store.
//
// Rows travel as maps keyed by remote column name so that partial rows
// carry only the columns a caller explicitly set.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Table names
const (
	TableTasks        = "tasks"
	TableInspirations = "inspirations"
	TableGoals        = "goals"
	TableMilestones   = "milestones"
)

// ErrNotFound is returned when a filter matches no row where one was required
var ErrNotFound = errors.New("no matching row")

// Row is a single record in its remote shape
type Row map[string]any

// Filter is an equality condition on a column
type Filter struct {
	Column string
	Value  any
}

// Eq builds an equality filter
func Eq(column string, value any) Filter {
	return Filter{Column: column, Value: value}
}

// Order sorts a selection by a column
type Order struct {
	Column    string
	Ascending bool
}

// Asc orders by column ascending
func Asc(column string) Order { return Order{Column: column, Ascending: true} }

// Desc orders by column descending
func Desc(column string) Order { return Order{Column: column} }

// Query narrows and sorts a selection
type Query struct {
	Filters []Filter
	Order   []Order
}

// Store is the capability set the services need from the backing store
type Store interface {
	// Select returns every row matching q
	Select(ctx context.Context, table string, q Query) ([]Row, error)
	// Insert writes rows and returns them as stored, with generated ids
	// and timestamps, in input order
	Insert(ctx context.Context, table string, rows ...Row) ([]Row, error)
	// Update applies patch to every row matching filters and returns the
	// rows as stored after the write
	Update(ctx context.Context, table string, patch Row, filters ...Filter) ([]Row, error)
	// Delete removes every row matching filters
	Delete(ctx context.Context, table string, filters ...Filter) error
	Close() error
}

// APIError is an error reported by a remote store
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("store responded %d", e.Status)
	if e.Code != "" {
		msg += " (" + e.Code + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}
