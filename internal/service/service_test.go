package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/stride/internal/models"
	"github.com/tgienger/stride/internal/store"
)

var errBoom = errors.New("boom")

func newTestStore(t *testing.T) *store.SQLite {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "stride.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// failingStore fails one method on one table and delegates everything else
type failingStore struct {
	store.Store
	method string
	table  string
}

func (f *failingStore) hit(method, table string) bool {
	return f.method == method && f.table == table
}

func (f *failingStore) Select(ctx context.Context, table string, q store.Query) ([]store.Row, error) {
	if f.hit("select", table) {
		return nil, errBoom
	}
	return f.Store.Select(ctx, table, q)
}

func (f *failingStore) Insert(ctx context.Context, table string, rows ...store.Row) ([]store.Row, error) {
	if f.hit("insert", table) {
		return nil, errBoom
	}
	return f.Store.Insert(ctx, table, rows...)
}

func (f *failingStore) Update(ctx context.Context, table string, patch store.Row, filters ...store.Filter) ([]store.Row, error) {
	if f.hit("update", table) {
		return nil, errBoom
	}
	return f.Store.Update(ctx, table, patch, filters...)
}

func (f *failingStore) Delete(ctx context.Context, table string, filters ...store.Filter) error {
	if f.hit("delete", table) {
		return errBoom
	}
	return f.Store.Delete(ctx, table, filters...)
}

func TestOpError(t *testing.T) {
	err := &OpError{Op: "tasks.update", ID: "42", Err: ErrNotFound}
	assert.Equal(t, "tasks.update 42: record not found", err.Error())
	assert.True(t, IsNotFound(err))

	err = &OpError{Op: "tasks.getAll", Err: errBoom}
	assert.Equal(t, "tasks.getAll: boom", err.Error())
	assert.ErrorIs(t, err, errBoom)
}

func TestPartialWriteError(t *testing.T) {
	err := error(&OpError{Op: "goals.create", ID: "g", Err: &PartialWriteError{GoalID: "g", Step: "milestones.insert", Err: errBoom}})
	assert.True(t, IsPartialWrite(err))
	assert.ErrorIs(t, err, errBoom)
	assert.False(t, IsPartialWrite(&OpError{Op: "goals.create", Err: errBoom}))
}

func TestFailuresAreLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	tasks := NewTasks(newTestStore(t), WithLogger(logger))

	_, err := tasks.Update(context.Background(), "missing", models.TaskPatch{Title: models.Ptr("x")})
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "op=tasks.update")
	assert.Contains(t, out, "id=missing")
	assert.Contains(t, out, `error="record not found"`)
}
