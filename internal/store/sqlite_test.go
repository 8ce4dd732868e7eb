package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "stride.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSQLite_EmptyPath(t *testing.T) {
	_, err := NewSQLite("")
	assert.Error(t, err)
}

func TestSQLite_InsertGeneratesIDAndTimestamps(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	rows, err := s.Insert(ctx, TableTasks, Row{"title": "write report", "priority": "high", "is_daily": true})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.NotEmpty(t, row["id"])
	assert.Equal(t, "write report", row["title"])
	assert.Equal(t, "high", row["priority"])
	assert.Equal(t, true, row["is_daily"])
	assert.Equal(t, false, row["completed"])
	assert.IsType(t, time.Time{}, row["created_at"])
	assert.IsType(t, time.Time{}, row["updated_at"])
}

func TestSQLite_InsertKeepsInputOrder(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	goals, err := s.Insert(ctx, TableGoals, Row{"title": "run a marathon"})
	require.NoError(t, err)
	goalID := goals[0]["id"]

	rows, err := s.Insert(ctx, TableMilestones,
		Row{"goal_id": goalID, "title": "5k", "sort_order": 0},
		Row{"goal_id": goalID, "title": "10k", "sort_order": 1},
		Row{"goal_id": goalID, "title": "half", "sort_order": 2},
	)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "5k", rows[0]["title"])
	assert.Equal(t, "10k", rows[1]["title"])
	assert.Equal(t, "half", rows[2]["title"])
}

func TestSQLite_InsertRejectsUnknownColumn(t *testing.T) {
	s := newTestSQLite(t)

	_, err := s.Insert(context.Background(), TableTasks, Row{"title": "x", "title; DROP TABLE tasks": 1})
	assert.ErrorContains(t, err, "unknown column")

	_, err = s.Select(context.Background(), "nope", Query{})
	assert.ErrorContains(t, err, "unknown table")
}

func TestSQLite_TagsRoundTripAsJSON(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	rows, err := s.Insert(ctx, TableInspirations, Row{"title": "idea", "tags": []string{"#go", "#tui"}})
	require.NoError(t, err)
	assert.Equal(t, `["#go","#tui"]`, rows[0]["tags"])

	rows, err = s.Insert(ctx, TableInspirations, Row{"title": "no tags"})
	require.NoError(t, err)
	assert.Nil(t, rows[0]["tags"])
	assert.Nil(t, rows[0]["image_src"])
}

func TestSQLite_SelectOrderAndFilter(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		_, err := s.Insert(ctx, TableTasks, Row{"title": title, "category": "work"})
		require.NoError(t, err)
	}
	_, err := s.Insert(ctx, TableTasks, Row{"title": "other", "category": "home"})
	require.NoError(t, err)

	rows, err := s.Select(ctx, TableTasks, Query{
		Filters: []Filter{Eq("category", "work")},
		Order:   []Order{Desc("created_at")},
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "third", rows[0]["title"])
	assert.Equal(t, "second", rows[1]["title"])
	assert.Equal(t, "first", rows[2]["title"])
}

func TestSQLite_UpdateIsSparse(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	rows, err := s.Insert(ctx, TableTasks, Row{"title": "draft", "category": "work", "priority": "low"})
	require.NoError(t, err)
	id := rows[0]["id"]
	before := rows[0]["updated_at"].(time.Time)

	time.Sleep(5 * time.Millisecond)
	updated, err := s.Update(ctx, TableTasks, Row{"completed": true}, Eq("id", id))
	require.NoError(t, err)
	require.Len(t, updated, 1)

	assert.Equal(t, true, updated[0]["completed"])
	assert.Equal(t, "draft", updated[0]["title"])
	assert.Equal(t, "work", updated[0]["category"])
	assert.Equal(t, "low", updated[0]["priority"])
	assert.True(t, updated[0]["updated_at"].(time.Time).After(before))
}

func TestSQLite_UpdateNoMatch(t *testing.T) {
	s := newTestSQLite(t)

	rows, err := s.Update(context.Background(), TableTasks, Row{"title": "x"}, Eq("id", "missing"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSQLite_UpdateRequiresFilter(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, TableTasks, Row{"title": "a"}, Row{"title": "b"})
	require.NoError(t, err)

	_, err = s.Update(ctx, TableTasks, Row{"title": "clobbered"})
	assert.ErrorContains(t, err, "unfiltered update")

	rows, err := s.Select(ctx, TableTasks, Query{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.NotEqual(t, "clobbered", row["title"])
	}
}

func TestSQLite_RejectsUnknownTable(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	bad := "tasks WHERE 1=0 UNION SELECT * FROM tasks"

	_, err := s.Select(ctx, bad, Query{})
	assert.ErrorContains(t, err, "unknown table")

	_, err = s.Insert(ctx, bad, Row{"title": "x"})
	assert.ErrorContains(t, err, "unknown table")

	_, err = s.Insert(ctx, "nope")
	assert.ErrorContains(t, err, "unknown table")

	_, err = s.Update(ctx, bad, Row{"title": "x"}, Eq("id", "1"))
	assert.ErrorContains(t, err, "unknown table")

	assert.ErrorContains(t, s.Delete(ctx, bad, Eq("id", "1")), "unknown table")
}

func TestSQLite_DeleteCascadesMilestones(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	goals, err := s.Insert(ctx, TableGoals, Row{"title": "learn piano"})
	require.NoError(t, err)
	goalID := goals[0]["id"]

	_, err = s.Insert(ctx, TableMilestones, Row{"goal_id": goalID, "title": "scales"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, TableGoals, Eq("id", goalID)))

	rows, err := s.Select(ctx, TableMilestones, Query{Filters: []Filter{Eq("goal_id", goalID)}})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSQLite_DeleteRequiresFilter(t *testing.T) {
	s := newTestSQLite(t)
	assert.Error(t, s.Delete(context.Background(), TableTasks))
}

func TestSQLite_MilestoneRequiresGoal(t *testing.T) {
	s := newTestSQLite(t)

	_, err := s.Insert(context.Background(), TableMilestones, Row{"goal_id": "ghost", "title": "orphan"})
	assert.Error(t, err)
}
