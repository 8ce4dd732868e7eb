package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/stride/internal/derive"
	"github.com/tgienger/stride/internal/models"
	"github.com/tgienger/stride/internal/service"
	"github.com/tgienger/stride/internal/store"
)

const today = "2024-06-10"

type brokenGoals struct {
	store.Store
}

func (b brokenGoals) Select(ctx context.Context, table string, q store.Query) ([]store.Row, error) {
	if table == store.TableGoals {
		return nil, errors.New("connection reset")
	}
	return b.Store.Select(ctx, table, q)
}

func newTestStore(t *testing.T) *store.SQLite {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "stride.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestServices_Load(t *testing.T) {
	ctx := context.Background()
	svc := NewServices(newTestStore(t))

	_, err := svc.Tasks.Create(ctx, models.TaskPatch{Title: models.Ptr("t")})
	require.NoError(t, err)
	_, err = svc.Inspirations.Create(ctx, models.InspirationPatch{Content: models.Ptr("i")})
	require.NoError(t, err)
	_, err = svc.Goals.Create(ctx, models.GoalPatch{Title: models.Ptr("g"), Milestones: &[]models.Milestone{{Title: "m"}}})
	require.NoError(t, err)

	snap, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Tasks, 1)
	assert.Len(t, snap.Inbox, 1)
	require.Len(t, snap.Goals, 1)
	assert.Len(t, snap.Goals[0].Milestones, 1)
}

func TestServices_LoadIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := NewServices(s).Tasks.Create(ctx, models.TaskPatch{Title: models.Ptr("t")})
	require.NoError(t, err)

	snap, err := NewServices(brokenGoals{s}).Load(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "goals.getAll")
	assert.Empty(t, snap.Tasks)
	assert.Empty(t, snap.Inbox)

	var opErr *service.OpError
	assert.ErrorAs(t, err, &opErr)
}

func TestState_LoadLifecycle(t *testing.T) {
	s := NewState(today)
	assert.Equal(t, PhaseLoading, s.Phase)
	assert.False(t, s.Ready())

	s.LoadFailed(errors.New("down"))
	assert.Equal(t, PhaseFailed, s.Phase)
	assert.EqualError(t, s.Err, "down")

	s.StartLoad()
	assert.Equal(t, PhaseLoading, s.Phase)
	assert.NoError(t, s.Err)

	s.Loaded(Snapshot{Tasks: []models.Task{{ID: "a"}}})
	assert.True(t, s.Ready())
	assert.Len(t, s.Tasks, 1)
	assert.NotNil(t, s.Inbox)
	assert.NotNil(t, s.Goals)
}

func TestState_PutAndRemove(t *testing.T) {
	s := NewState(today)
	s.Loaded(Snapshot{Tasks: []models.Task{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}}})

	s.PutTask(models.Task{ID: "c", Title: "C"})
	assert.Equal(t, "c", s.Tasks[0].ID)
	assert.Len(t, s.Tasks, 3)

	s.PutTask(models.Task{ID: "b", Title: "B2"})
	assert.Equal(t, []models.Task{{ID: "c", Title: "C"}, {ID: "a", Title: "A"}, {ID: "b", Title: "B2"}}, s.Tasks)

	s.RemoveTask("a")
	assert.Equal(t, []models.Task{{ID: "c", Title: "C"}, {ID: "b", Title: "B2"}}, s.Tasks)

	s.RemoveTask("missing")
	assert.Len(t, s.Tasks, 2)
}

func TestState_PutGoalAndInspiration(t *testing.T) {
	s := NewState(today)
	s.Loaded(Snapshot{})

	s.PutGoal(models.Goal{ID: "g", Progress: 10})
	s.PutGoal(models.Goal{ID: "g", Progress: 50})
	require.Len(t, s.Goals, 1)
	assert.Equal(t, 50, s.Goals[0].Progress)
	s.RemoveGoal("g")
	assert.Empty(t, s.Goals)

	s.PutInspiration(models.Inspiration{ID: "1"})
	s.PutInspiration(models.Inspiration{ID: "2"})
	assert.Equal(t, "2", s.Inbox[0].ID)
	s.RemoveInspiration("1")
	assert.Len(t, s.Inbox, 1)
}

func TestState_DateAndFilterAreExclusive(t *testing.T) {
	s := NewState(today)

	s.SetFilter(derive.FilterOverdue)
	s.SelectDate("2024-06-01")
	assert.Equal(t, derive.FilterNone, s.Filter)
	assert.Equal(t, "2024-06-01", s.SelectedDate)

	s.SetFilter(derive.FilterDaily)
	s.ShiftDate(1)
	assert.Equal(t, "2024-06-02", s.SelectedDate)
	assert.Equal(t, derive.FilterNone, s.Filter)

	s.SetFilter(derive.FilterAll)
	s.ClearFilter()
	assert.Equal(t, today, s.SelectedDate)
	assert.Equal(t, derive.FilterNone, s.Filter)
}

func TestState_LeavingTasksDropsFilter(t *testing.T) {
	s := NewState(today)
	s.SetFilter(derive.FilterDaily)

	s.SetTab(TabTasks)
	assert.Equal(t, derive.FilterDaily, s.Filter)

	s.SetTab(TabGoals)
	assert.Equal(t, TabGoals, s.Tab)
	assert.Equal(t, derive.FilterNone, s.Filter)
}

func TestState_Derived(t *testing.T) {
	s := NewState(today)
	s.Loaded(Snapshot{
		Tasks: []models.Task{
			{ID: "old", Date: "2024-06-01"},
			{ID: "done", Date: today, Completed: true},
			{ID: "daily", Date: "2024-06-01", IsDaily: true, Completed: true},
			{ID: "future", Date: "2024-06-11"},
		},
		Inbox: []models.Inspiration{
			{ID: "1", Title: "Go"},
			{ID: "2", Title: "Rust"},
		},
	})

	assert.Len(t, s.VisibleTasks(), 3)
	assert.Equal(t, 67, s.TaskProgress())
	assert.Equal(t, derive.TaskCounts{All: 4, Daily: 1, Overdue: 1}, s.TaskCounts())
	assert.Equal(t, "今天", s.FilterLabel())

	s.SetFilter(derive.FilterOverdue)
	assert.Equal(t, "已过期任务", s.FilterLabel())
	assert.Equal(t, 0, s.TaskProgress())

	s.InboxSearch = "rust"
	require.Len(t, s.VisibleInbox(), 1)
	assert.Equal(t, "2", s.VisibleInbox()[0].ID)
}

func TestState_SetToday(t *testing.T) {
	s := NewState(today)
	s.SetToday("2024-06-11")
	assert.Equal(t, "2024-06-11", s.Today)
	assert.Equal(t, "2024-06-11", s.SelectedDate)

	s.SelectDate("2024-06-20")
	s.SetToday("2024-06-12")
	assert.Equal(t, "2024-06-12", s.Today)
	assert.Equal(t, "2024-06-20", s.SelectedDate)
}
