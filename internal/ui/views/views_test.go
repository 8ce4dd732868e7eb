package views

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/stride/internal/app"
	"github.com/tgienger/stride/internal/models"
	"github.com/tgienger/stride/internal/service"
	"github.com/tgienger/stride/internal/store"
)

func newTestDeps(t *testing.T) (*app.State, *app.Services) {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "stride.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	state := app.NewState("2026-03-14")
	state.Loaded(app.Snapshot{})
	return &state, app.NewServices(s)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTaskListView_SaveNewTask(t *testing.T) {
	state, svc := newTestDeps(t)
	state.SelectDate("2026-03-20")
	v := NewTaskListView(context.Background(), state, svc)

	v.startNewTask()
	assert.True(t, v.Capturing())
	v.editTitle.SetValue("  写周报  ")
	v.editDate.SetValue("not a date")

	cmd := v.saveTask()
	assert.False(t, v.Capturing())
	require.NotNil(t, cmd)

	saved, ok := cmd().(TaskSaved)
	require.True(t, ok)
	assert.Equal(t, "写周报", saved.Task.Title)
	assert.Equal(t, DefaultTaskCategory, saved.Task.Category)
	assert.Equal(t, models.PriorityMedium, saved.Task.Priority)
	assert.Equal(t, "2026-03-20", saved.Task.Date)
	assert.False(t, saved.Task.Completed)
}

func TestTaskListView_BlankTitleSkipsWrite(t *testing.T) {
	state, svc := newTestDeps(t)
	v := NewTaskListView(context.Background(), state, svc)

	v.startNewTask()
	v.editTitle.SetValue("   ")
	assert.Nil(t, v.saveTask())
	assert.False(t, v.editing)
}

func TestTaskListView_ToggleReportsFailure(t *testing.T) {
	state, svc := newTestDeps(t)
	v := NewTaskListView(context.Background(), state, svc)

	msg := v.toggleTask(models.Task{ID: "missing", Title: "x"})()
	failure, ok := msg.(WriteFailed)
	require.True(t, ok)
	assert.True(t, service.IsNotFound(failure.Err))
}

func TestInboxView_SaveRequiresTitleOrContent(t *testing.T) {
	state, svc := newTestDeps(t)
	v := NewInboxView(context.Background(), state, svc)

	v.startNew()
	assert.Nil(t, v.save())

	v.startNew()
	v.editContent.SetValue("只有内容")
	v.editTagInput.SetValue("灵感")
	cmd := v.save()
	require.NotNil(t, cmd)

	saved, ok := cmd().(InspirationSaved)
	require.True(t, ok)
	assert.Equal(t, models.InspirationText, saved.Inspiration.Type)
	assert.Equal(t, "只有内容", saved.Inspiration.Content)
	assert.Equal(t, []string{"#灵感"}, saved.Inspiration.Tags)
	assert.Empty(t, saved.Inspiration.ImageSrc)
}

func TestInboxView_SaveImage(t *testing.T) {
	state, svc := newTestDeps(t)
	v := NewInboxView(context.Background(), state, svc)

	v.startNew()
	v.editType = models.InspirationImage
	v.editTitle.SetValue("海报")
	v.editMedia.SetValue("https://example.com/a.png")

	saved, ok := v.save()().(InspirationSaved)
	require.True(t, ok)
	assert.Equal(t, models.InspirationImage, saved.Inspiration.Type)
	assert.Equal(t, "https://example.com/a.png", saved.Inspiration.ImageSrc)
	assert.Empty(t, saved.Inspiration.Duration)
}

func TestInboxView_SearchUpdatesState(t *testing.T) {
	state, svc := newTestDeps(t)
	state.PutInspiration(models.Inspiration{ID: "a", Title: "Go 并发", Tags: []string{}})
	state.PutInspiration(models.Inspiration{ID: "b", Title: "周末爬山", Tags: []string{}})
	v := NewInboxView(context.Background(), state, svc)

	v.Update(runes("/"))
	assert.True(t, v.Capturing())
	v.Update(runes("爬山"))
	assert.Equal(t, "爬山", state.InboxSearch)
	require.Len(t, state.VisibleInbox(), 1)

	v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, state.InboxSearch)
	assert.False(t, v.Capturing())
}

func TestYank(t *testing.T) {
	var copied string
	orig := copyToClipboard
	t.Cleanup(func() { copyToClipboard = orig })

	copyToClipboard = func(s string) error {
		copied = s
		return nil
	}
	msg := yank(models.Inspiration{Title: "标题", Content: "正文"})()
	assert.Equal(t, Notice{Text: "已复制到剪贴板"}, msg)
	assert.Equal(t, "正文", copied)

	yank(models.Inspiration{Title: "标题"})()
	assert.Equal(t, "标题", copied)

	copyToClipboard = func(string) error { return errors.New("no clipboard") }
	_, failedCopy := yank(models.Inspiration{Title: "标题"})().(WriteFailed)
	assert.True(t, failedCopy)
}

func TestGoalListView_MilestoneEditor(t *testing.T) {
	state, svc := newTestDeps(t)
	v := NewGoalListView(context.Background(), state, svc)

	v.startNew()
	v.editFocusIdx = goalFieldMilestones
	v.updateEditFocus()

	for _, title := range []string{"  报名  ", "", "训练"} {
		v.editMilestone.SetValue(title)
		v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	}
	require.Len(t, v.editMilestones, 2)
	assert.Equal(t, "报名", v.editMilestones[0].Title)

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlX})
	assert.True(t, v.editMilestones[1].Completed)

	v.Update(tea.KeyMsg{Type: tea.KeyUp})
	v.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	require.Len(t, v.editMilestones, 1)
	assert.Equal(t, "训练", v.editMilestones[0].Title)
	assert.Equal(t, 100, models.MilestoneProgress(v.editMilestones))
}

func TestGoalListView_SaveAndToggle(t *testing.T) {
	state, svc := newTestDeps(t)
	v := NewGoalListView(context.Background(), state, svc)

	v.startNew()
	assert.Nil(t, v.save())

	v.startNew()
	v.editTitle.SetValue("跑完半马")
	v.editMilestones = []models.Milestone{{Title: "5 公里"}, {Title: "10 公里"}}
	saved, ok := v.save()().(GoalSaved)
	require.True(t, ok)
	assert.Equal(t, DefaultGoalCategory, saved.Goal.Category)
	assert.Equal(t, DefaultGoalBgImage, saved.Goal.BgImage)
	assert.Equal(t, 0, saved.Goal.Progress)
	require.Len(t, saved.Goal.Milestones, 2)

	toggled, ok := v.toggleMilestone(saved.Goal, 0)().(GoalSaved)
	require.True(t, ok)
	assert.Equal(t, 50, toggled.Goal.Progress)
	assert.True(t, toggled.Goal.Milestones[0].Completed)

	// the first toggle bumped the revision
	stale, ok := v.toggleMilestone(saved.Goal, 1)().(WriteFailed)
	require.True(t, ok)
	assert.True(t, service.IsConflict(stale.Err))
}

func TestGoalListView_DeleteConfirm(t *testing.T) {
	state, svc := newTestDeps(t)
	g, err := svc.Goals.Create(context.Background(), models.GoalPatch{Title: models.Ptr("学日语")})
	require.NoError(t, err)
	state.PutGoal(g)

	v := NewGoalListView(context.Background(), state, svc)
	v.Update(runes("d"))
	assert.True(t, v.Capturing())

	_, cmd := v.Update(runes("n"))
	assert.Nil(t, cmd)
	assert.False(t, v.Capturing())

	v.Update(runes("d"))
	_, cmd = v.Update(runes("y"))
	require.NotNil(t, cmd)
	assert.Equal(t, GoalDeleted{ID: g.ID}, cmd())
}

func TestScrollFor(t *testing.T) {
	assert.Equal(t, 0, scrollFor(0, 0, 5))
	assert.Equal(t, 2, scrollFor(2, 4, 5))
	assert.Equal(t, 3, scrollFor(7, 0, 5))
	assert.Equal(t, 4, scrollFor(6, 4, 5))
}
