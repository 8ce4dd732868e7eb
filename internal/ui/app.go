package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/stride/internal/app"
	"github.com/tgienger/stride/internal/derive"
	"github.com/tgienger/stride/internal/ui/keys"
	"github.com/tgienger/stride/internal/ui/styles"
	"github.com/tgienger/stride/internal/ui/views"
)

// chrome is the number of rows taken by the tab bar and status line
const chrome = 3

type (
	loadedMsg     struct{ snap app.Snapshot }
	loadFailedMsg struct{ err error }
)

// view is what every tab implements
type view interface {
	tea.Model
	Capturing() bool
}

// App is the root model. It owns the shared state and applies the results
// of store writes to it.
type App struct {
	ctx   context.Context
	svc   *app.Services
	state *app.State
	now   func() time.Time

	styles  *styles.Styles
	keys    keys.KeyMap
	spinner spinner.Model

	inbox *views.InboxView
	tasks *views.TaskListView
	goals *views.GoalListView

	width  int
	height int

	status      string
	statusError bool
}

// AppOption configures an App
type AppOption func(*App)

// WithClock sets the clock used to decide what "today" is
func WithClock(now func() time.Time) AppOption {
	return func(a *App) {
		a.now = now
	}
}

// NewApp creates a new application over the given services
func NewApp(ctx context.Context, svc *app.Services, opts ...AppOption) *App {
	a := &App{
		ctx:    ctx,
		svc:    svc,
		now:    time.Now,
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
	}
	for _, opt := range opts {
		opt(a)
	}

	state := app.NewState(derive.FormatDate(a.now()))
	a.state = &state

	a.spinner = spinner.New()
	a.spinner.Spinner = spinner.Dot
	a.spinner.Style = lipgloss.NewStyle().Foreground(styles.Current.Primary)

	a.inbox = views.NewInboxView(ctx, a.state, svc)
	a.tasks = views.NewTaskListView(ctx, a.state, svc)
	a.goals = views.NewGoalListView(ctx, a.state, svc)
	return a
}

// State exposes the shared state
func (a *App) State() *app.State {
	return a.state
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.load())
}

// load reads every collection. The state only changes when the whole
// snapshot arrived.
func (a *App) load() tea.Cmd {
	a.state.StartLoad()
	a.state.SetToday(derive.FormatDate(a.now()))

	ctx, svc := a.ctx, a.svc
	return func() tea.Msg {
		snap, err := svc.Load(ctx)
		if err != nil {
			return loadFailedMsg{err: err}
		}
		return loadedMsg{snap: snap}
	}
}

func (a *App) current() view {
	switch a.state.Tab {
	case app.TabInbox:
		return a.inbox
	case app.TabGoals:
		return a.goals
	}
	return a.tasks
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		inner := tea.WindowSizeMsg{Width: msg.Width, Height: max(msg.Height-chrome, 1)}
		a.inbox.Update(inner)
		a.tasks.Update(inner)
		a.goals.Update(inner)
		return a, nil

	case spinner.TickMsg:
		if a.state.Phase != app.PhaseLoading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case loadedMsg:
		a.state.Loaded(msg.snap)
		return a, nil

	case loadFailedMsg:
		a.state.LoadFailed(msg.err)
		return a, nil

	case views.TaskSaved:
		a.state.PutTask(msg.Task)
		return a, nil
	case views.TaskDeleted:
		a.state.RemoveTask(msg.ID)
		return a, nil
	case views.InspirationSaved:
		a.state.PutInspiration(msg.Inspiration)
		return a, nil
	case views.InspirationDeleted:
		a.state.RemoveInspiration(msg.ID)
		return a, nil
	case views.GoalSaved:
		a.state.PutGoal(msg.Goal)
		return a, nil
	case views.GoalDeleted:
		a.state.RemoveGoal(msg.ID)
		return a, nil

	case views.WriteFailed:
		a.setStatus(fmt.Sprintf("%s失败: %v", msg.Op, msg.Err), true)
		return a, nil

	case views.Notice:
		a.setStatus(msg.Text, false)
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)
	}

	if a.state.Ready() {
		_, cmd := a.current().Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.state.Phase {
	case app.PhaseLoading:
		return a, nil

	case app.PhaseFailed:
		switch {
		case key.Matches(msg, a.keys.Retry):
			return a, tea.Batch(a.spinner.Tick, a.load())
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit
		}
		return a, nil
	}

	a.status = ""
	a.state.SetToday(derive.FormatDate(a.now()))
	cur := a.current()
	if !cur.Capturing() {
		switch {
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, a.keys.Inbox):
			a.state.SetTab(app.TabInbox)
			return a, nil
		case key.Matches(msg, a.keys.Tasks):
			a.state.SetTab(app.TabTasks)
			return a, nil
		case key.Matches(msg, a.keys.Goals):
			a.state.SetTab(app.TabGoals)
			return a, nil
		case key.Matches(msg, a.keys.Tab):
			a.state.SetTab(nextTab(a.state.Tab))
			return a, nil
		}
	}

	_, cmd := cur.Update(msg)
	return a, cmd
}

func (a *App) setStatus(text string, isErr bool) {
	a.status = text
	a.statusError = isErr
}

func nextTab(t app.Tab) app.Tab {
	for i, tab := range app.Tabs {
		if tab == t {
			return app.Tabs[(i+1)%len(app.Tabs)]
		}
	}
	return app.Tabs[0]
}

func (a *App) View() string {
	switch a.state.Phase {
	case app.PhaseLoading:
		return a.center(a.spinner.View() + " 正在加载...")

	case app.PhaseFailed:
		return a.center(lipgloss.JoinVertical(lipgloss.Center,
			a.styles.StatusError.Render(fmt.Sprintf("加载失败: %v", a.state.Err)),
			"",
			a.styles.TitleMuted.Render("r 重试 • q 退出"),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		a.renderTabs(),
		a.current().View(),
		a.renderStatus(),
	)
}

func (a *App) center(content string) string {
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, content)
}

func (a *App) renderTabs() string {
	var tabs []string
	for i, t := range app.Tabs {
		label := fmt.Sprintf("%d %s", i+1, t)
		if t == a.state.Tab {
			tabs = append(tabs, a.styles.TabActive.Render(label))
		} else {
			tabs = append(tabs, a.styles.Tab.Render(label))
		}
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	return bar + "\n" + a.styles.TitleMuted.Render(strings.Repeat("─", styles.ContentWidth(a.width)))
}

func (a *App) renderStatus() string {
	if a.status == "" {
		return ""
	}
	if a.statusError {
		return a.styles.StatusError.Render(a.status)
	}
	return a.styles.Status.Render(a.status)
}
