package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/stride/internal/app"
	"github.com/tgienger/stride/internal/derive"
	"github.com/tgienger/stride/internal/models"
	"github.com/tgienger/stride/internal/ui/keys"
	"github.com/tgienger/stride/internal/ui/styles"
)

// DefaultTaskCategory is the category a new task starts with
const DefaultTaskCategory = "工作"

// task form fields, in tab order
const (
	taskFieldTitle = iota
	taskFieldCategory
	taskFieldPriority
	taskFieldDaily
	taskFieldDate
	taskFieldSave
	taskFieldCount
)

// filter menu entries, in display order
var taskFilterMenu = []derive.TaskFilter{derive.FilterAll, derive.FilterDaily, derive.FilterOverdue, derive.FilterNone}

// TaskListView shows the tasks of the selected date or named filter
type TaskListView struct {
	ctx    context.Context
	state  *app.State
	svc    *app.Services
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	cursor  int
	scrollY int

	// Filter menu
	filterMenuOpen bool
	filterCursor   int

	// Task creation/editing
	editing      bool
	editingNew   bool
	editID       string
	editTitle    textinput.Model
	editCategory textinput.Model
	editDate     textinput.Model
	editPriority models.Priority
	editDaily    bool
	editFocusIdx int

	// Delete confirmation
	confirmingDelete bool
	deleteTargetID   string
	deleteTargetName string

	showHelpPopup bool
}

// NewTaskListView creates the task list over the shared state
func NewTaskListView(ctx context.Context, state *app.State, svc *app.Services) *TaskListView {
	editTitle := textinput.New()
	editTitle.Placeholder = "任务标题"
	editTitle.CharLimit = 200

	editCategory := textinput.New()
	editCategory.Placeholder = DefaultTaskCategory
	editCategory.CharLimit = 40

	editDate := textinput.New()
	editDate.Placeholder = derive.DateLayout
	editDate.CharLimit = len(derive.DateLayout)

	return &TaskListView{
		ctx:          ctx,
		state:        state,
		svc:          svc,
		styles:       styles.NewStyles(),
		keys:         keys.DefaultKeyMap(),
		editTitle:    editTitle,
		editCategory: editCategory,
		editDate:     editDate,
	}
}

// Init initializes the view
func (v *TaskListView) Init() tea.Cmd {
	return nil
}

// Capturing reports whether the view is consuming every key press
func (v *TaskListView) Capturing() bool {
	return v.editing || v.confirmingDelete || v.filterMenuOpen || v.showHelpPopup
}

func (v *TaskListView) visible() []models.Task {
	return v.state.VisibleTasks()
}

func (v *TaskListView) selected() (models.Task, bool) {
	tasks := v.visible()
	if len(tasks) == 0 {
		return models.Task{}, false
	}
	v.cursor = clamp(v.cursor, 0, len(tasks)-1)
	return tasks[v.cursor], true
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}
		if v.editing {
			return v.updateEditing(msg)
		}
		if v.filterMenuOpen {
			return v.updateFilterMenu(msg)
		}
		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.visible())-1 {
			v.cursor++
			v.ensureVisible()
		}

	case key.Matches(msg, v.keys.Toggle):
		if task, ok := v.selected(); ok {
			return v, v.toggleTask(task)
		}

	case key.Matches(msg, v.keys.New):
		v.startNewTask()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Edit), key.Matches(msg, v.keys.Enter):
		if task, ok := v.selected(); ok {
			v.startEditTask(task)
			return v, textinput.Blink
		}

	case key.Matches(msg, v.keys.Delete):
		if task, ok := v.selected(); ok {
			v.confirmingDelete = true
			v.deleteTargetID = task.ID
			v.deleteTargetName = task.Title
		}

	case key.Matches(msg, v.keys.PrevDay):
		v.state.ShiftDate(-1)
		v.resetCursor()

	case key.Matches(msg, v.keys.NextDay):
		v.state.ShiftDate(1)
		v.resetCursor()

	case key.Matches(msg, v.keys.Today):
		v.state.SelectDate(v.state.Today)
		v.resetCursor()

	case key.Matches(msg, v.keys.Filter):
		v.filterMenuOpen = true
		v.filterCursor = 0

	case key.Matches(msg, v.keys.Clear):
		v.state.ClearFilter()
		v.resetCursor()

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
	}

	return v, nil
}

func (v *TaskListView) updateFilterMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back), key.Matches(msg, v.keys.Filter):
		v.filterMenuOpen = false

	case key.Matches(msg, v.keys.Up):
		if v.filterCursor > 0 {
			v.filterCursor--
		}

	case key.Matches(msg, v.keys.Down):
		if v.filterCursor < len(taskFilterMenu)-1 {
			v.filterCursor++
		}

	case key.Matches(msg, v.keys.Enter):
		if f := taskFilterMenu[v.filterCursor]; f == derive.FilterNone {
			v.state.ClearFilter()
		} else {
			v.state.SetFilter(f)
		}
		v.filterMenuOpen = false
		v.resetCursor()
	}
	return v, nil
}

func (v *TaskListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	answered, yes := confirmKey(msg)
	if !answered {
		return v, nil
	}
	v.confirmingDelete = false
	if !yes {
		return v, nil
	}

	ctx, svc, id := v.ctx, v.svc, v.deleteTargetID
	return v, func() tea.Msg {
		if err := svc.Tasks.Delete(ctx, id); err != nil {
			return failed("删除任务", err)
		}
		return TaskDeleted{ID: id}
	}
}

func (v *TaskListView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.saveTask()

	case key.Matches(msg, v.keys.Tab):
		v.editFocusIdx = (v.editFocusIdx + 1) % taskFieldCount
		v.updateEditFocus()
		return v, nil

	case msg.String() == "shift+tab":
		v.editFocusIdx = (v.editFocusIdx + taskFieldCount - 1) % taskFieldCount
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.editFocusIdx == taskFieldSave {
			return v, v.saveTask()
		}
		v.editFocusIdx++
		v.updateEditFocus()
		return v, nil
	}

	switch v.editFocusIdx {
	case taskFieldPriority:
		switch {
		case key.Matches(msg, v.keys.Left):
			v.editPriority = cyclePriority(v.editPriority, -1)
		case key.Matches(msg, v.keys.Right), key.Matches(msg, v.keys.Toggle):
			v.editPriority = cyclePriority(v.editPriority, 1)
		}
		return v, nil

	case taskFieldDaily:
		if key.Matches(msg, v.keys.Toggle) || key.Matches(msg, v.keys.Left) || key.Matches(msg, v.keys.Right) {
			v.editDaily = !v.editDaily
		}
		return v, nil
	}

	var cmd tea.Cmd
	switch v.editFocusIdx {
	case taskFieldTitle:
		v.editTitle, cmd = v.editTitle.Update(msg)
	case taskFieldCategory:
		v.editCategory, cmd = v.editCategory.Update(msg)
	case taskFieldDate:
		v.editDate, cmd = v.editDate.Update(msg)
	}
	return v, cmd
}

func cyclePriority(p models.Priority, dir int) models.Priority {
	n := len(models.Priorities)
	for i, candidate := range models.Priorities {
		if candidate == p {
			return models.Priorities[(i+dir+n)%n]
		}
	}
	return models.PriorityMedium
}

func (v *TaskListView) resetCursor() {
	v.cursor = 0
	v.scrollY = 0
}

func (v *TaskListView) visibleRows() int {
	return max((v.height-12)/2, 1)
}

func (v *TaskListView) ensureVisible() {
	v.scrollY = scrollFor(v.cursor, v.scrollY, v.visibleRows())
}

func (v *TaskListView) startNewTask() {
	v.editing = true
	v.editingNew = true
	v.editID = ""
	v.editFocusIdx = taskFieldTitle
	v.editTitle.Reset()
	v.editCategory.SetValue(DefaultTaskCategory)
	v.editDate.SetValue(v.state.SelectedDate)
	v.editPriority = models.PriorityMedium
	v.editDaily = false
	v.updateEditFocus()
}

func (v *TaskListView) startEditTask(task models.Task) {
	v.editing = true
	v.editingNew = false
	v.editID = task.ID
	v.editFocusIdx = taskFieldTitle
	v.editTitle.SetValue(task.Title)
	v.editCategory.SetValue(task.Category)
	v.editDate.SetValue(task.Date)
	v.editPriority = task.Priority
	v.editDaily = task.IsDaily
	v.updateEditFocus()
}

func (v *TaskListView) updateEditFocus() {
	v.editTitle.Blur()
	v.editCategory.Blur()
	v.editDate.Blur()

	switch v.editFocusIdx {
	case taskFieldTitle:
		v.editTitle.Focus()
	case taskFieldCategory:
		v.editCategory.Focus()
	case taskFieldDate:
		v.editDate.Focus()
	}
}

// saveTask closes the form and, when the title is not empty, writes the
// task. The form closes whatever the outcome of the write.
func (v *TaskListView) saveTask() tea.Cmd {
	v.editing = false

	title := strings.TrimSpace(v.editTitle.Value())
	if title == "" {
		return nil
	}
	category := strings.TrimSpace(v.editCategory.Value())
	if category == "" {
		category = DefaultTaskCategory
	}
	date := strings.TrimSpace(v.editDate.Value())
	if _, err := time.Parse(derive.DateLayout, date); err != nil {
		date = v.state.SelectedDate
	}

	patch := models.TaskPatch{
		Title:    &title,
		Category: &category,
		Priority: models.Ptr(v.editPriority),
		IsDaily:  models.Ptr(v.editDaily),
		Date:     &date,
	}

	ctx, svc := v.ctx, v.svc
	if v.editingNew {
		return func() tea.Msg {
			task, err := svc.Tasks.Create(ctx, patch)
			if err != nil {
				return failed("新建任务", err)
			}
			return TaskSaved{Task: task}
		}
	}

	id := v.editID
	return func() tea.Msg {
		task, err := svc.Tasks.Update(ctx, id, patch)
		if err != nil {
			return failed("更新任务", err)
		}
		return TaskSaved{Task: task}
	}
}

func (v *TaskListView) toggleTask(task models.Task) tea.Cmd {
	ctx, svc := v.ctx, v.svc
	return func() tea.Msg {
		updated, err := svc.Tasks.ToggleComplete(ctx, task.ID, !task.Completed)
		if err != nil {
			return failed("更新任务", err)
		}
		return TaskSaved{Task: updated}
	}
}

// View renders the view
func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return renderHelpPopup(v.styles, v.width, v.height,
			"space", "完成/取消完成",
			"n", "新建任务",
			"e/↵", "编辑任务",
			"d", "删除任务",
			"[ ]", "前一天/后一天",
			"t", "回到今天",
			"f", "筛选",
			"c", "清除筛选",
			"1 2 3", "切换标签页",
			"q", "退出",
		)
	}
	if v.confirmingDelete {
		return renderConfirmDelete(v.styles, v.width, v.height, "删除任务？", v.deleteTargetName)
	}
	if v.editing {
		return v.renderEditForm()
	}

	var b strings.Builder
	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")
	if v.filterMenuOpen {
		b.WriteString(v.renderFilterMenu())
		b.WriteString("\n")
	}
	b.WriteString(v.renderTaskList())
	b.WriteString("\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *TaskListView) renderHeader() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	label := v.state.FilterLabel()
	nav := ""
	if v.state.Filter == derive.FilterNone {
		nav = s.TitleMuted.Render("  ‹ [   ] ›")
	}
	title := s.Title.Render(label) + nav

	bar := s.ProgressBar(v.state.TaskProgress(), clamp(contentWidth-20, 10, 40))
	return lipgloss.JoinVertical(lipgloss.Left, title, bar)
}

func (v *TaskListView) renderFilterMenu() string {
	s := v.styles
	counts := v.state.TaskCounts()

	var items []string
	for i, f := range taskFilterMenu {
		var text string
		switch f {
		case derive.FilterAll:
			text = fmt.Sprintf("%s (%d)", derive.FilterLabel(f, "", ""), counts.All)
		case derive.FilterDaily:
			text = fmt.Sprintf("%s (%d)", derive.FilterLabel(f, "", ""), counts.Daily)
		case derive.FilterOverdue:
			text = fmt.Sprintf("%s (%d)", derive.FilterLabel(f, "", ""), counts.Overdue)
		default:
			text = "清除筛选"
		}
		if f != derive.FilterNone && f == v.state.Filter {
			text = "● " + text
		}

		itemStyle := s.ListItem
		if i == v.filterCursor {
			itemStyle = s.ListSelected
		}
		items = append(items, itemStyle.Render(text))
	}
	return s.Popup.Render(lipgloss.JoinVertical(lipgloss.Left, items...))
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles
	tasks := v.visible()

	if len(tasks) == 0 {
		return s.TitleMuted.Render("没有任务。按 n 新建。")
	}
	v.cursor = clamp(v.cursor, 0, len(tasks)-1)

	end := min(v.scrollY+v.visibleRows(), len(tasks))
	var items []string
	for i := v.scrollY; i < end; i++ {
		items = append(items, v.renderTaskItem(tasks[i], i == v.cursor))
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *TaskListView) renderTaskItem(task models.Task, selected bool) string {
	s := v.styles
	width := max(styles.ContentWidth(v.width)-4, 20)

	check := "[ ]"
	title := task.Title
	switch {
	case task.Completed:
		check = "[x]"
		title = s.Completed.Render(title)
	case derive.IsOverdue(task, v.state.Today):
		title = s.Overdue.Render(title)
	}

	meta := []string{
		s.Priority(task.Priority).Render(priorityLabel(task.Priority)),
		s.Category.Render(task.Category),
	}
	if task.IsDaily {
		meta = append(meta, s.Badge.Render("每日"))
	} else if task.Date != v.state.SelectedDate {
		meta = append(meta, s.TitleMuted.Render(task.Date))
	}

	line := check + " " + title + "  " + strings.Join(meta, " ")

	style := s.ListItem
	if selected {
		style = s.ListSelected
	}
	return style.Width(width).Render(line) + "\n"
}

func priorityLabel(p models.Priority) string {
	switch p {
	case models.PriorityHigh:
		return "高"
	case models.PriorityLow:
		return "低"
	}
	return "中"
}

func (v *TaskListView) renderEditForm() string {
	s := v.styles
	inputWidth := clamp(styles.ContentWidth(v.width)-6, 20, 50)

	formTitle := "新建任务"
	if !v.editingNew {
		formTitle = "编辑任务"
	}

	var priorities []string
	for _, p := range models.Priorities {
		label := priorityLabel(p)
		if p == v.editPriority {
			label = s.Priority(p).Render("[" + label + "]")
		} else {
			label = s.TitleMuted.Render(" " + label + " ")
		}
		priorities = append(priorities, label)
	}

	daily := "[ ] 每日循环"
	if v.editDaily {
		daily = "[x] 每日循环"
	}

	btnStyle := s.Button
	if v.editFocusIdx == taskFieldSave {
		btnStyle = s.ButtonFocused
	}

	return renderForm(v.width, v.height,
		s.Title.Render(formTitle),
		"",
		field(s, "标题", v.editTitle.View(), v.editFocusIdx == taskFieldTitle, inputWidth),
		field(s, "分类", v.editCategory.View(), v.editFocusIdx == taskFieldCategory, inputWidth),
		field(s, "优先级", strings.Join(priorities, " "), v.editFocusIdx == taskFieldPriority, inputWidth),
		field(s, "重复", daily, v.editFocusIdx == taskFieldDaily, inputWidth),
		field(s, "日期", v.editDate.View(), v.editFocusIdx == taskFieldDate, inputWidth),
		"",
		btnStyle.Render(" 保存 "),
		"",
		s.TitleMuted.Render("Tab: 下一项 • ←→/空格: 切换 • Ctrl+S: 保存 • Esc: 取消"),
	)
}

func (v *TaskListView) renderHelp() string {
	if w := styles.ContentWidth(v.width); w > 0 && w < 60 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " 帮助")
	}
	return helpLine(v.styles,
		"space", "完成",
		"n", "新建",
		"e", "编辑",
		"d", "删除",
		"[ ]", "日期",
		"t", "今天",
		"f", "筛选",
		"?", "帮助",
	)
}
