package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/stride/internal/app"
	"github.com/tgienger/stride/internal/models"
	"github.com/tgienger/stride/internal/ui/keys"
	"github.com/tgienger/stride/internal/ui/styles"
)

// Defaults a new goal starts with
const (
	DefaultGoalCategory = "个人"
	DefaultGoalBgImage  = "https://images.unsplash.com/photo-1499750310107-5fef28a66643?q=80&w=1000"
)

// goal form fields, in tab order
const (
	goalFieldTitle = iota
	goalFieldCategory
	goalFieldDeadline
	goalFieldBgImage
	goalFieldMilestones
	goalFieldSave
	goalFieldCount
)

// GoalListView lists goals and their milestones
type GoalListView struct {
	ctx    context.Context
	state  *app.State
	svc    *app.Services
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	cursor  int
	scrollY int

	// Detail view
	viewing         bool
	milestoneCursor int

	// Creation/editing
	editing        bool
	editingNew     bool
	editID         string
	editRevision   int
	editTitle      textinput.Model
	editCategory   textinput.Model
	editDeadline   textinput.Model
	editBgImage    textinput.Model
	editMilestone  textinput.Model
	editMilestones []models.Milestone
	editMsCursor   int
	editFocusIdx   int

	// Delete confirmation
	confirmingDelete bool
	deleteTargetID   string
	deleteTargetName string

	showHelpPopup bool
}

// NewGoalListView creates the goal list over the shared state
func NewGoalListView(ctx context.Context, state *app.State, svc *app.Services) *GoalListView {
	editTitle := textinput.New()
	editTitle.Placeholder = "愿景标题"
	editTitle.CharLimit = 200

	editCategory := textinput.New()
	editCategory.Placeholder = DefaultGoalCategory
	editCategory.CharLimit = 40

	editDeadline := textinput.New()
	editDeadline.Placeholder = "截止日期 (可选)"
	editDeadline.CharLimit = 40

	editBgImage := textinput.New()
	editBgImage.Placeholder = "背景图片地址"
	editBgImage.CharLimit = 500

	editMilestone := textinput.New()
	editMilestone.Placeholder = "添加里程碑并回车..."
	editMilestone.CharLimit = 200

	return &GoalListView{
		ctx:           ctx,
		state:         state,
		svc:           svc,
		styles:        styles.NewStyles(),
		keys:          keys.DefaultKeyMap(),
		editTitle:     editTitle,
		editCategory:  editCategory,
		editDeadline:  editDeadline,
		editBgImage:   editBgImage,
		editMilestone: editMilestone,
	}
}

// Init initializes the view
func (v *GoalListView) Init() tea.Cmd {
	return nil
}

// Capturing reports whether the view is consuming every key press
func (v *GoalListView) Capturing() bool {
	return v.editing || v.viewing || v.confirmingDelete || v.showHelpPopup
}

func (v *GoalListView) selected() (models.Goal, bool) {
	goals := v.state.Goals
	if len(goals) == 0 {
		return models.Goal{}, false
	}
	v.cursor = clamp(v.cursor, 0, len(goals)-1)
	return goals[v.cursor], true
}

// Update handles messages
func (v *GoalListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
		if v.viewing {
			return v.updateViewing(msg)
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v *GoalListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.scrollY = scrollFor(v.cursor, v.scrollY, v.visibleRows())
		}

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.state.Goals)-1 {
			v.cursor++
			v.scrollY = scrollFor(v.cursor, v.scrollY, v.visibleRows())
		}

	case key.Matches(msg, v.keys.Enter):
		if _, ok := v.selected(); ok {
			v.viewing = true
			v.milestoneCursor = 0
		}

	case key.Matches(msg, v.keys.New):
		v.startNew()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Edit):
		if g, ok := v.selected(); ok {
			v.startEdit(g)
			return v, textinput.Blink
		}

	case key.Matches(msg, v.keys.Delete):
		if g, ok := v.selected(); ok {
			v.askDelete(g)
		}

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
	}
	return v, nil
}

func (v *GoalListView) updateViewing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	goal, ok := v.selected()
	if !ok {
		v.viewing = false
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keys.Back):
		v.viewing = false

	case key.Matches(msg, v.keys.Up):
		if v.milestoneCursor > 0 {
			v.milestoneCursor--
		}

	case key.Matches(msg, v.keys.Down):
		if v.milestoneCursor < len(goal.Milestones)-1 {
			v.milestoneCursor++
		}

	case key.Matches(msg, v.keys.Toggle), key.Matches(msg, v.keys.Enter):
		if v.milestoneCursor < len(goal.Milestones) {
			return v, v.toggleMilestone(goal, v.milestoneCursor)
		}

	case key.Matches(msg, v.keys.Edit):
		v.viewing = false
		v.startEdit(goal)
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Delete):
		v.viewing = false
		v.askDelete(goal)
	}
	return v, nil
}

// toggleMilestone flips one milestone and writes the whole set back
func (v *GoalListView) toggleMilestone(goal models.Goal, idx int) tea.Cmd {
	ms := append([]models.Milestone{}, goal.Milestones...)
	ms[idx].Completed = !ms[idx].Completed

	patch := models.GoalPatch{
		Milestones:       &ms,
		ExpectedRevision: models.Ptr(goal.Revision),
	}
	ctx, svc, id := v.ctx, v.svc, goal.ID
	return func() tea.Msg {
		updated, err := svc.Goals.Update(ctx, id, patch)
		if err != nil {
			return failed("更新里程碑", err)
		}
		return GoalSaved{Goal: updated}
	}
}

func (v *GoalListView) askDelete(g models.Goal) {
	v.confirmingDelete = true
	v.deleteTargetID = g.ID
	v.deleteTargetName = g.Title
}

func (v *GoalListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
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
		if err := svc.Goals.Delete(ctx, id); err != nil {
			return failed("删除目标", err)
		}
		return GoalDeleted{ID: id}
	}
}

func (v *GoalListView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.save()

	case key.Matches(msg, v.keys.Tab):
		v.editFocusIdx = (v.editFocusIdx + 1) % goalFieldCount
		v.updateEditFocus()
		return v, nil

	case msg.String() == "shift+tab":
		v.editFocusIdx = (v.editFocusIdx + goalFieldCount - 1) % goalFieldCount
		v.updateEditFocus()
		return v, nil
	}

	switch v.editFocusIdx {
	case goalFieldMilestones:
		if v.updateMilestoneEditor(msg) {
			return v, nil
		}

	case goalFieldSave:
		if key.Matches(msg, v.keys.Enter) {
			return v, v.save()
		}
		return v, nil

	default:
		if key.Matches(msg, v.keys.Enter) {
			v.editFocusIdx++
			v.updateEditFocus()
			return v, nil
		}
	}

	var cmd tea.Cmd
	switch v.editFocusIdx {
	case goalFieldTitle:
		v.editTitle, cmd = v.editTitle.Update(msg)
	case goalFieldCategory:
		v.editCategory, cmd = v.editCategory.Update(msg)
	case goalFieldDeadline:
		v.editDeadline, cmd = v.editDeadline.Update(msg)
	case goalFieldBgImage:
		v.editBgImage, cmd = v.editBgImage.Update(msg)
	case goalFieldMilestones:
		v.editMilestone, cmd = v.editMilestone.Update(msg)
	}
	return v, cmd
}

// updateMilestoneEditor handles the keys the milestone list owns. Typing
// goes to the input below the list.
func (v *GoalListView) updateMilestoneEditor(msg tea.KeyMsg) bool {
	switch {
	case key.Matches(msg, v.keys.Enter):
		if title := strings.TrimSpace(v.editMilestone.Value()); title != "" {
			v.editMilestones = append(v.editMilestones, models.Milestone{Title: title})
			v.editMsCursor = len(v.editMilestones) - 1
			v.editMilestone.Reset()
		}
		return true

	case msg.String() == "up":
		if v.editMsCursor > 0 {
			v.editMsCursor--
		}
		return true

	case msg.String() == "down":
		if v.editMsCursor < len(v.editMilestones)-1 {
			v.editMsCursor++
		}
		return true

	case msg.String() == "ctrl+x":
		if v.editMsCursor < len(v.editMilestones) {
			ms := v.editMilestones[v.editMsCursor]
			ms.Completed = !ms.Completed
			v.editMilestones[v.editMsCursor] = ms
		}
		return true

	case msg.String() == "ctrl+d":
		if v.editMsCursor < len(v.editMilestones) {
			v.editMilestones = append(v.editMilestones[:v.editMsCursor:v.editMsCursor], v.editMilestones[v.editMsCursor+1:]...)
			v.editMsCursor = clamp(v.editMsCursor, 0, max(len(v.editMilestones)-1, 0))
		}
		return true
	}
	return false
}

func (v *GoalListView) updateEditFocus() {
	v.editTitle.Blur()
	v.editCategory.Blur()
	v.editDeadline.Blur()
	v.editBgImage.Blur()
	v.editMilestone.Blur()

	switch v.editFocusIdx {
	case goalFieldTitle:
		v.editTitle.Focus()
	case goalFieldCategory:
		v.editCategory.Focus()
	case goalFieldDeadline:
		v.editDeadline.Focus()
	case goalFieldBgImage:
		v.editBgImage.Focus()
	case goalFieldMilestones:
		v.editMilestone.Focus()
	}
}

func (v *GoalListView) startNew() {
	v.editing = true
	v.editingNew = true
	v.editID = ""
	v.editRevision = 0
	v.editTitle.Reset()
	v.editCategory.SetValue(DefaultGoalCategory)
	v.editDeadline.Reset()
	v.editBgImage.SetValue(DefaultGoalBgImage)
	v.editMilestone.Reset()
	v.editMilestones = []models.Milestone{}
	v.editMsCursor = 0
	v.editFocusIdx = goalFieldTitle
	v.updateEditFocus()
}

func (v *GoalListView) startEdit(g models.Goal) {
	v.editing = true
	v.editingNew = false
	v.editID = g.ID
	v.editRevision = g.Revision
	v.editTitle.SetValue(g.Title)
	v.editCategory.SetValue(g.Category)
	v.editDeadline.SetValue(g.Deadline)
	v.editBgImage.SetValue(g.BgImage)
	v.editMilestone.Reset()
	v.editMilestones = append([]models.Milestone{}, g.Milestones...)
	v.editMsCursor = 0
	v.editFocusIdx = goalFieldTitle
	v.updateEditFocus()
}

// save closes the form and writes the goal with its full milestone set
// when the title is not empty
func (v *GoalListView) save() tea.Cmd {
	v.editing = false

	title := strings.TrimSpace(v.editTitle.Value())
	if title == "" {
		return nil
	}
	category := strings.TrimSpace(v.editCategory.Value())
	if category == "" {
		category = DefaultGoalCategory
	}
	bgImage := strings.TrimSpace(v.editBgImage.Value())
	if bgImage == "" {
		bgImage = DefaultGoalBgImage
	}
	deadline := strings.TrimSpace(v.editDeadline.Value())
	milestones := append([]models.Milestone{}, v.editMilestones...)

	patch := models.GoalPatch{
		Title:      &title,
		Category:   &category,
		BgImage:    &bgImage,
		Deadline:   &deadline,
		Milestones: &milestones,
	}

	ctx, svc := v.ctx, v.svc
	if v.editingNew {
		return func() tea.Msg {
			g, err := svc.Goals.Create(ctx, patch)
			if err != nil {
				return failed("新建目标", err)
			}
			return GoalSaved{Goal: g}
		}
	}

	patch.ExpectedRevision = models.Ptr(v.editRevision)
	id := v.editID
	return func() tea.Msg {
		g, err := svc.Goals.Update(ctx, id, patch)
		if err != nil {
			return failed("更新目标", err)
		}
		return GoalSaved{Goal: g}
	}
}

func (v *GoalListView) visibleRows() int {
	return max((v.height-10)/4, 1)
}

// View renders the view
func (v *GoalListView) View() string {
	if v.showHelpPopup {
		return renderHelpPopup(v.styles, v.width, v.height,
			"↵", "查看里程碑",
			"n", "新建目标",
			"e", "编辑",
			"d", "删除",
			"1 2 3", "切换标签页",
			"q", "退出",
		)
	}
	if v.confirmingDelete {
		return renderConfirmDelete(v.styles, v.width, v.height, "删除目标？", v.deleteTargetName)
	}
	if v.editing {
		return v.renderEditForm()
	}
	if v.viewing {
		return v.renderDetail()
	}

	s := v.styles
	var b strings.Builder
	b.WriteString(s.Title.Render("长期目标"))
	b.WriteString("\n\n")
	b.WriteString(v.renderList())
	b.WriteString("\n")
	b.WriteString(helpLine(s, "↵", "查看", "n", "新建", "e", "编辑", "d", "删除", "?", "帮助"))
	return b.String()
}

func (v *GoalListView) renderList() string {
	s := v.styles
	goals := v.state.Goals
	if len(goals) == 0 {
		return s.TitleMuted.Render("还没有目标。按 n 新建。")
	}
	v.cursor = clamp(v.cursor, 0, len(goals)-1)

	width := max(styles.ContentWidth(v.width)-4, 20)
	barWidth := clamp(width-20, 10, 40)
	end := min(v.scrollY+v.visibleRows(), len(goals))

	var cards []string
	for i := v.scrollY; i < end; i++ {
		g := goals[i]
		style := s.ListItem
		if i == v.cursor {
			style = s.ListSelected
		}

		meta := s.Category.Render(g.Category) + s.TitleMuted.Render(fmt.Sprintf("  %d 个里程碑", len(g.Milestones)))
		if g.Deadline != "" {
			meta += s.TitleMuted.Render("  截止 " + g.Deadline)
		}
		cards = append(cards, lipgloss.JoinVertical(lipgloss.Left,
			style.Width(width).Render(g.Title),
			style.Width(width).Render(meta),
			style.Width(width).Render(s.ProgressBar(g.Progress, barWidth)),
		)+"\n")
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func (v *GoalListView) renderMilestones(ms []models.Milestone, cursor int, focused bool) string {
	s := v.styles
	if len(ms) == 0 {
		return s.TitleMuted.Render("没有里程碑")
	}
	var rows []string
	for i, m := range ms {
		check := "[ ]"
		title := m.Title
		if m.Completed {
			check = "[x]"
			title = s.Completed.Render(title)
		}
		style := s.ListItem
		if focused && i == cursor {
			style = s.ListSelected
		}
		rows = append(rows, style.Render(check+" "+title))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (v *GoalListView) renderDetail() string {
	g, ok := v.selected()
	if !ok {
		return ""
	}
	s := v.styles
	barWidth := clamp(styles.ContentWidth(v.width)-20, 10, 40)

	rows := []string{
		s.Title.Render(g.Title),
		s.Category.Render(g.Category),
	}
	if g.Deadline != "" {
		rows = append(rows, s.TitleMuted.Render("截止 "+g.Deadline))
	}
	rows = append(rows,
		"",
		s.ProgressBar(g.Progress, barWidth),
		"",
		v.renderMilestones(g.Milestones, v.milestoneCursor, true),
		"",
		helpLine(s, "space", "完成里程碑", "e", "编辑", "d", "删除", "esc", "返回"),
	)

	padded := lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	return styles.CenterView(padded, v.width, v.height)
}

func (v *GoalListView) renderEditForm() string {
	s := v.styles
	inputWidth := clamp(styles.ContentWidth(v.width)-6, 20, 50)

	formTitle := "新建愿景"
	if !v.editingNew {
		formTitle = "编辑愿景"
	}

	focusedMs := v.editFocusIdx == goalFieldMilestones
	milestones := lipgloss.JoinVertical(lipgloss.Left,
		v.renderMilestones(v.editMilestones, v.editMsCursor, focusedMs),
		v.editMilestone.View(),
	)

	btnStyle := s.Button
	if v.editFocusIdx == goalFieldSave {
		btnStyle = s.ButtonFocused
	}

	return renderForm(v.width, v.height,
		s.Title.Render(formTitle),
		"",
		field(s, "标题", v.editTitle.View(), v.editFocusIdx == goalFieldTitle, inputWidth),
		field(s, "分类", v.editCategory.View(), v.editFocusIdx == goalFieldCategory, inputWidth),
		field(s, "截止日期", v.editDeadline.View(), v.editFocusIdx == goalFieldDeadline, inputWidth),
		field(s, "背景图片", v.editBgImage.View(), v.editFocusIdx == goalFieldBgImage, inputWidth),
		field(s, "里程碑", milestones, focusedMs, inputWidth),
		s.ProgressBar(models.MilestoneProgress(v.editMilestones), clamp(inputWidth-8, 10, 40)),
		"",
		btnStyle.Render(" 保存愿景 "),
		"",
		s.TitleMuted.Render("↵: 添加 • ↑↓: 选择 • Ctrl+X: 完成 • Ctrl+D: 移除 • Ctrl+S: 保存"),
	)
}
