package views

import (
	"context"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/stride/internal/app"
	"github.com/tgienger/stride/internal/derive"
	"github.com/tgienger/stride/internal/models"
	"github.com/tgienger/stride/internal/ui/keys"
	"github.com/tgienger/stride/internal/ui/styles"
)

// inspiration form fields, in tab order
const (
	inboxFieldType = iota
	inboxFieldTitle
	inboxFieldContent
	inboxFieldMedia
	inboxFieldTags
	inboxFieldSave
	inboxFieldCount
)

var inspirationTypes = []models.InspirationType{models.InspirationText, models.InspirationImage, models.InspirationVoice}

// copyToClipboard is swapped out in tests
var copyToClipboard = clipboard.WriteAll

// InboxView lists inspirations with search
type InboxView struct {
	ctx    context.Context
	state  *app.State
	svc    *app.Services
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	cursor      int
	scrollY     int
	searching   bool
	searchInput textinput.Model

	// Detail view
	viewing bool

	// Creation/editing
	editing      bool
	editingNew   bool
	editID       string
	editType     models.InspirationType
	editTitle    textinput.Model
	editContent  textarea.Model
	editMedia    textinput.Model
	editTagInput textinput.Model
	editTags     []string
	editFocusIdx int

	// Delete confirmation
	confirmingDelete bool
	deleteTargetID   string
	deleteTargetName string

	showHelpPopup bool
}

// NewInboxView creates the inbox over the shared state
func NewInboxView(ctx context.Context, state *app.State, svc *app.Services) *InboxView {
	search := textinput.New()
	search.Placeholder = "搜索标题、内容或标签..."
	search.CharLimit = 100

	editTitle := textinput.New()
	editTitle.Placeholder = "为灵感取个简短的标题"
	editTitle.CharLimit = 200

	editContent := textarea.New()
	editContent.Placeholder = "在这里记录详细内容..."
	editContent.CharLimit = 5000
	editContent.SetWidth(50)
	editContent.SetHeight(6)
	editContent.ShowLineNumbers = false

	editMedia := textinput.New()
	editMedia.CharLimit = 500

	editTagInput := textinput.New()
	editTagInput.Placeholder = "添加新标签并回车..."
	editTagInput.CharLimit = 40

	return &InboxView{
		ctx:          ctx,
		state:        state,
		svc:          svc,
		styles:       styles.NewStyles(),
		keys:         keys.DefaultKeyMap(),
		searchInput:  search,
		editTitle:    editTitle,
		editContent:  editContent,
		editMedia:    editMedia,
		editTagInput: editTagInput,
	}
}

// Init initializes the view
func (v *InboxView) Init() tea.Cmd {
	return nil
}

// Capturing reports whether the view is consuming every key press
func (v *InboxView) Capturing() bool {
	return v.searching || v.editing || v.viewing || v.confirmingDelete || v.showHelpPopup
}

func (v *InboxView) visible() []models.Inspiration {
	return v.state.VisibleInbox()
}

func (v *InboxView) selected() (models.Inspiration, bool) {
	items := v.visible()
	if len(items) == 0 {
		return models.Inspiration{}, false
	}
	v.cursor = clamp(v.cursor, 0, len(items)-1)
	return items[v.cursor], true
}

// Update handles messages
func (v *InboxView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		inputWidth := clamp(styles.ContentWidth(v.width)-10, 20, 50)
		v.editContent.SetWidth(inputWidth)
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
		if v.searching {
			return v.updateSearch(msg)
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v *InboxView) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.searching = false
		v.searchInput.Blur()
		v.searchInput.Reset()
		v.state.InboxSearch = ""
	case key.Matches(msg, v.keys.Enter):
		v.searching = false
		v.searchInput.Blur()
	default:
		var cmd tea.Cmd
		v.searchInput, cmd = v.searchInput.Update(msg)
		v.state.InboxSearch = v.searchInput.Value()
		v.cursor, v.scrollY = 0, 0
		return v, cmd
	}
	return v, nil
}

func (v *InboxView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.scrollY = scrollFor(v.cursor, v.scrollY, v.visibleRows())
		}

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.visible())-1 {
			v.cursor++
			v.scrollY = scrollFor(v.cursor, v.scrollY, v.visibleRows())
		}

	case key.Matches(msg, v.keys.Search):
		v.searching = true
		v.searchInput.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Enter):
		if _, ok := v.selected(); ok {
			v.viewing = true
		}

	case key.Matches(msg, v.keys.New):
		v.startNew()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Edit):
		if it, ok := v.selected(); ok {
			v.startEdit(it)
			return v, textinput.Blink
		}

	case key.Matches(msg, v.keys.Delete):
		if it, ok := v.selected(); ok {
			v.askDelete(it)
		}

	case key.Matches(msg, v.keys.Yank):
		if it, ok := v.selected(); ok {
			return v, yank(it)
		}

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
	}
	return v, nil
}

func (v *InboxView) updateViewing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	it, ok := v.selected()
	if !ok {
		v.viewing = false
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keys.Back), key.Matches(msg, v.keys.Enter):
		v.viewing = false
	case key.Matches(msg, v.keys.Edit):
		v.viewing = false
		v.startEdit(it)
		return v, textinput.Blink
	case key.Matches(msg, v.keys.Delete):
		v.viewing = false
		v.askDelete(it)
	case key.Matches(msg, v.keys.Yank):
		return v, yank(it)
	}
	return v, nil
}

func (v *InboxView) askDelete(it models.Inspiration) {
	v.confirmingDelete = true
	v.deleteTargetID = it.ID
	v.deleteTargetName = displayTitle(it)
}

func (v *InboxView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
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
		if err := svc.Inspirations.Delete(ctx, id); err != nil {
			return failed("删除灵感", err)
		}
		return InspirationDeleted{ID: id}
	}
}

func yank(it models.Inspiration) tea.Cmd {
	content := it.Content
	if content == "" {
		content = it.Title
	}
	return func() tea.Msg {
		if err := copyToClipboard(content); err != nil {
			return failed("复制", err)
		}
		return Notice{Text: "已复制到剪贴板"}
	}
}

func (v *InboxView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.save()

	case key.Matches(msg, v.keys.Tab):
		v.moveFocus(1)
		return v, nil

	case msg.String() == "shift+tab":
		v.moveFocus(-1)
		return v, nil
	}

	switch v.editFocusIdx {
	case inboxFieldType:
		switch {
		case key.Matches(msg, v.keys.Left):
			v.editType = cycleType(v.editType, -1)
		case key.Matches(msg, v.keys.Right), key.Matches(msg, v.keys.Toggle):
			v.editType = cycleType(v.editType, 1)
		case key.Matches(msg, v.keys.Enter):
			v.moveFocus(1)
		}
		return v, nil

	case inboxFieldTags:
		switch {
		case key.Matches(msg, v.keys.Enter):
			v.editTags = derive.AddTag(v.editTags, v.editTagInput.Value())
			v.editTagInput.Reset()
			return v, nil
		case msg.String() == "backspace" && v.editTagInput.Value() == "" && len(v.editTags) > 0:
			v.editTags = derive.RemoveTag(v.editTags, v.editTags[len(v.editTags)-1])
			return v, nil
		}

	case inboxFieldSave:
		if key.Matches(msg, v.keys.Enter) {
			return v, v.save()
		}
		return v, nil

	case inboxFieldTitle, inboxFieldMedia:
		if key.Matches(msg, v.keys.Enter) {
			v.moveFocus(1)
			return v, nil
		}
	}

	var cmd tea.Cmd
	switch v.editFocusIdx {
	case inboxFieldTitle:
		v.editTitle, cmd = v.editTitle.Update(msg)
	case inboxFieldContent:
		v.editContent, cmd = v.editContent.Update(msg)
	case inboxFieldMedia:
		v.editMedia, cmd = v.editMedia.Update(msg)
	case inboxFieldTags:
		v.editTagInput, cmd = v.editTagInput.Update(msg)
	}
	return v, cmd
}

func cycleType(t models.InspirationType, dir int) models.InspirationType {
	n := len(inspirationTypes)
	for i, candidate := range inspirationTypes {
		if candidate == t {
			return inspirationTypes[(i+dir+n)%n]
		}
	}
	return models.InspirationText
}

func typeLabel(t models.InspirationType) string {
	switch t {
	case models.InspirationImage:
		return "图片"
	case models.InspirationVoice:
		return "语音"
	}
	return "文字"
}

// moveFocus steps through the form, skipping the media field for text notes
func (v *InboxView) moveFocus(dir int) {
	v.editFocusIdx = (v.editFocusIdx + dir + inboxFieldCount) % inboxFieldCount
	if v.editFocusIdx == inboxFieldMedia && v.editType == models.InspirationText {
		v.editFocusIdx = (v.editFocusIdx + dir + inboxFieldCount) % inboxFieldCount
	}
	v.updateEditFocus()
}

func (v *InboxView) updateEditFocus() {
	v.editTitle.Blur()
	v.editContent.Blur()
	v.editMedia.Blur()
	v.editTagInput.Blur()

	switch v.editFocusIdx {
	case inboxFieldTitle:
		v.editTitle.Focus()
	case inboxFieldContent:
		v.editContent.Focus()
	case inboxFieldMedia:
		v.editMedia.Focus()
	case inboxFieldTags:
		v.editTagInput.Focus()
	}
}

func (v *InboxView) startNew() {
	v.editing = true
	v.editingNew = true
	v.editID = ""
	v.editType = models.InspirationText
	v.editTitle.Reset()
	v.editContent.Reset()
	v.editMedia.Reset()
	v.editTagInput.Reset()
	v.editTags = []string{}
	v.editFocusIdx = inboxFieldTitle
	v.updateEditFocus()
}

func (v *InboxView) startEdit(it models.Inspiration) {
	v.editing = true
	v.editingNew = false
	v.editID = it.ID
	v.editType = it.Type
	if !v.editType.Valid() {
		v.editType = models.InspirationText
	}
	v.editTitle.SetValue(it.Title)
	v.editContent.SetValue(it.Content)
	switch it.Type {
	case models.InspirationImage:
		v.editMedia.SetValue(it.ImageSrc)
	case models.InspirationVoice:
		v.editMedia.SetValue(it.Duration)
	default:
		v.editMedia.Reset()
	}
	v.editTagInput.Reset()
	v.editTags = append([]string{}, it.Tags...)
	v.editFocusIdx = inboxFieldTitle
	v.updateEditFocus()
}

// save closes the form and writes the note unless both title and content
// are blank
func (v *InboxView) save() tea.Cmd {
	v.editing = false

	title := strings.TrimSpace(v.editTitle.Value())
	content := strings.TrimSpace(v.editContent.Value())
	if title == "" && content == "" {
		return nil
	}

	// a tag still sitting in the input counts
	tags := derive.AddTag(v.editTags, v.editTagInput.Value())
	media := strings.TrimSpace(v.editMedia.Value())

	patch := models.InspirationPatch{
		Type:    models.Ptr(v.editType),
		Title:   &title,
		Content: &content,
		Tags:    &tags,
	}
	switch v.editType {
	case models.InspirationImage:
		patch.ImageSrc = &media
		patch.Duration = models.Ptr("")
	case models.InspirationVoice:
		patch.ImageSrc = models.Ptr("")
		patch.Duration = &media
	default:
		patch.ImageSrc = models.Ptr("")
		patch.Duration = models.Ptr("")
	}

	ctx, svc := v.ctx, v.svc
	if v.editingNew {
		return func() tea.Msg {
			it, err := svc.Inspirations.Create(ctx, patch)
			if err != nil {
				return failed("记录灵感", err)
			}
			return InspirationSaved{Inspiration: it}
		}
	}

	id := v.editID
	return func() tea.Msg {
		it, err := svc.Inspirations.Update(ctx, id, patch)
		if err != nil {
			return failed("更新灵感", err)
		}
		return InspirationSaved{Inspiration: it}
	}
}

func displayTitle(it models.Inspiration) string {
	if it.Title != "" {
		return it.Title
	}
	first, _, _ := strings.Cut(it.Content, "\n")
	return first
}

func (v *InboxView) visibleRows() int {
	return max((v.height-12)/3, 1)
}

// View renders the view
func (v *InboxView) View() string {
	if v.showHelpPopup {
		return renderHelpPopup(v.styles, v.width, v.height,
			"↵", "查看",
			"n", "记录灵感",
			"e", "编辑",
			"d", "删除",
			"y", "复制内容",
			"/", "搜索",
			"1 2 3", "切换标签页",
			"q", "退出",
		)
	}
	if v.confirmingDelete {
		return renderConfirmDelete(v.styles, v.width, v.height, "删除灵感？", v.deleteTargetName)
	}
	if v.editing {
		return v.renderEditForm()
	}
	if v.viewing {
		return v.renderDetail()
	}

	s := v.styles
	var b strings.Builder

	searchStyle := s.Input
	if v.searching {
		searchStyle = s.InputFocused
	}
	searchWidth := clamp(styles.ContentWidth(v.width)-8, 10, 40)
	b.WriteString(s.Title.Render("收集箱"))
	b.WriteString("\n")
	b.WriteString(searchStyle.Width(searchWidth).Render(v.searchInput.View()))
	b.WriteString("\n\n")
	b.WriteString(v.renderList())
	b.WriteString("\n")
	b.WriteString(helpLine(s, "↵", "查看", "n", "新建", "e", "编辑", "d", "删除", "y", "复制", "/", "搜索", "?", "帮助"))
	return b.String()
}

func (v *InboxView) renderList() string {
	s := v.styles
	items := v.visible()
	if len(items) == 0 {
		if v.state.InboxSearch != "" {
			return s.TitleMuted.Render("没有匹配的灵感。")
		}
		return s.TitleMuted.Render("收集箱是空的。按 n 记录灵感。")
	}
	v.cursor = clamp(v.cursor, 0, len(items)-1)

	width := max(styles.ContentWidth(v.width)-4, 20)
	end := min(v.scrollY+v.visibleRows(), len(items))
	var rows []string
	for i := v.scrollY; i < end; i++ {
		it := items[i]

		style := s.ListItem
		if i == v.cursor {
			style = s.ListSelected
		}

		head := displayTitle(it) + "  " + s.Timestamp.Render(it.Timestamp)
		if it.Type != models.InspirationText {
			head = s.Badge.Render("["+typeLabel(it.Type)+"]") + " " + head
		}
		sub := v.renderTags(it.Tags)
		if sub == "" {
			sub = s.TitleMuted.Render(truncate(it.Content, width-6))
		}
		rows = append(rows, lipgloss.JoinVertical(lipgloss.Left,
			style.Width(width).Render(head),
			style.Width(width).Render(sub),
		)+"\n")
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (v *InboxView) renderTags(tags []string) string {
	var out []string
	for _, t := range tags {
		out = append(out, v.styles.Tag.Render(t))
	}
	return strings.Join(out, "")
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if n < 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (v *InboxView) renderDetail() string {
	it, ok := v.selected()
	if !ok {
		return ""
	}
	s := v.styles
	textWidth := clamp(styles.ContentWidth(v.width)-10, 20, 70)

	rows := []string{
		s.Title.Render(displayTitle(it)),
		s.Timestamp.Render(typeLabel(it.Type) + " • " + it.Timestamp),
		"",
		lipgloss.NewStyle().Width(textWidth).Render(it.Content),
	}
	switch {
	case it.ImageSrc != "":
		rows = append(rows, "", s.TitleMuted.Render("图片"), it.ImageSrc)
	case it.Duration != "":
		rows = append(rows, "", s.TitleMuted.Render("时长"), it.Duration)
	}
	if len(it.Tags) > 0 {
		rows = append(rows, "", v.renderTags(it.Tags))
	}
	rows = append(rows, "", helpLine(s, "e", "编辑", "d", "删除", "y", "复制", "esc", "返回"))

	padded := lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	return styles.CenterView(padded, v.width, v.height)
}

func (v *InboxView) renderEditForm() string {
	s := v.styles
	inputWidth := clamp(styles.ContentWidth(v.width)-6, 20, 50)

	formTitle := "捕捉新灵感"
	if !v.editingNew {
		formTitle = "编辑灵感"
	}

	var types []string
	for _, t := range inspirationTypes {
		if t == v.editType {
			types = append(types, s.HelpKey.Render("["+typeLabel(t)+"]"))
		} else {
			types = append(types, s.TitleMuted.Render(" "+typeLabel(t)+" "))
		}
	}

	tags := v.renderTags(v.editTags)
	if tags != "" {
		tags += "\n"
	}

	rows := []string{
		s.Title.Render(formTitle),
		"",
		field(s, "类型", strings.Join(types, " "), v.editFocusIdx == inboxFieldType, inputWidth),
		field(s, "主标题", v.editTitle.View(), v.editFocusIdx == inboxFieldTitle, inputWidth),
		field(s, "灵感正文", v.editContent.View(), v.editFocusIdx == inboxFieldContent, inputWidth),
	}
	switch v.editType {
	case models.InspirationImage:
		rows = append(rows, field(s, "图片地址", v.editMedia.View(), v.editFocusIdx == inboxFieldMedia, inputWidth))
	case models.InspirationVoice:
		rows = append(rows, field(s, "时长", v.editMedia.View(), v.editFocusIdx == inboxFieldMedia, inputWidth))
	}

	btnStyle := s.Button
	if v.editFocusIdx == inboxFieldSave {
		btnStyle = s.ButtonFocused
	}
	rows = append(rows,
		field(s, "分类标签", tags+v.editTagInput.View(), v.editFocusIdx == inboxFieldTags, inputWidth),
		"",
		btnStyle.Render(" 保存灵感 "),
		"",
		s.TitleMuted.Render("Tab: 下一项 • ↵: 添加标签 • Ctrl+S: 保存 • Esc: 取消"),
	)
	return renderForm(v.width, v.height, rows...)
}
