package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/stride/internal/models"
	"github.com/tgienger/stride/internal/ui/styles"
)

// Results of store writes. Views return them from commands and the app
// applies them to the shared state, so a result is never lost when the
// user has switched tabs in the meantime.
type (
	TaskSaved          struct{ Task models.Task }
	TaskDeleted        struct{ ID string }
	InspirationSaved   struct{ Inspiration models.Inspiration }
	InspirationDeleted struct{ ID string }
	GoalSaved          struct{ Goal models.Goal }
	GoalDeleted        struct{ ID string }
)

// WriteFailed reports a store write that did not happen. State is left as
// it was.
type WriteFailed struct {
	Op  string
	Err error
}

// Notice is a transient status line message
type Notice struct {
	Text string
}

func failed(op string, err error) tea.Msg {
	return WriteFailed{Op: op, Err: err}
}

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// scrollFor keeps cursor inside a window of visible rows starting at scrollY
func scrollFor(cursor, scrollY, visible int) int {
	if visible < 1 {
		visible = 1
	}
	if cursor < scrollY {
		return cursor
	}
	if cursor >= scrollY+visible {
		return cursor - visible + 1
	}
	return scrollY
}

// helpLine renders key/description pairs separated by bullets
func helpLine(s *styles.Styles, pairs ...string) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, s.HelpKey.Render(pairs[i])+" "+pairs[i+1])
	}
	return s.Help.Render(strings.Join(parts, " • "))
}

// renderHelpPopup renders a centered box listing key/description pairs
func renderHelpPopup(s *styles.Styles, width, height int, pairs ...string) string {
	items := []string{s.Title.Render("快捷键"), ""}
	for i := 0; i+1 < len(pairs); i += 2 {
		items = append(items, fmt.Sprintf("%s %s", s.HelpKey.Width(8).Render(pairs[i]), pairs[i+1]))
	}
	items = append(items, "", s.TitleMuted.Render("按任意键关闭"))

	contentWidth := styles.ContentWidth(width)
	centered := lipgloss.Place(contentWidth, height,
		lipgloss.Center, lipgloss.Center,
		s.Popup.Render(lipgloss.JoinVertical(lipgloss.Left, items...)),
	)
	return styles.CenterView(centered, width, height)
}

// renderConfirmDelete renders the y/n prompt shown before a delete
func renderConfirmDelete(s *styles.Styles, width, height int, title, name string) string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render(title),
		"",
		s.TitleMuted.Render(fmt.Sprintf("确定要删除「%s」吗？", name)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - 删除 "),
			"  ",
			s.Button.Render(" N - 取消 "),
		),
	)

	contentWidth := styles.ContentWidth(width)
	centered := lipgloss.Place(contentWidth, height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, width, height)
}

// confirmKey classifies a key pressed at a y/n prompt
func confirmKey(msg tea.KeyMsg) (answered, yes bool) {
	switch msg.String() {
	case "y", "Y":
		return true, true
	case "n", "N", "esc":
		return true, false
	}
	return false, false
}

// field renders a labelled form input
func field(s *styles.Styles, label, body string, focused bool, width int) string {
	style := s.Input
	if focused {
		style = s.InputFocused
	}
	return lipgloss.JoinVertical(lipgloss.Left, label, style.Width(width).Render(body))
}

// renderForm places a form in the middle of the content column
func renderForm(width, height int, rows ...string) string {
	contentWidth := styles.ContentWidth(width)
	centered := lipgloss.Place(contentWidth, height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
	return styles.CenterView(centered, width, height)
}
