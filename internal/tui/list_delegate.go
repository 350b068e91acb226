package tui

import (
	"fmt"
	"io"
	"strings"

	"taskflow-cli/internal/model"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const dateLayout = "Jan 2, 2006"

type taskItem struct {
	task model.Task
}

func (i taskItem) FilterValue() string { return i.task.Title }
func (i taskItem) Title() string       { return i.task.Title }

// formatCreated renders a creation timestamp as a local calendar date.
func formatCreated(t model.Task) string {
	if t.CreatedAt.IsZero() {
		return ""
	}
	return t.CreatedAt.Local().Format(dateLayout)
}

// firstLine returns the first non-blank line of s.
func firstLine(s string) string {
	for _, ln := range strings.Split(s, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			return ln
		}
	}
	return ""
}

// taskCardDelegate renders each task as a three-line card: checkbox and title, a
// one-line description excerpt, and the creation date.
type taskCardDelegate struct{}

func (d taskCardDelegate) Height() int                             { return 3 }
func (d taskCardDelegate) Spacing() int                            { return 1 }
func (d taskCardDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d taskCardDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(taskItem)
	if !ok {
		return
	}
	contentW := m.Width() - 2
	if contentW < 8 {
		return
	}
	fmt.Fprint(w, renderTaskCard(it.task, contentW, index == m.Index()))
}

func renderTaskCard(t model.Task, width int, selected bool) string {
	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}

	titleSt := lipgloss.NewStyle().Bold(true)
	descSt := styleMuted()
	if t.Completed {
		titleSt = styleCompleted()
		descSt = styleCompleted()
	}

	title := fitWidth(check+" "+titleSt.Render(t.Title), width)
	desc := fitWidth("    "+descSt.Render(firstLine(t.Description)), width)
	date := fitWidth("    "+styleMuted().Render(formatCreated(t)), width)

	bar := lipgloss.NewStyle().Foreground(colorCardBorder).Render("│")
	if selected {
		bar = lipgloss.NewStyle().Foreground(colorSelectedBorder).Bold(true).Render("┃")
	}
	return strings.Join([]string{bar + " " + title, bar + " " + desc, bar + " " + date}, "\n")
}

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, taskCardDelegate{}, 0, 0)
	l.Title = title
	// The app draws its own header and footer, so list chrome stays minimal.
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(false)
	l.SetStatusBarItemName("task", "tasks")
	// esc is "back/cancel" here, never quit.
	l.KeyMap.Quit.SetKeys("q")

	cursorUpKeys := append([]string{}, l.KeyMap.CursorUp.Keys()...)
	l.KeyMap.CursorUp.SetKeys(append(cursorUpKeys, "ctrl+p")...)
	cursorDownKeys := append([]string{}, l.KeyMap.CursorDown.Keys()...)
	l.KeyMap.CursorDown.SetKeys(append(cursorDownKeys, "ctrl+n")...)
	return l
}
