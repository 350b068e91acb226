package tui

import (
	"strings"

	"taskflow-cli/internal/model"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// taskForm is the create/edit modal. It is re-seeded every time it opens.
type taskForm struct {
	title       textinput.Model
	description textarea.Model
	completed   bool
	focus       formFocus
	loading     bool
	err         string
	// editing is the task being edited; nil means create.
	editing *model.Task
}

func newTaskForm() taskForm {
	ti := textinput.New()
	ti.Placeholder = "Enter task title"
	ti.Prompt = ""
	ti.CharLimit = model.TitleMaxLen

	ta := textarea.New()
	ta.Placeholder = "Enter task description (optional)"
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.SetHeight(4)

	return taskForm{title: ti, description: ta}
}

func (f *taskForm) open(t *model.Task) {
	f.loading = false
	f.err = ""
	f.editing = nil
	f.title.SetValue("")
	f.description.SetValue("")
	f.completed = false
	if t != nil {
		cp := *t
		f.editing = &cp
		f.title.SetValue(cp.Title)
		f.description.SetValue(cp.Description)
		f.completed = cp.Completed
	}
	f.setFocus(formFocusTitle)
}

func (f *taskForm) close() {
	f.loading = false
	f.err = ""
	f.editing = nil
	f.title.Blur()
	f.description.Blur()
}

func (f *taskForm) resize(bodyW int) {
	f.title.Width = bodyW - 3
	f.description.SetWidth(bodyW)
}

func (f *taskForm) setFocus(ff formFocus) {
	f.focus = ff
	f.title.Blur()
	f.description.Blur()
	switch ff {
	case formFocusTitle:
		f.title.Focus()
	case formFocusDescription:
		f.description.Focus()
	}
}

func (f taskForm) input() model.TaskInput {
	return model.TaskInput{
		Title:       strings.TrimSpace(f.title.Value()),
		Description: f.description.Value(),
		Completed:   f.completed,
	}
}

func (f taskForm) heading() string {
	if f.editing != nil {
		return "Edit Task"
	}
	return "New Task"
}

func (f taskForm) submitLabel() string {
	switch {
	case f.loading:
		return "Saving..."
	case f.editing != nil:
		return "Update Task"
	default:
		return "Create Task"
	}
}

func (f taskForm) canSubmit() bool {
	return !f.loading && model.ValidateTitle(strings.TrimSpace(f.title.Value())) == nil
}

func (m *appModel) openTaskForm(t *model.Task) {
	m.modal = modalTaskForm
	m.form.open(t)
	m.form.resize(modalBodyWidth(m.width))
}

func (m appModel) updateTaskForm(msg tea.KeyMsg) (appModel, tea.Cmd) {
	if m.form.loading {
		// Submissions and dismissal are ignored until the save completes.
		return m, nil
	}

	switch msg.String() {
	case "esc", "ctrl+g":
		m.closeModal()
		return m, nil
	case "tab":
		m.form.setFocus((m.form.focus + 1) % formFocusCount)
		return m, nil
	case "shift+tab":
		m.form.setFocus((m.form.focus + formFocusCount - 1) % formFocusCount)
		return m, nil
	case "ctrl+s":
		return m.submitTaskForm()
	case "ctrl+e":
		cmd, err := editDescriptionCmd(m.viewGen, m.form.description.Value())
		if err != nil {
			m.form.err = "Editor failed: " + err.Error()
			return m, nil
		}
		return m, cmd
	}

	switch m.form.focus {
	case formFocusTitle:
		if msg.String() == "enter" {
			return m.submitTaskForm()
		}
		var cmd tea.Cmd
		m.form.title, cmd = m.form.title.Update(msg)
		return m, cmd
	case formFocusDescription:
		var cmd tea.Cmd
		m.form.description, cmd = m.form.description.Update(msg)
		return m, cmd
	case formFocusCompleted:
		switch msg.String() {
		case " ", "space", "x", "enter":
			m.form.completed = !m.form.completed
		}
		return m, nil
	case formFocusSubmit:
		if msg.String() == "enter" {
			return m.submitTaskForm()
		}
	case formFocusCancel:
		if msg.String() == "enter" {
			m.closeModal()
		}
	}
	return m, nil
}

func (m appModel) submitTaskForm() (appModel, tea.Cmd) {
	if m.form.loading {
		return m, nil
	}
	if !m.form.canSubmit() {
		m.form.err = errTitleRequired
		m.form.setFocus(formFocusTitle)
		return m, nil
	}
	m.form.err = ""
	m.form.loading = true
	return m, tea.Batch(
		saveTaskCmd(m.viewCtx, m.viewGen, m.api, m.form.editing, m.form.input()),
		m.spinnerTick(),
	)
}

func (m appModel) handleTaskSaved(msg taskSavedMsg) (appModel, tea.Cmd) {
	if msg.gen != m.viewGen || m.modal != modalTaskForm {
		return m, nil
	}
	m.form.loading = false
	if msg.err != nil {
		if m.isSessionExpired(msg.err) {
			return m.expireSession()
		}
		m.log.Error("save task", "err", msg.err)
		m.form.err = errSaveTask
		return m, nil
	}
	m.log.Info("saved task", "id", msg.task.ID)
	m.closeModal()
	return m.reloadTasks()
}

func (m appModel) renderTaskForm() string {
	bodyW := modalBodyWidth(m.width)
	f := m.form

	check := "[ ]"
	if f.completed {
		check = "[x]"
	}
	completed := check + " Mark as completed"
	if f.focus == formFocusCompleted {
		completed = lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render(completed)
	}

	btnBase := lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(colorSurfaceFg).
		Background(colorControlBg)
	btnActive := btnBase.
		Foreground(colorSelectedFg).
		Background(colorSelectedBg).
		Bold(true)

	submitLabel := f.submitLabel()
	if f.loading {
		submitLabel = m.spinner.View() + " " + submitLabel
	}
	submit := btnBase.Render(submitLabel)
	cancel := btnBase.Render("Cancel")
	if f.focus == formFocusSubmit {
		submit = btnActive.Render(submitLabel)
	}
	if f.focus == formFocusCancel {
		cancel = btnActive.Render("Cancel")
	}
	if !f.canSubmit() && !f.loading {
		submit = styleMuted().Render(submitLabel)
	}
	sep := lipgloss.NewStyle().Background(colorControlBg).Render(" ")

	lines := []string{}
	if f.err != "" {
		lines = append(lines, styleError().Width(bodyW).Render(f.err), "")
	}
	lines = append(lines,
		renderFieldLabel("Title *", f.focus == formFocusTitle),
		renderInputLine(bodyW, f.title.View(), titleCounter(f.title.Value(), model.TitleMaxLen)),
		"",
		renderFieldLabel("Description", f.focus == formFocusDescription),
		f.description.View(),
		"",
		completed,
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, cancel, sep, submit),
		"",
		styleMuted().Width(bodyW).Render("tab: next field   ctrl+e: edit description in $EDITOR   ctrl+s: save   esc: cancel"),
	)
	return renderModalBox(m.width, f.heading(), strings.Join(lines, "\n"))
}
