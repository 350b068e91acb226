package tui

import (
	"context"
	"errors"
	"strings"

	"taskflow-cli/internal/apiclient"
	"taskflow-cli/internal/model"
	"taskflow-cli/internal/store"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m appModel) enterTasks() (appModel, tea.Cmd) {
	m.enterView(viewTasks)
	m.resetTaskState()
	m.resizeLists()
	return m.reloadTasks()
}

// reloadTasks issues a full list load. Only the completion of the most recent load is
// applied.
func (m appModel) reloadTasks() (appModel, tea.Cmd) {
	m.loadSeq++
	m.loading = true
	return m, tea.Batch(
		loadTasksCmd(m.viewCtx, m.viewGen, m.loadSeq, m.api),
		m.spinnerTick(),
	)
}

func (m appModel) isSessionExpired(err error) bool {
	return apiclient.IsUnauthorized(err)
}

// expireSession applies the 401 policy: drop the token and go back to the login view.
func (m appModel) expireSession() (appModel, tea.Cmd) {
	m.log.Warn("session expired; logging out")
	if err := m.session.Logout(context.Background()); err != nil {
		m.log.Error("clear session", "err", err)
	}
	m.enterLogin(noticeSessionGone)
	return m, nil
}

// logout clears the session and restarts from bootstrap with fresh state.
func (m appModel) logout() (appModel, tea.Cmd) {
	if err := m.session.Logout(context.Background()); err != nil {
		m.log.Error("clear session", "err", err)
		m.errText = errLogoutFailed
		return m, nil
	}
	m.log.Info("logged out")
	m.enterView(viewBootstrap)
	m.resetTaskState()
	m.restore = store.TUIState{}
	m.saveState()
	m.login = newLoginState()
	m.login.resize(m.width)
	return m, tea.Batch(bootstrapCmd(), m.spinnerTick())
}

func (m appModel) handleTasksLoaded(msg tasksLoadedMsg) (appModel, tea.Cmd) {
	if msg.gen != m.viewGen || msg.seq != m.loadSeq || m.view != viewTasks {
		return m, nil
	}
	m.loading = false
	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			return m, nil
		}
		if m.isSessionExpired(msg.err) {
			return m.expireSession()
		}
		m.log.Error("load tasks", "err", msg.err)
		m.errText = errLoadTasks
		return m, nil
	}
	m.errText = ""
	m.setTasks(msg.tasks)
	return m, nil
}

func (m appModel) handleTaskToggled(msg taskToggledMsg) (appModel, tea.Cmd) {
	if msg.gen != m.viewGen || m.view != viewTasks {
		return m, nil
	}
	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			return m, nil
		}
		if m.isSessionExpired(msg.err) {
			return m.expireSession()
		}
		m.log.Error("toggle task", "id", msg.id, "err", msg.err)
		m.errText = errUpdateTask
		return m, nil
	}
	next := make([]model.Task, len(m.tasks))
	for i, t := range m.tasks {
		if t.ID == msg.id {
			next[i] = msg.task
		} else {
			next[i] = t
		}
	}
	m.setTasks(next)
	return m, nil
}

func (m appModel) handleTaskDeleted(msg taskDeletedMsg) (appModel, tea.Cmd) {
	if msg.gen != m.viewGen || m.view != viewTasks {
		return m, nil
	}
	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			return m, nil
		}
		if m.isSessionExpired(msg.err) {
			return m.expireSession()
		}
		m.log.Error("delete task", "id", msg.id, "err", msg.err)
		m.errText = errDeleteTask
		return m, nil
	}
	next := make([]model.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		if t.ID != msg.id {
			next = append(next, t)
		}
	}
	m.setTasks(next)
	return m, nil
}

// setTasks replaces the collection and rebuilds the list, keeping the selection on the
// same task id when it still exists.
func (m *appModel) setTasks(tasks []model.Task) {
	var curID int64
	if t, ok := m.selectedTask(); ok {
		curID = t.ID
	}
	if curID == 0 && m.restore.SelectedTaskID != 0 && m.session != nil && m.restore.Username == m.session.Username() {
		curID = m.restore.SelectedTaskID
	}
	m.restore = store.TUIState{}
	m.tasks = tasks
	items := make([]list.Item, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, taskItem{task: t})
	}
	m.tasksList.SetItems(items)
	for i, t := range tasks {
		if t.ID == curID {
			m.tasksList.Select(i)
			break
		}
	}
}

func (m appModel) selectedTask() (model.Task, bool) {
	if it, ok := m.tasksList.SelectedItem().(taskItem); ok {
		return it.task, true
	}
	return model.Task{}, false
}

func (m appModel) updateTasks(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.saveState()
		m.viewCancel()
		return m, tea.Quit
	case "L":
		return m.logout()
	case "r":
		return m.reloadTasks()
	case "n", "+":
		m.openTaskForm(nil)
		return m, nil
	case "esc":
		m.errText = ""
		return m, nil
	}

	if m.loading && len(m.tasks) == 0 {
		return m, nil
	}

	if t, ok := m.selectedTask(); ok {
		switch msg.String() {
		case " ", "space", "x":
			return m, toggleTaskCmd(m.viewCtx, m.viewGen, m.api, t)
		case "e", "enter":
			m.openTaskForm(&t)
			return m, nil
		case "d", "delete":
			m.openConfirmDelete(t)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.tasksList, cmd = m.tasksList.Update(msg)
	return m, cmd
}

func (m appModel) renderHeader() string {
	w := m.contentWidth()
	left := styleTitle().Render("TaskFlow") + "  " + lipgloss.NewStyle().Bold(true).Render("My Tasks")
	right := ""
	if u := strings.TrimSpace(m.session.Username()); u != "" {
		right = u
	}
	if m.apiURL != "" {
		if right != "" {
			right += " @ "
		}
		right += m.apiURL
	}
	right = styleMuted().Render(right)
	gap := w - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	line := left + strings.Repeat(" ", gap) + right
	sub := styleMuted().Render("Manage your tasks efficiently")
	return fitWidth(line, w) + "\n" + sub + "\n"
}

func (m appModel) renderTasksBody() string {
	w := m.contentWidth()
	h := m.bodyHeight()

	switch {
	case m.loading && len(m.tasks) == 0:
		return normalizePane(m.spinner.View()+" Loading tasks...", w, h)
	case len(m.tasks) == 0:
		if m.errText != "" {
			return normalizePane("", w, h)
		}
		empty := strings.Join([]string{
			lipgloss.NewStyle().Bold(true).Render("No tasks yet"),
			styleMuted().Render("Create your first task to get started!"),
			"",
			styleMuted().Render("n: create task"),
		}, "\n")
		return normalizePane(empty, w, h)
	}

	lw, lh := m.listPaneSize()
	l := m.tasksList
	l.SetSize(lw, lh)
	left := normalizePane(l.View(), lw, h)
	if !m.splitDetailVisible() {
		return left
	}
	rw := w - lw - splitGapW
	right := normalizePane(m.renderDetail(rw), rw, h)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, strings.Repeat(" ", splitGapW), right)
}

// renderDetail shows the selected task in full, with its description as markdown.
func (m appModel) renderDetail(width int) string {
	t, ok := m.selectedTask()
	if !ok {
		return styleMuted().Render("No task selected.")
	}
	titleSt := lipgloss.NewStyle().Bold(true)
	status := "Open"
	if t.Completed {
		titleSt = styleCompleted().Bold(true)
		status = "Completed"
	}
	lines := []string{
		titleSt.Width(width).Render(t.Title),
		styleMuted().Render(status + "  ·  Created " + formatCreated(t)),
		"",
	}
	if desc := renderMarkdown(t.Description, width); desc != "" {
		lines = append(lines, desc)
	} else {
		lines = append(lines, styleMuted().Render("No description."))
	}
	return strings.Join(lines, "\n")
}

func (m appModel) renderFooter() string {
	var help string
	switch m.modal {
	case modalTaskForm, modalConfirmDelete:
		help = ""
	default:
		help = "n: new  e: edit  space: toggle  d: delete  r: reload  L: logout  q: quit"
		if m.errText != "" {
			help = "esc: dismiss error  " + help
		}
	}
	return styleMuted().Render(fitWidth(help, m.contentWidth()))
}
