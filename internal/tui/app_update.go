package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func (m appModel) Init() tea.Cmd {
	return tea.Batch(bootstrapCmd(), m.spinnerTick())
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLists()
		return m, nil

	case spinner.TickMsg:
		if !m.animate || !m.busy() {
			// Let the tick chain lapse; spinnerTick restarts it on the next busy state.
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case bootstrapMsg:
		if m.view != viewBootstrap {
			return m, nil
		}
		if m.session != nil && m.session.IsAuthenticated() {
			return m.enterTasks()
		}
		m.enterLogin("")
		return m, nil

	case loginDoneMsg:
		return m.handleLoginDone(msg)
	case tasksLoadedMsg:
		return m.handleTasksLoaded(msg)
	case taskToggledMsg:
		return m.handleTaskToggled(msg)
	case taskDeletedMsg:
		return m.handleTaskDeleted(msg)
	case taskSavedMsg:
		return m.handleTaskSaved(msg)
	case descriptionEditedMsg:
		return m.handleDescriptionEdited(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.saveState()
			m.viewCancel()
			return m, tea.Quit
		}
		switch m.view {
		case viewLogin:
			return m.updateLogin(msg)
		case viewTasks:
			switch m.modal {
			case modalTaskForm:
				return m.updateTaskForm(msg)
			case modalConfirmDelete:
				return m.updateConfirmDelete(msg)
			default:
				return m.updateTasks(msg)
			}
		}
		return m, nil
	}

	// Non-key messages (cursor blink etc.) go to the focused input.
	switch {
	case m.view == viewLogin:
		var cmd tea.Cmd
		if m.login.focus == loginFocusPassword {
			m.login.password, cmd = m.login.password.Update(msg)
		} else {
			m.login.username, cmd = m.login.username.Update(msg)
		}
		return m, cmd
	case m.view == viewTasks && m.modal == modalTaskForm:
		var cmd tea.Cmd
		if m.form.focus == formFocusDescription {
			m.form.description, cmd = m.form.description.Update(msg)
		} else {
			m.form.title, cmd = m.form.title.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}
