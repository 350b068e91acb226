package tui

import (
	"context"

	"taskflow-cli/internal/model"
	"taskflow-cli/internal/session"

	tea "github.com/charmbracelet/bubbletea"
)

// API calls run as commands off the update loop. Each is bound to the context and
// generation of the view that issued it.

func loginCmd(ctx context.Context, gen int, sess *session.Session, api API, username, password string) tea.Cmd {
	return func() tea.Msg {
		_, err := sess.Login(ctx, api, username, password)
		return loginDoneMsg{gen: gen, err: err}
	}
}

func loadTasksCmd(ctx context.Context, gen, seq int, api API) tea.Cmd {
	return func() tea.Msg {
		tasks, err := api.ListTasks(ctx)
		return tasksLoadedMsg{gen: gen, seq: seq, tasks: tasks, err: err}
	}
}

func toggleTaskCmd(ctx context.Context, gen int, api API, t model.Task) tea.Cmd {
	return func() tea.Msg {
		updated, err := api.UpdateTask(ctx, t.ID, t.Toggled())
		return taskToggledMsg{gen: gen, id: t.ID, task: updated, err: err}
	}
}

func deleteTaskCmd(ctx context.Context, gen int, api API, id int64) tea.Cmd {
	return func() tea.Msg {
		err := api.DeleteTask(ctx, id)
		return taskDeletedMsg{gen: gen, id: id, err: err}
	}
}

// saveTaskCmd updates when editing is a task with an id, and creates otherwise.
func saveTaskCmd(ctx context.Context, gen int, api API, editing *model.Task, in model.TaskInput) tea.Cmd {
	return func() tea.Msg {
		var (
			t   model.Task
			err error
		)
		if editing != nil && editing.ID != 0 {
			t, err = api.UpdateTask(ctx, editing.ID, in)
		} else {
			t, err = api.CreateTask(ctx, in)
		}
		return taskSavedMsg{gen: gen, task: t, err: err}
	}
}

func bootstrapCmd() tea.Cmd {
	return func() tea.Msg { return bootstrapMsg{} }
}

func (m appModel) spinnerTick() tea.Cmd {
	if !m.animate {
		return nil
	}
	return m.spinner.Tick
}
