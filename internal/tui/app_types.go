package tui

import (
	"taskflow-cli/internal/model"
)

type view int

const (
	viewBootstrap view = iota
	viewLogin
	viewTasks
)

func viewToString(v view) string {
	switch v {
	case viewBootstrap:
		return "bootstrap"
	case viewLogin:
		return "login"
	case viewTasks:
		return "tasks"
	default:
		return "unknown"
	}
}

type modalKind int

const (
	modalNone modalKind = iota
	modalTaskForm
	modalConfirmDelete
)

// bootstrapMsg asks the model to decide, once, between the login and task views.
type bootstrapMsg struct{}

// Completion messages carry the view generation they were issued under; a message from
// an older generation belongs to a view that has since been left and is dropped.

type loginDoneMsg struct {
	gen int
	err error
}

type tasksLoadedMsg struct {
	gen   int
	seq   int
	tasks []model.Task
	err   error
}

type taskToggledMsg struct {
	gen  int
	id   int64
	task model.Task
	err  error
}

type taskDeletedMsg struct {
	gen int
	id  int64
	err error
}

type taskSavedMsg struct {
	gen  int
	task model.Task
	err  error
}

type confirmModalFocus int

const (
	confirmFocusConfirm confirmModalFocus = iota
	confirmFocusCancel
)

type loginFocus int

const (
	loginFocusUsername loginFocus = iota
	loginFocusPassword
	loginFocusSubmit
)

type formFocus int

const (
	formFocusTitle formFocus = iota
	formFocusDescription
	formFocusCompleted
	formFocusSubmit
	formFocusCancel
	formFocusCount
)
