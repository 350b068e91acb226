package apiclient

import (
	"context"

	"taskflow-cli/internal/model"
)

// TaskService is the task half of the API, as consumed by the views.
type TaskService interface {
	ListTasks(ctx context.Context) ([]model.Task, error)
	GetTask(ctx context.Context, id int64) (model.Task, error)
	CreateTask(ctx context.Context, in model.TaskInput) (model.Task, error)
	UpdateTask(ctx context.Context, id int64, in model.TaskInput) (model.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

// Authenticator is the login half of the API.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (model.LoginResponse, error)
}

var (
	_ TaskService   = (*Client)(nil)
	_ Authenticator = (*Client)(nil)
)
