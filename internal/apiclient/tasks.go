package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"taskflow-cli/internal/model"
)

const tasksPath = "/api/tasks/"

func taskPath(id int64) string {
	return tasksPath + strconv.FormatInt(id, 10) + "/"
}

// ListTasks returns the task collection in server order. Both a bare array and a
// {"results": [...]} envelope are accepted.
func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	const op = "list tasks"
	raw, err := c.do(ctx, op, http.MethodGet, tasksPath, nil, true)
	if err != nil {
		return nil, err
	}
	tasks, err := model.DecodeTaskList(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id int64) (model.Task, error) {
	const op = "get task"
	raw, err := c.do(ctx, op, http.MethodGet, taskPath(id), nil, true)
	if err != nil {
		return model.Task{}, err
	}
	var t model.Task
	if err := decodeInto(op, raw, &t); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

// CreateTask returns the created record including the server-assigned id and timestamp.
func (c *Client) CreateTask(ctx context.Context, in model.TaskInput) (model.Task, error) {
	const op = "create task"
	raw, err := c.do(ctx, op, http.MethodPost, tasksPath, in, true)
	if err != nil {
		return model.Task{}, err
	}
	var t model.Task
	if err := decodeInto(op, raw, &t); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

// UpdateTask replaces the task at id and returns the server's record.
func (c *Client) UpdateTask(ctx context.Context, id int64, in model.TaskInput) (model.Task, error) {
	const op = "update task"
	raw, err := c.do(ctx, op, http.MethodPut, taskPath(id), in, true)
	if err != nil {
		return model.Task{}, err
	}
	var t model.Task
	if err := decodeInto(op, raw, &t); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	_, err := c.do(ctx, "delete task", http.MethodDelete, taskPath(id), nil, true)
	return err
}
