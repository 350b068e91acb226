package cli

import (
	"errors"
	"fmt"
	"strings"

	"taskflow-cli/internal/model"

	"github.com/spf13/cobra"
)

// taskTable is the list output. JSON stays the plain task array.
type taskTable []model.Task

func (t taskTable) TableHeaders() []string {
	return []string{"ID", "DONE", "TITLE", "CREATED"}
}

func (t taskTable) TableRows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, task := range t {
		done := " "
		if task.Completed {
			done = "x"
		}
		rows = append(rows, []string{
			task.IDString(),
			done,
			task.Title,
			task.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return rows
}

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "List and edit tasks",
	}
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksShowCmd(app))
	cmd.AddCommand(newTasksCreateCmd(app))
	cmd.AddCommand(newTasksUpdateCmd(app))
	cmd.AddCommand(newTasksToggleCmd(app))
	cmd.AddCommand(newTasksDeleteCmd(app))
	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tasks (server order, newest first)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, client, err := authedClient(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			tasks, err := client.ListTasks(cmd.Context())
			if err != nil {
				return apiFailure(cmd, sess, err)
			}
			hints := []string{}
			if len(tasks) == 0 {
				hints = append(hints, `taskflow tasks create --title "..."`)
			}
			return writeOut(cmd, app, map[string]any{"data": taskTable(tasks), "_hints": hints})
		},
	}
}

func newTasksShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParseTaskID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			sess, client, err := authedClient(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			t, err := client.GetTask(cmd.Context(), id)
			if err != nil {
				return apiFailure(cmd, sess, err)
			}
			return writeOut(cmd, app, map[string]any{"data": t})
		},
	}
}

func newTasksCreateCmd(app *App) *cobra.Command {
	var title, description string
	var completed bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Example: strings.TrimSpace(`
taskflow tasks create --title "Buy milk"
taskflow tasks create --title "Write report" --description "- intro\n- results"
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := model.TaskInput{
				Title:       strings.TrimSpace(title),
				Description: description,
				Completed:   completed,
			}
			if err := model.ValidateTitle(in.Title); err != nil {
				return writeErr(cmd, err)
			}
			sess, client, err := authedClient(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			t, err := client.CreateTask(cmd.Context(), in)
			if err != nil {
				return apiFailure(cmd, sess, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   t,
				"_hints": []string{"taskflow tasks toggle " + t.IDString()},
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Task title (required, max 200 characters)")
	cmd.Flags().StringVar(&description, "description", "", "Task description (markdown)")
	cmd.Flags().BoolVar(&completed, "completed", false, "Create the task already completed")
	return cmd
}

func newTasksUpdateCmd(app *App) *cobra.Command {
	var title, description string
	var completed bool

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a task; only the given fields change",
		Example: strings.TrimSpace(`
taskflow tasks update 42 --title "Buy oat milk"
taskflow tasks update 42 --completed=false
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParseTaskID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			flags := cmd.Flags()
			if !flags.Changed("title") && !flags.Changed("description") && !flags.Changed("completed") {
				return writeErr(cmd, errors.New("nothing to update; pass --title, --description or --completed"))
			}
			if flags.Changed("title") {
				if err := model.ValidateTitle(strings.TrimSpace(title)); err != nil {
					return writeErr(cmd, err)
				}
			}

			sess, client, err := authedClient(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			cur, err := client.GetTask(cmd.Context(), id)
			if err != nil {
				return apiFailure(cmd, sess, err)
			}
			in := cur.Input()
			if flags.Changed("title") {
				in.Title = strings.TrimSpace(title)
			}
			if flags.Changed("description") {
				in.Description = description
			}
			if flags.Changed("completed") {
				in.Completed = completed
			}
			t, err := client.UpdateTask(cmd.Context(), id, in)
			if err != nil {
				return apiFailure(cmd, sess, err)
			}
			return writeOut(cmd, app, map[string]any{"data": t})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description (markdown)")
	cmd.Flags().BoolVar(&completed, "completed", false, "Completion state")
	return cmd
}

func newTasksToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a task's completed state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParseTaskID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			sess, client, err := authedClient(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			cur, err := client.GetTask(cmd.Context(), id)
			if err != nil {
				return apiFailure(cmd, sess, err)
			}
			t, err := client.UpdateTask(cmd.Context(), id, cur.Toggled())
			if err != nil {
				return apiFailure(cmd, sess, err)
			}
			return writeOut(cmd, app, map[string]any{"data": t})
		},
	}
}

func newTasksDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParseTaskID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if !yes {
				return writeErr(cmd, fmt.Errorf("refusing to delete task %d without --yes", id))
			}
			sess, client, err := authedClient(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := client.DeleteTask(cmd.Context(), id); err != nil {
				return apiFailure(cmd, sess, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"id": id, "deleted": true},
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the deletion")
	return cmd
}
