package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"taskflow-cli/internal/apiclient"
	"taskflow-cli/internal/format"
	"taskflow-cli/internal/logging"
	"taskflow-cli/internal/session"
	"taskflow-cli/internal/store"
	"taskflow-cli/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	APIURL     string
	Format     string
	PrettyJSON bool
	Timeout    time.Duration

	log      *slog.Logger
	closeLog func() error
}

// logger opens the TASKFLOW_LOG file on first use. The TUI owns the terminal and scripted
// output must stay parseable, so these logs never go to stdout/stderr; web/webtui use
// logging.Stderr instead and never open the file.
func (app *App) logger() *slog.Logger {
	if app.log == nil {
		app.log, app.closeLog = logging.FromEnv()
	}
	return app.log
}

func (app *App) closeLogger() error {
	if app.closeLog == nil {
		return nil
	}
	err := app.closeLog()
	app.log, app.closeLog = nil, nil
	return err
}

// Execute runs the command tree with args and closes the log file even when the command fails.
func Execute(ctx context.Context, args []string) error {
	app := &App{}
	cmd := newRootCmd(app)
	cmd.SetArgs(args)
	return execute(ctx, app, cmd)
}

func execute(ctx context.Context, app *App, cmd *cobra.Command) error {
	defer func() { _ = app.closeLogger() }()
	return cmd.ExecuteContext(ctx)
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(app *App) *cobra.Command {

	cmd := &cobra.Command{
		Use:          "taskflow",
		Short:        "TaskFlow client: terminal UI, scriptable commands and browser UI",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  taskflow

  # Log in once, then script against the API
  taskflow login --username ann --password-stdin < pw.txt
  taskflow tasks list --format table

  # Direct task lookup (shortcut for: taskflow tasks show <id>)
  taskflow 42
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.APIURL, "api-url", envOr("TASKFLOW_API_URL", ""), "REST API base URL (default: config.json apiUrl, else "+store.DefaultAPIURL+")")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("TASKFLOW_FORMAT", "json"), "Output format (json|table)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().DurationVar(&app.Timeout, "timeout", apiclient.DefaultTimeout, "Timeout for each API request")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newStatusCmd(app))
	cmd.AddCommand(newDoctorCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newWebCmd(app))
	cmd.AddCommand(newWebTUICmd(app))

	return cmd
}

func runTUI(cmd *cobra.Command, app *App) error {
	log := app.logger()
	apiURL, err := resolveAPIURL(app)
	if err != nil {
		return writeErr(cmd, err)
	}
	st, err := store.Open()
	if err != nil {
		return writeErr(cmd, err)
	}
	sess, err := session.Open(ctxOrBackground(cmd.Context()), st)
	if err != nil {
		return writeErr(cmd, err)
	}
	log.Info("starting tui", "apiUrl", apiURL, "authenticated", sess.IsAuthenticated())

	return tui.Run(ctxOrBackground(cmd.Context()), tui.Options{
		Session: sess,
		API:     newClient(app, apiURL, sess, log),
		APIURL:  apiURL,
		Logger:  log,
		State:   st,
	})
}

func resolveAPIURL(app *App) (string, error) {
	u, err := store.ResolveAPIURL(app.APIURL)
	if err != nil {
		return "", fmt.Errorf("resolve api url: %w", err)
	}
	return u, nil
}

// openSession loads the persisted session from the config dir.
func openSession(ctx context.Context) (*session.Session, error) {
	st, err := store.Open()
	if err != nil {
		return nil, err
	}
	return session.Open(ctxOrBackground(ctx), st)
}

func newClient(app *App, apiURL string, tokens apiclient.TokenSource, log *slog.Logger) *apiclient.Client {
	return apiclient.New(apiclient.Options{
		BaseURL: apiURL,
		Tokens:  tokens,
		Timeout: app.Timeout,
		Logger:  log,
	})
}

func ctxOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}

var errNotLoggedIn = errors.New("not logged in; run `taskflow login --username <name>`")
