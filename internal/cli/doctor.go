package cli

import (
	"context"
	"errors"

	"taskflow-cli/internal/apiclient"
	"taskflow-cli/internal/session"
	"taskflow-cli/internal/store"

	"github.com/spf13/cobra"
)

var errDoctorIssuesFound = errors.New("doctor found problems")

type doctorCheck struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

type doctorReport struct {
	APIURL string        `json:"apiUrl,omitempty"`
	Checks []doctorCheck `json:"checks"`
}

func (r *doctorReport) add(name string, err error, okDetail string) bool {
	c := doctorCheck{Name: name, OK: err == nil, Detail: okDetail}
	if err != nil {
		c.Detail = err.Error()
	}
	r.Checks = append(r.Checks, c)
	return c.OK
}

func (r doctorReport) failed() int {
	n := 0
	for _, c := range r.Checks {
		if !c.OK {
			n++
		}
	}
	return n
}

func newDoctorCmd(app *App) *cobra.Command {
	var fail bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check local config, the stored session and API reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			report := runDoctor(ctxOrBackground(cmd.Context()), app)
			failed := report.failed()

			hints := []string{"taskflow status"}
			if failed > 0 {
				hints = append(hints, "taskflow login --username <name> --password-stdin")
			}
			if err := writeOut(cmd, app, map[string]any{
				"data":   report,
				"meta":   map[string]any{"failed": failed},
				"_hints": hints,
			}); err != nil {
				return err
			}
			if fail && failed > 0 {
				return writeErr(cmd, errDoctorIssuesFound)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fail, "fail", false, "Exit with non-zero status if any check fails")
	return cmd
}

func runDoctor(ctx context.Context, app *App) doctorReport {
	var report doctorReport

	dir, err := store.ConfigDir()
	report.add("configDir", err, dir)

	_, err = store.LoadConfig()
	report.add("config", err, "")

	apiURL, err := resolveAPIURL(app)
	if !report.add("apiUrl", err, apiURL) {
		return report
	}
	report.APIURL = apiURL

	sess, err := openSession(ctx)
	if !report.add("session", err, sessionDetail(sess)) {
		return report
	}

	// Without a token the list call still proves the server answers: 401 is expected.
	client := newClient(app, apiURL, sess, app.logger())
	_, err = client.ListTasks(ctx)
	switch {
	case err == nil:
		report.add("api", nil, "authorized")
	case apiclient.IsUnauthorized(err) && !sess.IsAuthenticated():
		report.add("api", nil, "reachable, not logged in")
	case apiclient.IsUnauthorized(err):
		report.add("api", errSessionExpired, "")
	default:
		report.add("api", err, "")
	}
	return report
}

func sessionDetail(sess *session.Session) string {
	if sess == nil || !sess.IsAuthenticated() {
		return "not logged in"
	}
	return "logged in as " + sess.Username()
}
