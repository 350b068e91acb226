package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"taskflow-cli/internal/apitest"
	"taskflow-cli/internal/store"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()
	return runCLIWithInput(t, "", args)
}

func runCLIWithInput(t *testing.T, stdin string, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	app := &App{}
	cmd := newRootCmd(app)

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := execute(context.Background(), app, cmd)
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// setupCLI isolates the config dir and points the CLI at a fake API with user ann.
func setupCLI(t *testing.T) *apitest.Server {
	t.Helper()
	t.Setenv("TASKFLOW_CONFIG_DIR", t.TempDir())
	t.Setenv("TASKFLOW_FORMAT", "")
	t.Setenv("TASKFLOW_LOG", "")
	srv := apitest.New(t, apitest.WithUser("ann", "s3cret"))
	t.Setenv("TASKFLOW_API_URL", srv.URL)
	return srv
}

func mustEnv(t *testing.T, args ...string) map[string]any {
	t.Helper()
	stdout, stderr, err := runCLI(t, args)
	if err != nil {
		t.Fatalf("command failed: taskflow %v\nerr: %v\nstderr:\n%s\nstdout:\n%s", args, err, string(stderr), string(stdout))
	}
	var env map[string]any
	if err := json.Unmarshal(stdout, &env); err != nil {
		t.Fatalf("unmarshal stdout as json envelope: %v\nstdout:\n%s\nargs: %v", err, string(stdout), args)
	}
	if _, ok := env["data"]; !ok {
		t.Fatalf("expected JSON envelope to contain data key; got: %v", env)
	}
	if hints, ok := env["_hints"]; ok && hints != nil {
		if _, ok := hints.([]any); !ok {
			t.Fatalf("expected _hints to be list; got %T", hints)
		}
	}
	return env
}

func dataMap(t *testing.T, env map[string]any) map[string]any {
	t.Helper()
	m, ok := env["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object; got %#v", env["data"])
	}
	return m
}

func idString(t *testing.T, m map[string]any) string {
	t.Helper()
	f, ok := m["id"].(float64)
	if !ok || f <= 0 {
		t.Fatalf("expected numeric id; got %#v", m["id"])
	}
	return strconv.FormatInt(int64(f), 10)
}

func TestStatus_Unauthenticated(t *testing.T) {
	srv := setupCLI(t)

	env := mustEnv(t, "status")
	data := dataMap(t, env)
	if data["authenticated"] != false {
		t.Fatalf("expected unauthenticated; got %#v", data)
	}
	if data["apiUrl"] != srv.URL {
		t.Fatalf("expected apiUrl %q; got %#v", srv.URL, data["apiUrl"])
	}
	if hints, _ := env["_hints"].([]any); len(hints) == 0 {
		t.Fatalf("expected a login hint; got %#v", env["_hints"])
	}
	if n := len(srv.Requests()); n != 0 {
		t.Fatalf("status must not call the API; got %d requests", n)
	}
}

func TestEndToEnd_LoginTasksLogout(t *testing.T) {
	srv := setupCLI(t)

	login := dataMap(t, mustEnv(t, "login", "--username", "ann", "--password", "s3cret"))
	if login["authenticated"] != true || login["username"] != "ann" {
		t.Fatalf("unexpected login output: %#v", login)
	}
	if st := dataMap(t, mustEnv(t, "status")); st["authenticated"] != true || st["username"] != "ann" {
		t.Fatalf("expected stored session; got %#v", st)
	}

	created := dataMap(t, mustEnv(t, "tasks", "create", "--title", "  Buy milk ", "--description", "2 litres"))
	id := idString(t, created)
	if created["title"] != "Buy milk" || created["completed"] != false {
		t.Fatalf("unexpected created task: %#v", created)
	}

	list := mustEnv(t, "tasks", "list")
	items, ok := list["data"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("expected one task; got %#v", list["data"])
	}

	toggled := dataMap(t, mustEnv(t, "tasks", "toggle", id))
	if toggled["completed"] != true || toggled["description"] != "2 litres" {
		t.Fatalf("toggle must only flip completed; got %#v", toggled)
	}

	updated := dataMap(t, mustEnv(t, "tasks", "update", id, "--title", "Buy oat milk"))
	if updated["title"] != "Buy oat milk" || updated["completed"] != true || updated["description"] != "2 litres" {
		t.Fatalf("update must keep unchanged fields; got %#v", updated)
	}

	shown := dataMap(t, mustEnv(t, "tasks", "show", id))
	if shown["title"] != "Buy oat milk" {
		t.Fatalf("expected show to return the updated task; got %#v", shown)
	}

	if _, _, err := runCLI(t, []string{"tasks", "delete", id}); err == nil {
		t.Fatalf("expected delete without --yes to fail")
	}
	if got := len(srv.Tasks()); got != 1 {
		t.Fatalf("expected task to survive unconfirmed delete; got %d tasks", got)
	}
	mustEnv(t, "tasks", "delete", id, "--yes")
	if got := len(srv.Tasks()); got != 0 {
		t.Fatalf("expected task deleted; got %d tasks", got)
	}

	mustEnv(t, "logout")
	if st := dataMap(t, mustEnv(t, "status")); st["authenticated"] != false {
		t.Fatalf("expected logged out; got %#v", st)
	}
}

func TestLogin_PasswordStdin(t *testing.T) {
	setupCLI(t)

	stdout, stderr, err := runCLIWithInput(t, "s3cret\n", []string{"login", "--username", "ann", "--password-stdin"})
	if err != nil {
		t.Fatalf("login failed: %v\nstderr:\n%s", err, stderr)
	}
	if !bytes.Contains(stdout, []byte(`"authenticated":true`)) {
		t.Fatalf("expected authenticated output; got %s", stdout)
	}
}

func TestLogin_Failures(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{name: "bad credentials", args: []string{"login", "--username", "ann", "--password", "nope"}, want: "invalid username or password"},
		{name: "missing password", args: []string{"login", "--username", "ann"}, want: "username and password are required"},
		{name: "both password sources", args: []string{"login", "--username", "ann", "--password", "x", "--password-stdin"}, want: "mutually exclusive"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setupCLI(t)
			_, stderr, err := runCLI(t, tc.args)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(string(stderr), tc.want) {
				t.Fatalf("expected stderr to contain %q; got %q", tc.want, stderr)
			}
			if st := dataMap(t, mustEnv(t, "status")); st["authenticated"] != false {
				t.Fatalf("failed login must not store a session; got %#v", st)
			}
		})
	}
}

func TestLogin_ExplicitAPIURLIsSaved(t *testing.T) {
	srv := setupCLI(t)
	t.Setenv("TASKFLOW_API_URL", "")

	mustEnv(t, "--api-url", srv.URL+"/", "login", "--username", "ann", "--password", "s3cret")

	cfg, err := store.LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.APIURL != srv.URL {
		t.Fatalf("expected saved api url %q; got %q", srv.URL, cfg.APIURL)
	}
	// Later commands pick it up without the flag.
	mustEnv(t, "tasks", "list")
}

func TestTasks_RequireLogin(t *testing.T) {
	srv := setupCLI(t)

	_, stderr, err := runCLI(t, []string{"tasks", "list"})
	if err == nil {
		t.Fatalf("expected error without session")
	}
	if !strings.Contains(string(stderr), "not logged in") {
		t.Fatalf("expected not-logged-in message; got %q", stderr)
	}
	if n := len(srv.Requests()); n != 0 {
		t.Fatalf("expected no API calls; got %d", n)
	}
}

func TestTasks_UnauthorizedClearsSession(t *testing.T) {
	srv := setupCLI(t)
	mustEnv(t, "login", "--username", "ann", "--password", "s3cret")
	srv.RevokeTokens()

	_, stderr, err := runCLI(t, []string{"tasks", "list"})
	if err == nil {
		t.Fatalf("expected error on 401")
	}
	if !strings.Contains(string(stderr), "session expired") {
		t.Fatalf("expected session expired message; got %q", stderr)
	}
	if st := dataMap(t, mustEnv(t, "status")); st["authenticated"] != false {
		t.Fatalf("expected session cleared after 401; got %#v", st)
	}
}

func TestTasksCreate_ValidatesTitleLocally(t *testing.T) {
	srv := setupCLI(t)
	mustEnv(t, "login", "--username", "ann", "--password", "s3cret")

	for _, title := range []string{"   ", strings.Repeat("x", 201)} {
		if _, _, err := runCLI(t, []string{"tasks", "create", "--title", title}); err == nil {
			t.Fatalf("expected validation error for %d-char title", len(title))
		}
	}
	if n := srv.Count(apitest.OpCreate); n != 0 {
		t.Fatalf("expected no create calls; got %d", n)
	}
}

func TestTasksUpdate_RequiresAField(t *testing.T) {
	srv := setupCLI(t)
	mustEnv(t, "login", "--username", "ann", "--password", "s3cret")

	if _, _, err := runCLI(t, []string{"tasks", "update", "1"}); err == nil {
		t.Fatalf("expected error without fields")
	}
	if n := srv.Count(apitest.OpGet); n != 0 {
		t.Fatalf("expected no API calls; got %d", n)
	}
}

func TestTasksList_TableFormat(t *testing.T) {
	setupCLI(t)
	mustEnv(t, "login", "--username", "ann", "--password", "s3cret")
	mustEnv(t, "tasks", "create", "--title", "Buy milk")

	stdout, stderr, err := runCLI(t, []string{"--format", "table", "tasks", "list"})
	if err != nil {
		t.Fatalf("list failed: %v\nstderr:\n%s", err, stderr)
	}
	for _, want := range []string{"TITLE", "DONE", "Buy milk"} {
		if !strings.Contains(string(stdout), want) {
			t.Fatalf("expected table to contain %q; got:\n%s", want, stdout)
		}
	}
}

func TestWebCmd_ServesUntilCanceled(t *testing.T) {
	setupCLI(t)

	pr, pw := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := NewRootCmd()
	cmd.SetOut(pw)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"web", "--addr", "127.0.0.1:0"})

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	line, err := bufio.NewReader(pr).ReadString('\n')
	if err != nil {
		t.Fatalf("read startup line: %v", err)
	}
	var env struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(line), &env); err != nil {
		t.Fatalf("unmarshal startup line: %v\n%s", err, line)
	}

	resp, err := http.Get(env.Data.URL + "health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /health; got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean exit; got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("web command did not stop after cancel")
	}
}

func doctorChecks(t *testing.T, env map[string]any) map[string]map[string]any {
	t.Helper()
	data := dataMap(t, env)
	raw, ok := data["checks"].([]any)
	if !ok {
		t.Fatalf("expected checks list; got %#v", data["checks"])
	}
	out := map[string]map[string]any{}
	for _, c := range raw {
		m := c.(map[string]any)
		out[m["name"].(string)] = m
	}
	return out
}

func TestDoctor(t *testing.T) {
	srv := setupCLI(t)

	checks := doctorChecks(t, mustEnv(t, "doctor"))
	for _, name := range []string{"configDir", "config", "apiUrl", "session", "api"} {
		if checks[name]["ok"] != true {
			t.Fatalf("expected %s ok; got %#v", name, checks[name])
		}
	}
	if checks["api"]["detail"] != "reachable, not logged in" {
		t.Fatalf("unexpected api detail: %#v", checks["api"])
	}

	mustEnv(t, "login", "--username", "ann", "--password", "s3cret")
	checks = doctorChecks(t, mustEnv(t, "doctor"))
	if checks["api"]["detail"] != "authorized" || checks["session"]["detail"] != "logged in as ann" {
		t.Fatalf("unexpected checks after login: %#v", checks)
	}

	srv.RevokeTokens()
	checks = doctorChecks(t, mustEnv(t, "doctor"))
	if checks["api"]["ok"] != false {
		t.Fatalf("expected api check to fail with a revoked token; got %#v", checks["api"])
	}
	if _, _, err := runCLI(t, []string{"doctor", "--fail"}); err == nil {
		t.Fatalf("expected --fail to return an error")
	}
}

func TestExecute_ClosesLogFileWhenCommandFails(t *testing.T) {
	srv := setupCLI(t)
	mustEnv(t, "login", "--username", "ann", "--password", "s3cret")
	srv.RevokeTokens()

	logPath := filepath.Join(t.TempDir(), "taskflow.log")
	t.Setenv("TASKFLOW_LOG", logPath)
	t.Setenv("TASKFLOW_LOG_LEVEL", "debug")

	app := &App{}
	cmd := newRootCmd(app)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"tasks", "list"})
	if err := execute(context.Background(), app, cmd); err == nil {
		t.Fatalf("expected tasks list to fail with a revoked token")
	}
	if app.log != nil || app.closeLog != nil {
		t.Fatalf("expected the log file to be released after a failing command")
	}
	b, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), "api request") {
		t.Fatalf("expected api request in log; got:\n%s", b)
	}
}
