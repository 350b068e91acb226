package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"taskflow-cli/internal/apiclient"
	"taskflow-cli/internal/session"
	"taskflow-cli/internal/store"

	"github.com/spf13/cobra"
)

var errSessionExpired = errors.New("session expired; run `taskflow login` again")

// authedClient opens the stored session and returns a client that sends its token.
func authedClient(cmd *cobra.Command, app *App) (*session.Session, *apiclient.Client, error) {
	apiURL, err := resolveAPIURL(app)
	if err != nil {
		return nil, nil, err
	}
	sess, err := openSession(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	if !sess.IsAuthenticated() {
		return nil, nil, errNotLoggedIn
	}
	return sess, newClient(app, apiURL, sess, app.logger()), nil
}

// apiFailure maps an API error for the terminal. A 401 forgets the stored token.
func apiFailure(cmd *cobra.Command, sess *session.Session, err error) error {
	if apiclient.IsUnauthorized(err) && sess != nil {
		if cerr := sess.Logout(ctxOrBackground(cmd.Context())); cerr != nil {
			return writeErr(cmd, fmt.Errorf("%w (clearing session: %v)", errSessionExpired, cerr))
		}
		return writeErr(cmd, errSessionExpired)
	}
	return writeErr(cmd, err)
}

func newLoginCmd(app *App) *cobra.Command {
	var username, password string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Example: strings.TrimSpace(`
taskflow login --username ann --password s3cret
printf '%s\n' "$PW" | taskflow login --username ann --password-stdin
taskflow --api-url https://tasks.example.com login --username ann --password-stdin
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			username = strings.TrimSpace(username)
			if passwordStdin {
				if password != "" {
					return writeErr(cmd, errors.New("--password and --password-stdin are mutually exclusive"))
				}
				pw, err := readPassword(cmd.InOrStdin())
				if err != nil {
					return writeErr(cmd, err)
				}
				password = pw
			}
			if username == "" || password == "" {
				return writeErr(cmd, errors.New("username and password are required"))
			}

			apiURL, err := resolveAPIURL(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			sess, err := openSession(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			client := newClient(app, apiURL, sess, app.logger())
			if _, err := sess.Login(ctxOrBackground(cmd.Context()), client, username, password); err != nil {
				switch {
				case errors.Is(err, session.ErrNoToken):
					return writeErr(cmd, errors.New("login failed: response did not include a token"))
				case apiclient.StatusCode(err) == http.StatusBadRequest, apiclient.StatusCode(err) == http.StatusUnauthorized:
					return writeErr(cmd, errors.New("invalid username or password"))
				}
				return writeErr(cmd, fmt.Errorf("login failed: %w", err))
			}

			// An explicit --api-url sticks for later commands.
			if cmd.Flags().Changed("api-url") {
				cfg, err := store.LoadConfig()
				if err == nil {
					cfg.APIURL = apiURL
					err = store.SaveConfig(cfg)
				}
				if err != nil {
					return writeErr(cmd, fmt.Errorf("save config: %w", err))
				}
			}

			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"authenticated": true,
					"username":      sess.Username(),
					"apiUrl":        apiURL,
				},
				"_hints": []string{"taskflow tasks list"},
			})
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username")
	cmd.Flags().StringVar(&password, "password", "", "Password (prefer --password-stdin)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	return cmd
}

// readPassword takes the first line of r, without the line ending.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := sess.Logout(ctxOrBackground(cmd.Context())); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"authenticated": false},
			})
		},
	}
}

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a session is stored and which API it targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiURL, err := resolveAPIURL(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			sess, err := openSession(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			hints := []string{}
			if !sess.IsAuthenticated() {
				hints = append(hints, "taskflow login --username <name>")
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"authenticated": sess.IsAuthenticated(),
					"username":      sess.Username(),
					"apiUrl":        apiURL,
				},
				"_hints": hints,
			})
		},
	}
}
