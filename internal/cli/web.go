package cli

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"taskflow-cli/internal/logging"
	"taskflow-cli/internal/web"

	"github.com/spf13/cobra"
)

func newWebCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the browser UI",
		Long: strings.TrimSpace(`
Serve the TaskFlow browser UI from a local HTTP server.

Pages are server-rendered; toggling and deleting tasks use datastar SSE patches.
The API token is kept in an HttpOnly cookie, separate from the CLI/TUI session.
`),
		Example: strings.TrimSpace(`
taskflow web --addr 127.0.0.1:3336
taskflow --api-url https://tasks.example.com web --addr :3336
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				return writeErr(cmd, errors.New("web: missing --addr"))
			}
			apiURL, err := resolveAPIURL(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			log := logging.Stderr()

			srv, err := web.NewServer(web.ServerConfig{
				Addr:    listenAddr,
				APIURL:  apiURL,
				Timeout: app.Timeout,
				Logger:  log,
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			ln, err := net.Listen("tcp", srv.Addr())
			if err != nil {
				return writeErr(cmd, err)
			}
			actualAddr := ln.Addr().String()
			url := "http://" + actualAddr + "/"

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      actualAddr,
					"url":       url,
					"apiUrl":    apiURL,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
				"_hints": []string{"open " + url},
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "TaskFlow web running at %s (api=%s)\n", url, apiURL)

			return serve(cmd, log, ln, srv.Handler())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:3336", "Bind address (host:port or :port)")
	return cmd
}
