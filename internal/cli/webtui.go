package cli

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"taskflow-cli/internal/logging"
	"taskflow-cli/internal/webtui"

	"github.com/spf13/cobra"
)

func newWebTUICmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "webtui",
		Short: "Run the terminal UI in your browser (PTY + WebSocket)",
		Long: strings.TrimSpace(`
Run the Bubble Tea TUI over the web via a server-side PTY and a browser terminal emulator.

Each browser tab starts its own TUI subprocess, sharing the stored session.
There is no authentication on this server; bind it to localhost.
`),
		Example: strings.TrimSpace(`
taskflow webtui --addr 127.0.0.1:3337
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiURL, err := resolveAPIURL(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			log := logging.Stderr()

			srv, err := webtui.NewServer(webtui.ServerConfig{
				Addr:   strings.TrimSpace(addr),
				APIURL: apiURL,
				Logger: log,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			if srv.Addr() == "" {
				return writeErr(cmd, errors.New("webtui: missing --addr"))
			}

			ln, err := net.Listen("tcp", srv.Addr())
			if err != nil {
				return writeErr(cmd, err)
			}
			actualAddr := ln.Addr().String()

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      actualAddr,
					"apiUrl":    apiURL,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
				"_hints": []string{"open http://" + actualAddr},
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "TaskFlow webtui running at http://%s (api=%s)\n", actualAddr, apiURL)

			return serve(cmd, log, ln, srv.Handler())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:3337", "Bind address (host:port or :port)")
	return cmd
}
