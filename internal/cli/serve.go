package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// serve runs h on ln until the server fails or SIGINT/SIGTERM arrives, then drains
// in-flight requests. Canceling the command context closes the server at once.
func serve(cmd *cobra.Command, log *slog.Logger, ln net.Listener, h http.Handler) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelWarn),
	}

	ctx := ctxOrBackground(cmd.Context())
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	wait := gfshutdown.GracefulShutdown(
		ctx,
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				log.Info("shutting down", "addr", ln.Addr().String())
				return srv.Shutdown(ctx)
			},
		},
	)

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return writeErr(cmd, err)
		}
	case <-ctx.Done():
		return srv.Close()
	case code := <-wait:
		return exitCodeErr(code)
	}
	return exitCodeErr(<-wait)
}

func exitCodeErr(code int) error {
	if code != 0 {
		return fmt.Errorf("shutdown finished with exit code %d", code)
	}
	return nil
}
