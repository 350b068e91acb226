package webtui

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/creack/pty"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

const (
	initialCols = 120
	initialRows = 40
	writeWait   = 10 * time.Second
)

// controlMsg is a JSON text frame from the browser. Anything else is keystrokes.
type controlMsg struct {
	Type string `json:"type"`
	Cols int    `json:"cols"`
	Rows int    `json:"rows"`
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  32 * 1024,
	WriteBufferSize: 32 * 1024,
	CheckOrigin:     sameOrigin,
}

// sameOrigin accepts requests without an Origin header (non-browser clients) and
// browser requests whose Origin host matches the Host header.
func sameOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	ptmx, stop, err := s.startPTY()
	if err != nil {
		s.log.Error("start pty session", "err", err)
		_ = conn.WriteMessage(websocket.TextMessage, []byte("failed to start session: "+err.Error()+"\r\n"))
		return
	}
	defer stop()
	s.log.Info("terminal session started", "remote", r.RemoteAddr)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error { return pumpPTYToWS(ptmx, conn) })
	g.Go(func() error { return pumpWSToPTY(conn, ptmx) })
	g.Go(func() error {
		// Either pump returning cancels ctx; closing both ends unblocks the other.
		<-ctx.Done()
		_ = ptmx.Close()
		_ = conn.Close()
		return nil
	})
	if err := g.Wait(); err != nil && !isClosedErr(err) {
		s.log.Debug("terminal session ended", "err", err)
	}
	s.log.Info("terminal session closed", "remote", r.RemoteAddr)
}

// startPTY spawns the session command on a fresh PTY. stop kills and reaps it.
func (s *Server) startPTY() (*os.File, func(), error) {
	argv, err := s.command()
	if err != nil {
		return nil, nil, err
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"COLORTERM=truecolor",
	)
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: initialCols, Rows: initialRows})
	if err != nil {
		return nil, nil, err
	}
	stop := func() {
		_ = ptmx.Close()
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		_ = cmd.Wait()
	}
	return ptmx, stop, nil
}

func pumpPTYToWS(ptmx io.Reader, conn *websocket.Conn) error {
	buf := make([]byte, 32*1024)
	for {
		n, err := ptmx.Read(buf)
		if n > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if werr := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return context.Canceled
			}
			return err
		}
	}
}

func pumpWSToPTY(conn *websocket.Conn, ptmx *os.File) error {
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if len(data) == 0 {
			continue
		}
		if mt == websocket.TextMessage && data[0] == '{' {
			if m, ok := parseControl(data); ok {
				if m.Type == "resize" {
					_ = pty.Setsize(ptmx, &pty.Winsize{Cols: uint16(m.Cols), Rows: uint16(m.Rows)})
				}
				continue
			}
		}
		if _, err := ptmx.Write(data); err != nil {
			return err
		}
	}
}

// parseControl decodes a control frame. Frames that look like JSON but are not a
// known control message are passed through as input.
func parseControl(data []byte) (controlMsg, bool) {
	var m controlMsg
	if err := json.Unmarshal(data, &m); err != nil {
		return controlMsg{}, false
	}
	m.Type = strings.ToLower(strings.TrimSpace(m.Type))
	if m.Type != "resize" || m.Cols <= 0 || m.Rows <= 0 || m.Cols > 0xffff || m.Rows > 0xffff {
		return controlMsg{}, false
	}
	return m, true
}

func isClosedErr(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, os.ErrClosed) {
		return true
	}
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
