package tui

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"taskflow-cli/internal/apiclient"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type loginState struct {
	username textinput.Model
	password textinput.Model
	focus    loginFocus
	loading  bool
	err      string
	// notice is shown above the form, e.g. after a session expired.
	notice string
	width  int
}

func newLoginState() loginState {
	u := textinput.New()
	u.Placeholder = "Username"
	u.Prompt = ""
	u.CharLimit = 150

	p := textinput.New()
	p.Placeholder = "Password"
	p.Prompt = ""
	p.EchoMode = textinput.EchoPassword
	p.EchoCharacter = '•'

	s := loginState{username: u, password: p, width: 40}
	s.setFocus(loginFocusUsername)
	return s
}

func (s *loginState) resize(termW int) {
	s.width = clampInt(termW-8, 24, 50)
	s.username.Width = s.width - 3
	s.password.Width = s.width - 3
}

func (s *loginState) setFocus(f loginFocus) {
	s.focus = f
	s.username.Blur()
	s.password.Blur()
	switch f {
	case loginFocusUsername:
		s.username.Focus()
	case loginFocusPassword:
		s.password.Focus()
	}
}

// reset clears the form for a fresh visit. The username is kept so a re-login after
// expiry only needs the password.
func (s *loginState) reset(notice string) {
	s.password.SetValue("")
	s.loading = false
	s.err = ""
	s.notice = notice
	if strings.TrimSpace(s.username.Value()) == "" {
		s.setFocus(loginFocusUsername)
	} else {
		s.setFocus(loginFocusPassword)
	}
}

// loginErrorText maps a failed login to the message shown under the form.
func loginErrorText(err error) string {
	switch apiclient.StatusCode(err) {
	case http.StatusBadRequest, http.StatusUnauthorized:
		return errLoginInvalid
	default:
		return errLoginFailed
	}
}

func (m *appModel) enterLogin(notice string) {
	m.enterView(viewLogin)
	m.resetTaskState()
	m.login.reset(notice)
}

func (m appModel) updateLogin(msg tea.KeyMsg) (appModel, tea.Cmd) {
	if m.login.loading {
		// Only quitting is allowed while a login is in flight.
		return m, nil
	}

	switch msg.String() {
	case "tab", "down":
		m.login.setFocus((m.login.focus + 1) % 3)
		return m, nil
	case "shift+tab", "up":
		m.login.setFocus((m.login.focus + 2) % 3)
		return m, nil
	case "enter":
		if m.login.focus == loginFocusUsername {
			m.login.setFocus(loginFocusPassword)
			return m, nil
		}
		return m.submitLogin()
	}

	var cmd tea.Cmd
	switch m.login.focus {
	case loginFocusUsername:
		m.login.username, cmd = m.login.username.Update(msg)
	case loginFocusPassword:
		m.login.password, cmd = m.login.password.Update(msg)
	}
	return m, cmd
}

func (m appModel) submitLogin() (appModel, tea.Cmd) {
	username := strings.TrimSpace(m.login.username.Value())
	password := m.login.password.Value()
	if username == "" || password == "" {
		m.login.err = errLoginRequired
		return m, nil
	}

	m.login.err = ""
	m.login.notice = ""
	m.login.loading = true
	return m, tea.Batch(
		loginCmd(m.viewCtx, m.viewGen, m.session, m.api, username, password),
		m.spinnerTick(),
	)
}

func (m appModel) handleLoginDone(msg loginDoneMsg) (appModel, tea.Cmd) {
	if msg.gen != m.viewGen || m.view != viewLogin {
		return m, nil
	}
	m.login.loading = false
	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			return m, nil
		}
		m.log.Warn("login failed", "err", msg.err)
		m.login.err = loginErrorText(msg.err)
		return m, nil
	}
	m.log.Info("logged in", "username", m.session.Username())
	return m.enterTasks()
}

func (m appModel) viewLogin() string {
	w := m.login.width
	field := func(label string, in textinput.Model, f loginFocus) string {
		return renderFieldLabel(label, m.login.focus == f) + "\n" + renderInputLine(w, in.View(), "")
	}

	btnLabel := "Log in"
	if m.login.loading {
		btnLabel = m.spinner.View() + " Logging in..."
	}
	btn := lipgloss.NewStyle().Padding(0, 1).Background(colorControlBg).Foreground(colorSurfaceFg)
	if m.login.focus == loginFocusSubmit {
		btn = btn.Background(colorAccent).Foreground(colorAccentFg).Bold(true)
	}

	parts := []string{
		styleTitle().Render("TaskFlow"),
		styleMuted().Render("Sign in to manage your tasks"),
		"",
	}
	if m.login.notice != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorNoticeFg).Width(w).Render(m.login.notice), "")
	}
	if m.login.err != "" {
		parts = append(parts, styleError().Width(w).Render(m.login.err), "")
	}
	parts = append(parts,
		field("Username", m.login.username, loginFocusUsername),
		"",
		field("Password", m.login.password, loginFocusPassword),
		"",
		btn.Render(btnLabel),
		"",
		styleMuted().Render("tab: next field   enter: submit   ctrl+c: quit"),
	)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorCardBorder).
		Padding(1, 2).
		Render(strings.Join(parts, "\n"))
	if m.width <= 0 || m.height <= 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
