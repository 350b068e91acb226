package web

import (
	"net/http"
	"net/url"
	"strings"

	"taskflow-cli/internal/apiclient"
)

const (
	tokenCookieName = "taskflow_token"
	userCookieName  = "taskflow_user"
)

const (
	msgLoginRequired  = "Username and password are required"
	msgLoginInvalid   = "Invalid username or password"
	msgLoginFailed    = "Login failed"
	msgSessionExpired = "Session expired. Please log in again."
)

type loginVM struct {
	Username string
	Error    string
	Notice   string
}

func tokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(tokenCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

func userFromRequest(r *http.Request) string {
	c, err := r.Cookie(userCookieName)
	if err != nil {
		return ""
	}
	u, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return u
}

func setSessionCookies(w http.ResponseWriter, token, username string) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     userCookieName,
		Value:    url.QueryEscape(username),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{tokenCookieName, userCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// expireSession applies the 401 policy for page requests.
func (s *Server) expireSession(w http.ResponseWriter, r *http.Request) {
	s.log.Warn("session expired; clearing cookies", "path", r.URL.Path)
	clearSessionCookies(w)
	http.Redirect(w, r, "/login?expired=1", http.StatusSeeOther)
}

func (s *Server) handleLoginGet(w http.ResponseWriter, r *http.Request) {
	if tokenFromRequest(r) != "" {
		http.Redirect(w, r, "/tasks", http.StatusSeeOther)
		return
	}
	vm := loginVM{Username: userFromRequest(r)}
	if r.URL.Query().Get("expired") != "" {
		vm.Notice = msgSessionExpired
	}
	s.render(w, http.StatusOK, "login.html", vm)
}

func (s *Server) handleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.Form.Get("username"))
	password := r.Form.Get("password")
	if username == "" || password == "" {
		s.render(w, http.StatusUnprocessableEntity, "login.html", loginVM{Username: username, Error: msgLoginRequired})
		return
	}

	resp, err := s.client("").Login(r.Context(), username, password)
	if err == nil && strings.TrimSpace(resp.Token) == "" {
		s.log.Warn("login response without token", "username", username)
		s.render(w, http.StatusBadGateway, "login.html", loginVM{Username: username, Error: msgLoginFailed})
		return
	}
	if err != nil {
		s.log.Warn("login failed", "username", username, "err", err)
		msg, status := msgLoginFailed, http.StatusBadGateway
		switch apiclient.StatusCode(err) {
		case http.StatusBadRequest, http.StatusUnauthorized:
			msg, status = msgLoginInvalid, http.StatusUnauthorized
		}
		s.render(w, status, "login.html", loginVM{Username: username, Error: msg})
		return
	}

	setSessionCookies(w, strings.TrimSpace(resp.Token), username)
	s.log.Info("logged in", "username", username)
	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}

// handleLogoutPost forgets the token. No API call is made.
func (s *Server) handleLogoutPost(w http.ResponseWriter, r *http.Request) {
	clearSessionCookies(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
