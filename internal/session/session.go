// Package session holds the client's login state.
//
// A Session is created once at startup (Open loads any stored token) and passed to every
// view; Logout is its teardown. It is the API client's TokenSource.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"taskflow-cli/internal/apiclient"
	"taskflow-cli/internal/model"
	"taskflow-cli/internal/store"
)

// ErrNoToken is returned by Login when the server answered 2xx without a token.
var ErrNoToken = errors.New("login response did not include a token")

// Persister is the durable storage behind a Session.
type Persister interface {
	LoadSession(ctx context.Context) (store.SessionRecord, error)
	SaveSession(ctx context.Context, rec store.SessionRecord) error
	ClearSession(ctx context.Context) error
}

type Session struct {
	mu       sync.RWMutex
	token    string
	username string
	store    Persister
}

// Open loads the persisted session. A missing token is not an error.
func Open(ctx context.Context, p Persister) (*Session, error) {
	s := &Session{store: p}
	if p == nil {
		return s, nil
	}
	rec, err := p.LoadSession(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s, nil
		}
		return nil, err
	}
	s.token = strings.TrimSpace(rec.Token)
	s.username = strings.TrimSpace(rec.Username)
	return s, nil
}

// Token implements apiclient.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// IsAuthenticated reports whether a token is held. It never touches the network.
func (s *Session) IsAuthenticated() bool {
	return s.Token() != ""
}

// Login exchanges credentials through auth and, when the response carries a token,
// persists it. The full response payload is returned either way.
func (s *Session) Login(ctx context.Context, auth apiclient.Authenticator, username, password string) (model.LoginResponse, error) {
	resp, err := auth.Login(ctx, username, password)
	if err != nil {
		return resp, err
	}
	tok := strings.TrimSpace(resp.Token)
	if tok == "" {
		return resp, ErrNoToken
	}
	username = strings.TrimSpace(username)
	if s.store != nil {
		if err := s.store.SaveSession(ctx, store.SessionRecord{Token: tok, Username: username}); err != nil {
			return resp, err
		}
	}
	s.mu.Lock()
	s.token = tok
	s.username = username
	s.mu.Unlock()
	return resp, nil
}

// Logout forgets the token in storage and then in memory. No network call is made.
// If storage cannot be cleared the session stays authenticated.
func (s *Session) Logout(ctx context.Context) error {
	if s.store != nil {
		if err := s.store.ClearSession(ctx); err != nil {
			return fmt.Errorf("clear stored session: %w", err)
		}
	}
	s.mu.Lock()
	s.token = ""
	s.username = ""
	s.mu.Unlock()
	return nil
}

var _ apiclient.TokenSource = (*Session)(nil)
