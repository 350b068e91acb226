// Package apitest runs an in-memory fake of the TaskFlow REST API on a loopback
// listener. It mirrors the DRF backend closely enough for client tests: token auth,
// trailing-slash routes, 201/204 statuses, 400 on bad credentials or titles.
package apitest

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"taskflow-cli/internal/model"

	"github.com/gofiber/fiber/v2"
)

// Op names one API operation for failure injection and request counting.
type Op string

const (
	OpLogin  Op = "login"
	OpList   Op = "list"
	OpGet    Op = "get"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Request is one recorded call.
type Request struct {
	Op            Op
	Method        string
	Path          string
	Authorization string
	Body          []byte
}

type Server struct {
	URL string

	app *fiber.App
	ln  net.Listener

	mu       sync.Mutex
	users    map[string]string
	tokens   map[string]string
	tasks    []model.Task
	nextID   int64
	envelope bool
	failures map[Op]int
	requests []Request
	now      func() time.Time
}

type Option func(*Server)

// WithEnvelope makes GET /api/tasks/ answer {"count":n,"results":[...]} instead of a bare array.
func WithEnvelope() Option {
	return func(s *Server) { s.envelope = true }
}

// WithUser registers a username/password pair accepted by the login endpoint.
func WithUser(username, password string) Option {
	return func(s *Server) { s.users[username] = password }
}

// WithClock fixes the server's timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New starts a server and registers its shutdown with t.Cleanup.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()
	s, err := Start(opts...)
	if err != nil {
		t.Fatalf("apitest: start: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

// Start runs a server until Close is called.
func Start(opts ...Option) (*Server, error) {
	s := &Server{
		users:    map[string]string{},
		tokens:   map[string]string{},
		failures: map[Op]int{},
		nextID:   1,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}

	// Immutable: recorded header/body values must outlive the handler.
	app := fiber.New(fiber.Config{DisableStartupMessage: true, Immutable: true})
	app.Post("/api/auth/login/", s.record(OpLogin), s.handleLogin)

	tasks := app.Group("/api/tasks")
	tasks.Get("/", s.record(OpList), s.requireToken, s.handleList)
	tasks.Post("/", s.record(OpCreate), s.requireToken, s.handleCreate)
	tasks.Get("/:id", s.record(OpGet), s.requireToken, s.handleGet)
	tasks.Put("/:id", s.record(OpUpdate), s.requireToken, s.handleUpdate)
	tasks.Delete("/:id", s.record(OpDelete), s.requireToken, s.handleDelete)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s.app = app
	s.ln = ln
	s.URL = "http://" + ln.Addr().String()
	go func() { _ = app.Listener(ln) }()
	return s, nil
}

func (s *Server) Close() {
	if s.app != nil {
		_ = s.app.Shutdown()
	}
}

// AddUser registers credentials after start.
func (s *Server) AddUser(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = password
}

// IssueToken returns a valid token for username without going through login.
func (s *Server) IssueToken(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueTokenLocked(username)
}

// RevokeTokens invalidates every issued token; authorized calls then answer 401.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = map[string]string{}
}

// Fail makes op answer status until ClearFailures is called.
func (s *Server) Fail(op Op, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = status
}

func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[Op]int{}
}

// Seed inserts tasks directly, in order, and returns the stored records.
func (s *Server) Seed(ins ...model.TaskInput) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Task, 0, len(ins))
	for _, in := range ins {
		out = append(out, s.insertLocked(in))
	}
	return out
}

// Tasks returns a snapshot of the stored tasks in list order.
func (s *Server) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Task(nil), s.tasks...)
}

// Requests returns every recorded call in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many times op was called.
func (s *Server) Count(op Op) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Op == op {
			n++
		}
	}
	return n
}

// LastRequest returns the most recent call for op.
func (s *Server) LastRequest(op Op) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if s.requests[i].Op == op {
			return s.requests[i], true
		}
	}
	return Request{}, false
}

func (s *Server) record(op Op) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Op:            op,
			Method:        c.Method(),
			Path:          c.Path(),
			Authorization: c.Get(fiber.HeaderAuthorization),
			Body:          append([]byte(nil), c.Body()...),
		})
		status, failing := s.failures[op]
		s.mu.Unlock()
		if failing {
			return c.Status(status).JSON(fiber.Map{"detail": "injected failure"})
		}
		return c.Next()
	}
}

func (s *Server) requireToken(c *fiber.Ctx) error {
	h := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	tok, ok := strings.CutPrefix(h, "Token ")
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": "Authentication credentials were not provided."})
	}
	s.mu.Lock()
	_, valid := s.tokens[strings.TrimSpace(tok)]
	s.mu.Unlock()
	if !valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": "Invalid token."})
	}
	return c.Next()
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var creds model.Credentials
	if err := json.Unmarshal(c.Body(), &creds); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "JSON parse error"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pw, ok := s.users[creds.Username]
	if !ok || pw != creds.Password {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"non_field_errors": []string{"Unable to log in with provided credentials."},
		})
	}
	return c.JSON(fiber.Map{"token": s.issueTokenLocked(creds.Username)})
}

func (s *Server) handleList(c *fiber.Ctx) error {
	s.mu.Lock()
	tasks := append([]model.Task{}, s.tasks...)
	envelope := s.envelope
	s.mu.Unlock()
	if envelope {
		return c.JSON(fiber.Map{"count": len(tasks), "next": nil, "previous": nil, "results": tasks})
	}
	return c.JSON(tasks)
}

func (s *Server) handleGet(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return notFound(c)
	}
	return c.JSON(s.tasks[i])
}

func (s *Server) handleCreate(c *fiber.Ctx) error {
	in, errBody := decodeInput(c.Body())
	if errBody != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errBody)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.Status(fiber.StatusCreated).JSON(s.insertLocked(in))
}

func (s *Server) handleUpdate(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}
	in, errBody := decodeInput(c.Body())
	if errBody != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errBody)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return notFound(c)
	}
	now := s.stamp()
	t := s.tasks[i]
	t.Title = in.Title
	t.Description = in.Description
	t.Completed = in.Completed
	t.UpdatedAt = &now
	s.tasks[i] = t
	return c.JSON(t)
}

func (s *Server) handleDelete(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return notFound(c)
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) insertLocked(in model.TaskInput) model.Task {
	now := s.stamp()
	t := model.Task{
		ID:          s.nextID,
		Title:       in.Title,
		Description: in.Description,
		Completed:   in.Completed,
		CreatedAt:   now,
		UpdatedAt:   &now,
	}
	s.nextID++
	// Newest first, like the backend's ordering by -created_at.
	s.tasks = append([]model.Task{t}, s.tasks...)
	return t
}

func (s *Server) indexLocked(id int64) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) issueTokenLocked(username string) string {
	b := make([]byte, 20)
	_, _ = rand.Read(b)
	tok := hex.EncodeToString(b)
	s.tokens[tok] = username
	return tok
}

func (s *Server) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func parseID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(strings.Trim(c.Params("id"), "/"), 10, 64)
	return id, err == nil && id > 0
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Not found."})
}

func decodeInput(body []byte) (model.TaskInput, fiber.Map) {
	var in model.TaskInput
	if err := json.Unmarshal(body, &in); err != nil {
		return model.TaskInput{}, fiber.Map{"detail": "JSON parse error"}
	}
	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		return model.TaskInput{}, fiber.Map{"title": []string{"This field may not be blank."}}
	case len([]rune(in.Title)) > model.TitleMaxLen:
		return model.TaskInput{}, fiber.Map{"title": []string{"Ensure this field has no more than 200 characters."}}
	}
	return in, nil
}
