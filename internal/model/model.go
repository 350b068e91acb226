package model

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// TitleMaxLen is the longest title the client lets a user type.
const TitleMaxLen = 200

// Task is a server-owned record; the client only ever holds a cached copy.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// TaskInput is the write payload for create and full-replacement update.
type TaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Input returns the writable fields of t.
func (t Task) Input() TaskInput {
	return TaskInput{
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
	}
}

// Toggled returns the write payload for t with only Completed inverted.
func (t Task) Toggled() TaskInput {
	in := t.Input()
	in.Completed = !t.Completed
	return in
}

func (t Task) IDString() string {
	return strconv.FormatInt(t.ID, 10)
}

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the login payload. Only Token is interpreted; anything else the
// server returns is kept in Extra so callers see the full response.
type LoginResponse struct {
	Token string         `json:"token"`
	Extra map[string]any `json:"-"`
}

func (r *LoginResponse) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if tok, ok := raw["token"].(string); ok {
		r.Token = tok
	}
	delete(raw, "token")
	if len(raw) > 0 {
		r.Extra = raw
	}
	return nil
}

func (r LoginResponse) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+1)
	for k, v := range r.Extra {
		out[k] = v
	}
	out["token"] = r.Token
	return json.Marshal(out)
}

// DecodeTaskList accepts either a bare JSON array of tasks or a paginated
// {"results": [...]} envelope and returns the flat, order-preserving sequence.
func DecodeTaskList(b []byte) ([]Task, error) {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "" || trimmed == "null" {
		return []Task{}, nil
	}
	switch trimmed[0] {
	case '[':
		var tasks []Task
		if err := json.Unmarshal(b, &tasks); err != nil {
			return nil, err
		}
		if tasks == nil {
			tasks = []Task{}
		}
		return tasks, nil
	case '{':
		var env struct {
			Results []Task `json:"results"`
		}
		if err := json.Unmarshal(b, &env); err != nil {
			return nil, err
		}
		if env.Results == nil {
			return []Task{}, nil
		}
		return env.Results, nil
	default:
		return nil, errors.New("task list: expected array or results envelope")
	}
}

// ParseTaskID parses a user-supplied task id.
func ParseTaskID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("missing task id")
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid task id: " + s)
	}
	return id, nil
}

var (
	ErrTitleRequired = errors.New("title is required")
	ErrTitleTooLong  = errors.New("title must be at most 200 characters")
)

// ValidateTitle applies the client-side title rules to an already trimmed title.
func ValidateTitle(title string) error {
	switch {
	case title == "":
		return ErrTitleRequired
	case utf8.RuneCountInString(title) > TitleMaxLen:
		return ErrTitleTooLong
	}
	return nil
}
