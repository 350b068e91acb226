package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"taskflow-cli/internal/apiclient"
	"taskflow-cli/internal/model"

	"github.com/starfederation/datastar-go/datastar"
)

const (
	msgLoadFailed   = "Failed to load tasks"
	msgSaveFailed   = "Failed to save task"
	msgDeleteFailed = "Failed to delete task"
	msgUpdateFailed = "Failed to update task"
	msgTitleMissing = "Title is required"
	msgTitleTooLong = "Title must be at most 200 characters"
)

type tasksPageVM struct {
	Username string
	Tasks    []model.Task
	Error    string
	Form     *formVM
}

type formVM struct {
	Heading     string
	Action      string
	Title       string
	Description string
	Completed   bool
	SubmitLabel string
	Error       string
}

func newFormVM(t *model.Task) *formVM {
	if t == nil {
		return &formVM{Heading: "New Task", Action: "/tasks", SubmitLabel: "Create Task"}
	}
	return &formVM{
		Heading:     "Edit Task",
		Action:      "/tasks/" + t.IDString(),
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		SubmitLabel: "Update Task",
	}
}

// requireToken redirects to /login when the request carries no session.
func requireToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	tok := tokenFromRequest(r)
	if tok == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return "", false
	}
	return tok, true
}

func taskIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := model.ParseTaskID(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return 0, false
	}
	return id, true
}

// loadPage fetches the task list for a full page render. It returns false when the
// response has already been written (401 redirect).
func (s *Server) loadPage(w http.ResponseWriter, r *http.Request, tok string) (tasksPageVM, bool) {
	vm := tasksPageVM{Username: userFromRequest(r)}
	tasks, err := s.client(tok).ListTasks(r.Context())
	switch {
	case apiclient.IsUnauthorized(err):
		s.expireSession(w, r)
		return vm, false
	case err != nil:
		s.log.Error("load tasks", "err", err)
		vm.Error = msgLoadFailed
	default:
		vm.Tasks = tasks
	}
	return vm, true
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	tok, ok := requireToken(w, r)
	if !ok {
		return
	}
	vm, ok := s.loadPage(w, r, tok)
	if !ok {
		return
	}
	s.render(w, http.StatusOK, "tasks.html", vm)
}

func (s *Server) handleTaskNew(w http.ResponseWriter, r *http.Request) {
	tok, ok := requireToken(w, r)
	if !ok {
		return
	}
	vm, ok := s.loadPage(w, r, tok)
	if !ok {
		return
	}
	vm.Form = newFormVM(nil)
	s.render(w, http.StatusOK, "tasks.html", vm)
}

func (s *Server) handleTaskEdit(w http.ResponseWriter, r *http.Request) {
	tok, ok := requireToken(w, r)
	if !ok {
		return
	}
	id, ok := taskIDFromPath(w, r)
	if !ok {
		return
	}
	t, err := s.client(tok).GetTask(r.Context(), id)
	switch {
	case apiclient.IsUnauthorized(err):
		s.expireSession(w, r)
		return
	case apiclient.StatusCode(err) == http.StatusNotFound:
		http.NotFound(w, r)
		return
	}

	vm, ok := s.loadPage(w, r, tok)
	if !ok {
		return
	}
	if err != nil {
		s.log.Error("get task", "id", id, "err", err)
		vm.Error = msgLoadFailed
		s.render(w, http.StatusBadGateway, "tasks.html", vm)
		return
	}
	vm.Form = newFormVM(&t)
	s.render(w, http.StatusOK, "tasks.html", vm)
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	s.saveTask(w, r, nil)
}

func (s *Server) handleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := taskIDFromPath(w, r)
	if !ok {
		return
	}
	s.saveTask(w, r, &id)
}

// saveTask handles the form submit: update when id is set, create otherwise. On
// failure the form is re-rendered with the entered values.
func (s *Server) saveTask(w http.ResponseWriter, r *http.Request, id *int64) {
	tok, ok := requireToken(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	in := model.TaskInput{
		Title:       strings.TrimSpace(r.Form.Get("title")),
		Description: r.Form.Get("description"),
		Completed:   r.Form.Get("completed") != "",
	}

	form := newFormVM(nil)
	if id != nil {
		form = newFormVM(&model.Task{ID: *id})
	}
	form.Title = in.Title
	form.Description = in.Description
	form.Completed = in.Completed

	fail := func(status int, msg string) {
		vm, ok := s.loadPage(w, r, tok)
		if !ok {
			return
		}
		form.Error = msg
		vm.Form = form
		s.render(w, status, "tasks.html", vm)
	}

	switch err := model.ValidateTitle(in.Title); {
	case errors.Is(err, model.ErrTitleRequired):
		fail(http.StatusUnprocessableEntity, msgTitleMissing)
		return
	case err != nil:
		fail(http.StatusUnprocessableEntity, msgTitleTooLong)
		return
	}

	c := s.client(tok)
	var (
		saved model.Task
		err   error
	)
	if id != nil {
		saved, err = c.UpdateTask(r.Context(), *id, in)
	} else {
		saved, err = c.CreateTask(r.Context(), in)
	}
	if apiclient.IsUnauthorized(err) {
		s.expireSession(w, r)
		return
	}
	if err != nil {
		s.log.Error("save task", "err", err)
		fail(http.StatusBadGateway, msgSaveFailed)
		return
	}
	s.log.Info("saved task", "id", saved.ID)
	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}

// sseUnauthorized clears the session and sends the browser to the login page. Cookies
// are set before the SSE headers go out.
func (s *Server) sseUnauthorized(w http.ResponseWriter, r *http.Request) {
	clearSessionCookies(w)
	sse := datastar.NewSSE(w, r)
	_ = sse.Redirect("/login?expired=1")
}

func (s *Server) patchError(sse *datastar.ServerSentEventGenerator, msg string) {
	html, err := s.renderString("error_banner", msg)
	if err != nil {
		s.log.Error("render error banner", "err", err)
		return
	}
	_ = sse.PatchElements(html, datastar.WithSelector("#error-banner"), datastar.WithMode(datastar.ElementPatchModeOuter))
}

func (s *Server) handleTaskToggle(w http.ResponseWriter, r *http.Request) {
	tok := tokenFromRequest(r)
	if tok == "" {
		s.sseUnauthorized(w, r)
		return
	}
	id, ok := taskIDFromPath(w, r)
	if !ok {
		return
	}

	c := s.client(tok)
	orig, err := c.GetTask(r.Context(), id)
	var t model.Task
	if err == nil {
		t, err = c.UpdateTask(r.Context(), id, orig.Toggled())
	}
	if apiclient.IsUnauthorized(err) {
		s.sseUnauthorized(w, r)
		return
	}

	sse := datastar.NewSSE(w, r)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.log.Error("toggle task", "id", id, "err", err)
		}
		s.patchError(sse, msgUpdateFailed)
		// Re-send the unchanged row.
		if orig.ID != 0 {
			s.patchCard(sse, orig)
		}
		return
	}
	s.patchCard(sse, t)
}

func (s *Server) patchCard(sse *datastar.ServerSentEventGenerator, t model.Task) {
	html, err := s.renderString("task_card", t)
	if err != nil {
		s.log.Error("render task card", "err", err)
		return
	}
	_ = sse.PatchElements(html, datastar.WithSelector("#task-"+t.IDString()), datastar.WithMode(datastar.ElementPatchModeOuter))
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	tok := tokenFromRequest(r)
	if tok == "" {
		s.sseUnauthorized(w, r)
		return
	}
	id, ok := taskIDFromPath(w, r)
	if !ok {
		return
	}

	err := s.client(tok).DeleteTask(r.Context(), id)
	if apiclient.IsUnauthorized(err) {
		s.sseUnauthorized(w, r)
		return
	}

	sse := datastar.NewSSE(w, r)
	if err != nil {
		s.log.Error("delete task", "id", id, "err", err)
		s.patchError(sse, msgDeleteFailed)
		return
	}
	_ = sse.RemoveElement("#task-" + model.Task{ID: id}.IDString())

	// The last card going away leaves an empty <ul>; swap in the empty state.
	tasks, err := s.client(tok).ListTasks(r.Context())
	if err != nil {
		s.log.Warn("reload after delete", "err", err)
		return
	}
	if len(tasks) == 0 {
		s.patchList(sse, tasks)
	}
}

func (s *Server) patchList(sse *datastar.ServerSentEventGenerator, tasks []model.Task) {
	html, err := s.renderString("task_list", tasks)
	if err != nil {
		s.log.Error("render task list", "err", err)
		return
	}
	_ = sse.PatchElements(html, datastar.WithSelector("#task-list"), datastar.WithMode(datastar.ElementPatchModeOuter))
}

// handleTaskListStream re-renders #task-list from a fresh load.
func (s *Server) handleTaskListStream(w http.ResponseWriter, r *http.Request) {
	tok := tokenFromRequest(r)
	if tok == "" {
		s.sseUnauthorized(w, r)
		return
	}
	tasks, err := s.client(tok).ListTasks(r.Context())
	if apiclient.IsUnauthorized(err) {
		s.sseUnauthorized(w, r)
		return
	}

	sse := datastar.NewSSE(w, r)
	if err != nil {
		s.log.Error("load tasks", "err", err)
		s.patchError(sse, msgLoadFailed)
		return
	}
	s.patchError(sse, "")
	s.patchList(sse, tasks)
}
