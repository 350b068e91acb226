package tui

import (
	"context"
	"log/slog"

	"taskflow-cli/internal/apiclient"
	"taskflow-cli/internal/logging"
	"taskflow-cli/internal/model"
	"taskflow-cli/internal/session"
	"taskflow-cli/internal/store"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
)

// User-facing failure messages. The underlying error goes to the log only.
const (
	errLoadTasks      = "Failed to load tasks"
	errSaveTask       = "Failed to save task"
	errDeleteTask     = "Failed to delete task"
	errUpdateTask     = "Failed to update task"
	errLogoutFailed   = "Failed to log out"
	errLoginRequired  = "Username and password are required"
	errLoginInvalid   = "Invalid username or password"
	errLoginFailed    = "Login failed"
	errTitleRequired  = "Title is required"
	noticeSessionGone = "Session expired. Please log in again."
)

// API is what the TUI needs from the REST client.
type API interface {
	apiclient.Authenticator
	apiclient.TaskService
}

// StateStore persists UI state between runs. store.Store implements it.
type StateStore interface {
	LoadTUIState() (*store.TUIState, error)
	SaveTUIState(*store.TUIState) error
}

type Options struct {
	Session *session.Session
	API     API
	APIURL  string
	Logger  *slog.Logger
	// State is optional; without it the selection is not remembered.
	State StateStore
}

type appModel struct {
	session *session.Session
	api     API
	apiURL  string
	log     *slog.Logger
	state   StateStore

	// restore is the saved selection, applied to the first list load.
	restore store.TUIState

	width  int
	height int

	// rootCtx is the program's context; each view gets a child of it.
	rootCtx    context.Context
	viewCtx    context.Context
	viewCancel context.CancelFunc
	viewGen    int

	view view

	spinner spinner.Model
	// animate enables spinner ticks. Off for models driven directly by tests.
	animate bool

	login loginState

	tasks     []model.Task
	tasksList list.Model
	loading   bool
	loadSeq   int
	errText   string

	modal        modalKind
	form         taskForm
	confirmFor   model.Task
	confirmFocus confirmModalFocus
}

func newAppModel(ctx context.Context, opts Options) appModel {
	if ctx == nil {
		ctx = context.Background()
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styleMuted()

	m := appModel{
		session: opts.Session,
		api:     opts.API,
		apiURL:  opts.APIURL,
		log:     log,
		state:   opts.State,
		rootCtx: ctx,
		view:    viewBootstrap,
		spinner: sp,
		login:   newLoginState(),
		form:    newTaskForm(),
	}
	m.tasksList = newList("Tasks", []list.Item{})
	m.viewCtx, m.viewCancel = context.WithCancel(ctx)
	if m.state != nil {
		if st, err := m.state.LoadTUIState(); err != nil {
			log.Warn("load tui state", "err", err)
		} else if st != nil {
			m.restore = *st
		}
	}
	return m
}

// saveState records the current selection for the next run.
func (m appModel) saveState() {
	if m.state == nil {
		return
	}
	st := &store.TUIState{Version: 1}
	if m.view == viewTasks && m.session != nil {
		if t, ok := m.selectedTask(); ok {
			st.Username = m.session.Username()
			st.SelectedTaskID = t.ID
		}
	}
	if err := m.state.SaveTUIState(st); err != nil {
		m.log.Warn("save tui state", "err", err)
	}
}

// enterView switches views. The previous view's context is canceled, so its in-flight
// requests abort, and the generation bump makes their completions stale.
func (m *appModel) enterView(v view) {
	if m.viewCancel != nil {
		m.viewCancel()
	}
	m.viewCtx, m.viewCancel = context.WithCancel(m.rootCtx)
	m.viewGen++
	m.view = v
}

// resetTaskState discards every piece of task-view state.
func (m *appModel) resetTaskState() {
	m.tasks = nil
	m.tasksList.SetItems([]list.Item{})
	m.loading = false
	m.errText = ""
	m.closeModal()
}

func (m *appModel) closeModal() {
	m.modal = modalNone
	m.confirmFor = model.Task{}
	m.confirmFocus = confirmFocusCancel
	m.form.close()
}

func (m appModel) busy() bool {
	switch {
	case m.view == viewBootstrap:
		return true
	case m.view == viewLogin:
		return m.login.loading
	case m.modal == modalTaskForm && m.form.loading:
		return true
	default:
		return m.loading
	}
}

func (m *appModel) resizeLists() {
	w, h := m.listPaneSize()
	m.tasksList.SetSize(w, h)
	m.form.resize(modalBodyWidth(m.width))
	m.login.resize(m.width)
}

const (
	headerLines      = 3
	footerLines      = 2
	minSplitDetailW  = 80
	splitGapW        = 2
	maxContentW      = 120
	minListPaneWidth = 30
)

func (m appModel) contentWidth() int {
	w := m.width
	if w <= 0 {
		w = 80
	}
	return clampInt(w, 20, maxContentW)
}

func (m appModel) bodyHeight() int {
	h := m.height - headerLines - footerLines
	if m.errText != "" {
		h--
	}
	if h < 4 {
		h = 4
	}
	return h
}

func (m appModel) splitDetailVisible() bool {
	return m.contentWidth() >= minSplitDetailW
}

func (m appModel) listPaneSize() (int, int) {
	w := m.contentWidth()
	if m.splitDetailVisible() {
		w = w / 2
		if w < minListPaneWidth {
			w = minListPaneWidth
		}
	}
	return w, m.bodyHeight()
}
