package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"prefsform/internal/form"
	"prefsform/internal/logging"
)

// DefaultToastDuration matches a short mobile toast.
const DefaultToastDuration = 2 * time.Second

// UserStore is the store the app reads from and writes to.
type UserStore interface {
	form.Store
	Username(ctx context.Context) <-chan string
	Email(ctx context.Context) <-chan string
	UserID(ctx context.Context) <-chan int
}

// AppModel is the root model: the form, its controller and the store.
type AppModel struct {
	Form       *FormView
	Controller *form.Controller
	Keys       *KeybindRegistry
	Store      UserStore
	Logger     *log.Logger

	// ToastDuration is how long status lines stay up. Zero keeps them until
	// replaced.
	ToastDuration time.Duration

	ctx       context.Context
	cancel    context.CancelFunc
	writes    *writeQueue
	usernames <-chan string
	emails    <-chan string
	ids       <-chan int

	status    string
	statusErr bool
	toastSeq  int
}

// Ensure AppModel can be used as tea.Model via adapter.
var _ tea.Model = (*appModelAdapter)(nil)

// appModelAdapter wraps AppModel to implement tea.Model.
type appModelAdapter struct {
	*AppModel
}

// NewAppModel creates the root model. Store subscriptions and the write
// queue live until ctx is done or Close is called.
func NewAppModel(ctx context.Context, store UserStore, logger *log.Logger) *AppModel {
	if logger == nil {
		logger = logging.Discard()
	}
	ctx, cancel := context.WithCancel(ctx)

	reg := NewKeybindRegistry()
	reg.Bind(emit(LoadRequestedMsg{}), "load", "ctrl+l")
	reg.Bind(emit(SaveRequestedMsg{}), "save", "ctrl+s")
	reg.Bind(emit(ClearRequestedMsg{}), "clear", "ctrl+r")
	reg.Bind(tea.Quit, "quit", "esc", "ctrl+c")

	writes := newWriteQueue()
	go writes.run(ctx)

	return &AppModel{
		Form:          NewFormView(),
		Controller:    form.NewController(store),
		Keys:          reg,
		Store:         store,
		Logger:        logger,
		ToastDuration: DefaultToastDuration,
		ctx:           ctx,
		cancel:        cancel,
		writes:        writes,
	}
}

// Close ends the store subscriptions and the write queue.
func (m *AppModel) Close() {
	m.cancel()
}

// Status returns the current toast text and whether it reports an error.
func (m *AppModel) Status() (string, bool) {
	return m.status, m.statusErr
}

// AsTeaModel returns a tea.Model adapter for use with tea.NewProgram.
func (m *AppModel) AsTeaModel() tea.Model {
	return &appModelAdapter{AppModel: m}
}

// observe subscribes to the store's three channels.
func (m *AppModel) observe() tea.Cmd {
	if m.Store == nil {
		return nil
	}
	m.usernames = m.Store.Username(m.ctx)
	m.emails = m.Store.Email(m.ctx)
	m.ids = m.Store.UserID(m.ctx)
	return tea.Batch(
		waitFor(m.usernames, wrapUsername),
		waitFor(m.emails, wrapEmail),
		waitFor(m.ids, wrapUserID),
	)
}

// showToast sets the status line and schedules its expiry.
func (m *AppModel) showToast(text string, isErr bool) tea.Cmd {
	m.toastSeq++
	m.status = text
	m.statusErr = isErr
	if m.ToastDuration <= 0 {
		return nil
	}
	seq := m.toastSeq
	return tea.Tick(m.ToastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}

// Init implements tea.Model.
func (a *appModelAdapter) Init() tea.Cmd {
	return tea.Batch(a.Form.Init(), a.observe())
}

// Update implements tea.Model.
func (a *appModelAdapter) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case UsernameObservedMsg:
		a.Controller.ObserveUsername(msg.Value)
		return a, waitFor(a.usernames, wrapUsername)
	case EmailObservedMsg:
		a.Controller.ObserveEmail(msg.Value)
		return a, waitFor(a.emails, wrapEmail)
	case UserIDObservedMsg:
		a.Controller.ObserveUserID(msg.Value)
		return a, waitFor(a.ids, wrapUserID)

	case LoadRequestedMsg:
		a.Controller.Load()
		a.Form.SetFields(a.Controller.Input)
		return a, nil
	case SaveRequestedMsg:
		a.Controller.Input = a.Form.Fields()
		sub := a.Controller.Input.Submission()
		a.Logger.WithFields(log.Fields{"id": sub.Data.ID, "reset": sub.ResetInput}).Debug("save requested")
		return a, tea.Batch(a.saveCmd(sub), a.showToast("Saved", false))
	case SavedMsg:
		if msg.Err != nil {
			a.Logger.WithFields(log.Fields{"error": msg.Err}).Error("save failed")
			return a, a.showToast("Save failed: "+msg.Err.Error(), true)
		}
		if msg.Submission.ResetInput {
			a.Controller.ResetInput()
			a.Form.SetFields(a.Controller.Input)
		}
		return a, nil
	case ClearRequestedMsg:
		a.Controller.ResetInput()
		a.Form.SetFields(a.Controller.Input)
		return a, a.clearCmd()
	case ClearedMsg:
		if msg.Err != nil {
			a.Logger.WithFields(log.Fields{"error": msg.Err}).Error("clear failed")
			return a, a.showToast("Clear failed: "+msg.Err.Error(), true)
		}
		return a, nil

	case toastExpiredMsg:
		if msg.seq == a.toastSeq {
			a.status = ""
			a.statusErr = false
		}
		return a, nil

	case tea.KeyMsg:
		if consumed, cmd := a.Keys.Handle(msg); consumed {
			return a, cmd
		}
	}

	v, cmd := a.Form.Update(msg)
	if f, ok := v.(*FormView); ok {
		a.Form = f
	}
	return a, cmd
}

// View implements tea.Model.
func (a *appModelAdapter) View() string {
	out := Styles.Box.Render(a.Form.View()) + "\n"
	switch {
	case a.status == "":
		out += "\n"
	case a.statusErr:
		out += Styles.Error.Render(a.status) + "\n"
	default:
		out += Styles.Status.Render(a.status) + "\n"
	}
	out += Styles.Hint.Render("tab/shift+tab: move  enter: select") + "\n"
	out += RenderKeybindHelp(a.Keys)
	return out
}
