package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"prefsform/internal/form"
)

// Focus IDs, in tab order.
const (
	FocusUsername = "username"
	FocusEmail    = "email"
	FocusID       = "id"
	FocusLoad     = "load"
	FocusSave     = "save"
	FocusClear    = "clear"
)

var inputOrder = []string{FocusUsername, FocusEmail, FocusID}

var inputLabels = map[string]string{
	FocusUsername: "Username",
	FocusEmail:    "User Email",
	FocusID:       "User ID",
}

type action struct {
	id    string
	label string
	color string
	msg   tea.Msg
}

var actions = []action{
	{id: FocusLoad, label: "Load", color: ColorLoad, msg: LoadRequestedMsg{}},
	{id: FocusSave, label: "Save", color: ColorSave, msg: SaveRequestedMsg{}},
	{id: FocusClear, label: "Clear", color: ColorClear, msg: ClearRequestedMsg{}},
}

// FormView renders the three inputs and the action row. Enter on an action
// emits the matching request message; the AppModel carries it out.
type FormView struct {
	inputs map[string]*textinput.Model
	focus  *FocusManager
}

// Ensure FormView implements View.
var _ View = (*FormView)(nil)

// NewFormView creates a form with the username input focused.
func NewFormView() *FormView {
	v := &FormView{
		inputs: make(map[string]*textinput.Model, len(inputOrder)),
		focus:  NewFocusManager(FocusUsername, FocusEmail, FocusID, FocusLoad, FocusSave, FocusClear),
	}
	for _, id := range inputOrder {
		ti := textinput.New()
		ti.Placeholder = strings.ToLower(inputLabels[id])
		ti.Width = 40
		v.inputs[id] = &ti
	}
	v.syncFocus()
	return v
}

// Fields returns the current input text.
func (v *FormView) Fields() form.Fields {
	return form.Fields{
		Username: v.inputs[FocusUsername].Value(),
		Email:    v.inputs[FocusEmail].Value(),
		ID:       v.inputs[FocusID].Value(),
	}
}

// SetFields replaces the input text.
func (v *FormView) SetFields(f form.Fields) {
	v.inputs[FocusUsername].SetValue(f.Username)
	v.inputs[FocusEmail].SetValue(f.Email)
	v.inputs[FocusID].SetValue(f.ID)
	for _, ti := range v.inputs {
		ti.CursorEnd()
	}
}

// Focused returns the focus ID.
func (v *FormView) Focused() string {
	return v.focus.Current
}

// Init implements View.
func (v *FormView) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements View.
func (v *FormView) Update(msg tea.Msg) (View, tea.Cmd) {
	keyMsg, isKey := msg.(tea.KeyMsg)
	if !isKey {
		var cmds []tea.Cmd
		for _, id := range inputOrder {
			var cmd tea.Cmd
			*v.inputs[id], cmd = v.inputs[id].Update(msg)
			cmds = append(cmds, cmd)
		}
		return v, tea.Batch(cmds...)
	}

	switch keyMsg.String() {
	case "tab", "down":
		v.focus.Next()
		return v, v.syncFocus()
	case "shift+tab", "up":
		v.focus.Prev()
		return v, v.syncFocus()
	case "enter":
		for _, a := range actions {
			if a.id == v.focus.Current {
				return v, emit(a.msg)
			}
		}
		v.focus.Next()
		return v, v.syncFocus()
	}

	ti, ok := v.inputs[v.focus.Current]
	if !ok {
		return v, nil
	}
	var cmd tea.Cmd
	*ti, cmd = ti.Update(msg)
	return v, cmd
}

// syncFocus focuses the input under the focus ring and blurs the others.
func (v *FormView) syncFocus() tea.Cmd {
	var cmd tea.Cmd
	for id, ti := range v.inputs {
		if id == v.focus.Current {
			cmd = ti.Focus()
		} else {
			ti.Blur()
		}
	}
	return cmd
}

// View implements View.
func (v *FormView) View() string {
	var b strings.Builder
	b.WriteString(Styles.Title.Render("User details"))
	b.WriteString("\n\n")
	for _, id := range inputOrder {
		label := Styles.Label
		if id == v.focus.Current {
			label = Styles.Focus
		}
		b.WriteString(label.Render(inputLabels[id]))
		b.WriteString("\n")
		b.WriteString(v.inputs[id].View())
		b.WriteString("\n\n")
	}

	buttons := make([]string, 0, len(actions))
	for _, a := range actions {
		buttons = append(buttons, buttonStyle(a.color, a.id == v.focus.Current).Render(a.label))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, buttons...))
	return b.String()
}
