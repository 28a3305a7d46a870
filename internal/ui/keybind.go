package ui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeybindRegistry maps global key strings (tea.KeyMsg.String() format, e.g.
// "ctrl+s") to commands. Keys not bound here fall through to the form.
type KeybindRegistry struct {
	bindings map[string]tea.Cmd
	help     []key.Binding // registration order, for the help bar
}

// NewKeybindRegistry creates an empty registry.
func NewKeybindRegistry() *KeybindRegistry {
	return &KeybindRegistry{bindings: make(map[string]tea.Cmd)}
}

// Bind registers cmd for each of keys. desc is shown in the help bar under
// the first key; an empty desc hides the binding from help.
func (r *KeybindRegistry) Bind(cmd tea.Cmd, desc string, keys ...string) {
	if len(keys) == 0 {
		return
	}
	for _, k := range keys {
		r.bindings[k] = cmd
	}
	if desc != "" {
		r.help = append(r.help, key.NewBinding(
			key.WithKeys(keys...),
			key.WithHelp(keys[0], desc),
		))
	}
}

// Lookup returns the command bound to k, or nil.
func (r *KeybindRegistry) Lookup(k string) tea.Cmd {
	return r.bindings[k]
}

// Handle runs the registry against a key press. consumed reports whether the
// key was bound.
func (r *KeybindRegistry) Handle(msg tea.KeyMsg) (consumed bool, cmd tea.Cmd) {
	c, ok := r.bindings[msg.String()]
	if !ok {
		return false, nil
	}
	return true, c
}

// ShortHelp implements help.KeyMap.
func (r *KeybindRegistry) ShortHelp() []key.Binding {
	return r.help
}

// FullHelp implements help.KeyMap with a single column.
func (r *KeybindRegistry) FullHelp() [][]key.Binding {
	if len(r.help) == 0 {
		return nil
	}
	return [][]key.Binding{r.help}
}

var _ help.KeyMap = (*KeybindRegistry)(nil)
