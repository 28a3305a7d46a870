package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"prefsform/internal/form"
)

// waitFor returns a command that blocks for the next value on ch and wraps
// it as a message. A closed channel ends the observation (nil message).
func waitFor[T any](ch <-chan T, wrap func(T) tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return nil
		}
		return wrap(v)
	}
}

func wrapUsername(v string) tea.Msg { return UsernameObservedMsg{Value: v} }
func wrapEmail(v string) tea.Msg    { return EmailObservedMsg{Value: v} }
func wrapUserID(v int) tea.Msg      { return UserIDObservedMsg{Value: v} }

// saveCmd queues the write behind any earlier Save or Clear and reports its
// result.
func (m *AppModel) saveCmd(sub form.Submission) tea.Cmd {
	store := m.Store
	reply := m.writes.push(func(ctx context.Context) error { return store.Save(ctx, sub.Data) })
	ctx := m.ctx
	return func() tea.Msg {
		return SavedMsg{Submission: sub, Err: wait(ctx, reply)}
	}
}

// clearCmd queues a store reset behind any earlier Save or Clear.
func (m *AppModel) clearCmd() tea.Cmd {
	store := m.Store
	reply := m.writes.push(store.Clear)
	ctx := m.ctx
	return func() tea.Msg {
		return ClearedMsg{Err: wait(ctx, reply)}
	}
}

// emit returns a command producing msg.
func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
