package ui

import "prefsform/internal/form"

// LoadRequestedMsg asks the app to copy the stored values into the form (Load action, ctrl+l).
type LoadRequestedMsg struct{}

// SaveRequestedMsg asks the app to write the form to the store (Save action, ctrl+s).
type SaveRequestedMsg struct{}

// ClearRequestedMsg asks the app to blank the form and reset the store (Clear action, ctrl+r).
type ClearRequestedMsg struct{}

// UsernameObservedMsg carries a username read from the store's channel.
type UsernameObservedMsg struct {
	Value string
}

// EmailObservedMsg carries an email read from the store's channel.
type EmailObservedMsg struct {
	Value string
}

// UserIDObservedMsg carries an id read from the store's channel.
type UserIDObservedMsg struct {
	Value int
}

// SavedMsg reports the outcome of a save started by SaveRequestedMsg.
type SavedMsg struct {
	Submission form.Submission
	Err        error
}

// ClearedMsg reports the outcome of a store clear.
type ClearedMsg struct {
	Err error
}

// toastExpiredMsg hides the toast if no newer toast replaced it.
type toastExpiredMsg struct {
	seq int
}
