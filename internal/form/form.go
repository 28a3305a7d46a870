// Package form holds the transient state behind the user form and the rules
// for turning text fields into a stored record and back.
package form

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"prefsform/internal/prefs"
)

var (
	// ErrEmptyID is returned by ParseID for an empty id field.
	ErrEmptyID = errors.New("id is empty")
	// ErrInvalidID is returned by ParseID for text that is not a 32-bit integer.
	ErrInvalidID = errors.New("id is not a number")
)

// Fields is the text currently typed into the form.
type Fields struct {
	Username string
	Email    string
	ID       string
}

// IsEmpty reports whether every field is blank.
func (f Fields) IsEmpty() bool {
	return f == Fields{}
}

// ParseID parses the id field as a base-10 32-bit integer.
func ParseID(text string) (int, error) {
	if text == "" {
		return 0, ErrEmptyID
	}
	n, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidID, err)
	}
	return int(n), nil
}

// Submission is what a save writes and whether the inputs are cleared after
// the write succeeds.
type Submission struct {
	Data       prefs.UserData
	ResetInput bool
}

// Submission applies the save rules: a missing or non-numeric id is stored
// as prefs.NoUserID and the inputs stay; a numeric id is stored as typed and
// the inputs are reset.
func (f Fields) Submission() Submission {
	id, err := ParseID(f.ID)
	if err != nil {
		return Submission{
			Data: prefs.UserData{Username: f.Username, Email: f.Email, ID: prefs.NoUserID},
		}
	}
	return Submission{
		Data:       prefs.UserData{Username: f.Username, Email: f.Email, ID: id},
		ResetInput: true,
	}
}

// FromUserData returns the fields shown by a load. NoUserID shows as blank.
func FromUserData(d prefs.UserData) Fields {
	f := Fields{Username: d.Username, Email: d.Email}
	if d.ID != prefs.NoUserID {
		f.ID = strconv.Itoa(d.ID)
	}
	return f
}

// Store is the persistence the controller writes through.
type Store interface {
	Save(ctx context.Context, d prefs.UserData) error
	Clear(ctx context.Context) error
}

// Controller binds Load, Save and Clear to a Store. It is not safe for
// concurrent use; the UI drives it from a single goroutine.
type Controller struct {
	Input Fields

	store    Store
	observed prefs.UserData
}

// NewController returns a controller with blank inputs and no observed data.
func NewController(store Store) *Controller {
	return &Controller{store: store, observed: prefs.EmptyUserData()}
}

// ObserveUsername records the latest stored username.
func (c *Controller) ObserveUsername(v string) { c.observed.Username = v }

// ObserveEmail records the latest stored email.
func (c *Controller) ObserveEmail(v string) { c.observed.Email = v }

// ObserveUserID records the latest stored id.
func (c *Controller) ObserveUserID(v int) { c.observed.ID = v }

// Observed returns the last stored values seen.
func (c *Controller) Observed() prefs.UserData { return c.observed }

// Load copies the observed values into the inputs.
func (c *Controller) Load() {
	c.Input = FromUserData(c.observed)
}

// Save writes the current inputs and resets them when the submission asks
// for it and the write succeeded.
func (c *Controller) Save(ctx context.Context) (Submission, error) {
	sub := c.Input.Submission()
	if err := c.store.Save(ctx, sub.Data); err != nil {
		return sub, err
	}
	if sub.ResetInput {
		c.ResetInput()
	}
	return sub, nil
}

// Clear resets the inputs, then clears the store.
func (c *Controller) Clear(ctx context.Context) error {
	c.ResetInput()
	return c.store.Clear(ctx)
}

// ResetInput blanks every field.
func (c *Controller) ResetInput() {
	c.Input = Fields{}
}
