package prefs

import (
	"context"
	"fmt"
)

// Keys for the user record.
var (
	UsernameKey = StringKey("USERNAME")
	EmailKey    = StringKey("EMAIL")
	UserIDKey   = IntKey("USERID")
)

// NoUserID is stored when no numeric id was entered, and read when none is stored.
const NoUserID = -1

// UserData is the record persisted by the form.
type UserData struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	ID       int    `json:"id"`
}

// EmptyUserData is what a cleared or never-written store holds.
func EmptyUserData() UserData {
	return UserData{ID: NoUserID}
}

// UserDataFrom reads the user record out of a snapshot, filling defaults.
func UserDataFrom(p Preferences) UserData {
	return UserData{
		Username: GetOr(p, UsernameKey, ""),
		Email:    GetOr(p, EmailKey, ""),
		ID:       GetOr(p, UserIDKey, NoUserID),
	}
}

// UserStore reads and writes the user record on top of a Store.
type UserStore struct {
	store *Store
}

// NewUserStore wraps s.
func NewUserStore(s *Store) *UserStore {
	return &UserStore{store: s}
}

// Store returns the underlying preferences store.
func (u *UserStore) Store() *Store { return u.store }

// Save writes all three fields in one edit.
func (u *UserStore) Save(ctx context.Context, d UserData) error {
	err := u.store.Edit(ctx, func(m *MutablePreferences) {
		Set(m, UsernameKey, d.Username)
		Set(m, EmailKey, d.Email)
		Set(m, UserIDKey, d.ID)
	})
	if err != nil {
		return fmt.Errorf("saving user data: %w", err)
	}
	return nil
}

// Clear writes the empty values: blank username and email, id NoUserID.
func (u *UserStore) Clear(ctx context.Context) error {
	if err := u.Save(ctx, EmptyUserData()); err != nil {
		return fmt.Errorf("clearing user data: %w", err)
	}
	return nil
}

// Load returns the current record.
func (u *UserStore) Load() UserData {
	return UserDataFrom(u.store.Data())
}

// Username yields the stored username, "" when unset.
func (u *UserStore) Username(ctx context.Context) <-chan string {
	return Watch(ctx, u.store, UsernameKey, "")
}

// Email yields the stored email, "" when unset.
func (u *UserStore) Email(ctx context.Context) <-chan string {
	return Watch(ctx, u.store, EmailKey, "")
}

// UserID yields the stored id, NoUserID when unset.
func (u *UserStore) UserID(ctx context.Context) <-chan int {
	return Watch(ctx, u.store, UserIDKey, NoUserID)
}

// Changes yields the whole record each time any field changes.
func (u *UserStore) Changes(ctx context.Context) <-chan UserData {
	return watch(ctx, u.store, UserDataFrom)
}
