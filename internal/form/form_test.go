package form

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prefsform/internal/prefs"
)

type fakeStore struct {
	saved   []prefs.UserData
	cleared int
	err     error
}

func (f *fakeStore) Save(_ context.Context, d prefs.UserData) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, d)
	return nil
}

func (f *fakeStore) Clear(_ context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.cleared++
	return nil
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr error
	}{
		{in: "42", want: 42},
		{in: "-1", want: -1},
		{in: "", wantErr: ErrEmptyID},
		{in: "abc", wantErr: ErrInvalidID},
		{in: "4 2", wantErr: ErrInvalidID},
		{in: "99999999999999999999", wantErr: ErrInvalidID},
		{in: "2147483647", want: 2147483647},
		{in: "-2147483648", want: -2147483648},
		{in: "2147483648", wantErr: ErrInvalidID},
		{in: "-2147483649", wantErr: ErrInvalidID},
		{in: "3000000000", wantErr: ErrInvalidID},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseID(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFields_Submission(t *testing.T) {
	tests := []struct {
		name string
		in   Fields
		want Submission
	}{
		{
			name: "numeric id resets input",
			in:   Fields{Username: "u", Email: "e", ID: "12"},
			want: Submission{Data: prefs.UserData{Username: "u", Email: "e", ID: 12}, ResetInput: true},
		},
		{
			name: "empty id falls back",
			in:   Fields{Username: "u", Email: "e"},
			want: Submission{Data: prefs.UserData{Username: "u", Email: "e", ID: -1}},
		},
		{
			name: "non-numeric id falls back",
			in:   Fields{Username: "u", Email: "e", ID: "twelve"},
			want: Submission{Data: prefs.UserData{Username: "u", Email: "e", ID: -1}},
		},
		{
			name: "id beyond 32 bits falls back",
			in:   Fields{Username: "a", ID: "3000000000"},
			want: Submission{Data: prefs.UserData{Username: "a", ID: -1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Submission())
		})
	}
}

func TestFromUserData(t *testing.T) {
	assert.Equal(t, Fields{Username: "u", Email: "e", ID: "5"},
		FromUserData(prefs.UserData{Username: "u", Email: "e", ID: 5}))
	assert.Equal(t, Fields{Username: "u"},
		FromUserData(prefs.UserData{Username: "u", ID: prefs.NoUserID}))
}

func TestController_SaveNumericResetsInput(t *testing.T) {
	store := &fakeStore{}
	c := NewController(store)
	c.Input = Fields{Username: "u", Email: "e", ID: "9"}

	sub, err := c.Save(context.Background())
	require.NoError(t, err)
	assert.True(t, sub.ResetInput)
	assert.Equal(t, []prefs.UserData{{Username: "u", Email: "e", ID: 9}}, store.saved)
	assert.True(t, c.Input.IsEmpty())
}

func TestController_SaveNonNumericKeepsInput(t *testing.T) {
	store := &fakeStore{}
	c := NewController(store)
	c.Input = Fields{Username: "u", Email: "e", ID: "x"}

	_, err := c.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []prefs.UserData{{Username: "u", Email: "e", ID: -1}}, store.saved)
	assert.Equal(t, Fields{Username: "u", Email: "e", ID: "x"}, c.Input)
}

func TestController_SaveErrorKeepsInput(t *testing.T) {
	store := &fakeStore{err: errors.New("disk full")}
	c := NewController(store)
	c.Input = Fields{Username: "u", ID: "1"}

	_, err := c.Save(context.Background())
	assert.EqualError(t, err, "disk full")
	assert.Equal(t, Fields{Username: "u", ID: "1"}, c.Input)
}

func TestController_LoadUsesObservedValues(t *testing.T) {
	c := NewController(&fakeStore{})
	c.Load()
	assert.True(t, c.Input.IsEmpty(), "nothing observed loads blanks")

	c.ObserveUsername("n")
	c.ObserveEmail("m")
	c.ObserveUserID(3)
	c.Load()
	assert.Equal(t, Fields{Username: "n", Email: "m", ID: "3"}, c.Input)

	c.ObserveUserID(prefs.NoUserID)
	c.Load()
	assert.Equal(t, "", c.Input.ID)
}

func TestController_ClearResetsInputEvenOnError(t *testing.T) {
	store := &fakeStore{err: errors.New("locked")}
	c := NewController(store)
	c.Input = Fields{Username: "u"}

	err := c.Clear(context.Background())
	assert.Error(t, err)
	assert.True(t, c.Input.IsEmpty())
}

func TestController_AgainstRealStore(t *testing.T) {
	s, err := prefs.Open(prefs.MemoryPath)
	require.NoError(t, err)
	defer s.Close()
	users := prefs.NewUserStore(s)
	ctx := context.Background()

	c := NewController(users)
	c.Input = Fields{Username: "calist", Email: "c@d.e", ID: "301359253"}
	_, err = c.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, prefs.UserData{Username: "calist", Email: "c@d.e", ID: 301359253}, users.Load())

	c.Input = Fields{ID: "not a number"}
	_, err = c.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, -1, users.Load().ID)

	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, prefs.EmptyUserData(), users.Load())
}
