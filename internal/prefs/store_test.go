package prefs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	themeKey = StringKey("THEME")
	countKey = IntKey("COUNT")
)

func openMemory(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(MemoryPath, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func openFile(t *testing.T, path string, opts ...Option) *Store {
	t.Helper()
	s, err := Open(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// recv waits for the next value on ch, failing the test on timeout or close.
func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}

func TestGet_MissingAndKindMismatch(t *testing.T) {
	m := newMutable(Preferences{})
	Set(m, themeKey, "dark")
	p := m.Snapshot()

	v, ok := Get(p, themeKey)
	assert.True(t, ok)
	assert.Equal(t, "dark", v)

	_, ok = Get(p, countKey)
	assert.False(t, ok, "missing key")

	_, ok = Get(p, IntKey("THEME"))
	assert.False(t, ok, "kind mismatch reads as absent")
	assert.Equal(t, 9, GetOr(p, IntKey("THEME"), 9))
}

func TestMutable_SetSameValueIsNotAChange(t *testing.T) {
	m := newMutable(Preferences{})
	Set(m, countKey, 3)
	base := m.Snapshot()

	m = newMutable(base)
	Set(m, countKey, 3)
	assert.Empty(t, m.changedNames())

	Remove(m, themeKey)
	assert.Empty(t, m.changedNames(), "removing a missing key is not a change")

	Remove(m, countKey)
	assert.Equal(t, []string{"COUNT"}, m.changedNames())
}

func TestStore_EditPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Edit(ctx, func(m *MutablePreferences) {
		Set(m, themeKey, "dark")
		Set(m, countKey, 42)
	}))
	want := s.Data()
	require.NoError(t, s.Close())

	reopened := openFile(t, path)
	got := reopened.Data()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("snapshot after reopen (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"COUNT", "THEME"}, got.Names())
}

func TestStore_RemovePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Edit(ctx, func(m *MutablePreferences) { Set(m, themeKey, "dark") }))
	require.NoError(t, s.Edit(ctx, func(m *MutablePreferences) { Remove(m, themeKey) }))
	require.NoError(t, s.Close())

	reopened := openFile(t, path)
	assert.Equal(t, 0, reopened.Data().Len())
}

func TestStore_NamespacesAreIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	ctx := context.Background()

	a := openFile(t, path)
	require.NoError(t, a.Edit(ctx, func(m *MutablePreferences) { Set(m, themeKey, "dark") }))

	b := openFile(t, path, WithName("OTHER"))
	assert.Equal(t, "OTHER", b.Name())
	assert.Equal(t, 0, b.Data().Len())
}

func TestStore_SubscribeYieldsCurrentThenUpdates(t *testing.T) {
	s := openMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.Subscribe(ctx)
	first := recv(t, ch)
	assert.Equal(t, 0, first.Len())

	require.NoError(t, s.Edit(ctx, func(m *MutablePreferences) { Set(m, countKey, 1) }))
	next := recv(t, ch)
	assert.Equal(t, 1, GetOr(next, countKey, 0))
}

func TestStore_SubscribeIsConflated(t *testing.T) {
	s := openMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.Subscribe(ctx)
	for i := 1; i <= 3; i++ {
		n := i
		require.NoError(t, s.Edit(ctx, func(m *MutablePreferences) { Set(m, countKey, n) }))
	}

	latest := recv(t, ch)
	assert.Equal(t, 3, GetOr(latest, countKey, 0))
	select {
	case p := <-ch:
		t.Fatalf("expected no backlog, got %v", p.Names())
	default:
	}
}

func TestStore_NoOpEditPublishesNothing(t *testing.T) {
	s := openMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Edit(ctx, func(m *MutablePreferences) { Set(m, countKey, 5) }))
	ch := s.Subscribe(ctx)
	recv(t, ch)

	require.NoError(t, s.Edit(ctx, func(m *MutablePreferences) { Set(m, countKey, 5) }))
	select {
	case <-ch:
		t.Fatal("no-op edit should not publish")
	default:
	}
}

func TestStore_SubscriptionClosesWithContext(t *testing.T) {
	s := openMemory(t)
	ctx, cancel := context.WithCancel(context.Background())

	ch := s.Subscribe(ctx)
	recv(t, ch)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestStore_CloseEndsSubscriptionsAndEdits(t *testing.T) {
	s, err := Open(MemoryPath)
	require.NoError(t, err)

	ch := s.Subscribe(context.Background())
	recv(t, ch)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "second close is a no-op")

	_, ok := <-ch
	assert.False(t, ok)

	err = s.Edit(context.Background(), func(m *MutablePreferences) { Set(m, countKey, 1) })
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Refresh(context.Background()), ErrClosed)

	_, ok = <-s.Subscribe(context.Background())
	assert.False(t, ok, "subscribe after close yields a closed channel")
}

func TestStore_RefreshSeesOtherWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := openFile(t, path)
	writer := openFile(t, path)

	ch := reader.Subscribe(ctx)
	recv(t, ch)

	require.NoError(t, writer.Edit(ctx, func(m *MutablePreferences) { Set(m, themeKey, "light") }))
	require.NoError(t, reader.Refresh(ctx))

	p := recv(t, ch)
	assert.Equal(t, "light", GetOr(p, themeKey, ""))
}

func TestStore_PollingPublishesOtherWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	ctx := context.Background()

	reader := openFile(t, path, WithPollInterval(10*time.Millisecond))
	writer := openFile(t, path)

	require.NoError(t, writer.Edit(ctx, func(m *MutablePreferences) { Set(m, countKey, 8) }))

	require.Eventually(t, func() bool {
		return GetOr(reader.Data(), countKey, 0) == 8
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStore_SkipsUnreadableRows(t *testing.T) {
	s := openMemory(t)
	_, err := s.db.Exec(`INSERT INTO preferences (store, key, kind, value) VALUES
		('DATA', 'BROKEN', 'int', 'not-a-number'),
		('DATA', 'ODD', 'float', '1.5'),
		('DATA', 'HUGE', 'int', '3000000000'),
		('DATA', 'THEME', 'string', 'dark')`)
	require.NoError(t, err)

	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, []string{"THEME"}, s.Data().Names())
}

func TestStore_EditRejectsIntOutsideInt32(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	require.NoError(t, s.Edit(ctx, func(m *MutablePreferences) { Set(m, countKey, MaxInt) }))

	tooBig := int64(MaxInt) + 1
	err := s.Edit(ctx, func(m *MutablePreferences) {
		Set(m, themeKey, "dark")
		Set(m, countKey, int(tooBig))
	})
	assert.ErrorIs(t, err, ErrIntRange)
	assert.Equal(t, []string{"COUNT"}, s.Data().Names(), "failed edit writes nothing")
	assert.Equal(t, MaxInt, GetOr(s.Data(), countKey, 0))

	tooSmall := int64(MinInt) - 1
	err = s.Edit(ctx, func(m *MutablePreferences) { Set(m, countKey, int(tooSmall)) })
	assert.ErrorIs(t, err, ErrIntRange)
}

func TestOpen_EmptyNameRejected(t *testing.T) {
	_, err := Open(MemoryPath, WithName(""))
	assert.Error(t, err)
}

func TestParseMigrationVersion(t *testing.T) {
	v, err := parseMigrationVersion("001_preferences.sql")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = parseMigrationVersion("preferences.sql")
	assert.Error(t, err)
	_, err = parseMigrationVersion("x_preferences.sql")
	assert.Error(t, err)
}
