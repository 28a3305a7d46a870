package prefs

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Kind is the stored type of a preference value.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
)

// Int preferences hold 32-bit values.
const (
	MinInt = math.MinInt32
	MaxInt = math.MaxInt32
)

// ErrIntRange is returned by Store.Edit when an int preference is set
// outside [MinInt, MaxInt].
var ErrIntRange = errors.New("int preference out of 32-bit range")

// Key names a preference of type T.
type Key[T string | int] struct {
	name string
	kind Kind
}

// StringKey returns a key for a string preference.
func StringKey(name string) Key[string] {
	return Key[string]{name: name, kind: KindString}
}

// IntKey returns a key for an int preference.
func IntKey(name string) Key[int] {
	return Key[int]{name: name, kind: KindInt}
}

// Name returns the key's storage name.
func (k Key[T]) Name() string { return k.name }

// Kind returns the key's value kind.
func (k Key[T]) Kind() Kind { return k.kind }

// value is one stored entry. raw is a string or an int, matching kind.
type value struct {
	kind Kind
	raw  any
}

func (v value) encode() string {
	switch v.kind {
	case KindInt:
		return strconv.Itoa(v.raw.(int))
	default:
		return v.raw.(string)
	}
}

func decodeValue(kind Kind, s string) (value, error) {
	switch kind {
	case KindString:
		return value{kind: KindString, raw: s}, nil
	case KindInt:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return value{}, fmt.Errorf("decode int: %w", err)
		}
		return value{kind: KindInt, raw: int(n)}, nil
	default:
		return value{}, fmt.Errorf("unknown kind %q", kind)
	}
}

// Preferences is an immutable snapshot of a store's values.
type Preferences struct {
	values map[string]value
}

// Get returns the value stored under key. A missing key, or one stored with
// a different kind, reports false.
func Get[T string | int](p Preferences, key Key[T]) (T, bool) {
	var zero T
	v, ok := p.values[key.name]
	if !ok || v.kind != key.kind {
		return zero, false
	}
	t, ok := v.raw.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// GetOr returns the value under key, or def when Get reports false.
func GetOr[T string | int](p Preferences, key Key[T], def T) T {
	if v, ok := Get(p, key); ok {
		return v
	}
	return def
}

// Len returns the number of stored values.
func (p Preferences) Len() int { return len(p.values) }

// Names returns the stored key names in sorted order.
func (p Preferences) Names() []string {
	names := make([]string, 0, len(p.values))
	for name := range p.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Equal reports whether both snapshots hold the same keys, kinds and values.
func (p Preferences) Equal(o Preferences) bool {
	if len(p.values) != len(o.values) {
		return false
	}
	for name, v := range p.values {
		ov, ok := o.values[name]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// MutablePreferences is the editable copy handed to Store.Edit.
type MutablePreferences struct {
	values  map[string]value
	changed map[string]bool
	err     error
}

func newMutable(p Preferences) *MutablePreferences {
	values := make(map[string]value, len(p.values))
	for k, v := range p.values {
		values[k] = v
	}
	return &MutablePreferences{values: values, changed: make(map[string]bool)}
}

// Set stores v under key. Setting the current value is not a change. An int
// outside [MinInt, MaxInt] is not stored and fails the edit with ErrIntRange.
func Set[T string | int](m *MutablePreferences, key Key[T], v T) {
	if n, ok := any(v).(int); ok && (n < MinInt || n > MaxInt) {
		if m.err == nil {
			m.err = fmt.Errorf("%w: %s=%d", ErrIntRange, key.name, n)
		}
		return
	}
	next := value{kind: key.kind, raw: v}
	if cur, ok := m.values[key.name]; ok && cur == next {
		return
	}
	m.values[key.name] = next
	m.changed[key.name] = true
}

// Remove deletes key if present.
func Remove[T string | int](m *MutablePreferences, key Key[T]) {
	if _, ok := m.values[key.name]; !ok {
		return
	}
	delete(m.values, key.name)
	m.changed[key.name] = true
}

// Snapshot returns the current contents as immutable Preferences.
func (m *MutablePreferences) Snapshot() Preferences {
	values := make(map[string]value, len(m.values))
	for k, v := range m.values {
		values[k] = v
	}
	return Preferences{values: values}
}

func (m *MutablePreferences) changedNames() []string {
	names := make([]string, 0, len(m.changed))
	for name := range m.changed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
