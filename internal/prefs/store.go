// Package prefs is a typed key-value preferences store persisted in SQLite.
//
// A Store is one named namespace inside a database file. Reads come from an
// in-memory snapshot; Edit writes changed keys in a transaction and then
// publishes a new snapshot to every subscriber. Subscriber channels are
// conflated: a slow reader only ever sees the latest snapshot.
package prefs

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"prefsform/internal/logging"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DefaultName is the namespace used when no WithName option is given.
const DefaultName = "DATA"

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("prefs: store closed")

// Option configures a Store.
type Option func(*Store)

// WithName sets the namespace. Stores with different names sharing one
// database file do not see each other's keys.
func WithName(name string) Option {
	return func(s *Store) { s.name = name }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithTracer sets the tracer used for Edit and Refresh spans.
func WithTracer(tracer oteltrace.Tracer) Option {
	return func(s *Store) { s.tracer = tracer }
}

// WithPollInterval makes the store call Refresh every d until closed, so
// writes made through another Store on the same file are published.
// Zero disables polling.
func WithPollInterval(d time.Duration) Option {
	return func(s *Store) { s.poll = d }
}

// Store is a named preferences namespace. Safe for concurrent use.
type Store struct {
	db     *sql.DB
	name   string
	logger *log.Logger
	tracer oteltrace.Tracer
	poll   time.Duration

	// editMu serializes Edit, Refresh and Close so snapshots are published
	// in commit order.
	editMu sync.Mutex

	mu      sync.Mutex
	current Preferences
	subs    map[uint64]*subscription
	nextSub uint64
	closed  bool

	stopPoll  chan struct{}
	pollDone  chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Open opens (or creates) the database at path, applies pending migrations
// and loads the namespace. Pass MemoryPath for an in-memory database.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		name: DefaultName,
		subs: make(map[uint64]*subscription),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.name == "" {
		return nil, fmt.Errorf("store name must not be empty")
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if s.tracer == nil {
		s.tracer = noop.NewTracerProvider().Tracer("prefsform/prefs")
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// One connection: an in-memory database is per connection, and a single
	// writer avoids "database is locked".
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if path != MemoryPath {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting journal mode: %w", err)
		}
	}

	s.db = db
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	current, err := s.load(context.Background())
	if err != nil {
		db.Close()
		return nil, err
	}
	s.current = current

	if s.poll > 0 {
		s.stopPoll = make(chan struct{})
		s.pollDone = make(chan struct{})
		go s.pollLoop()
	}

	s.logger.WithFields(log.Fields{"store": s.name, "path": path, "keys": current.Len()}).Debug("preferences store opened")
	return s, nil
}

// Name returns the store's namespace.
func (s *Store) Name() string { return s.name }

// Data returns the current snapshot.
func (s *Store) Data() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Edit applies fn to a copy of the current snapshot and persists the keys it
// changed in one transaction. If fn set an out-of-range int, nothing is
// written and the error is returned. The new snapshot is published only after the
// commit succeeds; an edit that changes nothing writes and publishes nothing.
func (s *Store) Edit(ctx context.Context, fn func(*MutablePreferences)) (err error) {
	s.editMu.Lock()
	defer s.editMu.Unlock()

	if s.isClosed() {
		return ErrClosed
	}

	ctx, span := s.tracer.Start(ctx, "prefs.Edit",
		oteltrace.WithAttributes(attribute.String("prefs.store", s.name)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	m := newMutable(s.Data())
	fn(m)
	if m.err != nil {
		return m.err
	}
	names := m.changedNames()
	span.SetAttributes(attribute.Int("prefs.changed", len(names)))
	if len(names) == 0 {
		return nil
	}

	if err := s.write(ctx, m, names); err != nil {
		s.logger.WithFields(log.Fields{"store": s.name, "keys": names, "error": err}).Error("preferences edit failed")
		return err
	}

	s.publish(m.Snapshot())
	s.logger.WithFields(log.Fields{"store": s.name, "keys": names}).Debug("preferences edited")
	return nil
}

func (s *Store) write(ctx context.Context, m *MutablePreferences, names []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning edit: %w", err)
	}
	for _, name := range names {
		v, ok := m.values[name]
		if !ok {
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM preferences WHERE store = ? AND key = ?", s.name, name); err != nil {
				tx.Rollback()
				return fmt.Errorf("removing %s: %w", name, err)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO preferences (store, key, kind, value, updated_at)
			VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(store, key) DO UPDATE SET
				kind = excluded.kind,
				value = excluded.value,
				updated_at = excluded.updated_at`,
			s.name, name, string(v.kind), v.encode()); err != nil {
			tx.Rollback()
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing edit: %w", err)
	}
	return nil
}

// Refresh re-reads the namespace from disk and publishes it if it differs
// from the current snapshot.
func (s *Store) Refresh(ctx context.Context) (err error) {
	s.editMu.Lock()
	defer s.editMu.Unlock()

	if s.isClosed() {
		return ErrClosed
	}

	ctx, span := s.tracer.Start(ctx, "prefs.Refresh",
		oteltrace.WithAttributes(attribute.String("prefs.store", s.name)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	p, err := s.load(ctx)
	if err != nil {
		return err
	}
	if p.Equal(s.Data()) {
		return nil
	}
	s.publish(p)
	s.logger.WithFields(log.Fields{"store": s.name}).Debug("preferences refreshed from disk")
	return nil
}

func (s *Store) load(ctx context.Context) (Preferences, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, kind, value FROM preferences WHERE store = ?", s.name)
	if err != nil {
		return Preferences{}, fmt.Errorf("loading preferences: %w", err)
	}
	defer rows.Close()

	values := make(map[string]value)
	for rows.Next() {
		var name, kind, raw string
		if err := rows.Scan(&name, &kind, &raw); err != nil {
			return Preferences{}, fmt.Errorf("scanning preference: %w", err)
		}
		v, err := decodeValue(Kind(kind), raw)
		if err != nil {
			s.logger.WithFields(log.Fields{"store": s.name, "key": name, "error": err}).Warn("skipping unreadable preference")
			continue
		}
		values[name] = v
	}
	if err := rows.Err(); err != nil {
		return Preferences{}, fmt.Errorf("iterating preferences: %w", err)
	}
	return Preferences{values: values}, nil
}

func (s *Store) pollLoop() {
	defer close(s.pollDone)
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopPoll:
			return
		case <-ticker.C:
			if err := s.Refresh(context.Background()); err != nil && !errors.Is(err, ErrClosed) {
				s.logger.WithFields(log.Fields{"store": s.name, "error": err}).Warn("preferences refresh failed")
			}
		}
	}
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close stops polling, closes every subscription channel and closes the
// database. Safe to call more than once.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		if s.stopPoll != nil {
			close(s.stopPoll)
			<-s.pollDone
		}

		s.editMu.Lock()
		defer s.editMu.Unlock()

		s.mu.Lock()
		s.closed = true
		for id := range s.subs {
			s.removeLocked(id)
		}
		s.mu.Unlock()

		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

// migrate applies embedded SQL migrations that have not been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}
	return nil
}

// parseMigrationVersion extracts N from "NNN_description.sql".
func parseMigrationVersion(name string) (int, error) {
	prefix, _, ok := strings.Cut(name, "_")
	if !ok {
		return 0, fmt.Errorf("migration %q: missing version prefix", name)
	}
	v, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, fmt.Errorf("migration %q: bad version: %w", name, err)
	}
	return v, nil
}
