package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/history"
	"github.com/aretw0/lattice/pkg/observability"
	"github.com/aretw0/lattice/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can hold a document lock.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates access to open documents, ensuring one writer at a time per document.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	source ports.GraphSource
	store  ports.ChangeLogStore

	mu      sync.Mutex            // Global lock for the maps
	locks   map[string]*lockEntry // Map of active locks
	editors map[string]*lattice.Editor

	locker     ports.DistributedLocker // Optional distributed locker
	lockTTL    time.Duration
	metrics    *observability.Metrics
	hooks      history.Hooks
	editorOpts []lattice.Option
	logger     *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking of commits.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager and its editors.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMetrics records commands, commits and warnings.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithHooks registers command hooks on every editor.
func WithHooks(hooks history.Hooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// WithEditorOptions passes extra options to every editor (e.g. a delete policy).
func WithEditorOptions(opts ...lattice.Option) Option {
	return func(m *Manager) {
		m.editorOpts = append(m.editorOpts, opts...)
	}
}

// NewManager creates a manager reading baselines from source and committing to store.
func NewManager(source ports.GraphSource, store ports.ChangeLogStore, opts ...Option) *Manager {
	m := &Manager{
		source:  source,
		store:   store,
		locks:   make(map[string]*lockEntry),
		editors: make(map[string]*lattice.Editor),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(docID) after unlocking.
func (m *Manager) acquire(docID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[docID]
	if !exists {
		entry = &lockEntry{}
		m.locks[docID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(docID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[docID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, docID)
	}
}

// withLock executes fn while holding the local lock of the document.
func (m *Manager) withLock(ctx context.Context, docID string, fn func(context.Context) error) error {
	entry := m.acquire(docID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(docID)
	}()
	return fn(ctx)
}

// editor returns the open editor of docID, opening it on first use.
// The caller must hold the document lock.
func (m *Manager) editor(ctx context.Context, docID string) (*lattice.Editor, error) {
	m.mu.Lock()
	ed, ok := m.editors[docID]
	m.mu.Unlock()
	if ok {
		return ed, nil
	}

	hooks := m.hooks
	if m.metrics != nil {
		hooks = observability.Chain(m.hooks, m.metrics.Hooks())
	}
	opts := append([]lattice.Option{
		lattice.WithStore(m.store),
		lattice.WithLogger(m.logger),
		lattice.WithHooks(hooks),
	}, m.editorOpts...)

	ed, err := lattice.Open(ctx, docID, m.source, opts...)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("document opened", "doc", docID, "version", ed.Version())

	m.mu.Lock()
	m.editors[docID] = ed
	m.mu.Unlock()
	return ed, nil
}

// WithEditor runs fn with exclusive access to the editor of docID.
func (m *Manager) WithEditor(ctx context.Context, docID string, fn func(context.Context, *lattice.Editor) error) error {
	return m.withLock(ctx, docID, func(ctx context.Context) error {
		ed, err := m.editor(ctx, docID)
		if err != nil {
			return err
		}
		return fn(ctx, ed)
	})
}

// Commit saves the unsaved changes of docID as its next version.
func (m *Manager) Commit(ctx context.Context, docID, message string) (ports.Commit, error) {
	return m.commit(ctx, docID, message, nil)
}

// CommitVersion is Commit for a client that edited version expected.
// The version and pending changes are checked under the document lock.
func (m *Manager) CommitVersion(ctx context.Context, docID string, expected int, message string) (ports.Commit, error) {
	return m.commit(ctx, docID, message, func(ed *lattice.Editor) error {
		return ports.CheckAppend(docID, ed.Version(), expected, ed.ChangeList())
	})
}

func (m *Manager) commit(ctx context.Context, docID, message string, check func(*lattice.Editor) error) (ports.Commit, error) {
	var commit ports.Commit
	err := m.WithEditor(ctx, docID, func(ctx context.Context, ed *lattice.Editor) error {
		if check != nil {
			if err := check(ed); err != nil {
				if m.metrics != nil {
					m.metrics.ObserveCommit(err)
				}
				return err
			}
		}

		// Distributed Locking
		if m.locker != nil {
			unlock, err := m.locker.Lock(ctx, docID, m.lockTTL)
			if err != nil {
				return fmt.Errorf("failed to acquire distributed lock: %w", err)
			}
			defer func() {
				if err := unlock(ctx); err != nil {
					m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
						"doc", docID,
						"err", err,
					)
				}
			}()
		}

		var err error
		commit, err = ed.Commit(ctx, message)
		if m.metrics != nil {
			m.metrics.ObserveCommit(err)
			if err == nil {
				m.metrics.SetWarnings(docID, countWarnings(ed))
			}
		}
		return err
	})
	return commit, err
}

func countWarnings(ed *lattice.Editor) int {
	n := 0
	for _, w := range ed.AllWarnings() {
		n += len(w)
	}
	return n
}

// Discard closes the editor of docID, dropping its unsaved changes.
// The next access reopens the latest committed version.
func (m *Manager) Discard(ctx context.Context, docID string) error {
	return m.withLock(ctx, docID, func(ctx context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.editors, docID)
		return nil
	})
}

// Open returns the ids of documents with an open editor, sorted.
func (m *Manager) Open() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.editors))
	for id := range m.editors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// List delegates to the graph source.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.source.List(ctx)
}

// Store returns the underlying change log.
func (m *Manager) Store() ports.ChangeLogStore {
	return m.store
}
