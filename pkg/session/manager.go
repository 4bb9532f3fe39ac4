package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/google/uuid"
)

// ErrSessionExists is returned by Create when the ID is already taken.
var ErrSessionExists = errors.New("session already exists")

// DefaultLockTTL bounds how long a crashed replica can hold a session.
const DefaultLockTTL = 30 * time.Second

// Factory builds the editing session for id. snap is the last persisted
// snapshot, or nil for a brand new session.
type Factory func(ctx context.Context, id string, snap *domain.SessionSnapshot) (*arbor.Session, error)

// Scope returns extra options for the session with the given ID, such as a
// downloader that files artifacts per session.
type Scope func(id string) []arbor.Option

// NewFactory returns a Factory that starts every session on a fresh engine.
// scope may be nil. A restored session imports its persisted diagram and
// resumes at its persisted zoom scale and selection.
func NewFactory(newEngine func() ports.DiagramEngine, scope Scope, opts ...arbor.Option) Factory {
	return func(_ context.Context, id string, snap *domain.SessionSnapshot) (*arbor.Session, error) {
		sessionOpts := append([]arbor.Option{}, opts...)
		if scope != nil {
			sessionOpts = append(sessionOpts, scope(id)...)
		}
		sessionOpts = append(sessionOpts, arbor.WithID(id))
		if snap != nil {
			if snap.Diagram != "" {
				sessionOpts = append(sessionOpts, arbor.WithDiagram(snap.Diagram))
			}
			if snap.Scale > 0 {
				sessionOpts = append(sessionOpts, arbor.WithInitialScale(snap.Scale))
			}
			if snap.Selection != nil {
				sessionOpts = append(sessionOpts, arbor.WithSelection(snap.Selection))
			}
		}
		return arbor.New(newEngine(), sessionOpts...)
	}
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store   ports.SnapshotStore
	factory Factory

	mu       sync.Mutex                // Global lock for the maps
	locks    map[string]*lockEntry     // Map of active locks
	sessions map[string]*arbor.Session // Live sessions

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the distributed lock expiry.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Session Manager persisting snapshots to store.
func NewManager(store ports.SnapshotStore, factory Factory, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		factory:  factory,
		locks:    make(map[string]*lockEntry),
		sessions: make(map[string]*arbor.Session),
		lockTTL:  DefaultLockTTL,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

func (m *Manager) live(sessionID string) (*arbor.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

func (m *Manager) track(s *arbor.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID()] = s
}

func (m *Manager) untrack(sessionID string) *arbor.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	return s
}

// Create starts a new session. An empty ID gets a random UUID.
func (m *Manager) Create(ctx context.Context, sessionID string) (*domain.SessionSnapshot, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	var snap *domain.SessionSnapshot
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if _, ok := m.live(sessionID); ok {
			return fmt.Errorf("%w: %s", ErrSessionExists, sessionID)
		}
		_, err := m.store.Load(ctx, sessionID)
		if err == nil {
			return fmt.Errorf("%w: %s", ErrSessionExists, sessionID)
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		s, err := m.factory(ctx, sessionID, nil)
		if err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
		m.track(s)

		snap = m.capture(ctx, s)
		// Persist immediately to reserve the ID
		if err := m.store.Save(ctx, sessionID, snap); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logger.Info("Session created", "session_id", sessionID)
	return snap, nil
}

// resolve returns the live session, restoring it from its snapshot when this
// replica has not seen it yet. Callers hold the session lock.
func (m *Manager) resolve(ctx context.Context, sessionID string) (*arbor.Session, error) {
	if s, ok := m.live(sessionID); ok {
		return s, nil
	}
	snap, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s, err := m.factory(ctx, sessionID, snap)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	m.track(s)
	m.logger.Debug("Session restored", "session_id", sessionID, "scale", snap.Scale)
	return s, nil
}

// capture builds the snapshot to persist, including the diagram markup.
// When the diagram cannot be serialized the last persisted copy is kept.
func (m *Manager) capture(ctx context.Context, s *arbor.Session) *domain.SessionSnapshot {
	snap := s.Snapshot()
	markup, err := s.Diagram(ctx)
	if err == nil {
		snap.Diagram = markup
		return snap
	}
	m.logger.Warn("Diagram not captured, keeping last persisted copy", "session_id", s.ID(), "err", err)
	if prev, err := m.store.Load(ctx, s.ID()); err == nil {
		snap.Diagram = prev.Diagram
	}
	return snap
}

// Do runs fn against the session while holding its lock and persists the
// resulting snapshot. The snapshot is saved even when fn fails, since a
// failed trigger may still have changed the view state.
func (m *Manager) Do(ctx context.Context, sessionID string, fn func(context.Context, *arbor.Session) error) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := m.resolve(ctx, sessionID)
		if err != nil {
			return err
		}
		opErr := fn(ctx, s)
		if err := m.store.Save(ctx, sessionID, m.capture(ctx, s)); err != nil {
			return errors.Join(opErr, fmt.Errorf("failed to persist snapshot: %w", err))
		}
		return opErr
	})
}

// Snapshot returns the current view state of the session.
func (m *Manager) Snapshot(ctx context.Context, sessionID string) (*domain.SessionSnapshot, error) {
	var snap *domain.SessionSnapshot
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if s, ok := m.live(sessionID); ok {
			snap = s.Snapshot()
			return nil
		}
		var err error
		snap, err = m.store.Load(ctx, sessionID)
		return err
	})
	return snap, err
}

// Delete closes the session and removes its snapshot.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if s := m.untrack(sessionID); s != nil {
			s.Close()
		}
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

// Close detaches every live session from its engine. Snapshots are kept.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*arbor.Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
