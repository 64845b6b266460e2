// Package session keeps the files opened by browser clients.
//
// Each session owns one decoded file and one view coordinator. Sessions
// are identified by random UUIDs, expire after a period of inactivity and
// are evicted oldest first once the configured maximum is reached.
// Removing a session closes its file.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/robert-malhotra/h5view/hdf5"
	"github.com/robert-malhotra/h5view/internal/view"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// Options configures a Manager.
type Options struct {
	TTL         time.Duration
	MaxSessions int
	MaxElements int
	MatrixRows  int
	MatrixCols  int
	Logger      *zap.Logger

	// Now replaces time.Now in tests.
	Now func() time.Time
}

// Manager owns the open sessions. It is safe for concurrent use.
type Manager struct {
	opts Options
	log  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty manager. Zero options take the defaults of
// config.DefaultConfig.
func NewManager(opts Options) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Minute
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 16
	}
	if opts.MaxElements <= 0 {
		opts.MaxElements = hdf5.DefaultMaxElements
	}
	if opts.MatrixRows <= 0 {
		opts.MatrixRows = 100
	}
	if opts.MatrixCols <= 0 {
		opts.MatrixCols = 20
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		opts:     opts,
		log:      log.Named("session"),
		sessions: make(map[string]*Session),
	}
}

// Open opens the file at path in a new session.
func (m *Manager) Open(path string) (*Session, error) {
	f, err := hdf5.Open(path, m.fileOptions()...)
	if err != nil {
		return nil, err
	}
	return m.add(f), nil
}

// OpenReader opens an in-memory or uploaded file in a new session.
func (m *Manager) OpenReader(ra io.ReaderAt, size int64, name string) (*Session, error) {
	f, err := hdf5.OpenReader(ra, size, name, m.fileOptions()...)
	if err != nil {
		return nil, err
	}
	return m.add(f), nil
}

func (m *Manager) fileOptions() []hdf5.Option {
	return []hdf5.Option{
		hdf5.WithLogger(m.log),
		hdf5.WithMaxElements(m.opts.MaxElements),
	}
}

func (m *Manager) add(f *hdf5.File) *Session {
	now := m.opts.Now()
	s := &Session{
		ID:          uuid.NewString(),
		Name:        f.Name(),
		Size:        f.Size(),
		Created:     now,
		file:        f,
		coord:       view.New(view.WithMatrixLimits(m.opts.MatrixRows, m.opts.MatrixCols)),
		lastUsed:    now,
		maxElements: m.opts.MaxElements,
	}
	s.log = m.log.With(zap.String("session", s.ID))

	m.mu.Lock()
	m.sweepLocked(now)
	for len(m.sessions) >= m.opts.MaxSessions {
		m.removeLocked(m.oldestLocked(), "evicted")
	}
	m.sessions[s.ID] = s
	m.mu.Unlock()

	s.log.Info("session opened",
		zap.String("file", s.Name),
		zap.String("size", humanize.Bytes(uint64(max(s.Size, 0)))))
	return s
}

// Get returns the session with the given id and marks it used.
func (m *Manager) Get(id string) (*Session, error) {
	now := m.opts.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if m.expired(s, now) {
		m.removeLocked(s, "expired")
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.lastUsed = now
	return s, nil
}

// Close removes the session and closes its file.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.removeLocked(s, "closed")
	return nil
}

// CloseAll removes every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		m.removeLocked(s, "shutdown")
	}
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// IDs returns the open session ids, oldest first.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return older(list[i], list[j]) })
	ids := make([]string, len(list))
	for i, s := range list {
		ids[i] = s.ID
	}
	return ids
}

// Sweep removes expired sessions and returns how many it removed.
func (m *Manager) Sweep() int {
	now := m.opts.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(now)
}

// Run sweeps expired sessions every interval until ctx is done, then
// closes all sessions.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			m.CloseAll()
			return
		case <-t.C:
			m.Sweep()
		}
	}
}

func (m *Manager) sweepLocked(now time.Time) int {
	n := 0
	for _, s := range m.sessions {
		if m.expired(s, now) {
			m.removeLocked(s, "expired")
			n++
		}
	}
	return n
}

func (m *Manager) expired(s *Session, now time.Time) bool {
	return now.Sub(s.lastUsed) > m.opts.TTL
}

func (m *Manager) oldestLocked() *Session {
	var oldest *Session
	for _, s := range m.sessions {
		if oldest == nil || older(s, oldest) {
			oldest = s
		}
	}
	return oldest
}

// older orders sessions by creation time, then id for equal times.
func older(a, b *Session) bool {
	if !a.Created.Equal(b.Created) {
		return a.Created.Before(b.Created)
	}
	return a.ID < b.ID
}

func (m *Manager) removeLocked(s *Session, reason string) {
	delete(m.sessions, s.ID)
	if err := s.Close(); err != nil {
		s.log.Warn("closing session file", zap.Error(err))
	}
	s.log.Info("session removed", zap.String("reason", reason))
}
