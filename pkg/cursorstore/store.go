// Package cursorstore implements the cursor store: a monotonic per-group
// (msg, event) cursor pair with optional durable backing, held in a
// mutex-guarded in-memory map with an atomic file-replacement writer.
package cursorstore

import (
	"sync"

	"github.com/fluxorio/groupclient/pkg/corelog"
)

// Store is the C1 contract. All operations are safe for concurrent use.
type Store interface {
	// SaveMsgCursor advances the message cursor for gid to v if v is
	// greater than the current value; otherwise it is a no-op.
	SaveMsgCursor(gid string, v int64)

	// SaveEventCursor advances the event cursor for gid to v if v is
	// greater than the current value; otherwise it is a no-op.
	SaveEventCursor(gid string, v int64)

	// LoadCursor returns the (msg, event) cursor pair for gid, or (0, 0)
	// if gid is unknown.
	LoadCursor(gid string) (msg int64, event int64)

	// RemoveCursor clears gid's entry entirely.
	RemoveCursor(gid string)

	// Flush persists the current state if a durable backing is configured
	// and the state is dirty. Write failures are logged, never returned.
	Flush()

	// Close flushes then releases resources. Idempotent.
	Close()
}

type cursorPair struct {
	Msg   int64 `yaml:"msg_cursor" json:"msg_cursor"`
	Event int64 `yaml:"event_cursor" json:"event_cursor"`
}

// store is the shared implementation backing both the in-memory mode (path
// == "") and the durable file-backed mode.
type store struct {
	mu      sync.Mutex
	path    string
	cursors map[string]cursorPair
	dirty   bool
	closed  bool
	log     corelog.Logger
}

// Option configures a Store at construction time.
type Option func(*store)

// WithLogger overrides the default logger.
func WithLogger(l corelog.Logger) Option {
	return func(s *store) { s.log = l }
}

// New constructs a Store. An empty path selects pure in-memory mode; any
// other path selects the durable YAML-backed mode and attempts an initial
// load, falling back to empty state on any parse failure.
func New(path string, opts ...Option) Store {
	s := &store{
		path:    path,
		cursors: make(map[string]cursorPair),
		log:     corelog.NewDefaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.path != "" {
		s.load()
	}
	return s
}

func (s *store) SaveMsgCursor(gid string, v int64) {
	if v < 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pair := s.cursors[gid]
	if v > pair.Msg {
		pair.Msg = v
		s.cursors[gid] = pair
		s.dirty = true
	}
}

func (s *store) SaveEventCursor(gid string, v int64) {
	if v < 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pair := s.cursors[gid]
	if v > pair.Event {
		pair.Event = v
		s.cursors[gid] = pair
		s.dirty = true
	}
}

func (s *store) LoadCursor(gid string) (int64, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pair := s.cursors[gid]
	return pair.Msg, pair.Event
}

func (s *store) RemoveCursor(gid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cursors, gid)
	s.dirty = true
}

func (s *store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
}

func (s *store) flushLocked() {
	if s.path == "" || !s.dirty {
		return
	}
	snapshot := make(map[string]cursorPair, len(s.cursors))
	for k, v := range s.cursors {
		snapshot[k] = v
	}
	if err := saveYAML(s.path, snapshot); err != nil {
		s.log.Warnf("cursorstore: flush failed for %s: %v", s.path, err)
		return
	}
	s.dirty = false
}

func (s *store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.flushLocked()
	s.mu.Unlock()
}

func (s *store) load() {
	data, err := loadYAML(s.path)
	if err != nil {
		s.log.Warnf("cursorstore: load failed for %s, starting empty: %v", s.path, err)
		return
	}
	s.cursors = data
}
