// Package messagestore implements the group message/event store:
// append-only per-group message and event logs with dedup, bounded
// retention, and an index, persisted in a JSON-Lines format since
// messages and events already carry globally-ordered ids (msg_id/
// event_id) and the store only needs to preserve and dedup that order
// rather than mint its own offsets.
package messagestore

import (
	"sort"
	"sync"
	"time"

	"github.com/fluxorio/groupclient/pkg/corelog"
	"github.com/fluxorio/groupclient/pkg/groupwire"
)

// MessageQuery filters a GetMessages call.
type MessageQuery struct {
	AfterMsgID  int64 // 0 means unset
	BeforeMsgID int64 // 0 means unset
	Limit       int   // 0 means unlimited
}

// EventQuery filters a GetEvents call.
type EventQuery struct {
	AfterEventID  int64
	BeforeEventID int64
	Limit         int
}

// Store is the C2 contract. All operations are safe for concurrent use.
type Store interface {
	// GetOrCreateGroup idempotently returns the index record for gid,
	// creating it (and binding targetID/name) if absent.
	GetOrCreateGroup(gid, targetID, name string) groupwire.GroupRecord

	// AddMessage appends msg if its MsgID exceeds the group's current
	// LastMsgID; otherwise it is a dedup no-op. Returns true if appended.
	AddMessage(gid string, msg groupwire.GroupMessage) bool

	// AddMessages appends each candidate in order, applying the same
	// dedup rule per element. Returns the number actually appended.
	AddMessages(gid string, msgs []groupwire.GroupMessage) int

	// GetMessages returns a filtered, order-preserving view of gid's
	// message log.
	GetMessages(gid string, q MessageQuery) []groupwire.GroupMessage

	// AddEvent is the event-log analogue of AddMessage.
	AddEvent(gid string, ev groupwire.GroupEvent) bool

	// AddEvents is the event-log analogue of AddMessages.
	AddEvents(gid string, evs []groupwire.GroupEvent) int

	// GetEvents is the event-log analogue of GetMessages.
	GetEvents(gid string, q EventQuery) []groupwire.GroupEvent

	// DeleteGroup removes gid's in-memory state and any persistent
	// artifacts.
	DeleteGroup(gid string)

	// Record returns gid's current index entry and whether it exists.
	Record(gid string) (groupwire.GroupRecord, bool)

	// Load rebinds the store to a new owner identity, flushing the prior
	// owner's state first.
	Load(owner string) error

	// Flush writes the index and every group's logs for the current
	// owner, if persistence is enabled.
	Flush() error

	// Close flushes then drops all in-memory state.
	Close()
}

// Config configures retention and optional persistence.
type Config struct {
	// Dir, when non-empty with Persist true, is the directory holding the
	// index document and per-group log files.
	Dir string
	// Persist enables message/event log persistence to disk.
	Persist bool
	// MaxMessagesPerGroup bounds the retained message log length; excess
	// is trimmed from the oldest end. 0 disables the cap.
	MaxMessagesPerGroup int
	// MaxEventsPerGroup is the event-log analogue.
	MaxEventsPerGroup int

	Logger corelog.Logger
}

// DefaultConfig returns the core-level default retention and persistence
// settings.
func DefaultConfig() Config {
	return Config{
		MaxMessagesPerGroup: 5000,
		MaxEventsPerGroup:   2000,
	}
}

type groupState struct {
	record   groupwire.GroupRecord
	messages []groupwire.GroupMessage
	events   []groupwire.GroupEvent
}

type store struct {
	cfg   Config
	log   corelog.Logger
	owner string

	mu     sync.Mutex
	groups map[string]*groupState
	closed bool
}

// New constructs a Store bound to no owner; call Load before any
// persistence-backed operation needs a concrete owner identity.
func New(cfg Config) Store {
	if cfg.MaxMessagesPerGroup == 0 {
		cfg.MaxMessagesPerGroup = DefaultConfig().MaxMessagesPerGroup
	}
	if cfg.MaxEventsPerGroup == 0 {
		cfg.MaxEventsPerGroup = DefaultConfig().MaxEventsPerGroup
	}
	if cfg.Logger == nil {
		cfg.Logger = corelog.NewDefaultLogger()
	}
	return &store{
		cfg:    cfg,
		log:    cfg.Logger,
		groups: make(map[string]*groupState),
	}
}

func (s *store) getOrCreateLocked(gid string) *groupState {
	g, ok := s.groups[gid]
	if !ok {
		g = &groupState{record: groupwire.GroupRecord{GroupID: gid}}
		s.groups[gid] = g
	}
	return g
}

func (s *store) GetOrCreateGroup(gid, targetID, name string) groupwire.GroupRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.getOrCreateLocked(gid)
	if g.record.TargetID == "" && targetID != "" {
		g.record.TargetID = targetID
	}
	if g.record.GroupName == "" && name != "" {
		g.record.GroupName = name
	}
	if g.record.JoinedAt == 0 {
		g.record.JoinedAt = time.Now().Unix()
	}
	return g.record
}

func (s *store) AddMessage(gid string, msg groupwire.GroupMessage) bool {
	return s.AddMessages(gid, []groupwire.GroupMessage{msg}) == 1
}

func (s *store) AddMessages(gid string, msgs []groupwire.GroupMessage) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.getOrCreateLocked(gid)

	added := 0
	for _, m := range msgs {
		if m.MsgID <= g.record.LastMsgID {
			continue // dedup: already seen or stale
		}
		g.messages = append(g.messages, m)
		g.record.LastMsgID = m.MsgID
		ts := m.Timestamp
		if ts == 0 {
			ts = time.Now().Unix()
		}
		if ts > g.record.LastMessageAt {
			g.record.LastMessageAt = ts
		}
		added++
	}
	if added == 0 {
		return 0
	}

	if s.cfg.MaxMessagesPerGroup > 0 && len(g.messages) > s.cfg.MaxMessagesPerGroup {
		excess := len(g.messages) - s.cfg.MaxMessagesPerGroup
		g.messages = append([]groupwire.GroupMessage(nil), g.messages[excess:]...)
	}
	g.record.MessageCount = len(g.messages)
	return added
}

func (s *store) GetMessages(gid string, q MessageQuery) []groupwire.GroupMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[gid]
	if !ok {
		return nil
	}

	filtered := make([]groupwire.GroupMessage, 0, len(g.messages))
	for _, m := range g.messages {
		if q.AfterMsgID != 0 && m.MsgID <= q.AfterMsgID {
			continue
		}
		if q.BeforeMsgID != 0 && m.MsgID >= q.BeforeMsgID {
			continue
		}
		filtered = append(filtered, m)
	}
	if q.Limit > 0 && len(filtered) > q.Limit {
		filtered = filtered[len(filtered)-q.Limit:]
	}
	return filtered
}

func (s *store) AddEvent(gid string, ev groupwire.GroupEvent) bool {
	return s.AddEvents(gid, []groupwire.GroupEvent{ev}) == 1
}

func (s *store) AddEvents(gid string, evs []groupwire.GroupEvent) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.getOrCreateLocked(gid)

	added := 0
	for _, e := range evs {
		if e.EventID <= g.record.LastEventID {
			continue
		}
		g.events = append(g.events, e)
		g.record.LastEventID = e.EventID
		added++
	}
	if added == 0 {
		return 0
	}

	if s.cfg.MaxEventsPerGroup > 0 && len(g.events) > s.cfg.MaxEventsPerGroup {
		excess := len(g.events) - s.cfg.MaxEventsPerGroup
		g.events = append([]groupwire.GroupEvent(nil), g.events[excess:]...)
	}
	g.record.EventCount = len(g.events)
	return added
}

func (s *store) GetEvents(gid string, q EventQuery) []groupwire.GroupEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[gid]
	if !ok {
		return nil
	}

	filtered := make([]groupwire.GroupEvent, 0, len(g.events))
	for _, e := range g.events {
		if q.AfterEventID != 0 && e.EventID <= q.AfterEventID {
			continue
		}
		if q.BeforeEventID != 0 && e.EventID >= q.BeforeEventID {
			continue
		}
		filtered = append(filtered, e)
	}
	if q.Limit > 0 && len(filtered) > q.Limit {
		filtered = filtered[len(filtered)-q.Limit:]
	}
	return filtered
}

func (s *store) DeleteGroup(gid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.groups, gid)
	if s.cfg.Persist && s.cfg.Dir != "" && s.owner != "" {
		if err := deleteGroupFiles(ownerDir(s.cfg.Dir, s.owner), gid); err != nil {
			s.log.Warnf("messagestore: failed to delete persisted files for %s: %v", gid, err)
		}
	}
}

func (s *store) Record(gid string) (groupwire.GroupRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[gid]
	if !ok {
		return groupwire.GroupRecord{}, false
	}
	return g.record, true
}

func (s *store) Load(owner string) error {
	s.mu.Lock()
	prevOwner := s.owner
	prevGroups := s.groups
	s.mu.Unlock()

	if prevOwner != "" && s.cfg.Persist {
		if err := s.flushOwner(prevOwner, prevGroups); err != nil {
			s.log.Warnf("messagestore: flush of previous owner %s failed: %v", prevOwner, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.owner = owner
	s.groups = make(map[string]*groupState)

	if !s.cfg.Persist || s.cfg.Dir == "" || owner == "" {
		return nil
	}
	loaded, err := loadOwner(ownerDir(s.cfg.Dir, owner))
	if err != nil {
		s.log.Warnf("messagestore: load for owner %s failed, starting empty: %v", owner, err)
		return nil
	}
	s.groups = loaded
	return nil
}

func (s *store) Flush() error {
	s.mu.Lock()
	owner := s.owner
	groups := s.groups
	s.mu.Unlock()
	return s.flushOwner(owner, groups)
}

func (s *store) flushOwner(owner string, groups map[string]*groupState) error {
	if !s.cfg.Persist || s.cfg.Dir == "" || owner == "" {
		return nil
	}
	return saveOwner(ownerDir(s.cfg.Dir, owner), groups)
}

func (s *store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	owner := s.owner
	groups := s.groups
	s.mu.Unlock()

	if err := s.flushOwner(owner, groups); err != nil {
		s.log.Warnf("messagestore: flush on close failed: %v", err)
	}

	s.mu.Lock()
	s.groups = make(map[string]*groupState)
	s.mu.Unlock()
}

// sortedGroupIDs is a small helper used by persistence to keep index
// document output deterministic.
func sortedGroupIDs(groups map[string]*groupState) []string {
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
