package messagestore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fluxorio/groupclient/pkg/corelog"
	"github.com/fluxorio/groupclient/pkg/groupwire"
)

// sqliteStore is an alternate backing for deployments wanting a single
// self-contained file instead of the JSONL-per-group layout. It implements
// the same Store contract and dedup/retention rules as the default store;
// the in-memory groupState cache is kept for query speed, with SQLite as
// the durable backing written synchronously on every mutating call.
type sqliteStore struct {
	cfg Config
	log corelog.Logger
	db  *sql.DB

	mu     sync.Mutex
	groups map[string]*groupState
	closed bool
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS groups (
	group_id        TEXT PRIMARY KEY,
	target_id       TEXT,
	group_name      TEXT,
	joined_at       INTEGER,
	last_msg_id     INTEGER,
	last_event_id   INTEGER,
	last_message_at INTEGER
);
CREATE TABLE IF NOT EXISTS messages (
	group_id TEXT,
	msg_id   INTEGER,
	payload  TEXT,
	PRIMARY KEY (group_id, msg_id)
);
CREATE TABLE IF NOT EXISTS events (
	group_id TEXT,
	event_id INTEGER,
	payload  TEXT,
	PRIMARY KEY (group_id, event_id)
);`

// NewSQLite opens (creating if absent) the database file at path, ensures
// the schema exists, and preloads every group's index, messages, and
// events into memory. cfg's retention limits apply identically to the
// file-backed store.
func NewSQLite(path string, cfg Config) (Store, error) {
	if cfg.MaxMessagesPerGroup == 0 {
		cfg.MaxMessagesPerGroup = DefaultConfig().MaxMessagesPerGroup
	}
	if cfg.MaxEventsPerGroup == 0 {
		cfg.MaxEventsPerGroup = DefaultConfig().MaxEventsPerGroup
	}
	if cfg.Logger == nil {
		cfg.Logger = corelog.NewDefaultLogger()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("messagestore: open sqlite db failed: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("messagestore: schema migration failed: %w", err)
	}

	s := &sqliteStore{cfg: cfg, log: cfg.Logger, db: db, groups: make(map[string]*groupState)}
	if err := s.preload(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *sqliteStore) preload() error {
	rows, err := s.db.Query(`SELECT group_id, target_id, group_name, joined_at, last_msg_id, last_event_id, last_message_at FROM groups`)
	if err != nil {
		return fmt.Errorf("messagestore: preload groups failed: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var rec groupwire.GroupRecord
		if err := rows.Scan(&rec.GroupID, &rec.TargetID, &rec.GroupName, &rec.JoinedAt, &rec.LastMsgID, &rec.LastEventID, &rec.LastMessageAt); err != nil {
			return fmt.Errorf("messagestore: scan group row failed: %w", err)
		}
		s.groups[rec.GroupID] = &groupState{record: rec}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	msgRows, err := s.db.Query(`SELECT group_id, payload FROM messages ORDER BY group_id, msg_id`)
	if err != nil {
		return fmt.Errorf("messagestore: preload messages failed: %w", err)
	}
	defer msgRows.Close()
	for msgRows.Next() {
		var gid, payload string
		if err := msgRows.Scan(&gid, &payload); err != nil {
			return fmt.Errorf("messagestore: scan message row failed: %w", err)
		}
		var m groupwire.GroupMessage
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			continue
		}
		g := s.getOrCreateLocked(gid)
		g.messages = append(g.messages, m)
		g.record.MessageCount = len(g.messages)
	}

	evRows, err := s.db.Query(`SELECT group_id, payload FROM events ORDER BY group_id, event_id`)
	if err != nil {
		return fmt.Errorf("messagestore: preload events failed: %w", err)
	}
	defer evRows.Close()
	for evRows.Next() {
		var gid, payload string
		if err := evRows.Scan(&gid, &payload); err != nil {
			return fmt.Errorf("messagestore: scan event row failed: %w", err)
		}
		var e groupwire.GroupEvent
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			continue
		}
		g := s.getOrCreateLocked(gid)
		g.events = append(g.events, e)
		g.record.EventCount = len(g.events)
	}
	return evRows.Err()
}

func (s *sqliteStore) getOrCreateLocked(gid string) *groupState {
	g, ok := s.groups[gid]
	if !ok {
		g = &groupState{record: groupwire.GroupRecord{GroupID: gid}}
		s.groups[gid] = g
	}
	return g
}

func (s *sqliteStore) GetOrCreateGroup(gid, targetID, name string) groupwire.GroupRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.getOrCreateLocked(gid)
	changed := false
	if g.record.TargetID == "" && targetID != "" {
		g.record.TargetID = targetID
		changed = true
	}
	if g.record.GroupName == "" && name != "" {
		g.record.GroupName = name
		changed = true
	}
	if g.record.JoinedAt == 0 {
		g.record.JoinedAt = time.Now().Unix()
		changed = true
	}
	if changed {
		s.persistGroupRow(g.record)
	}
	return g.record
}

func (s *sqliteStore) persistGroupRow(rec groupwire.GroupRecord) {
	_, err := s.db.Exec(`
		INSERT INTO groups (group_id, target_id, group_name, joined_at, last_msg_id, last_event_id, last_message_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(group_id) DO UPDATE SET target_id=excluded.target_id, group_name=excluded.group_name,
			joined_at=excluded.joined_at, last_msg_id=excluded.last_msg_id,
			last_event_id=excluded.last_event_id, last_message_at=excluded.last_message_at`,
		rec.GroupID, rec.TargetID, rec.GroupName, rec.JoinedAt, rec.LastMsgID, rec.LastEventID, rec.LastMessageAt)
	if err != nil {
		s.log.Warnf("messagestore: sqlite persist group row failed for %s: %v", rec.GroupID, err)
	}
}

func (s *sqliteStore) AddMessage(gid string, msg groupwire.GroupMessage) bool {
	return s.AddMessages(gid, []groupwire.GroupMessage{msg}) == 1
}

func (s *sqliteStore) AddMessages(gid string, msgs []groupwire.GroupMessage) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.getOrCreateLocked(gid)

	added := 0
	for _, m := range msgs {
		if m.MsgID <= g.record.LastMsgID {
			continue
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
		if payload, err := json.Marshal(m); err == nil {
			if _, err := s.db.Exec(`INSERT OR REPLACE INTO messages (group_id, msg_id, payload) VALUES (?, ?, ?)`, gid, m.MsgID, string(payload)); err != nil {
				s.log.Warnf("messagestore: sqlite insert message failed for %s/%d: %v", gid, m.MsgID, err)
			}
		}
		added++
	}
	if added == 0 {
		return 0
	}

	if s.cfg.MaxMessagesPerGroup > 0 && len(g.messages) > s.cfg.MaxMessagesPerGroup {
		excess := len(g.messages) - s.cfg.MaxMessagesPerGroup
		trimmed := g.messages[:excess]
		g.messages = append([]groupwire.GroupMessage(nil), g.messages[excess:]...)
		for _, m := range trimmed {
			if _, err := s.db.Exec(`DELETE FROM messages WHERE group_id = ? AND msg_id = ?`, gid, m.MsgID); err != nil {
				s.log.Warnf("messagestore: sqlite trim message failed for %s/%d: %v", gid, m.MsgID, err)
			}
		}
	}
	g.record.MessageCount = len(g.messages)
	s.persistGroupRow(g.record)
	return added
}

func (s *sqliteStore) GetMessages(gid string, q MessageQuery) []groupwire.GroupMessage {
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

func (s *sqliteStore) AddEvent(gid string, ev groupwire.GroupEvent) bool {
	return s.AddEvents(gid, []groupwire.GroupEvent{ev}) == 1
}

func (s *sqliteStore) AddEvents(gid string, evs []groupwire.GroupEvent) int {
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
		if payload, err := json.Marshal(e); err == nil {
			if _, err := s.db.Exec(`INSERT OR REPLACE INTO events (group_id, event_id, payload) VALUES (?, ?, ?)`, gid, e.EventID, string(payload)); err != nil {
				s.log.Warnf("messagestore: sqlite insert event failed for %s/%d: %v", gid, e.EventID, err)
			}
		}
		added++
	}
	if added == 0 {
		return 0
	}

	if s.cfg.MaxEventsPerGroup > 0 && len(g.events) > s.cfg.MaxEventsPerGroup {
		excess := len(g.events) - s.cfg.MaxEventsPerGroup
		trimmed := g.events[:excess]
		g.events = append([]groupwire.GroupEvent(nil), g.events[excess:]...)
		for _, e := range trimmed {
			if _, err := s.db.Exec(`DELETE FROM events WHERE group_id = ? AND event_id = ?`, gid, e.EventID); err != nil {
				s.log.Warnf("messagestore: sqlite trim event failed for %s/%d: %v", gid, e.EventID, err)
			}
		}
	}
	g.record.EventCount = len(g.events)
	s.persistGroupRow(g.record)
	return added
}

func (s *sqliteStore) GetEvents(gid string, q EventQuery) []groupwire.GroupEvent {
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

func (s *sqliteStore) DeleteGroup(gid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.groups, gid)
	if _, err := s.db.Exec(`DELETE FROM groups WHERE group_id = ?`, gid); err != nil {
		s.log.Warnf("messagestore: sqlite delete group failed for %s: %v", gid, err)
	}
	if _, err := s.db.Exec(`DELETE FROM messages WHERE group_id = ?`, gid); err != nil {
		s.log.Warnf("messagestore: sqlite delete messages failed for %s: %v", gid, err)
	}
	if _, err := s.db.Exec(`DELETE FROM events WHERE group_id = ?`, gid); err != nil {
		s.log.Warnf("messagestore: sqlite delete events failed for %s: %v", gid, err)
	}
}

func (s *sqliteStore) Record(gid string) (groupwire.GroupRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[gid]
	if !ok {
		return groupwire.GroupRecord{}, false
	}
	return g.record, true
}

// Load is a no-op for sqliteStore: the database file itself is the owner
// boundary (one file per owner), set at NewSQLite time rather than at
// runtime.
func (s *sqliteStore) Load(string) error { return nil }

// Flush is a no-op: every mutating call above already writes through to
// the database synchronously.
func (s *sqliteStore) Flush() error { return nil }

func (s *sqliteStore) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	if err := s.db.Close(); err != nil {
		s.log.Warnf("messagestore: sqlite close failed: %v", err)
	}
}
