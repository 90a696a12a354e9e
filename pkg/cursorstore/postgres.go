package cursorstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fluxorio/groupclient/pkg/corelog"
)

// pgStore is an alternate backing for deployments that prefer a shared
// Postgres database over the per-process YAML file. It is selected by
// calling NewPostgres instead of New; the Store contract and its
// monotonic-cursor semantics are identical either way.
type pgStore struct {
	pool *pgxpool.Pool
	log  corelog.Logger

	mu      sync.Mutex
	cursors map[string]cursorPair
	closed  bool
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS group_cursors (
	group_id     TEXT PRIMARY KEY,
	msg_cursor   BIGINT NOT NULL DEFAULT 0,
	event_cursor BIGINT NOT NULL DEFAULT 0
)`

// NewPostgres connects to dsn, ensures the backing table exists, preloads
// every row into an in-memory cache (so LoadCursor/SaveMsgCursor/
// SaveEventCursor stay lock-free of the database on the hot path), and
// returns a Store that persists each advance synchronously. A connect or
// schema failure is returned rather than silently degrading, since callers
// choosing this constructor have explicitly opted into a database backing.
func NewPostgres(ctx context.Context, dsn string, log corelog.Logger) (Store, error) {
	if log == nil {
		log = corelog.NewDefaultLogger()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("cursorstore: pgx connect failed: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cursorstore: schema migration failed: %w", err)
	}

	s := &pgStore{pool: pool, log: log, cursors: make(map[string]cursorPair)}
	rows, err := pool.Query(ctx, "SELECT group_id, msg_cursor, event_cursor FROM group_cursors")
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("cursorstore: initial load failed: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var gid string
		var pair cursorPair
		if err := rows.Scan(&gid, &pair.Msg, &pair.Event); err != nil {
			pool.Close()
			return nil, fmt.Errorf("cursorstore: row scan failed: %w", err)
		}
		s.cursors[gid] = pair
	}
	return s, rows.Err()
}

func (s *pgStore) SaveMsgCursor(gid string, v int64) {
	if v < 0 {
		return
	}
	s.mu.Lock()
	pair := s.cursors[gid]
	if v <= pair.Msg {
		s.mu.Unlock()
		return
	}
	pair.Msg = v
	s.cursors[gid] = pair
	s.mu.Unlock()

	s.upsert(gid, pair)
}

func (s *pgStore) SaveEventCursor(gid string, v int64) {
	if v < 0 {
		return
	}
	s.mu.Lock()
	pair := s.cursors[gid]
	if v <= pair.Event {
		s.mu.Unlock()
		return
	}
	pair.Event = v
	s.cursors[gid] = pair
	s.mu.Unlock()

	s.upsert(gid, pair)
}

func (s *pgStore) upsert(gid string, pair cursorPair) {
	_, err := s.pool.Exec(context.Background(), `
		INSERT INTO group_cursors (group_id, msg_cursor, event_cursor)
		VALUES ($1, $2, $3)
		ON CONFLICT (group_id) DO UPDATE SET msg_cursor = $2, event_cursor = $3`,
		gid, pair.Msg, pair.Event)
	if err != nil {
		s.log.Warnf("cursorstore: postgres upsert failed for %s: %v", gid, err)
	}
}

func (s *pgStore) LoadCursor(gid string) (int64, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pair := s.cursors[gid]
	return pair.Msg, pair.Event
}

func (s *pgStore) RemoveCursor(gid string) {
	s.mu.Lock()
	delete(s.cursors, gid)
	s.mu.Unlock()

	if _, err := s.pool.Exec(context.Background(), "DELETE FROM group_cursors WHERE group_id = $1", gid); err != nil {
		s.log.Warnf("cursorstore: postgres delete failed for %s: %v", gid, err)
	}
}

// Flush is a no-op for pgStore: every write is already persisted
// synchronously in SaveMsgCursor/SaveEventCursor.
func (s *pgStore) Flush() {}

func (s *pgStore) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.pool.Close()
}
