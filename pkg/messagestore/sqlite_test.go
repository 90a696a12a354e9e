package messagestore

import (
	"path/filepath"
	"testing"

	"github.com/fluxorio/groupclient/pkg/groupwire"
)

func TestSQLiteStoreAddAndQueryMessages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groups.db")
	store, err := NewSQLite(path, DefaultConfig())
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	defer store.Close()

	added := store.AddMessages("g1", []groupwire.GroupMessage{
		{MsgID: 1, Sender: "a", Content: "hi"},
		{MsgID: 2, Sender: "b", Content: "there"},
	})
	if added != 2 {
		t.Fatalf("expected 2 added, got %d", added)
	}

	if added := store.AddMessage("g1", groupwire.GroupMessage{MsgID: 1}); added {
		t.Fatal("expected dedup no-op for already-seen msg id")
	}

	got := store.GetMessages("g1", MessageQuery{})
	if len(got) != 2 || got[1].Content != "there" {
		t.Fatalf("unexpected messages: %+v", got)
	}

	record, ok := store.Record("g1")
	if !ok || record.LastMsgID != 2 || record.MessageCount != 2 {
		t.Fatalf("unexpected record: %+v (ok=%v)", record, ok)
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groups.db")

	store, err := NewSQLite(path, DefaultConfig())
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	store.AddMessage("g1", groupwire.GroupMessage{MsgID: 5, Sender: "a"})
	store.AddEvent("g1", groupwire.GroupEvent{EventID: 9, EventType: "join"})
	store.Close()

	reopened, err := NewSQLite(path, DefaultConfig())
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	record, ok := reopened.Record("g1")
	if !ok || record.LastMsgID != 5 || record.LastEventID != 9 {
		t.Fatalf("expected state to survive reopen, got %+v (ok=%v)", record, ok)
	}
	msgs := reopened.GetMessages("g1", MessageQuery{})
	if len(msgs) != 1 || msgs[0].MsgID != 5 {
		t.Fatalf("unexpected reopened messages: %+v", msgs)
	}
}

func TestSQLiteStoreTrimsOldestOnRetentionLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "groups.db")
	store, err := NewSQLite(path, Config{MaxMessagesPerGroup: 2})
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	defer store.Close()

	store.AddMessages("g1", []groupwire.GroupMessage{{MsgID: 1}, {MsgID: 2}, {MsgID: 3}})

	got := store.GetMessages("g1", MessageQuery{})
	if len(got) != 2 || got[0].MsgID != 2 || got[1].MsgID != 3 {
		t.Fatalf("expected oldest message trimmed, got %+v", got)
	}
}

// Postgres-backed cursorstore.pgStore has no equivalent test here: exercising
// it needs a live Postgres instance, and this module carries no test for it.
