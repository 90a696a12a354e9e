package groupops

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fluxorio/groupclient/pkg/cursorstore"
	"github.com/fluxorio/groupclient/pkg/groupclient"
	"github.com/fluxorio/groupclient/pkg/groupwire"
	"github.com/fluxorio/groupclient/pkg/messagestore"
)

// scriptedTransport dispatches outbound requests to a per-action handler
// and feeds the handler's response back into the client asynchronously,
// simulating an externally-owned transport.
type scriptedTransport struct {
	client   *groupclient.Client
	handlers map[string]func(groupwire.GroupRequest) groupwire.GroupResponse
}

func (t *scriptedTransport) send(_ string, payload []byte) error {
	var req groupwire.GroupRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return err
	}
	h, ok := t.handlers[req.Action]
	if !ok {
		return fmt.Errorf("scriptedTransport: no handler for action %q", req.Action)
	}
	resp := h(req)
	resp.Action = req.Action
	resp.RequestID = req.RequestID
	if resp.GroupID == "" {
		resp.GroupID = req.GroupID
	}
	data, err := groupwire.Encode(&resp)
	if err != nil {
		return err
	}
	go t.client.HandleIncoming(data)
	return nil
}

func newTestOps(t *testing.T, handlers map[string]func(groupwire.GroupRequest) groupwire.GroupResponse, cfg Config) (*Client, cursorstore.Store, messagestore.Store) {
	t.Helper()
	transport := &scriptedTransport{handlers: handlers}
	core := groupclient.New(groupclient.Config{AgentID: "agent-1", Send: transport.send})
	transport.client = core

	cursors := cursorstore.New("")
	messages := messagestore.New(messagestore.DefaultConfig())

	t.Cleanup(func() {
		core.Close()
		messages.Close()
	})

	return New(core, cursors, messages, cfg), cursors, messages
}

func okResponse(data interface{}) groupwire.GroupResponse {
	raw, _ := json.Marshal(data)
	return groupwire.GroupResponse{Code: 0, Data: raw}
}

func TestParseGroupURLRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		host  string
		group string
		query string
	}{
		{"plain", "t.example", "g1", ""},
		{"query", "t.example", "g1", "?x=1"},
		{"fragment", "t.example", "g1", "#f"},
		{"both", "t.example", "g1", "?x=1#f"},
		{"trailing-slash", "t.example", "g1", "/"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			url := "https://" + tc.host + "/" + tc.group + tc.query
			got, err := ParseGroupURL(url)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.TargetAID != tc.host || got.GroupID != tc.group {
				t.Fatalf("got %+v, want host=%s group=%s", got, tc.host, tc.group)
			}
		})
	}
}

func TestParseGroupURLRejectsEmptyHostOrPath(t *testing.T) {
	if _, err := ParseGroupURL("https:///g1"); err == nil {
		t.Fatal("expected error for empty host")
	}
	if _, err := ParseGroupURL("https://t.example/"); err == nil {
		t.Fatal("expected error for empty group id")
	}
}

func TestPullParamsModes(t *testing.T) {
	if p := pullParams(0, 0); p != nil {
		t.Fatalf("auto mode should send nil params, got %#v", p)
	}
	if p := pullParams(0, 10).(map[string]interface{}); p["limit"] != 10 {
		t.Fatalf("limit-only mode: got %#v", p)
	}
	p := pullParams(5, 10).(map[string]interface{})
	if p["after_msg_id"] != int64(5) || p["limit"] != 10 {
		t.Fatalf("explicit-cursor mode: got %#v", p)
	}
	p2 := pullParams(5, 0).(map[string]interface{})
	if p2["after_msg_id"] != int64(5) {
		t.Fatalf("explicit-cursor without limit: got %#v", p2)
	}
	if _, hasLimit := p2["limit"]; hasLimit {
		t.Fatalf("expected no limit key when limit == 0, got %#v", p2)
	}
}

func TestAckMessagesAdvancesCursorMonotonically(t *testing.T) {
	ops, cursors, _ := newTestOps(t, map[string]func(groupwire.GroupRequest) groupwire.GroupResponse{
		"ack_messages": func(req groupwire.GroupRequest) groupwire.GroupResponse {
			return okResponse(nil)
		},
	}, Config{})

	for _, id := range []int64{10, 5, 12} {
		if err := ops.AckMessages(context.Background(), "t", "g", id); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	msg, event := cursors.LoadCursor("g")
	if msg != 12 || event != 0 {
		t.Fatalf("expected monotonic max cursor (12,0), got (%d,%d)", msg, event)
	}
}

func TestGroupErrorOnNonZeroCode(t *testing.T) {
	ops, _, _ := newTestOps(t, map[string]func(groupwire.GroupRequest) groupwire.GroupResponse{
		"leave_group": func(req groupwire.GroupRequest) groupwire.GroupResponse {
			return groupwire.GroupResponse{Code: groupwire.CodeNotMember}
		},
	}, Config{})

	err := ops.LeaveGroup(context.Background(), "t", "g")
	var gerr *groupwire.GroupError
	if err == nil {
		t.Fatal("expected an error")
	}
	if ge, ok := err.(*groupwire.GroupError); ok {
		gerr = ge
	} else {
		t.Fatalf("expected *groupwire.GroupError, got %T", err)
	}
	if gerr.Code != groupwire.CodeNotMember {
		t.Fatalf("unexpected code: %d", gerr.Code)
	}
}

type recordingSyncHandler struct {
	mu       sync.Mutex
	messages []groupwire.GroupMessage
}

func (h *recordingSyncHandler) OnMessages(gid string, msgs []groupwire.GroupMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msgs...)
}
func (h *recordingSyncHandler) OnEvents(string, []groupwire.GroupEvent) {}

func TestSyncGroupPagesAcksAndMirrorsStore(t *testing.T) {
	all := []groupwire.GroupMessage{{MsgID: 1}, {MsgID: 2}, {MsgID: 3}}

	handlers := map[string]func(groupwire.GroupRequest) groupwire.GroupResponse{
		"get_cursor": func(req groupwire.GroupRequest) groupwire.GroupResponse {
			return okResponse(groupwire.CursorState{})
		},
		"pull_messages": func(req groupwire.GroupRequest) groupwire.GroupResponse {
			var params struct {
				AfterMsgID int64 `json:"after_msg_id"`
				Limit      int   `json:"limit"`
			}
			_ = json.Unmarshal(req.Params, &params)

			var page []groupwire.GroupMessage
			for _, m := range all {
				if m.MsgID > params.AfterMsgID {
					page = append(page, m)
				}
			}
			hasMore := false
			if params.Limit > 0 && len(page) > params.Limit {
				hasMore = true
				page = page[:params.Limit]
			}
			return okResponse(struct {
				Messages    []groupwire.GroupMessage `json:"messages"`
				HasMore     bool                      `json:"has_more"`
				LatestMsgID int64                     `json:"latest_msg_id"`
			}{page, hasMore, 3})
		},
		"ack_messages": func(req groupwire.GroupRequest) groupwire.GroupResponse {
			return okResponse(nil)
		},
		"pull_events": func(req groupwire.GroupRequest) groupwire.GroupResponse {
			return okResponse(struct {
				Events        []groupwire.GroupEvent `json:"events"`
				HasMore       bool                    `json:"has_more"`
				LatestEventID int64                   `json:"latest_event_id"`
			}{nil, false, 0})
		},
	}

	ops, cursors, messages := newTestOps(t, handlers, Config{SyncPageSize: 2})
	handler := &recordingSyncHandler{}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := ops.SyncGroup(ctx, "t", "g", handler); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	handler.mu.Lock()
	gotCount := len(handler.messages)
	handler.mu.Unlock()
	if gotCount != 3 {
		t.Fatalf("expected handler to observe 3 messages across pages, got %d", gotCount)
	}

	msgCursor, _ := cursors.LoadCursor("g")
	if msgCursor != 3 {
		t.Fatalf("expected final msg cursor == 3, got %d", msgCursor)
	}

	record, ok := messages.Record("g")
	if !ok || record.LastMsgID != 3 || record.MessageCount != 3 {
		t.Fatalf("expected message store to mirror synced messages, got %+v (ok=%v)", record, ok)
	}
}

func TestCreateAndValidateInviteCodeRoundTrip(t *testing.T) {
	handlers := map[string]func(groupwire.GroupRequest) groupwire.GroupResponse{
		"create_invite_code": func(req groupwire.GroupRequest) groupwire.GroupResponse {
			return okResponse(CreateInviteCodeResult{Code: "server-code-123", ExpiresAt: time.Now().Add(time.Hour).Unix()})
		},
	}
	ops, _, _ := newTestOps(t, handlers, Config{InviteCodeSigningKey: []byte("test-signing-key")})

	result, err := ops.CreateInviteCode(context.Background(), "t", "g1", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Code == "server-code-123" {
		t.Fatal("expected the server code to be wrapped in a signed JWT")
	}

	serverCode, err := ops.ValidateInviteCode("g1", result.Code)
	if err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if serverCode != "server-code-123" {
		t.Fatalf("expected unwrapped server code, got %q", serverCode)
	}

	if _, err := ops.ValidateInviteCode("other-group", result.Code); err == nil {
		t.Fatal("expected validation to reject a mismatched group id")
	}
}

func TestJoinByURLWithInviteCode(t *testing.T) {
	var used string
	handlers := map[string]func(groupwire.GroupRequest) groupwire.GroupResponse{
		"use_invite_code": func(req groupwire.GroupRequest) groupwire.GroupResponse {
			var params struct {
				Code string `json:"code"`
			}
			_ = json.Unmarshal(req.Params, &params)
			used = params.Code
			return okResponse(nil)
		},
	}
	ops, _, _ := newTestOps(t, handlers, Config{})

	result, err := ops.JoinByURL(context.Background(), "https://t.example/g1", "raw-code", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != "joined" {
		t.Fatalf("expected status joined, got %q", result.Status)
	}
	if used != "raw-code" {
		t.Fatalf("expected opaque code to pass through unchanged, got %q", used)
	}
}

func TestJoinByURLWithoutInviteCode(t *testing.T) {
	handlers := map[string]func(groupwire.GroupRequest) groupwire.GroupResponse{
		"request_join": func(req groupwire.GroupRequest) groupwire.GroupResponse {
			return okResponse(RequestJoinResult{Status: "pending"})
		},
	}
	ops, _, _ := newTestOps(t, handlers, Config{})

	result, err := ops.JoinByURL(context.Background(), "https://t.example/g1", "", "let me in")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != "pending" {
		t.Fatalf("expected status pending, got %q", result.Status)
	}
}
