package groupclient

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fluxorio/groupclient/pkg/groupevents"
	"github.com/fluxorio/groupclient/pkg/groupwire"
)

// fakeTransport loops sent frames back into a buffer for the test to
// inspect or feed into HandleIncoming, standing in for an externally
// owned bidirectional transport.
type fakeTransport struct {
	mu  sync.Mutex
	out [][]byte
	err error
}

func (t *fakeTransport) send(target string, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	t.out = append(t.out, payload)
	return nil
}

func (t *fakeTransport) last() groupwire.GroupRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	var req groupwire.GroupRequest
	_ = json.Unmarshal(t.out[len(t.out)-1], &req)
	return req
}

func newTestClient(transport *fakeTransport) *Client {
	return New(Config{
		AgentID: "agent-1",
		Send:    transport.send,
	})
}

func TestSendRequestHappyPath(t *testing.T) {
	transport := &fakeTransport{}
	c := newTestClient(transport)
	defer c.Close()

	done := make(chan struct{})
	var resp *groupwire.GroupResponse
	var reqErr error
	go func() {
		resp, reqErr = c.SendRequest(context.Background(), "server", "g1", "send_message", map[string]string{"content": "hi"}, time.Second)
		close(done)
	}()

	// Wait until the request is registered, then simulate the server's reply.
	waitForPending(t, c, 1)
	req := transport.last()
	if req.Action != "send_message" || req.GroupID != "g1" {
		t.Fatalf("unexpected outbound request: %+v", req)
	}

	reply, _ := groupwire.Encode(&groupwire.GroupResponse{
		Action:    "send_message",
		RequestID: req.RequestID,
		GroupID:   "g1",
		Code:      0,
		Data:      json.RawMessage(`{"msg_id":42}`),
	})
	c.HandleIncoming(reply)

	<-done
	if reqErr != nil {
		t.Fatalf("unexpected error: %v", reqErr)
	}
	if !resp.Success() {
		t.Fatalf("expected success response, got %+v", resp)
	}
	if c.PendingCount() != 0 {
		t.Fatalf("expected no pending requests after reply, got %d", c.PendingCount())
	}
}

func TestSendRequestTimeout(t *testing.T) {
	transport := &fakeTransport{}
	c := newTestClient(transport)
	defer c.Close()

	_, err := c.SendRequest(context.Background(), "server", "g1", "send_message", nil, 10*time.Millisecond)
	var timeoutErr *groupwire.TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected TimeoutError, got %v (%T)", err, err)
	}
	if c.PendingCount() != 0 {
		t.Fatalf("expected pending cleared after timeout, got %d", c.PendingCount())
	}
}

func TestSendRequestCancelledOnClose(t *testing.T) {
	transport := &fakeTransport{}
	c := newTestClient(transport)

	errCh := make(chan error, 1)
	go func() {
		_, err := c.SendRequest(context.Background(), "server", "g1", "send_message", nil, 5*time.Second)
		errCh <- err
	}()

	waitForPending(t, c, 1)
	c.Close()

	select {
	case err := <-errCh:
		var cancelled *groupwire.CancelledError
		if !errors.As(err, &cancelled) {
			t.Fatalf("expected CancelledError, got %v (%T)", err, err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for cancellation on close")
	}
}

func TestSendRequestAfterCloseReturnsClientClosedError(t *testing.T) {
	transport := &fakeTransport{}
	c := newTestClient(transport)
	c.Close()

	_, err := c.SendRequest(context.Background(), "server", "g1", "send_message", nil, time.Second)
	var closedErr *groupwire.ClientClosedError
	if !errors.As(err, &closedErr) {
		t.Fatalf("expected ClientClosedError, got %v (%T)", err, err)
	}
}

func TestSendRequestContextCancellation(t *testing.T) {
	transport := &fakeTransport{}
	c := newTestClient(transport)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := c.SendRequest(ctx, "server", "g1", "send_message", nil, 5*time.Second)
		errCh <- err
	}()

	waitForPending(t, c, 1)
	cancel()

	select {
	case err := <-errCh:
		var cancelled *groupwire.CancelledError
		if !errors.As(err, &cancelled) {
			t.Fatalf("expected CancelledError, got %v (%T)", err, err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ctx cancellation")
	}
}

func TestSendFailureReturnsSendFailedError(t *testing.T) {
	sendErr := errors.New("transport down")
	transport := &fakeTransport{err: sendErr}
	c := newTestClient(transport)
	defer c.Close()

	_, err := c.SendRequest(context.Background(), "server", "g1", "send_message", nil, time.Second)
	var sf *groupwire.SendFailedError
	if !errors.As(err, &sf) {
		t.Fatalf("expected SendFailedError, got %v (%T)", err, err)
	}
	if !errors.Is(err, sendErr) {
		t.Fatalf("expected wrapped cause to unwrap to sendErr")
	}
}

// --- router precedence scenarios ---

type testHandler struct {
	mu sync.Mutex

	newMessageGroup string
	newMessageID    int64
	pushedGroup     string
	pushedMsg       groupwire.GroupMessage
	batchGroup      string
	batchCount      int
	newEventCount   int
	newEventID      int64
}

func (h *testHandler) OnNewMessage(groupID string, latestMsgID int64, sender, preview string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.newMessageGroup = groupID
	h.newMessageID = latestMsgID
}
func (h *testHandler) OnNewEvent(groupID string, latestEventID int64, eventType, actor string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.newEventCount++
	h.newEventID = latestEventID
}
func (h *testHandler) OnGroupInvite(string, string, string)          {}
func (h *testHandler) OnJoinApproved(string, string)                 {}
func (h *testHandler) OnJoinRejected(string, string, string)         {}
func (h *testHandler) OnJoinRequestReceived(string, string, string)  {}
func (h *testHandler) OnGroupEvent(string, string, string, string)   {}

func (h *testHandler) OnGroupMessage(groupID string, msg groupwire.GroupMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pushedGroup = groupID
	h.pushedMsg = msg
}

func (h *testHandler) OnGroupMessageBatch(groupID string, batch groupwire.GroupMessageBatch) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.batchGroup = groupID
	h.batchCount = batch.Count
}

var _ groupevents.EventHandler = (*testHandler)(nil)
var _ groupevents.GroupMessagePushHandler = (*testHandler)(nil)
var _ groupevents.GroupMessageBatchHandler = (*testHandler)(nil)

func TestHandleIncomingMatchedResponseWithEmbeddedEventDispatchesOnce(t *testing.T) {
	transport := &fakeTransport{}
	c := newTestClient(transport)
	defer c.Close()
	h := &testHandler{}
	c.SetHandler(h)

	errCh := make(chan error, 1)
	go func() {
		_, err := c.SendRequest(context.Background(), "server", "g1", "leave_group", nil, time.Second)
		errCh <- err
	}()
	waitForPending(t, c, 1)
	req := transport.last()

	reply, _ := groupwire.Encode(&groupwire.GroupResponse{
		Action: "leave_group", RequestID: req.RequestID, GroupID: "g1", Code: 0,
	})
	// Simulate a response that also embeds a notification event, by hand
	// assembling a frame with both response and event fields present.
	var asMap map[string]interface{}
	_ = json.Unmarshal(reply, &asMap)
	asMap["event"] = groupwire.EventNewEvent
	asMap["data"] = json.RawMessage(`{"latest_event_id":9,"event_type":"member_left","actor":"bob"}`)
	frame, _ := json.Marshal(asMap)

	c.HandleIncoming(frame)
	if err := <-errCh; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.newEventCount != 1 || h.newEventID != 9 {
		t.Fatalf("expected embedded event dispatched exactly once with id 9, got count=%d id=%d", h.newEventCount, h.newEventID)
	}
}

func TestHandleIncomingOrphanResponseFallsThroughToNotification(t *testing.T) {
	transport := &fakeTransport{}
	c := newTestClient(transport)
	defer c.Close()
	h := &testHandler{}
	c.SetHandler(h)

	frame, _ := json.Marshal(map[string]interface{}{
		"action":     "send_message",
		"request_id": "stale-request-id",
		"group_id":   "g1",
		"code":       0,
		"event":      groupwire.EventNewMessage,
		"data":       json.RawMessage(`{"latest_msg_id":5,"sender":"carol","preview":"hey"}`),
	})

	c.HandleIncoming(frame)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.newMessageGroup != "g1" || h.newMessageID != 5 {
		t.Fatalf("expected orphan response to fall through to notification, got %+v", h)
	}
}

func TestHandleIncomingSinglePushDualDispatch(t *testing.T) {
	transport := &fakeTransport{}
	c := newTestClient(transport)
	defer c.Close()
	h := &testHandler{}
	c.SetHandler(h)

	msg := groupwire.GroupMessage{MsgID: 7, Sender: "dave", Content: "hello group", Timestamp: 100}
	data, _ := json.Marshal(msg)
	frame, _ := json.Marshal(map[string]interface{}{
		"action":   groupwire.ActionMessagePush,
		"group_id": "g2",
		"data":     json.RawMessage(data),
	})

	c.HandleIncoming(frame)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pushedGroup != "g2" || h.pushedMsg.MsgID != 7 {
		t.Fatalf("expected direct push dispatch, got %+v", h)
	}
	if h.newMessageGroup != "g2" || h.newMessageID != 7 {
		t.Fatalf("expected synthesized notification dispatch, got %+v", h)
	}
}

func TestHandleIncomingBatchPushSingleDispatchOnly(t *testing.T) {
	transport := &fakeTransport{}
	c := newTestClient(transport)
	defer c.Close()
	h := &testHandler{}
	c.SetHandler(h)

	batch := groupwire.GroupMessageBatch{
		Messages:    []groupwire.GroupMessage{{MsgID: 1}, {MsgID: 2}},
		StartMsgID:  1,
		LatestMsgID: 2,
	}
	data, _ := json.Marshal(batch)
	frame, _ := json.Marshal(map[string]interface{}{
		"action":   groupwire.ActionMessageBatchPush,
		"group_id": "g3",
		"data":     json.RawMessage(data),
	})

	c.HandleIncoming(frame)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.batchGroup != "g3" || h.batchCount != 2 {
		t.Fatalf("expected batch dispatch, got %+v", h)
	}
	if h.newMessageGroup != "" {
		t.Fatalf("batch push must not synthesize a notification, got %+v", h)
	}
}

func TestHandleIncomingUnhandledActionDoesNotPanic(t *testing.T) {
	transport := &fakeTransport{}
	c := newTestClient(transport)
	defer c.Close()

	frame, _ := json.Marshal(map[string]interface{}{"action": "something_unknown"})
	c.HandleIncoming(frame)
}

func waitForPending(t *testing.T, c *Client, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if c.PendingCount() == n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for pending count == %d (got %d)", n, c.PendingCount())
}
