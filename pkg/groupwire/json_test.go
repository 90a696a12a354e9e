package groupwire

import (
	"encoding/json"
	"testing"
)

func TestParseIncomingResponse(t *testing.T) {
	payload := []byte(`{"action":"heartbeat","request_id":"a-1-1","code":0,"group_id":""}`)
	f, err := ParseIncoming(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.HasRequestID() {
		t.Fatal("expected request id to be present")
	}
	if f.HasEvent() {
		t.Fatal("did not expect an event")
	}
	resp := f.AsResponse()
	if !resp.Success() {
		t.Fatalf("expected success response, got code=%d", resp.Code)
	}
}

func TestParseIncomingMalformed(t *testing.T) {
	if _, err := ParseIncoming([]byte("not json")); err == nil {
		t.Fatal("expected an error for malformed payload")
	}
}

func TestParseMessageBatchSkipsMalformedElements(t *testing.T) {
	raw := json.RawMessage(`{
		"messages": [{"msg_id":1,"sender":"a"}, "not-an-object", {"msg_id":2,"sender":"b"}],
		"start_msg_id": 1,
		"latest_msg_id": 2
	}`)
	batch, err := ParseMessageBatch(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Messages) != 2 {
		t.Fatalf("expected 2 surviving messages, got %d", len(batch.Messages))
	}
	if batch.Count != 2 {
		t.Fatalf("expected count == 2, got %d", batch.Count)
	}
}

func TestGroupErrorMessage(t *testing.T) {
	err := NewGroupError("send_message", CodeGroupNotFound, "", "g1")
	want := "send_message failed: code=1001 error=group not found"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}

	withServerText := NewGroupError("send_message", CodeGroupNotFound, "custom text", "g1")
	want2 := "send_message failed: code=1001 error=custom text"
	if withServerText.Error() != want2 {
		t.Fatalf("got %q, want %q", withServerText.Error(), want2)
	}
}
