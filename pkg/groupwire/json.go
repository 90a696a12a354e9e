package groupwire

import (
	"encoding/json"
	"fmt"
)

// Encode marshals v to JSON, wrapping any failure in a "groupwire:"-prefixed
// error (the encoding/json cause stays reachable via errors.Unwrap).
func Encode(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("groupwire: cannot encode nil value")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("groupwire: encode failed: %w", err)
	}
	return data, nil
}

// Decode unmarshals data into v, wrapping any failure in a "groupwire:"-prefixed
// error (the encoding/json cause stays reachable via errors.Unwrap).
func Decode(data []byte, v interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("groupwire: cannot decode empty payload")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("groupwire: decode failed: %w", err)
	}
	return nil
}

// ParseIncoming sniffs an arbitrary inbound payload without committing to a
// specific frame type, tolerating missing fields. Callers use the returned
// frame's populated fields to decide routing per the precedence rules in
// groupclient.
func ParseIncoming(payload []byte) (*IncomingFrame, error) {
	var f IncomingFrame
	if err := json.Unmarshal(payload, &f); err != nil {
		return nil, fmt.Errorf("groupwire: malformed incoming payload: %w", err)
	}
	return &f, nil
}

// HasRequestID reports whether the frame carries a non-empty request id.
func (f *IncomingFrame) HasRequestID() bool { return f.RequestID != "" }

// ActionName returns the frame's action field.
func (f *IncomingFrame) ActionName() string { return f.Action }

// RequestIDOf returns the frame's request_id field.
func (f *IncomingFrame) RequestIDOf() string { return f.RequestID }

// GroupIDOf returns the frame's group_id field.
func (f *IncomingFrame) GroupIDOf() string { return f.GroupID }

// RawData returns the frame's raw data payload.
func (f *IncomingFrame) RawData() json.RawMessage { return f.Data }

// HasEvent reports whether the frame carries a non-empty notification event.
func (f *IncomingFrame) HasEvent() bool { return f.Event != "" }

// CodeOr returns the response code, or def when the frame has no code
// field. AsResponse passes 0 (success) as def.
func (f *IncomingFrame) CodeOr(def int) int {
	if f.Code == nil {
		return def
	}
	return *f.Code
}

// AsResponse converts the sniffed frame into a GroupResponse.
func (f *IncomingFrame) AsResponse() *GroupResponse {
	return &GroupResponse{
		Action:    f.Action,
		RequestID: f.RequestID,
		GroupID:   f.GroupID,
		Code:      f.CodeOr(0),
		Error:     f.Error,
		Data:      f.Data,
	}
}

// AsNotify converts the sniffed frame into a GroupNotify.
func (f *IncomingFrame) AsNotify() *GroupNotify {
	return &GroupNotify{
		Action:    f.Action,
		GroupID:   f.GroupID,
		Event:     f.Event,
		Data:      f.Data,
		Timestamp: f.Timestamp,
	}
}

// BuildMessageNotifyData builds the "data" payload for a synthesized
// "group_message" notification from a pushed message. It is shaped
// identically to "new_message" so a single handler method (OnNewMessage)
// can serve both.
func BuildMessageNotifyData(msg GroupMessage) json.RawMessage {
	preview := msg.Content
	const maxPreview = 120
	if len(preview) > maxPreview {
		preview = preview[:maxPreview]
	}
	data, err := json.Marshal(struct {
		LatestMsgID int64  `json:"latest_msg_id"`
		Sender      string `json:"sender"`
		Preview     string `json:"preview"`
	}{LatestMsgID: msg.MsgID, Sender: msg.Sender, Preview: preview})
	if err != nil {
		return nil
	}
	return data
}

// ParseMessage tolerantly decodes a GroupMessage from raw JSON, substituting
// zero values for any missing field rather than failing.
func ParseMessage(data json.RawMessage) (GroupMessage, error) {
	var m GroupMessage
	if len(data) == 0 {
		return m, fmt.Errorf("groupwire: empty message payload")
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("groupwire: malformed message: %w", err)
	}
	return m, nil
}

// ParseMessageBatch tolerantly decodes a GroupMessageBatch. An individual
// malformed element inside "messages" is skipped rather than failing the
// whole batch.
func ParseMessageBatch(data json.RawMessage) (GroupMessageBatch, error) {
	var raw struct {
		Messages    []json.RawMessage `json:"messages"`
		StartMsgID  int64             `json:"start_msg_id"`
		LatestMsgID int64             `json:"latest_msg_id"`
		Count       int               `json:"count"`
	}
	if len(data) == 0 {
		return GroupMessageBatch{}, fmt.Errorf("groupwire: empty batch payload")
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return GroupMessageBatch{}, fmt.Errorf("groupwire: malformed batch: %w", err)
	}

	batch := GroupMessageBatch{
		StartMsgID:  raw.StartMsgID,
		LatestMsgID: raw.LatestMsgID,
	}
	for _, elem := range raw.Messages {
		var m GroupMessage
		if err := json.Unmarshal(elem, &m); err != nil {
			continue
		}
		batch.Messages = append(batch.Messages, m)
	}
	batch.Count = len(batch.Messages)
	return batch, nil
}
