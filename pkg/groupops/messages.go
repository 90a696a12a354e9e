package groupops

import (
	"context"

	"github.com/fluxorio/groupclient/pkg/groupwire"
)

// CreateGroupResult is the typed "create_group" response.
type CreateGroupResult struct {
	GroupID   string `json:"group_id"`
	GroupName string `json:"group_name"`
}

// CreateGroup creates a new group named name.
func (c *Client) CreateGroup(ctx context.Context, target, name string) (CreateGroupResult, error) {
	resp, err := c.call(ctx, target, "", "create_group", map[string]interface{}{"group_name": name})
	if err != nil {
		return CreateGroupResult{}, err
	}
	var out CreateGroupResult
	decode(resp.Data, &out)
	return out, nil
}

// AddMember adds member to gid.
func (c *Client) AddMember(ctx context.Context, target, gid, member string) error {
	_, err := c.call(ctx, target, gid, "add_member", map[string]interface{}{"member": member})
	return err
}

// SendMessageResult is the typed "send_message" response.
type SendMessageResult struct {
	MsgID     int64 `json:"msg_id"`
	Timestamp int64 `json:"timestamp"`
}

// SendMessage sends content (of contentType) to gid.
func (c *Client) SendMessage(ctx context.Context, target, gid, content, contentType string) (SendMessageResult, error) {
	resp, err := c.call(ctx, target, gid, "send_message", map[string]interface{}{
		"content":      content,
		"content_type": contentType,
	})
	if err != nil {
		return SendMessageResult{}, err
	}
	var out SendMessageResult
	decode(resp.Data, &out)
	return out, nil
}

// PullMessagesResult is the typed "pull_messages" response.
type PullMessagesResult struct {
	Messages    []groupwire.GroupMessage `json:"messages"`
	HasMore     bool                     `json:"has_more"`
	LatestMsgID int64                    `json:"latest_msg_id"`
}

// PullMessages implements the two wire modes the protocol supports:
// afterMsgID > 0 selects an explicit cursor; afterMsgID == 0 with limit ==
// 0 selects auto mode (server infers the starting point); afterMsgID == 0
// with limit > 0 sends only the limit.
func (c *Client) PullMessages(ctx context.Context, target, gid string, afterMsgID int64, limit int) (PullMessagesResult, error) {
	resp, err := c.call(ctx, target, gid, "pull_messages", pullParams(afterMsgID, limit))
	if err != nil {
		return PullMessagesResult{}, err
	}
	var out PullMessagesResult
	decode(resp.Data, &out)
	return out, nil
}

func pullParams(after int64, limit int) interface{} {
	switch {
	case after > 0:
		p := map[string]interface{}{"after_msg_id": after}
		if limit > 0 {
			p["limit"] = limit
		}
		return p
	case limit > 0:
		return map[string]interface{}{"limit": limit}
	default:
		return nil
	}
}

// AckMessages acknowledges gid up to msgID and, on success, advances the
// local cursor store — the only writer of msg_cursor.
func (c *Client) AckMessages(ctx context.Context, target, gid string, msgID int64) error {
	_, err := c.call(ctx, target, gid, "ack_messages", map[string]interface{}{"msg_id": msgID})
	if err != nil {
		return err
	}
	if c.cursors != nil {
		c.cursors.SaveMsgCursor(gid, msgID)
	}
	return nil
}

// PullEventsResult is the typed "pull_events" response.
type PullEventsResult struct {
	Events        []groupwire.GroupEvent `json:"events"`
	HasMore       bool                   `json:"has_more"`
	LatestEventID int64                  `json:"latest_event_id"`
}

// PullEvents is the event-log analogue of PullMessages.
func (c *Client) PullEvents(ctx context.Context, target, gid string, afterEventID int64, limit int) (PullEventsResult, error) {
	resp, err := c.call(ctx, target, gid, "pull_events", pullParams(afterEventID, limit))
	if err != nil {
		return PullEventsResult{}, err
	}
	var out PullEventsResult
	decode(resp.Data, &out)
	return out, nil
}

// AckEvents is the event-log analogue of AckMessages.
func (c *Client) AckEvents(ctx context.Context, target, gid string, eventID int64) error {
	_, err := c.call(ctx, target, gid, "ack_events", map[string]interface{}{"event_id": eventID})
	if err != nil {
		return err
	}
	if c.cursors != nil {
		c.cursors.SaveEventCursor(gid, eventID)
	}
	return nil
}

// GetCursor returns the server's authoritative cursor state for gid.
func (c *Client) GetCursor(ctx context.Context, target, gid string) (groupwire.CursorState, error) {
	resp, err := c.call(ctx, target, gid, "get_cursor", nil)
	if err != nil {
		return groupwire.CursorState{}, err
	}
	var out groupwire.CursorState
	decode(resp.Data, &out)
	return out, nil
}
