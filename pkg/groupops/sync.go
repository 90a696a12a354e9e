package groupops

import (
	"context"

	"github.com/fluxorio/groupclient/pkg/groupwire"
)

// SyncHandler receives the message/event pages sync_group delivers.
type SyncHandler interface {
	OnMessages(gid string, msgs []groupwire.GroupMessage)
	OnEvents(gid string, evs []groupwire.GroupEvent)
}

// SyncGroup runs a reconciliation loop: it reads the server's
// authoritative cursor, reconciles it against any stronger local
// position, then pages through pull_messages/ack_messages and
// pull_events/ack_events until each stream reports no more data. ctx lets a
// caller cancel an in-flight sync cleanly without changing the algorithm
// itself.
func (c *Client) SyncGroup(ctx context.Context, target, gid string, handler SyncHandler) error {
	cursor, err := c.GetCursor(ctx, target, gid)
	if err != nil {
		return err
	}

	if c.cursors != nil {
		localMsg, localEvent := c.cursors.LoadCursor(gid)
		if localMsg > cursor.MsgCursor.Current {
			cursor.MsgCursor.Current = localMsg
		}
		if localEvent > cursor.EventCursor.Current {
			cursor.EventCursor.Current = localEvent
		}
	}

	if err := c.syncMessages(ctx, target, gid, cursor.MsgCursor.Current, handler); err != nil {
		return err
	}
	return c.syncEvents(ctx, target, gid, cursor.EventCursor.Current, handler)
}

func (c *Client) syncMessages(ctx context.Context, target, gid string, after int64, handler SyncHandler) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := c.PullMessages(ctx, target, gid, after, c.pageSize)
		if err != nil {
			return err
		}
		c.metrics.SyncPagesTotal.WithLabelValues(gid, "messages").Inc()

		if len(result.Messages) == 0 {
			// An empty page with has_more still true would livelock a
			// naive loop, so every empty page ends the sync regardless
			// of has_more.
			return nil
		}

		if c.messages != nil {
			c.messages.AddMessages(gid, result.Messages)
		}
		if handler != nil {
			handler.OnMessages(gid, result.Messages)
		}

		lastID := result.Messages[len(result.Messages)-1].MsgID
		if err := c.AckMessages(ctx, target, gid, lastID); err != nil {
			return err
		}
		c.metrics.CursorAcksTotal.WithLabelValues(gid, "messages").Inc()
		after = lastID

		if !result.HasMore {
			return nil
		}
	}
}

func (c *Client) syncEvents(ctx context.Context, target, gid string, after int64, handler SyncHandler) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := c.PullEvents(ctx, target, gid, after, c.pageSize)
		if err != nil {
			return err
		}
		c.metrics.SyncPagesTotal.WithLabelValues(gid, "events").Inc()

		if len(result.Events) == 0 {
			return nil
		}

		if handler != nil {
			handler.OnEvents(gid, result.Events)
		}

		lastID := result.Events[len(result.Events)-1].EventID
		if err := c.AckEvents(ctx, target, gid, lastID); err != nil {
			return err
		}
		c.metrics.CursorAcksTotal.WithLabelValues(gid, "events").Inc()
		after = lastID

		if !result.HasMore {
			return nil
		}
	}
}
