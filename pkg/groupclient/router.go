package groupclient

import (
	"fmt"

	"github.com/fluxorio/groupclient/pkg/groupevents"
	"github.com/fluxorio/groupclient/pkg/groupwire"
)

// HandleIncoming routes one inbound frame by precedence: a matched
// response first (additionally dispatching an embedded event exactly
// once), then an orphan response falling through to the notification
// path, then notifications, then single and batch pushes, with an
// "unhandled incoming" warning as the final fallback. It never blocks on
// user code for long and never lets a handler panic escape — malformed
// frames and handler failures are logged and swallowed.
func (c *Client) HandleIncoming(payload []byte) {
	frame, err := groupwire.ParseIncoming(payload)
	if err != nil {
		c.log.Warnf("groupclient: dropping malformed incoming frame: %v", err)
		return
	}

	if frame.HasRequestID() {
		requestID := frame.RequestIDOf()
		c.mu.Lock()
		pending, ok := c.pending[requestID]
		if ok {
			delete(c.pending, requestID)
		}
		c.mu.Unlock()

		if ok {
			c.metrics.PendingRequests.Set(float64(c.PendingCount()))
			c.metrics.FramesRoutedTotal.WithLabelValues("response").Inc()
			resp := frame.AsResponse()
			select {
			case pending.resultCh <- pendingOutcome{resp: resp}:
			default:
				c.log.Warnf("groupclient: reply dropped, result channel unready for request_id=%s", requestID)
			}
			if frame.HasEvent() {
				c.dispatchNotify(frame.AsNotify())
			}
			return
		}

		// Orphan response: no matching pending request. It may still
		// carry an event, so fall through to the notification path
		// rather than returning.
		c.log.Warnf("groupclient: orphan response for request_id=%s (no pending request)", requestID)
	}

	if frame.HasEvent() {
		c.metrics.FramesRoutedTotal.WithLabelValues("notify").Inc()
		c.dispatchNotify(frame.AsNotify())
		return
	}

	switch {
	case frame.ActionName() == groupwire.ActionMessagePush && len(frame.RawData()) > 0:
		c.handleMessagePush(frame)
		return
	case frame.ActionName() == groupwire.ActionMessageBatchPush && len(frame.RawData()) > 0:
		c.handleMessageBatchPush(frame)
		return
	}

	c.metrics.FramesRoutedTotal.WithLabelValues("unhandled").Inc()
	c.log.Warnf("groupclient: unhandled incoming action=%q group=%q", frame.ActionName(), frame.GroupIDOf())
}

func (c *Client) dispatchNotify(notify *groupwire.GroupNotify) {
	groupevents.DispatchNotify(c.currentHandler(), notify)
}

func (c *Client) handleMessagePush(frame *groupwire.IncomingFrame) {
	msg, err := groupwire.ParseMessage(frame.RawData())
	if err != nil {
		c.log.Warnf("groupclient: dropping malformed message_push for group %s: %v", frame.GroupIDOf(), err)
		return
	}
	c.metrics.FramesRoutedTotal.WithLabelValues("push_single").Inc()

	if c.messageStore != nil {
		c.messageStore.AddMessage(frame.GroupIDOf(), msg)
	}

	if handler := c.currentHandler(); handler != nil {
		if pusher, ok := handler.(groupevents.GroupMessagePushHandler); ok {
			c.safeInvoke("OnGroupMessage", func() { pusher.OnGroupMessage(frame.GroupIDOf(), msg) })
		}
	}

	// Spec.md §4.3 step 4: additionally synthesize a "group_message"
	// notification so subscribers that only listen to notifications also
	// observe single pushes.
	synthetic := &groupwire.GroupNotify{
		Action:    groupwire.ActionGroupNotify,
		GroupID:   frame.GroupIDOf(),
		Event:     groupwire.EventGroupMessage,
		Data:      groupwire.BuildMessageNotifyData(msg),
		Timestamp: msg.Timestamp,
	}
	c.dispatchNotify(synthetic)
}

func (c *Client) handleMessageBatchPush(frame *groupwire.IncomingFrame) {
	batch, err := groupwire.ParseMessageBatch(frame.RawData())
	if err != nil {
		c.log.Warnf("groupclient: dropping malformed message_batch_push for group %s: %v", frame.GroupIDOf(), err)
		return
	}
	c.metrics.FramesRoutedTotal.WithLabelValues("push_batch").Inc()

	if c.messageStore != nil {
		c.messageStore.AddMessages(frame.GroupIDOf(), batch.Messages)
	}

	if handler := c.currentHandler(); handler != nil {
		if pusher, ok := handler.(groupevents.GroupMessageBatchHandler); ok {
			c.safeInvoke("OnGroupMessageBatch", func() { pusher.OnGroupMessageBatch(frame.GroupIDOf(), batch) })
		}
	}
}

func (c *Client) safeInvoke(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Errorf("groupclient: handler %s panicked: %v", name, fmt.Sprint(r))
		}
	}()
	fn()
}
