// Package groupevents implements the event dispatcher: translating typed
// notifications and structured group events into handler method
// invocations against a closed, named-event switch, since the group
// protocol's notification and event vocabularies are fixed rather than
// arbitrary topics.
package groupevents

import "github.com/fluxorio/groupclient/pkg/groupwire"

// EventHandler is the capability set for notification-level callbacks.
// Implementations that also want single-push delivery should additionally
// implement GroupMessagePushHandler.
type EventHandler interface {
	OnNewMessage(groupID string, latestMsgID int64, sender string, preview string)
	OnNewEvent(groupID string, latestEventID int64, eventType string, actor string)
	OnGroupInvite(groupID string, inviter string, message string)
	OnJoinApproved(groupID string, reviewer string)
	OnJoinRejected(groupID string, reviewer string, reason string)
	OnJoinRequestReceived(groupID string, applicant string, message string)
	OnGroupEvent(groupID string, eventType string, actor string, target string)
}

// GroupMessagePushHandler is the optional capability invoked for the
// message_push action. An EventHandler that doesn't implement this is
// simply skipped for the direct-push callback; it still observes the
// synthesized "group_message" notification through OnNewMessage (via
// DispatchNotify), since every single push also dual-dispatches a
// notification.
type GroupMessagePushHandler interface {
	OnGroupMessage(groupID string, msg groupwire.GroupMessage)
}

// GroupMessageBatchHandler is the optional capability invoked for the
// message_batch_push action.
type GroupMessageBatchHandler interface {
	OnGroupMessageBatch(groupID string, batch groupwire.GroupMessageBatch)
}
