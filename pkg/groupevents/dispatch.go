package groupevents

import (
	"encoding/json"

	"github.com/fluxorio/groupclient/pkg/corelog"
	"github.com/fluxorio/groupclient/pkg/groupwire"
)

var defaultLog corelog.Logger = corelog.NewDefaultLogger()

// SetLogger overrides the package-level logger used to report handler
// panics and unknown events.
func SetLogger(l corelog.Logger) { defaultLog = l }

func fieldsOf(data json.RawMessage) map[string]interface{} {
	if len(data) == 0 {
		return map[string]interface{}{}
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]interface{}{}
	}
	if out == nil {
		out = map[string]interface{}{}
	}
	return out
}

func str(fields map[string]interface{}, key string) string {
	if v, ok := fields[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func i64(fields map[string]interface{}, key string) int64 {
	if v, ok := fields[key]; ok {
		switch n := v.(type) {
		case float64:
			return int64(n)
		case int64:
			return n
		}
	}
	return 0
}

// safeCall runs fn, recovering and logging any panic so one misbehaving
// handler can never disrupt the router.
func safeCall(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			defaultLog.Errorf("groupevents: handler %s panicked: %v", name, r)
		}
	}()
	fn()
}

// DispatchNotify switches on notify.Event against the closed notification
// enumeration and invokes the matching EventHandler method. Unknown events
// return false without raising.
func DispatchNotify(handler EventHandler, notify *groupwire.GroupNotify) bool {
	if handler == nil {
		defaultLog.Warnf("groupevents: dropping notify %q for %s: no handler registered", notify.Event, notify.GroupID)
		return false
	}
	fields := fieldsOf(notify.Data)
	gid := notify.GroupID

	switch notify.Event {
	case groupwire.EventNewMessage:
		safeCall("OnNewMessage", func() {
			handler.OnNewMessage(gid, i64(fields, "latest_msg_id"), str(fields, "sender"), str(fields, "preview"))
		})
	case groupwire.EventNewEvent:
		safeCall("OnNewEvent", func() {
			handler.OnNewEvent(gid, i64(fields, "latest_event_id"), str(fields, "event_type"), str(fields, "actor"))
		})
	case groupwire.EventGroupInvite:
		safeCall("OnGroupInvite", func() {
			handler.OnGroupInvite(gid, str(fields, "inviter"), str(fields, "message"))
		})
	case groupwire.EventJoinApproved:
		safeCall("OnJoinApproved", func() {
			handler.OnJoinApproved(gid, str(fields, "reviewer"))
		})
	case groupwire.EventJoinRejected:
		safeCall("OnJoinRejected", func() {
			handler.OnJoinRejected(gid, str(fields, "reviewer"), str(fields, "reason"))
		})
	case groupwire.EventJoinRequestReceived:
		safeCall("OnJoinRequestReceived", func() {
			handler.OnJoinRequestReceived(gid, str(fields, "applicant"), str(fields, "message"))
		})
	case groupwire.EventGroupMessage:
		// Synthesized by the router alongside message_push; surfaced here
		// as OnNewMessage so notification-only subscribers observe it too.
		safeCall("OnNewMessage", func() {
			handler.OnNewMessage(gid, i64(fields, "latest_msg_id"), str(fields, "sender"), str(fields, "preview"))
		})
	case groupwire.EventGroupEvent:
		safeCall("OnGroupEvent", func() {
			handler.OnGroupEvent(gid, str(fields, "event_type"), str(fields, "actor"), str(fields, "target"))
		})
	default:
		defaultLog.Warnf("groupevents: unhandled notify event %q for group %s", notify.Event, gid)
		return false
	}
	return true
}

// DispatchEvent parses payload as JSON, extracts group_id and event
// (falling back to msgType when event is absent), and dispatches to the
// matching EventProcessor method.
func DispatchEvent(processor EventProcessor, msgType string, payload []byte) bool {
	if processor == nil {
		defaultLog.Warnf("groupevents: dropping structured event %q: no processor registered", msgType)
		return false
	}

	var envelope struct {
		GroupID string          `json:"group_id"`
		Event   string          `json:"event"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		defaultLog.Warnf("groupevents: malformed structured event payload: %v", err)
		return false
	}

	event := envelope.Event
	if event == "" {
		event = msgType
	}
	fields := fieldsOf(envelope.Data)
	if len(fields) == 0 {
		fields = fieldsOf(payload)
	}
	gid := envelope.GroupID
	if gid == "" {
		gid = str(fields, "group_id")
	}

	switch event {
	case groupwire.StructuredMemberJoined:
		safeCall("OnMemberJoined", func() {
			processor.OnMemberJoined(gid, str(fields, "member"), str(fields, "role"))
		})
	case groupwire.StructuredMemberRemoved:
		safeCall("OnMemberRemoved", func() {
			processor.OnMemberRemoved(gid, str(fields, "member"), str(fields, "actor"))
		})
	case groupwire.StructuredMemberLeft:
		safeCall("OnMemberLeft", func() {
			processor.OnMemberLeft(gid, str(fields, "member"))
		})
	case groupwire.StructuredMemberBanned:
		safeCall("OnMemberBanned", func() {
			processor.OnMemberBanned(gid, str(fields, "member"), str(fields, "actor"), str(fields, "reason"))
		})
	case groupwire.StructuredMemberUnbanned:
		safeCall("OnMemberUnbanned", func() {
			processor.OnMemberUnbanned(gid, str(fields, "member"), str(fields, "actor"))
		})
	case groupwire.StructuredAnnouncementUpdated:
		safeCall("OnAnnouncementUpdated", func() {
			processor.OnAnnouncementUpdated(gid, str(fields, "actor"), str(fields, "announcement"))
		})
	case groupwire.StructuredRulesUpdated:
		safeCall("OnRulesUpdated", func() {
			processor.OnRulesUpdated(gid, str(fields, "actor"))
		})
	case groupwire.StructuredMetaUpdated:
		safeCall("OnMetaUpdated", func() {
			processor.OnMetaUpdated(gid, str(fields, "actor"))
		})
	case groupwire.StructuredGroupDissolved:
		safeCall("OnGroupDissolved", func() {
			processor.OnGroupDissolved(gid, str(fields, "actor"))
		})
	case groupwire.StructuredMasterTransferred:
		safeCall("OnMasterTransferred", func() {
			processor.OnMasterTransferred(gid, str(fields, "from"), str(fields, "to"))
		})
	case groupwire.StructuredGroupSuspended:
		safeCall("OnGroupSuspended", func() {
			processor.OnGroupSuspended(gid, str(fields, "actor"), str(fields, "reason"))
		})
	case groupwire.StructuredGroupResumed:
		safeCall("OnGroupResumed", func() {
			processor.OnGroupResumed(gid, str(fields, "actor"))
		})
	case groupwire.StructuredJoinRequirementsUpdated:
		safeCall("OnJoinRequirementsUpdated", func() {
			processor.OnJoinRequirementsUpdated(gid, str(fields, "actor"))
		})
	case groupwire.StructuredInviteCodeCreated:
		safeCall("OnInviteCodeCreated", func() {
			processor.OnInviteCodeCreated(gid, str(fields, "actor"), str(fields, "code"))
		})
	case groupwire.StructuredInviteCodeRevoked:
		safeCall("OnInviteCodeRevoked", func() {
			processor.OnInviteCodeRevoked(gid, str(fields, "actor"), str(fields, "code"))
		})
	default:
		defaultLog.Warnf("groupevents: unhandled structured event %q for group %s", event, gid)
		return false
	}
	return true
}
