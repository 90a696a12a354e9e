package groupevents

import (
	"encoding/json"
	"testing"

	"github.com/fluxorio/groupclient/pkg/groupwire"
)

type recordingHandler struct {
	newMessageGroup string
	newMessageID    int64
	newMessageFrom  string
	lastEvent       string
}

func (h *recordingHandler) OnNewMessage(groupID string, latestMsgID int64, sender string, preview string) {
	h.newMessageGroup = groupID
	h.newMessageID = latestMsgID
	h.newMessageFrom = sender
}
func (h *recordingHandler) OnNewEvent(string, int64, string, string)         {}
func (h *recordingHandler) OnGroupInvite(string, string, string)            {}
func (h *recordingHandler) OnJoinApproved(string, string)                   {}
func (h *recordingHandler) OnJoinRejected(string, string, string)           {}
func (h *recordingHandler) OnJoinRequestReceived(string, string, string)    {}
func (h *recordingHandler) OnGroupEvent(groupID, eventType, actor, target string) {
	h.lastEvent = eventType
}

func TestDispatchNotifyKnownEvent(t *testing.T) {
	h := &recordingHandler{}
	notify := &groupwire.GroupNotify{
		GroupID: "g",
		Event:   groupwire.EventNewMessage,
		Data:    json.RawMessage(`{"latest_msg_id":7,"sender":"s","preview":"hi"}`),
	}

	if !DispatchNotify(h, notify) {
		t.Fatal("expected dispatch to report handled")
	}
	if h.newMessageGroup != "g" || h.newMessageID != 7 || h.newMessageFrom != "s" {
		t.Fatalf("unexpected handler state: %+v", h)
	}
}

func TestDispatchNotifyUnknownEventReturnsFalse(t *testing.T) {
	h := &recordingHandler{}
	notify := &groupwire.GroupNotify{GroupID: "g", Event: "something_new"}
	if DispatchNotify(h, notify) {
		t.Fatal("expected unknown event to report unhandled")
	}
}

func TestDispatchNotifyNilHandlerDoesNotPanic(t *testing.T) {
	notify := &groupwire.GroupNotify{GroupID: "g", Event: groupwire.EventNewMessage}
	if DispatchNotify(nil, notify) {
		t.Fatal("expected false with no handler registered")
	}
}

type panickyHandler struct{ recordingHandler }

func (p *panickyHandler) OnNewMessage(string, int64, string, string) { panic("boom") }

func TestDispatchNotifyRecoversFromHandlerPanic(t *testing.T) {
	h := &panickyHandler{}
	notify := &groupwire.GroupNotify{GroupID: "g", Event: groupwire.EventNewMessage}

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic should have been recovered inside dispatch, got %v", r)
		}
	}()
	DispatchNotify(h, notify)
}

type recordingProcessor struct {
	joinedMember string
	joinedGroup  string
}

func (p *recordingProcessor) OnMemberJoined(groupID, member, role string) {
	p.joinedGroup = groupID
	p.joinedMember = member
}
func (p *recordingProcessor) OnMemberRemoved(string, string, string)            {}
func (p *recordingProcessor) OnMemberLeft(string, string)                      {}
func (p *recordingProcessor) OnMemberBanned(string, string, string, string)     {}
func (p *recordingProcessor) OnMemberUnbanned(string, string, string)           {}
func (p *recordingProcessor) OnAnnouncementUpdated(string, string, string)      {}
func (p *recordingProcessor) OnRulesUpdated(string, string)                     {}
func (p *recordingProcessor) OnMetaUpdated(string, string)                      {}
func (p *recordingProcessor) OnGroupDissolved(string, string)                  {}
func (p *recordingProcessor) OnMasterTransferred(string, string, string)        {}
func (p *recordingProcessor) OnGroupSuspended(string, string, string)          {}
func (p *recordingProcessor) OnGroupResumed(string, string)                    {}
func (p *recordingProcessor) OnJoinRequirementsUpdated(string, string)         {}
func (p *recordingProcessor) OnInviteCodeCreated(string, string, string)       {}
func (p *recordingProcessor) OnInviteCodeRevoked(string, string, string)       {}

func TestDispatchEventFallsBackToMsgType(t *testing.T) {
	p := &recordingProcessor{}
	payload := []byte(`{"group_id":"g1","data":{"member":"alice","role":"admin"}}`)

	if !DispatchEvent(p, groupwire.StructuredMemberJoined, payload) {
		t.Fatal("expected dispatch to succeed")
	}
	if p.joinedGroup != "g1" || p.joinedMember != "alice" {
		t.Fatalf("unexpected processor state: %+v", p)
	}
}
