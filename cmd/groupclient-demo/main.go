// Command groupclient-demo wires groupclient, groupops, cursorstore, and
// messagestore together over an in-process loopback transport, exercising
// the send/receive round trip and a printf-style event handler. It is a
// wiring example, not a production agent.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fluxorio/groupclient/pkg/corelog"
	"github.com/fluxorio/groupclient/pkg/cursorstore"
	"github.com/fluxorio/groupclient/pkg/groupclient"
	"github.com/fluxorio/groupclient/pkg/groupops"
	"github.com/fluxorio/groupclient/pkg/groupwire"
	"github.com/fluxorio/groupclient/pkg/messagestore"
)

// loopbackHandler hands the next outbound request straight back to its own
// client as a canned success response, standing in for a real remote peer.
type loopbackHandler struct {
	client *groupclient.Client
}

func (h *loopbackHandler) send(_ string, payload []byte) error {
	var req groupwire.GroupRequest
	if err := groupwire.Decode(payload, &req); err != nil {
		return err
	}
	resp := groupwire.GroupResponse{
		Action:    req.Action,
		RequestID: req.RequestID,
		GroupID:   req.GroupID,
		Code:      0,
	}
	data, err := groupwire.Encode(&resp)
	if err != nil {
		return err
	}
	go h.client.HandleIncoming(data)
	return nil
}

// printHandler logs every notification it receives; it satisfies
// groupevents.EventHandler via the logger-backed methods below.
type printHandler struct {
	log corelog.Logger
}

func (p *printHandler) OnNewMessage(groupID string, latestMsgID int64, sender, preview string) {
	p.log.Infof("new_message group=%s msg_id=%d sender=%s preview=%q", groupID, latestMsgID, sender, preview)
}
func (p *printHandler) OnNewEvent(groupID string, latestEventID int64, eventType, actor string) {
	p.log.Infof("new_event group=%s event_id=%d type=%s actor=%s", groupID, latestEventID, eventType, actor)
}
func (p *printHandler) OnGroupInvite(groupID, inviter, message string) {
	p.log.Infof("group_invite group=%s inviter=%s message=%q", groupID, inviter, message)
}
func (p *printHandler) OnJoinApproved(groupID, reviewer string) {
	p.log.Infof("join_approved group=%s reviewer=%s", groupID, reviewer)
}
func (p *printHandler) OnJoinRejected(groupID, reviewer, reason string) {
	p.log.Infof("join_rejected group=%s reviewer=%s reason=%q", groupID, reviewer, reason)
}
func (p *printHandler) OnJoinRequestReceived(groupID, applicant, message string) {
	p.log.Infof("join_request group=%s applicant=%s message=%q", groupID, applicant, message)
}
func (p *printHandler) OnGroupEvent(groupID, eventType, actor, target string) {
	p.log.Infof("group_event group=%s type=%s actor=%s target=%s", groupID, eventType, actor, target)
}

func main() {
	log := corelog.NewDefaultLogger()

	cursors := cursorstore.New("")
	messages := messagestore.New(messagestore.DefaultConfig())
	_ = messages.Load("demo-agent")

	transport := &loopbackHandler{}
	core := groupclient.New(groupclient.Config{
		AgentID:      "demo-agent",
		Send:         transport.send,
		CursorStore:  cursors,
		MessageStore: messages,
		Logger:       log,
	})
	transport.client = core
	core.SetHandler(&printHandler{log: log})

	ops := groupops.New(core, cursors, messages, groupops.Config{Logger: log})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := ops.CreateGroup(ctx, "demo-target", "Demo Group")
	if err != nil {
		log.Errorf("create_group failed: %v", err)
	} else {
		log.Infof("create_group ok: %+v", result)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	fmt.Println("groupclient-demo running, press Ctrl+C to exit")
	<-sig

	core.Close()
	messages.Close()
}
