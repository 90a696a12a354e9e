package groupevents

// EventProcessor is the capability set for structured group events,
// dispatched by DispatchEvent. Unlike EventHandler (notification
// summaries), every method here corresponds to a fully-typed structured
// event payload.
type EventProcessor interface {
	OnMemberJoined(groupID string, member string, role string)
	OnMemberRemoved(groupID string, member string, actor string)
	OnMemberLeft(groupID string, member string)
	OnMemberBanned(groupID string, member string, actor string, reason string)
	OnMemberUnbanned(groupID string, member string, actor string)
	OnAnnouncementUpdated(groupID string, actor string, announcement string)
	OnRulesUpdated(groupID string, actor string)
	OnMetaUpdated(groupID string, actor string)
	OnGroupDissolved(groupID string, actor string)
	OnMasterTransferred(groupID string, from string, to string)
	OnGroupSuspended(groupID string, actor string, reason string)
	OnGroupResumed(groupID string, actor string)
	OnJoinRequirementsUpdated(groupID string, actor string)
	OnInviteCodeCreated(groupID string, actor string, code string)
	OnInviteCodeRevoked(groupID string, actor string, code string)
}
