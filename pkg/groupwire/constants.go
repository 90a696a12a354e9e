package groupwire

// Notification event constants.
const (
	EventNewMessage         = "new_message"
	EventNewEvent           = "new_event"
	EventGroupInvite        = "group_invite"
	EventJoinApproved       = "join_approved"
	EventJoinRejected       = "join_rejected"
	EventJoinRequestReceived = "join_request_received"
	EventGroupMessage       = "group_message"
	EventGroupEvent         = "group_event"
)

// Structured group event type constants, dispatched via EventProcessor
// rather than EventHandler.
const (
	StructuredMemberJoined            = "member_joined"
	StructuredMemberRemoved           = "member_removed"
	StructuredMemberLeft              = "member_left"
	StructuredMemberBanned            = "member_banned"
	StructuredMemberUnbanned          = "member_unbanned"
	StructuredMetaUpdated             = "meta_updated"
	StructuredRulesUpdated            = "rules_updated"
	StructuredAnnouncementUpdated     = "announcement_updated"
	StructuredGroupDissolved          = "group_dissolved"
	StructuredMasterTransferred       = "master_transferred"
	StructuredGroupSuspended          = "group_suspended"
	StructuredGroupResumed            = "group_resumed"
	StructuredJoinRequirementsUpdated = "join_requirements_updated"
	StructuredInviteCodeCreated       = "invite_code_created"
	StructuredInviteCodeRevoked       = "invite_code_revoked"
)

// Push action constants.
const (
	ActionMessagePush      = "message_push"
	ActionMessageBatchPush = "message_batch_push"
	ActionGroupNotify      = "group_notify"
)

// Action surface: every named protocol action the operation layer exposes.
const (
	ActionRegisterOnline   = "register_online"
	ActionUnregisterOnline = "unregister_online"
	ActionHeartbeat        = "heartbeat"

	ActionCreateGroup  = "create_group"
	ActionAddMember    = "add_member"
	ActionSendMessage  = "send_message"
	ActionPullMessages = "pull_messages"
	ActionAckMessages  = "ack_messages"
	ActionPullEvents   = "pull_events"
	ActionAckEvents    = "ack_events"
	ActionGetCursor    = "get_cursor"

	ActionRemoveMember             = "remove_member"
	ActionLeaveGroup               = "leave_group"
	ActionDissolveGroup            = "dissolve_group"
	ActionBanAgent                 = "ban_agent"
	ActionUnbanAgent               = "unban_agent"
	ActionGetBanlist               = "get_banlist"
	ActionRequestJoin              = "request_join"
	ActionReviewJoinRequest        = "review_join_request"
	ActionBatchReviewJoinRequests  = "batch_review_join_requests"
	ActionGetPendingRequests       = "get_pending_requests"

	ActionGetGroupInfo          = "get_group_info"
	ActionUpdateGroupMeta       = "update_group_meta"
	ActionGetMembers            = "get_members"
	ActionGetAdmins             = "get_admins"
	ActionGetRules              = "get_rules"
	ActionUpdateRules           = "update_rules"
	ActionGetAnnouncement       = "get_announcement"
	ActionUpdateAnnouncement    = "update_announcement"
	ActionGetJoinRequirements   = "get_join_requirements"
	ActionUpdateJoinReqs        = "update_join_requirements"
	ActionSuspendGroup          = "suspend_group"
	ActionResumeGroup           = "resume_group"
	ActionTransferMaster        = "transfer_master"
	ActionGetMaster             = "get_master"

	ActionCreateInviteCode = "create_invite_code"
	ActionUseInviteCode    = "use_invite_code"
	ActionListInviteCodes  = "list_invite_codes"
	ActionRevokeInviteCode = "revoke_invite_code"

	ActionAcquireBroadcastLock    = "acquire_broadcast_lock"
	ActionReleaseBroadcastLock    = "release_broadcast_lock"
	ActionCheckBroadcastPermission = "check_broadcast_permission"

	ActionUpdateDutyConfig   = "update_duty_config"
	ActionSetFixedAgents     = "set_fixed_agents"
	ActionGetDutyStatus      = "get_duty_status"
	ActionRefreshMemberTypes = "refresh_member_types"

	ActionGetSyncStatus      = "get_sync_status"
	ActionGetSyncLog         = "get_sync_log"
	ActionGetChecksum        = "get_checksum"
	ActionGetMessageChecksum = "get_message_checksum"
	ActionGetPublicInfo      = "get_public_info"
	ActionSearchGroups       = "search_groups"
	ActionGenerateDigest     = "generate_digest"
	ActionGetDigest          = "get_digest"

	ActionListMyGroups         = "list_my_groups"
	ActionUnregisterMembership = "unregister_membership"
	ActionChangeMemberRole     = "change_member_role"
	ActionGetFile              = "get_file"
	ActionGetSummary           = "get_summary"
	ActionGetMetrics           = "get_metrics"
)
