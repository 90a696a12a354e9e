package groupops

import "context"

// SyncStatus is the typed "get_sync_status" response.
type SyncStatus struct {
	LocalMsgCursor   int64 `json:"local_msg_cursor"`
	ServerMsgCursor  int64 `json:"server_msg_cursor"`
	InSync           bool  `json:"in_sync"`
}

// GetSyncStatus compares gid's local and server cursor positions.
func (c *Client) GetSyncStatus(ctx context.Context, target, gid string) (SyncStatus, error) {
	resp, err := c.call(ctx, target, gid, "get_sync_status", nil)
	if err != nil {
		return SyncStatus{}, err
	}
	var out SyncStatus
	decode(resp.Data, &out)
	return out, nil
}

// SyncLogEntry is one row of "get_sync_log".
type SyncLogEntry struct {
	Timestamp int64  `json:"timestamp"`
	Action    string `json:"action"`
	Detail    string `json:"detail"`
}

// GetSyncLog returns gid's recent synchronization history.
func (c *Client) GetSyncLog(ctx context.Context, target, gid string) ([]SyncLogEntry, error) {
	resp, err := c.call(ctx, target, gid, "get_sync_log", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Entries []SyncLogEntry `json:"entries"`
	}
	decode(resp.Data, &out)
	return out.Entries, nil
}

// GetChecksum returns gid's current state checksum, useful for a cheap
// out-of-sync detector before paying for a full sync_group pass.
func (c *Client) GetChecksum(ctx context.Context, target, gid string) (string, error) {
	return c.getText(ctx, target, gid, "get_checksum", "checksum")
}

// GetMessageChecksum returns gid's message-log-only checksum.
func (c *Client) GetMessageChecksum(ctx context.Context, target, gid string) (string, error) {
	return c.getText(ctx, target, gid, "get_message_checksum", "checksum")
}

// PublicInfo is the typed "get_public_info" response — the subset of
// GroupInfo visible to non-members.
type PublicInfo struct {
	GroupID     string `json:"group_id"`
	GroupName   string `json:"group_name"`
	MemberCount int    `json:"member_count"`
	InviteOnly  bool   `json:"invite_only"`
}

// GetPublicInfo returns gid's publicly visible descriptor.
func (c *Client) GetPublicInfo(ctx context.Context, target, gid string) (PublicInfo, error) {
	resp, err := c.call(ctx, target, gid, "get_public_info", nil)
	if err != nil {
		return PublicInfo{}, err
	}
	var out PublicInfo
	decode(resp.Data, &out)
	return out, nil
}

// SearchGroups searches publicly discoverable groups matching query.
func (c *Client) SearchGroups(ctx context.Context, target, query string, limit int) ([]PublicInfo, error) {
	resp, err := c.call(ctx, target, "", "search_groups", omitEmpty(map[string]interface{}{
		"query": query,
		"limit": limit,
	}))
	if err != nil {
		return nil, err
	}
	var out struct {
		Groups []PublicInfo `json:"groups"`
	}
	decode(resp.Data, &out)
	return out.Groups, nil
}

// DigestResult is the typed "generate_digest"/"get_digest" response.
type DigestResult struct {
	Digest    string `json:"digest"`
	Period    string `json:"period"`
	Generated int64  `json:"generated_at"`
}

// GenerateDigest requests a fresh activity digest for gid covering period
// (e.g. "daily", "weekly").
func (c *Client) GenerateDigest(ctx context.Context, target, gid, period string) (DigestResult, error) {
	resp, err := c.call(ctx, target, gid, "generate_digest", map[string]interface{}{"period": period})
	if err != nil {
		return DigestResult{}, err
	}
	var out DigestResult
	decode(resp.Data, &out)
	return out, nil
}

// GetDigest returns the most recently generated digest for gid.
func (c *Client) GetDigest(ctx context.Context, target, gid string) (DigestResult, error) {
	resp, err := c.call(ctx, target, gid, "get_digest", nil)
	if err != nil {
		return DigestResult{}, err
	}
	var out DigestResult
	decode(resp.Data, &out)
	return out, nil
}
