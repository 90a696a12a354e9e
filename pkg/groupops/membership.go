package groupops

import "context"

// MyGroupEntry is one row of "list_my_groups".
type MyGroupEntry struct {
	GroupID   string `json:"group_id"`
	GroupName string `json:"group_name"`
	Role      string `json:"role"`
	UnreadMsg int64  `json:"unread_messages"`
}

// ListMyGroups lists every group the calling agent currently belongs to.
func (c *Client) ListMyGroups(ctx context.Context, target string) ([]MyGroupEntry, error) {
	resp, err := c.call(ctx, target, "", "list_my_groups", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Groups []MyGroupEntry `json:"groups"`
	}
	decode(resp.Data, &out)
	return out.Groups, nil
}

// UnregisterMembership drops gid from the local membership index without
// leaving the group server-side (e.g. after the server already removed
// this agent and the client is reconciling its own view).
func (c *Client) UnregisterMembership(ctx context.Context, target, gid string) error {
	_, err := c.call(ctx, target, gid, "unregister_membership", nil)
	if err != nil {
		return err
	}
	if c.messages != nil {
		c.messages.DeleteGroup(gid)
	}
	if c.cursors != nil {
		c.cursors.RemoveCursor(gid)
	}
	return nil
}

// ChangeMemberRole updates member's role within gid.
func (c *Client) ChangeMemberRole(ctx context.Context, target, gid, member, role string) error {
	_, err := c.call(ctx, target, gid, "change_member_role", map[string]interface{}{
		"member": member,
		"role":   role,
	})
	return err
}

// FileRef is the typed "get_file" response.
type FileRef struct {
	URL       string `json:"url"`
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
}

// GetFile resolves a file reference (e.g. an attachment id) to a
// retrievable URL.
func (c *Client) GetFile(ctx context.Context, target, gid, fileID string) (FileRef, error) {
	resp, err := c.call(ctx, target, gid, "get_file", map[string]interface{}{"file_id": fileID})
	if err != nil {
		return FileRef{}, err
	}
	var out FileRef
	decode(resp.Data, &out)
	return out, nil
}

// Summary is the typed "get_summary" response.
type Summary struct {
	GroupID      string `json:"group_id"`
	MessageCount int64  `json:"message_count"`
	MemberCount  int    `json:"member_count"`
	LastActive   int64  `json:"last_active"`
}

// GetSummary returns a compact activity summary for gid.
func (c *Client) GetSummary(ctx context.Context, target, gid string) (Summary, error) {
	resp, err := c.call(ctx, target, gid, "get_summary", nil)
	if err != nil {
		return Summary{}, err
	}
	var out Summary
	decode(resp.Data, &out)
	return out, nil
}

// ServerMetrics is the typed "get_metrics" response — server-reported
// operational counters, distinct from this module's own client-side
// metrics package.
type ServerMetrics struct {
	ActiveGroups    int64 `json:"active_groups"`
	ActiveAgents    int64 `json:"active_agents"`
	MessagesPerHour int64 `json:"messages_per_hour"`
}

// GetMetrics returns the server's current operational metrics snapshot.
func (c *Client) GetMetrics(ctx context.Context, target string) (ServerMetrics, error) {
	resp, err := c.call(ctx, target, "", "get_metrics", nil)
	if err != nil {
		return ServerMetrics{}, err
	}
	var out ServerMetrics
	decode(resp.Data, &out)
	return out, nil
}
