package groupops

import "context"

// GroupInfo is the typed "get_group_info" response.
type GroupInfo struct {
	GroupID     string `json:"group_id"`
	GroupName   string `json:"group_name"`
	MemberCount int    `json:"member_count"`
	Master      string `json:"master"`
	Suspended   bool   `json:"suspended"`
	CreatedAt   int64  `json:"created_at"`
}

// GetGroupInfo returns gid's current descriptor.
func (c *Client) GetGroupInfo(ctx context.Context, target, gid string) (GroupInfo, error) {
	resp, err := c.call(ctx, target, gid, "get_group_info", nil)
	if err != nil {
		return GroupInfo{}, err
	}
	var out GroupInfo
	decode(resp.Data, &out)
	return out, nil
}

// UpdateGroupMeta updates gid's metadata blob.
func (c *Client) UpdateGroupMeta(ctx context.Context, target, gid string, meta map[string]interface{}) error {
	_, err := c.call(ctx, target, gid, "update_group_meta", map[string]interface{}{"meta": meta})
	return err
}

// Member is one row of "get_members" / "get_admins".
type Member struct {
	AgentID  string `json:"agent_id"`
	Role     string `json:"role"`
	JoinedAt int64  `json:"joined_at"`
}

// GetMembers lists gid's full membership.
func (c *Client) GetMembers(ctx context.Context, target, gid string) ([]Member, error) {
	return c.getMemberList(ctx, target, gid, "get_members")
}

// GetAdmins lists gid's admin-role members.
func (c *Client) GetAdmins(ctx context.Context, target, gid string) ([]Member, error) {
	return c.getMemberList(ctx, target, gid, "get_admins")
}

func (c *Client) getMemberList(ctx context.Context, target, gid, action string) ([]Member, error) {
	resp, err := c.call(ctx, target, gid, action, nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Members []Member `json:"members"`
	}
	decode(resp.Data, &out)
	return out.Members, nil
}

// GetRules returns gid's current rules text.
func (c *Client) GetRules(ctx context.Context, target, gid string) (string, error) {
	return c.getText(ctx, target, gid, "get_rules", "rules")
}

// UpdateRules replaces gid's rules text.
func (c *Client) UpdateRules(ctx context.Context, target, gid, rules string) error {
	_, err := c.call(ctx, target, gid, "update_rules", map[string]interface{}{"rules": rules})
	return err
}

// GetAnnouncement returns gid's current announcement text.
func (c *Client) GetAnnouncement(ctx context.Context, target, gid string) (string, error) {
	return c.getText(ctx, target, gid, "get_announcement", "announcement")
}

// UpdateAnnouncement replaces gid's announcement text.
func (c *Client) UpdateAnnouncement(ctx context.Context, target, gid, announcement string) error {
	_, err := c.call(ctx, target, gid, "update_announcement", map[string]interface{}{"announcement": announcement})
	return err
}

func (c *Client) getText(ctx context.Context, target, gid, action, field string) (string, error) {
	resp, err := c.call(ctx, target, gid, action, nil)
	if err != nil {
		return "", err
	}
	var out map[string]string
	decode(resp.Data, &out)
	return out[field], nil
}

// JoinRequirements is the typed "get_join_requirements" response.
type JoinRequirements struct {
	RequireApproval bool   `json:"require_approval"`
	InviteOnly      bool   `json:"invite_only"`
	MinLevel        string `json:"min_level"`
}

// GetJoinRequirements returns gid's current join policy.
func (c *Client) GetJoinRequirements(ctx context.Context, target, gid string) (JoinRequirements, error) {
	resp, err := c.call(ctx, target, gid, "get_join_requirements", nil)
	if err != nil {
		return JoinRequirements{}, err
	}
	var out JoinRequirements
	decode(resp.Data, &out)
	return out, nil
}

// UpdateJoinRequirements replaces gid's join policy.
func (c *Client) UpdateJoinRequirements(ctx context.Context, target, gid string, req JoinRequirements) error {
	_, err := c.call(ctx, target, gid, "update_join_requirements", req)
	return err
}

// SuspendGroup suspends gid for reason.
func (c *Client) SuspendGroup(ctx context.Context, target, gid, reason string) error {
	_, err := c.call(ctx, target, gid, "suspend_group", omitEmpty(map[string]interface{}{"reason": reason}))
	return err
}

// ResumeGroup lifts a suspension on gid.
func (c *Client) ResumeGroup(ctx context.Context, target, gid string) error {
	_, err := c.call(ctx, target, gid, "resume_group", nil)
	return err
}

// TransferMaster hands gid's master role to newMaster.
func (c *Client) TransferMaster(ctx context.Context, target, gid, newMaster string) error {
	_, err := c.call(ctx, target, gid, "transfer_master", map[string]interface{}{"new_master": newMaster})
	return err
}

// GetMaster returns gid's current master agent id.
func (c *Client) GetMaster(ctx context.Context, target, gid string) (string, error) {
	resp, err := c.call(ctx, target, gid, "get_master", nil)
	if err != nil {
		return "", err
	}
	var out struct {
		Master string `json:"master"`
	}
	decode(resp.Data, &out)
	return out.Master, nil
}
