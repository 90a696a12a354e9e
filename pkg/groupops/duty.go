package groupops

import "context"

// DutyConfig configures the duty-rotation subsystem for gid.
type DutyConfig struct {
	Enabled       bool     `json:"enabled"`
	RotationHours int      `json:"rotation_hours"`
	FixedAgents   []string `json:"fixed_agents,omitempty"`
}

// UpdateDutyConfig replaces gid's duty configuration.
func (c *Client) UpdateDutyConfig(ctx context.Context, target, gid string, cfg DutyConfig) error {
	_, err := c.call(ctx, target, gid, "update_duty_config", cfg)
	return err
}

// SetFixedAgents pins gid's duty rotation to a fixed agent list.
func (c *Client) SetFixedAgents(ctx context.Context, target, gid string, agents []string) error {
	_, err := c.call(ctx, target, gid, "set_fixed_agents", map[string]interface{}{"agents": agents})
	return err
}

// DutyStatus is the typed "get_duty_status" response.
type DutyStatus struct {
	Enabled     bool   `json:"enabled"`
	CurrentDuty string `json:"current_duty"`
	NextRotate  int64  `json:"next_rotate"`
}

// GetDutyStatus returns gid's current duty rotation state.
func (c *Client) GetDutyStatus(ctx context.Context, target, gid string) (DutyStatus, error) {
	resp, err := c.call(ctx, target, gid, "get_duty_status", nil)
	if err != nil {
		return DutyStatus{}, err
	}
	var out DutyStatus
	decode(resp.Data, &out)
	return out, nil
}

// RefreshMemberTypes asks the server to recompute member role/type
// classifications for gid (e.g. after a bulk role change).
func (c *Client) RefreshMemberTypes(ctx context.Context, target, gid string) error {
	_, err := c.call(ctx, target, gid, "refresh_member_types", nil)
	return err
}
