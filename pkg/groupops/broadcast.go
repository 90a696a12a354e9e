package groupops

import "context"

// AcquireBroadcastLock requests exclusive broadcast rights for gid.
func (c *Client) AcquireBroadcastLock(ctx context.Context, target, gid string) error {
	_, err := c.call(ctx, target, gid, "acquire_broadcast_lock", nil)
	return err
}

// ReleaseBroadcastLock releases a previously acquired broadcast lock.
func (c *Client) ReleaseBroadcastLock(ctx context.Context, target, gid string) error {
	_, err := c.call(ctx, target, gid, "release_broadcast_lock", nil)
	return err
}

// CheckBroadcastPermission reports whether the calling agent currently
// holds broadcast rights for gid.
func (c *Client) CheckBroadcastPermission(ctx context.Context, target, gid string) (bool, error) {
	resp, err := c.call(ctx, target, gid, "check_broadcast_permission", nil)
	if err != nil {
		return false, err
	}
	var out struct {
		Allowed bool `json:"allowed"`
	}
	decode(resp.Data, &out)
	return out.Allowed, nil
}
