package groupops

import "context"

// RegisterOnline announces presence to target (action "register_online").
func (c *Client) RegisterOnline(ctx context.Context, target string) error {
	_, err := c.call(ctx, target, "", "register_online", nil)
	return err
}

// UnregisterOnline withdraws presence from target.
func (c *Client) UnregisterOnline(ctx context.Context, target string) error {
	_, err := c.call(ctx, target, "", "unregister_online", nil)
	return err
}

// Heartbeat keeps the presence session alive.
func (c *Client) Heartbeat(ctx context.Context, target string) error {
	_, err := c.call(ctx, target, "", "heartbeat", nil)
	return err
}
