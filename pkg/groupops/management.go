package groupops

import (
	"context"

	"github.com/google/uuid"
)

// RemoveMember removes member from gid.
func (c *Client) RemoveMember(ctx context.Context, target, gid, member string) error {
	_, err := c.call(ctx, target, gid, "remove_member", map[string]interface{}{"member": member})
	return err
}

// LeaveGroup removes the calling agent from gid.
func (c *Client) LeaveGroup(ctx context.Context, target, gid string) error {
	_, err := c.call(ctx, target, gid, "leave_group", nil)
	return err
}

// DissolveGroup dissolves gid entirely.
func (c *Client) DissolveGroup(ctx context.Context, target, gid string) error {
	_, err := c.call(ctx, target, gid, "dissolve_group", nil)
	return err
}

// BanAgent bans member from gid for reason.
func (c *Client) BanAgent(ctx context.Context, target, gid, member, reason string) error {
	_, err := c.call(ctx, target, gid, "ban_agent", omitEmpty(map[string]interface{}{
		"member": member,
		"reason": reason,
	}))
	return err
}

// UnbanAgent lifts a ban on member in gid.
func (c *Client) UnbanAgent(ctx context.Context, target, gid, member string) error {
	_, err := c.call(ctx, target, gid, "unban_agent", map[string]interface{}{"member": member})
	return err
}

// BanlistEntry is one row of "get_banlist".
type BanlistEntry struct {
	Member    string `json:"member"`
	Reason    string `json:"reason"`
	BannedBy  string `json:"banned_by"`
	Timestamp int64  `json:"timestamp"`
}

// GetBanlist returns gid's current ban list.
func (c *Client) GetBanlist(ctx context.Context, target, gid string) ([]BanlistEntry, error) {
	resp, err := c.call(ctx, target, gid, "get_banlist", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Entries []BanlistEntry `json:"entries"`
	}
	decode(resp.Data, &out)
	return out.Entries, nil
}

// RequestJoinResult is the typed "request_join" response.
type RequestJoinResult struct {
	Status string `json:"status"` // "joined" or "pending"
}

// RequestJoin asks to join gid, carrying an optional message.
func (c *Client) RequestJoin(ctx context.Context, target, gid, message string) (RequestJoinResult, error) {
	resp, err := c.call(ctx, target, gid, "request_join", omitEmpty(map[string]interface{}{
		"message":         message,
		"idempotency_key": uuid.New().String(),
	}))
	if err != nil {
		return RequestJoinResult{}, err
	}
	var out RequestJoinResult
	decode(resp.Data, &out)
	return out, nil
}

// ReviewJoinRequest approves or rejects applicant's pending join request.
func (c *Client) ReviewJoinRequest(ctx context.Context, target, gid, applicant string, approve bool, reason string) error {
	_, err := c.call(ctx, target, gid, "review_join_request", omitEmpty(map[string]interface{}{
		"applicant": applicant,
		"approve":   approve,
		"reason":    reason,
	}))
	return err
}

// BatchReviewJoinRequests applies one approve/reject decision to every
// applicant in applicants.
func (c *Client) BatchReviewJoinRequests(ctx context.Context, target, gid string, applicants []string, approve bool, reason string) error {
	_, err := c.call(ctx, target, gid, "batch_review_join_requests", omitEmpty(map[string]interface{}{
		"applicants": applicants,
		"approve":    approve,
		"reason":     reason,
	}))
	return err
}

// PendingRequestEntry is one row of "get_pending_requests".
type PendingRequestEntry struct {
	Applicant string `json:"applicant"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// GetPendingRequests lists gid's outstanding join requests.
func (c *Client) GetPendingRequests(ctx context.Context, target, gid string) ([]PendingRequestEntry, error) {
	resp, err := c.call(ctx, target, gid, "get_pending_requests", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Requests []PendingRequestEntry `json:"requests"`
	}
	decode(resp.Data, &out)
	return out.Requests, nil
}
