package groupops

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// inviteClaims is embedded in an invite-code JWT so the code is
// self-verifying client-side before it is ever sent to the server.
type inviteClaims struct {
	jwt.RegisteredClaims
	GroupID string `json:"group_id"`
	Issuer  string `json:"iss_agent"`
}

// CreateInviteCodeResult is the typed "create_invite_code" response.
type CreateInviteCodeResult struct {
	Code      string `json:"code"`
	ExpiresAt int64  `json:"expires_at"`
}

// CreateInviteCode requests a new invite code for gid valid for ttl. When
// the Client was constructed with an InviteCodeSigningKey, the server's
// opaque code is additionally wrapped in a locally-verifiable JWT carrying
// group_id and expiry, so ValidateInviteCode can reject a code bound to a
// different group before round-tripping to the server. A code that fails
// JWT verification (expired, or not signed with this key) is not rejected
// locally: ValidateInviteCode passes it through unchanged as an opaque code.
func (c *Client) CreateInviteCode(ctx context.Context, target, gid string, ttl time.Duration) (CreateInviteCodeResult, error) {
	resp, err := c.call(ctx, target, gid, "create_invite_code", map[string]interface{}{
		"ttl_seconds":     int64(ttl.Seconds()),
		"idempotency_key": uuid.New().String(),
	})
	if err != nil {
		return CreateInviteCodeResult{}, err
	}
	var out CreateInviteCodeResult
	decode(resp.Data, &out)

	if c.signingKey != nil && out.Code != "" {
		signed, signErr := c.signInviteCode(gid, out.Code, ttl)
		if signErr == nil {
			out.Code = signed
		} else {
			c.log.Warnf("groupops: failed to sign invite code for %s: %v", gid, signErr)
		}
	}
	return out, nil
}

func (c *Client) signInviteCode(gid, serverCode string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := inviteClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   serverCode,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		GroupID: gid,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.signingKey)
}

// ValidateInviteCode locally verifies a JWT-wrapped invite code (minted by
// CreateInviteCode with a signing key configured) and returns the server
// code to pass to UseInviteCode. If the Client has no signing key
// configured, or code is not a JWT this client minted, it is returned
// unchanged — callers always fall back to treating it as an opaque code.
func (c *Client) ValidateInviteCode(gid, code string) (string, error) {
	if c.signingKey == nil {
		return code, nil
	}
	var claims inviteClaims
	token, err := jwt.ParseWithClaims(code, &claims, func(*jwt.Token) (interface{}, error) {
		return c.signingKey, nil
	})
	if err != nil || !token.Valid {
		return code, nil
	}
	if claims.GroupID != "" && claims.GroupID != gid {
		return "", fmt.Errorf("groupops: invite code was issued for group %q, not %q", claims.GroupID, gid)
	}
	return claims.Subject, nil
}

// UseInviteCode redeems code to join gid.
func (c *Client) UseInviteCode(ctx context.Context, target, gid, code string) error {
	serverCode, err := c.ValidateInviteCode(gid, code)
	if err != nil {
		return err
	}
	_, err = c.call(ctx, target, gid, "use_invite_code", map[string]interface{}{"code": serverCode})
	return err
}

// InviteCodeEntry is one row of "list_invite_codes".
type InviteCodeEntry struct {
	Code      string `json:"code"`
	CreatedBy string `json:"created_by"`
	ExpiresAt int64  `json:"expires_at"`
}

// ListInviteCodes lists gid's currently active invite codes.
func (c *Client) ListInviteCodes(ctx context.Context, target, gid string) ([]InviteCodeEntry, error) {
	resp, err := c.call(ctx, target, gid, "list_invite_codes", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Codes []InviteCodeEntry `json:"codes"`
	}
	decode(resp.Data, &out)
	return out.Codes, nil
}

// RevokeInviteCode invalidates code for gid.
func (c *Client) RevokeInviteCode(ctx context.Context, target, gid, code string) error {
	_, err := c.call(ctx, target, gid, "revoke_invite_code", map[string]interface{}{"code": code})
	return err
}
