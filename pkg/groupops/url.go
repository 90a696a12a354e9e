package groupops

import (
	"context"
	"fmt"
	"strings"
)

// GroupURL is the parsed form of a group-URL:
// "{http|https}://{host}/{group_id}[?query][#frag]".
type GroupURL struct {
	TargetAID string
	GroupID   string
}

// ParseGroupURL strips the scheme, splits host from path at the first "/",
// strips any query string and fragment from the path, and strips trailing
// slashes. Fails if either the resulting host or group id is empty.
func ParseGroupURL(url string) (GroupURL, error) {
	rest := url
	if idx := strings.Index(rest, "://"); idx >= 0 {
		rest = rest[idx+3:]
	}

	slash := strings.IndexByte(rest, '/')
	var host, path string
	if slash < 0 {
		host, path = rest, ""
	} else {
		host, path = rest[:slash], rest[slash+1:]
	}

	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		path = path[:idx]
	}
	if idx := strings.IndexByte(path, '#'); idx >= 0 {
		path = path[:idx]
	}
	path = strings.TrimRight(path, "/")

	if host == "" || path == "" {
		return GroupURL{}, fmt.Errorf("groupops: malformed group url %q: host and group id must be non-empty", url)
	}
	return GroupURL{TargetAID: host, GroupID: path}, nil
}

// JoinResult is the outcome of JoinByURL.
type JoinResult struct {
	Status string // "joined" or "pending"
}

// JoinByURL joins the group identified by url. If inviteCode is non-empty
// it redeems that code directly; otherwise it files a join request
// carrying message, whose response status depends on the group's
// visibility.
func (c *Client) JoinByURL(ctx context.Context, url, inviteCode, message string) (JoinResult, error) {
	parsed, err := ParseGroupURL(url)
	if err != nil {
		return JoinResult{}, err
	}

	if inviteCode != "" {
		if err := c.UseInviteCode(ctx, parsed.TargetAID, parsed.GroupID, inviteCode); err != nil {
			return JoinResult{}, err
		}
		return JoinResult{Status: "joined"}, nil
	}

	res, err := c.RequestJoin(ctx, parsed.TargetAID, parsed.GroupID, message)
	if err != nil {
		return JoinResult{}, err
	}
	return JoinResult{Status: res.Status}, nil
}
