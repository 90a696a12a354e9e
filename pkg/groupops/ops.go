// Package groupops implements a group operations facade: a typed wrapper
// over each of the group protocol's actions, plus the sync_group
// reconciliation loop and group-URL join helpers. Every operation follows
// the same skeleton: build params, call the underlying client's
// SendRequest, fail with a *groupwire.GroupError on a non-zero response
// code, and decode typed fields from the response data.
package groupops

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/fluxorio/groupclient/pkg/corelog"
	"github.com/fluxorio/groupclient/pkg/cursorstore"
	"github.com/fluxorio/groupclient/pkg/failfast"
	"github.com/fluxorio/groupclient/pkg/groupclient"
	"github.com/fluxorio/groupclient/pkg/groupwire"
	"github.com/fluxorio/groupclient/pkg/messagestore"
	"github.com/fluxorio/groupclient/pkg/metrics"
)

// Config configures a Client at construction time, covering the
// core-level options not already owned by groupclient/cursorstore/
// messagestore.
type Config struct {
	// SyncPageSize is the page size sync_group uses for pull_messages /
	// pull_events. Defaults to 50.
	SyncPageSize int
	// DefaultTimeout is the timeout passed to every operation call.
	// Defaults to 30s.
	DefaultTimeout time.Duration
	// InviteCodeSigningKey signs invite-code JWTs minted by
	// create_invite_code. A nil key disables signing and
	// use_invite_code/create_invite_code operate on opaque server-issued
	// strings only.
	InviteCodeSigningKey []byte

	Logger  corelog.Logger
	Metrics *metrics.Metrics
	Tracer  trace.Tracer
}

// Client is the C5 operations facade, layered over a C3 groupclient.Client.
type Client struct {
	core     *groupclient.Client
	cursors  cursorstore.Store
	messages messagestore.Store

	pageSize       int
	defaultTimeout time.Duration
	signingKey     []byte

	log     corelog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// New constructs a Client. Panics (fail-fast) if core is nil — a programmer
// error, not a runtime condition. cursors and messages may be nil; ops that
// use them (ack_messages/ack_events cursor writes, sync_group's message-store
// mirroring, unregister_membership's local cleanup) degrade to skipping the
// local write rather than failing.
func New(core *groupclient.Client, cursors cursorstore.Store, messages messagestore.Store, cfg Config) *Client {
	failfast.NotNil(core, "core")

	if cfg.SyncPageSize <= 0 {
		cfg.SyncPageSize = 50
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = corelog.NewDefaultLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NoOp()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer("groupops")
	}

	return &Client{
		core:           core,
		cursors:        cursors,
		messages:       messages,
		pageSize:       cfg.SyncPageSize,
		defaultTimeout: cfg.DefaultTimeout,
		signingKey:     cfg.InviteCodeSigningKey,
		log:            cfg.Logger,
		metrics:        cfg.Metrics,
		tracer:         cfg.Tracer,
	}
}

// call issues action and fails with a *groupwire.GroupError on a non-zero
// response code — the "build params, send, check code" skeleton every
// operation in this package shares.
func (c *Client) call(ctx context.Context, target, gid, action string, params interface{}) (*groupwire.GroupResponse, error) {
	ctx, span := c.tracer.Start(ctx, "groupops."+action)
	defer span.End()

	resp, err := c.core.SendRequest(ctx, target, gid, action, params, c.defaultTimeout)
	if err != nil {
		return nil, err
	}
	if !resp.Success() {
		return nil, groupwire.NewGroupError(action, resp.Code, resp.Error, gid)
	}
	return resp, nil
}

// decode unmarshals resp.Data into out, tolerating an absent payload: a
// zero-value out is left untouched rather than erroring.
func decode(data json.RawMessage, out interface{}) {
	if len(data) == 0 || out == nil {
		return
	}
	_ = json.Unmarshal(data, out)
}

func omitEmpty(m map[string]interface{}) map[string]interface{} {
	for k, v := range m {
		switch x := v.(type) {
		case string:
			if x == "" {
				delete(m, k)
			}
		case int64:
			if x == 0 {
				delete(m, k)
			}
		case int:
			if x == 0 {
				delete(m, k)
			}
		}
	}
	return m
}
