// Package groupclient implements the transport correlator and incoming
// frame router: it issues requests over an externally supplied send
// function, correlates responses by request_id, routes notifications and
// pushes to the registered handler, and cancels every outstanding request
// on Close.
package groupclient

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/fluxorio/groupclient/pkg/corelog"
	"github.com/fluxorio/groupclient/pkg/cursorstore"
	"github.com/fluxorio/groupclient/pkg/failfast"
	"github.com/fluxorio/groupclient/pkg/groupevents"
	"github.com/fluxorio/groupclient/pkg/groupwire"
	"github.com/fluxorio/groupclient/pkg/messagestore"
	"github.com/fluxorio/groupclient/pkg/metrics"
)

// SendFunc delivers a serialized frame to targetID over the externally
// supplied bidirectional transport. It may return an error to signal a
// send failure.
type SendFunc func(targetID string, payload []byte) error

// Config configures a Client at construction time.
type Config struct {
	// AgentID is this client's identity, embedded in every request_id.
	AgentID string
	// Send delivers outbound frames. Required.
	Send SendFunc
	// CursorStore is consulted only by the operation layer's ack_messages
	// / ack_events wrappers; the client itself only owns its lifecycle
	// (closing it on Client.Close).
	CursorStore cursorstore.Store
	// MessageStore, if set, receives every message_push/message_batch_push
	// frame the router observes: inbound frames flow to {pending future} ∪
	// {handler} ∪ {message store}. Optional; a nil store simply skips the
	// local mirror.
	MessageStore messagestore.Store
	// DefaultTimeout applies to any SendRequest call without an explicit
	// per-call timeout. Defaults to 30s.
	DefaultTimeout time.Duration
	// Logger overrides the default logger.
	Logger corelog.Logger
	// Metrics overrides the default (no-op) metrics sink.
	Metrics *metrics.Metrics
	// Tracer overrides the default otel tracer ("groupclient").
	Tracer trace.Tracer
}

type pendingOutcome struct {
	resp      *groupwire.GroupResponse
	cancelled bool
}

type pendingRequest struct {
	requestID string
	action    string
	groupID   string
	resultCh  chan pendingOutcome
}

type handlerHolder struct {
	handler groupevents.EventHandler
}

// Client is the C3 correlator/router. Bound to one identity and one send
// function; single-use lifecycle (construct, operate, Close).
type Client struct {
	agentID        string
	send           SendFunc
	cursorStore    cursorstore.Store
	messageStore   messagestore.Store
	defaultTimeout time.Duration
	log            corelog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer

	seq atomic.Int64

	handlerVal atomic.Value // handlerHolder

	mu      sync.Mutex
	pending map[string]*pendingRequest
	closed  bool
}

// New constructs a Client. Panics (fail-fast) if cfg.Send is nil — that is
// a programmer error, not a runtime condition.
func New(cfg Config) *Client {
	failfast.NotNil(cfg.Send, "Config.Send")

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
		cfg.Tracer = otel.Tracer("groupclient")
	}

	c := &Client{
		agentID:        cfg.AgentID,
		send:           cfg.Send,
		cursorStore:    cfg.CursorStore,
		messageStore:   cfg.MessageStore,
		defaultTimeout: cfg.DefaultTimeout,
		log:            cfg.Logger,
		metrics:        cfg.Metrics,
		tracer:         cfg.Tracer,
		pending:        make(map[string]*pendingRequest),
	}
	c.handlerVal.Store(handlerHolder{})
	return c
}

// SetHandler registers (or replaces) the event handler used for
// notification and push routing. Safe to call concurrently with
// HandleIncoming.
func (c *Client) SetHandler(h groupevents.EventHandler) {
	c.handlerVal.Store(handlerHolder{handler: h})
}

func (c *Client) currentHandler() groupevents.EventHandler {
	holder, _ := c.handlerVal.Load().(handlerHolder)
	return holder.handler
}

// nextRequestID embeds a uuid-derived correlation suffix, the way
// pkg/bus/bus.go's newReplyTopic() uses uuid.New() to keep reply topics
// collision-free across concurrently outstanding requests.
func (c *Client) nextRequestID() string {
	seq := c.seq.Add(1)
	return fmt.Sprintf("%s-%d-%s", c.agentID, seq, uuid.New().String())
}

// PendingCount returns the number of requests currently awaiting a
// response. Primarily useful for tests and diagnostics.
func (c *Client) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// ClientMetrics is a point-in-time operational snapshot.
type ClientMetrics struct {
	PendingRequests int
	Closed          bool
}

// Snapshot returns the current ClientMetrics.
func (c *Client) Snapshot() ClientMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ClientMetrics{PendingRequests: len(c.pending), Closed: c.closed}
}

// Close transitions the client to closed exactly once: every outstanding
// request is signaled as cancelled, the pending map is cleared, and
// finally the cursor store (if any) is closed — outside the pending lock,
// so a slow flush never blocks frame routing.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	pendings := c.pending
	c.pending = make(map[string]*pendingRequest)
	c.mu.Unlock()

	for _, p := range pendings {
		select {
		case p.resultCh <- pendingOutcome{cancelled: true}:
		default:
		}
	}

	if c.cursorStore != nil {
		c.cursorStore.Close()
	}
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
