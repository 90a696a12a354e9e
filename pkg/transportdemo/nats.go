package transportdemo

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/fluxorio/groupclient/pkg/corelog"
)

// NATSTransportConfig configures a NATSTransport.
type NATSTransportConfig struct {
	// URL is the NATS server URL, e.g. "nats://127.0.0.1:4222". Defaults to
	// nats.DefaultURL.
	URL string
	// Prefix is prepended to every subject, following a
	// "<prefix>.send.<address>" convention. Default "groupclient".
	Prefix string
	// InboxSubject is this agent's own subject, subscribed for inbound
	// frames. Conventionally "<prefix>.inbox.<agent_id>".
	InboxSubject string
}

// NATSTransport bridges groupclient's SendFunc/HandleIncoming pair to NATS
// subject-based request routing: Send publishes to
// "<prefix>.send.<targetID>" and Run subscribes to InboxSubject.
type NATSTransport struct {
	conn   *nats.Conn
	prefix string
	inbox  string
	log    corelog.Logger
	sub    *nats.Subscription
}

// DialNATSTransport connects to the configured NATS server.
func DialNATSTransport(cfg NATSTransportConfig, log corelog.Logger) (*NATSTransport, error) {
	if log == nil {
		log = corelog.NewDefaultLogger()
	}
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "groupclient"
	}
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("transportdemo: nats connect failed: %w", err)
	}
	return &NATSTransport{conn: conn, prefix: prefix, inbox: cfg.InboxSubject, log: log}, nil
}

// Send implements groupclient.SendFunc, publishing payload to
// "<prefix>.send.<targetID>".
func (t *NATSTransport) Send(targetID string, payload []byte) error {
	subject := fmt.Sprintf("%s.send.%s", t.prefix, targetID)
	return t.conn.Publish(subject, payload)
}

// Run subscribes to this agent's inbox subject and returns once the
// subscription is in place; it does not block. Every message is then
// forwarded to onIncoming from the NATS client's own delivery goroutine
// until Close is called.
func (t *NATSTransport) Run(onIncoming func(payload []byte)) error {
	if t.inbox == "" {
		return fmt.Errorf("transportdemo: NATSTransportConfig.InboxSubject must be set")
	}
	sub, err := t.conn.Subscribe(t.inbox, func(msg *nats.Msg) {
		onIncoming(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("transportdemo: subscribe to %s failed: %w", t.inbox, err)
	}
	t.sub = sub
	return nil
}

// Close unsubscribes and drains the NATS connection.
func (t *NATSTransport) Close() error {
	if t.sub != nil {
		if err := t.sub.Unsubscribe(); err != nil {
			t.log.Warnf("transportdemo: nats unsubscribe failed: %v", err)
		}
	}
	t.conn.Close()
	return nil
}
