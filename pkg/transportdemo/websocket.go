// Package transportdemo contains illustrative, non-core adapters showing
// how a send(targetId, payload) plus on_incoming(payload) transport
// boundary could be backed by a concrete transport. Neither adapter is
// exercised by groupclient/groupops themselves — both depend only on the
// SendFunc/HandleIncoming interface boundary — so these live outside the
// core module's dependency graph by design.
package transportdemo

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/fluxorio/groupclient/pkg/corelog"
)

// WebSocketTransport bridges one persistent websocket connection to a
// groupclient.SendFunc / HandleIncoming pair. It ignores the targetID
// parameter of Send, since a single connection already identifies the
// one remote peer this demo talks to; a production adapter routing to
// multiple peers would multiplex targetID to distinct connections.
type WebSocketTransport struct {
	conn *websocket.Conn
	log  corelog.Logger

	mu     sync.Mutex
	closed bool
}

// DialWebSocketTransport opens a websocket connection to url.
func DialWebSocketTransport(url string, log corelog.Logger) (*WebSocketTransport, error) {
	if log == nil {
		log = corelog.NewDefaultLogger()
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("transportdemo: dial %s failed: %w", url, err)
	}
	return &WebSocketTransport{conn: conn, log: log}, nil
}

// Send implements groupclient.SendFunc, writing payload as a single
// websocket text frame.
func (t *WebSocketTransport) Send(_ string, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return fmt.Errorf("transportdemo: connection closed")
	}
	return t.conn.WriteMessage(websocket.TextMessage, payload)
}

// Run blocks reading inbound frames and forwarding each to onIncoming
// (normally groupclient.Client.HandleIncoming), until the connection
// closes or the read loop hits a fatal error.
func (t *WebSocketTransport) Run(onIncoming func(payload []byte)) error {
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("transportdemo: read failed: %w", err)
		}
		onIncoming(data)
	}
}

// Close closes the underlying connection. Idempotent.
func (t *WebSocketTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return t.conn.Close()
}
