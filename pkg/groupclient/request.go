package groupclient

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fluxorio/groupclient/pkg/groupwire"
)

// SendRequest issues one outbound action and blocks until a response
// arrives, the deadline elapses, or the client is closed. params may be a
// Go value (marshaled normally), or a pre-serialized payload ([]byte,
// json.RawMessage, or string) — if a pre-serialized payload fails to
// parse as JSON, it is omitted with a warning rather than aborting the
// call.
func (c *Client) SendRequest(ctx context.Context, target, groupID, action string, params interface{}, timeout time.Duration) (*groupwire.GroupResponse, error) {
	if c.isClosed() {
		return nil, &groupwire.ClientClosedError{Action: action}
	}

	requestID := c.nextRequestID()

	paramsJSON, err := encodeParams(params)
	if err != nil {
		c.log.Warnf("groupclient: dropping unparseable params for %s (request_id=%s): %v", action, requestID, err)
		paramsJSON = nil
	}

	req := groupwire.GroupRequest{
		Action:    action,
		RequestID: requestID,
		GroupID:   groupID,
		Params:    paramsJSON,
	}
	payload, err := groupwire.Encode(&req)
	if err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "groupclient.send_request")
	defer span.End()

	pending := &pendingRequest{
		requestID: requestID,
		action:    action,
		groupID:   groupID,
		resultCh:  make(chan pendingOutcome, 1),
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, &groupwire.ClientClosedError{Action: action}
	}
	c.pending[requestID] = pending
	c.mu.Unlock()
	c.metrics.PendingRequests.Set(float64(c.PendingCount()))

	start := time.Now()
	if err := c.send(target, payload); err != nil {
		c.removePending(requestID)
		c.metrics.RequestsTotal.WithLabelValues(action, "send_failed").Inc()
		return nil, &groupwire.SendFailedError{Action: action, Cause: err}
	}

	effectiveTimeout := timeout
	if effectiveTimeout <= 0 {
		effectiveTimeout = c.defaultTimeout
	}
	timer := time.NewTimer(effectiveTimeout)
	defer timer.Stop()

	select {
	case outcome := <-pending.resultCh:
		c.removePending(requestID)
		c.metrics.RequestDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
		if outcome.cancelled {
			c.metrics.RequestsTotal.WithLabelValues(action, "cancelled").Inc()
			return nil, &groupwire.CancelledError{Action: action}
		}
		c.metrics.RequestsTotal.WithLabelValues(action, "completed").Inc()
		return outcome.resp, nil

	case <-timer.C:
		c.removePending(requestID)
		c.log.Warnf("groupclient: request timeout action=%s request_id=%s group=%s", action, requestID, groupID)
		c.metrics.RequestsTotal.WithLabelValues(action, "timeout").Inc()
		return nil, &groupwire.TimeoutError{Action: action, GroupID: groupID}

	case <-ctx.Done():
		c.removePending(requestID)
		c.metrics.RequestsTotal.WithLabelValues(action, "cancelled").Inc()
		return nil, &groupwire.CancelledError{Action: action}
	}
}

func (c *Client) removePending(requestID string) {
	c.mu.Lock()
	delete(c.pending, requestID)
	c.mu.Unlock()
	c.metrics.PendingRequests.Set(float64(c.PendingCount()))
}

// encodeParams normalizes the caller-supplied params into a json.RawMessage
// ready to embed in the outbound envelope.
func encodeParams(params interface{}) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	switch v := params.(type) {
	case json.RawMessage:
		if !json.Valid(v) {
			return nil, &invalidParamsError{}
		}
		return v, nil
	case []byte:
		if !json.Valid(v) {
			return nil, &invalidParamsError{}
		}
		return json.RawMessage(v), nil
	case string:
		if !json.Valid([]byte(v)) {
			return nil, &invalidParamsError{}
		}
		return json.RawMessage(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return data, nil
	}
}

type invalidParamsError struct{}

func (e *invalidParamsError) Error() string { return "groupclient: pre-serialized params are not valid JSON" }
