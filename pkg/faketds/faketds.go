// Package faketds is an in-memory stand-in for a TDS wire connection, used
// by pkg/exchange and pkg/cursor tests so the flow engine can be exercised
// without a real socket or server.
package faketds

import (
	"context"
	"sync"

	"github.com/mp911de/2dbc-mssql/pkg/tds"
)

// Transport is a scriptable fake satisfying exchange.Transport. Script is a
// queue of responses per Send call: each Send advances to the next script
// entry, and Recv returns the pending messages one at a time. With nothing
// pending, Recv waits until ctx is done and returns ctx.Err(); it holds the
// lock while waiting, so a Send made meanwhile is not observed.
type Transport struct {
	mu      sync.Mutex
	script  [][]tds.Message
	sent    []tds.ClientMessage
	pending []tds.Message
	cursor  int
}

// NewTransport returns a Transport that replies with responses[i] to the
// i-th Send call (regardless of what was sent).
func NewTransport(responses ...[]tds.Message) *Transport {
	return &Transport{script: responses}
}

func (t *Transport) Send(_ context.Context, msg tds.ClientMessage) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, msg)
	if t.cursor < len(t.script) {
		t.pending = append(t.pending, t.script[t.cursor]...)
		t.cursor++
	}
	return nil
}

func (t *Transport) Recv(ctx context.Context) (tds.Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.pending) == 0 {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	msg := t.pending[0]
	t.pending = t.pending[1:]
	return msg, nil
}

// Sent returns every client message observed by Send, in order.
func (t *Transport) Sent() []tds.ClientMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]tds.ClientMessage, len(t.sent))
	copy(out, t.sent)
	return out
}
