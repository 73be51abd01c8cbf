// Package exchange serializes RPC exchanges over one TDS connection: only
// one exchange may be in flight at a time, later callers queue FIFO behind
// the current one, and each exchange's inbound frames stop exactly at its
// own isLastFrame boundary so the next queued exchange can start cleanly.
//
// This mirrors ReactorNettyClient's RequestQueue, translated from a
// Publisher/Sinks pair into goroutines and channels: Channel.Exchange is
// the blocking call a cursor flow makes; a single dispatcher goroutine
// owns the wire and feeds each exchange's inbound channel until its
// predicate fires.
package exchange

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mp911de/2dbc-mssql/pkg/metrics"
	"github.com/mp911de/2dbc-mssql/pkg/tds"
	"github.com/mp911de/2dbc-mssql/pkg/werror"
)

// ErrClosed is returned by Exchange once the channel has been closed, and
// by any exchange still queued when close happens.
var ErrClosed = werror.New("exchange: channel closed")

// Transport is the minimal wire contract a Channel drives: send one client
// message, and receive the next inbound message (blocking until the frame
// arrives or ctx is done). A real connection implements this directly over
// its net.Conn (see pkg/conn); tests substitute an in-memory fake.
type Transport interface {
	Send(ctx context.Context, msg tds.ClientMessage) error
	Recv(ctx context.Context) (tds.Message, error)
}

// request is one queued exchange awaiting its turn at the wire.
type request struct {
	outbound    <-chan tds.ClientMessage
	isLastFrame func(tds.Message) bool
	inbound     chan tds.Message
	errc        chan error
}

// Channel is the single owner of one connection's wire traffic. All
// concurrent callers of Exchange share the same dispatcher goroutine;
// exactly one request is active on the wire at any instant.
type Channel struct {
	transport Transport
	logger    *zap.Logger

	submit chan *request
	done   chan struct{}
}

// New starts the dispatcher goroutine over transport and returns the
// Channel handle. Close must be called to stop the dispatcher.
func New(transport Transport, logger *zap.Logger) *Channel {
	c := &Channel{
		transport: transport,
		logger:    logger,
		submit:    make(chan *request),
		done:      make(chan struct{}),
	}
	go c.run()
	return c
}

// Close stops the dispatcher. An Exchange call still waiting for its turn
// returns ErrClosed; an exchange already in flight has its inbound channel
// closed at its next delivery or outbound wait, without an error value.
// Close is idempotent.
func (c *Channel) Close() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}

// SendAttention writes an out-of-band attention signal directly to the
// transport, bypassing the FIFO queue: it must reach the server while the
// current exchange is still in flight so the server can abort it, rather
// than waiting behind it like a normal queued exchange would.
func (c *Channel) SendAttention(ctx context.Context) error {
	return c.transport.Send(ctx, attentionMessage{})
}

type attentionMessage struct{}

func (attentionMessage) ClientMessage() {}

// Exchange hands outbound to the dispatcher and returns a channel of
// inbound response messages that closes once isLastFrame reports true for a
// received message (that final message is still delivered on the channel
// before it closes). Exchange blocks until this request's turn comes up if
// another exchange is already active.
//
// The dispatcher sends the first message from outbound, then one more after
// each final DoneProcToken that isLastFrame does not accept. If outbound is
// closed when the dispatcher needs its next message, the exchange ends.
func (c *Channel) Exchange(ctx context.Context, outbound <-chan tds.ClientMessage, isLastFrame func(tds.Message) bool) (<-chan tds.Message, error) {
	req := &request{
		outbound:    outbound,
		isLastFrame: isLastFrame,
		inbound:     make(chan tds.Message),
		errc:        make(chan error, 1),
	}

	metrics.ExchangeQueueDepth.Inc()
	select {
	case c.submit <- req:
		metrics.ExchangeQueueDepth.Dec()
	case <-c.done:
		metrics.ExchangeQueueDepth.Dec()
		return nil, ErrClosed
	case <-ctx.Done():
		metrics.ExchangeQueueDepth.Dec()
		return nil, ctx.Err()
	}

	return req.inbound, nil
}

// run is the single dispatcher goroutine: it pulls queued requests one at
// a time (submit is unbuffered, so callers naturally FIFO-block on it) and
// drives each to completion before accepting the next.
func (c *Channel) run() {
	for {
		select {
		case req := <-c.submit:
			c.drive(req)
		case <-c.done:
			return
		}
	}
}

// drive runs one exchange end to end. Unlike a plain send-then-receive
// round trip, a cursored query flow is a sequence of request/response
// rounds on the same exchange: open, zero or more fetches, close. Each
// round ends in a DoneProcToken; if isLastFrame says the round's final
// token does not end the whole exchange, drive blocks for the next
// outbound message (the follow-up request the flow engine just decided
// on, pushed onto the same outbound channel) before receiving again.
func (c *Channel) drive(req *request) {
	defer close(req.inbound)

	start := time.Now()
	defer func() { metrics.ExchangeDuration.Observe(time.Since(start).Seconds()) }()

	ctx := context.Background()

	if !c.sendNext(ctx, req) {
		return
	}

	for {
		msg, err := c.transport.Recv(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			c.logger.Warn("exchange: recv failed, aborting request", zap.Error(err))
			return
		}

		select {
		case req.inbound <- msg:
		case <-c.done:
			return
		}

		if req.isLastFrame(msg) {
			return
		}

		if done, ok := tds.IsDoneProc(msg); ok && done.IsDone() {
			if !c.sendNext(ctx, req) {
				return
			}
		}
	}
}

// sendNext blocks for the flow engine's next outbound message and sends
// it. It returns false when outbound has closed (the flow is done
// producing requests) or an error ended the exchange early.
func (c *Channel) sendNext(ctx context.Context, req *request) bool {
	select {
	case out, ok := <-req.outbound:
		if !ok {
			return false
		}
		if err := c.transport.Send(ctx, out); err != nil {
			c.logger.Warn("exchange: send failed, aborting request", zap.Error(err))
			return false
		}
		return true
	case <-c.done:
		return false
	}
}
