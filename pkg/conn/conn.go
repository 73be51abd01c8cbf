// Package conn ties the exchange channel and the transaction/collation
// listener to one TDS connection: the exchange channel's single dispatcher
// goroutine owns the transport and performs every send and receive in
// order, and connection-global state is published through
// go.uber.org/atomic for any caller goroutine to read.
package conn

import (
	"context"
	"net"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/mp911de/2dbc-mssql/pkg/exchange"
	"github.com/mp911de/2dbc-mssql/pkg/tds"
	"github.com/mp911de/2dbc-mssql/pkg/txn"
	"github.com/mp911de/2dbc-mssql/pkg/waitgroup"
	"github.com/mp911de/2dbc-mssql/pkg/werror"
)

// ErrNotConnected is returned by any operation attempted after the
// connection has closed or failed.
var ErrNotConnected = werror.New("conn: not connected")

// Decoder turns raw wire bytes from net.Conn into tds.Message values and
// tds.ClientMessage values into bytes. Byte-level TDS packet framing and
// the SSL prelogin handshake are not implemented in this package; Decoder
// is the seam a real framing layer plugs into.
type Decoder interface {
	Encode(tds.ClientMessage) ([]byte, error)
	Decode([]byte) (tds.Message, error)
}

// Conn is one logical TDS connection: transport plus the exchange channel,
// transaction/collation listener, and the atomic flags user goroutines
// read.
type Conn struct {
	logger *zap.Logger
	nc     net.Conn
	codec  Decoder

	Exchange *exchange.Channel
	Txn      *txn.Listener

	connected atomic.Bool
	wg        waitgroup.WaitGroup
}

// New wraps an already-dialed net.Conn. The caller is responsible for
// completing login/prelogin before constructing Conn; Conn only drives the
// steady-state RPC exchange traffic.
func New(nc net.Conn, codec Decoder, logger *zap.Logger) *Conn {
	c := &Conn{
		logger: logger,
		nc:     nc,
		codec:  codec,
		Txn:    txn.NewListener(logger),
	}
	c.Exchange = exchange.New(&transport{conn: c}, logger)
	c.connected.Store(true)
	return c
}

// Connected reports whether the connection is still usable; readable from
// any goroutine.
func (c *Conn) Connected() bool {
	return c.connected.Load()
}

// Close stops the exchange dispatcher and closes the underlying transport.
// A queued Exchange call returns exchange.ErrClosed; an exchange in flight
// has its inbound channel closed without an error value.
func (c *Conn) Close() error {
	c.connected.Store(false)
	c.Exchange.Close()
	c.wg.Wait()
	return c.nc.Close()
}

// transport adapts Conn to exchange.Transport, applying the transaction
// listener to every inbound EnvChangeToken before handing the message on
// -- the ordering guarantee in §5 that listener updates are visible before
// the triggering token reaches the consumer.
type transport struct {
	conn *Conn
}

func (t *transport) Send(ctx context.Context, msg tds.ClientMessage) error {
	b, err := t.conn.codec.Encode(msg)
	if err != nil {
		return werror.WithStack(err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = t.conn.nc.SetWriteDeadline(deadline)
	}
	_, err = t.conn.nc.Write(b)
	if err != nil {
		t.conn.connected.Store(false)
		return werror.WithStack(err)
	}
	return nil
}

func (t *transport) Recv(ctx context.Context) (tds.Message, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = t.conn.nc.SetReadDeadline(deadline)
	}

	buf := make([]byte, 4096)
	n, err := t.conn.nc.Read(buf)
	if err != nil {
		t.conn.connected.Store(false)
		return nil, werror.WithStack(err)
	}

	msg, err := t.conn.codec.Decode(buf[:n])
	if err != nil {
		return nil, werror.WithStack(err)
	}

	if env, ok := msg.(tds.EnvChangeToken); ok {
		if err := t.conn.Txn.Observe(env); err != nil {
			return nil, err
		}
	}

	return msg, nil
}
