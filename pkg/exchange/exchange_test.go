package exchange_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mp911de/2dbc-mssql/pkg/exchange"
	"github.com/mp911de/2dbc-mssql/pkg/faketds"
	"github.com/mp911de/2dbc-mssql/pkg/logutil"
	"github.com/mp911de/2dbc-mssql/pkg/tds"
)

func isDone(m tds.Message) bool {
	_, ok := m.(tds.DoneInProcToken)
	return ok
}

func TestExchangeStopsAtIsLastFrame(t *testing.T) {
	logger, _ := logutil.ForTest(t)
	transport := faketds.NewTransport([]tds.Message{
		tds.RowToken{Values: []interface{}{1}},
		tds.DoneInProcToken{},
	})
	ch := exchange.New(transport, logger)
	defer ch.Close()

	outbound := make(chan tds.ClientMessage, 1)
	outbound <- &rpcFake{}
	close(outbound)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	inbound, err := ch.Exchange(ctx, outbound, isDone)
	require.NoError(t, err)

	var got []tds.Message
	for msg := range inbound {
		got = append(got, msg)
	}
	require.Len(t, got, 2)
	require.True(t, isDone(got[1]))
}

func TestExchangeSerializesConcurrentCallers(t *testing.T) {
	logger, _ := logutil.ForTest(t)
	transport := faketds.NewTransport(
		[]tds.Message{tds.DoneInProcToken{}},
		[]tds.Message{tds.DoneInProcToken{}},
	)
	ch := exchange.New(transport, logger)
	defer ch.Close()

	run := func() (<-chan tds.Message, error) {
		outbound := make(chan tds.ClientMessage, 1)
		outbound <- &rpcFake{}
		close(outbound)
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return ch.Exchange(ctx, outbound, isDone)
	}

	first, err := run()
	require.NoError(t, err)

	// The second caller runs concurrently: Exchange blocks it until the
	// first exchange has delivered its last frame.
	type result struct {
		inbound <-chan tds.Message
		err     error
	}
	secondc := make(chan result, 1)
	go func() {
		inbound, err := run()
		secondc <- result{inbound, err}
	}()

	for range first {
	}
	second := <-secondc
	require.NoError(t, second.err)
	for range second.inbound {
	}

	require.Len(t, transport.Sent(), 2)
}

func TestExchangeRejectsAfterClose(t *testing.T) {
	logger, _ := logutil.ForTest(t)
	transport := faketds.NewTransport()
	ch := exchange.New(transport, logger)
	ch.Close()

	outbound := make(chan tds.ClientMessage)
	close(outbound)
	_, err := ch.Exchange(context.Background(), outbound, isDone)
	require.ErrorIs(t, err, exchange.ErrClosed)
}

type rpcFake struct{}

func (*rpcFake) ClientMessage() {}
