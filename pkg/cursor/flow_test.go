package cursor_test

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mp911de/2dbc-mssql/pkg/cursor"
	"github.com/mp911de/2dbc-mssql/pkg/exchange"
	"github.com/mp911de/2dbc-mssql/pkg/faketds"
	"github.com/mp911de/2dbc-mssql/pkg/logutil"
	"github.com/mp911de/2dbc-mssql/pkg/prepcache"
	"github.com/mp911de/2dbc-mssql/pkg/tds"
)

var noFingerprint = prepcache.Fingerprint{Query: "select @p1"}

func int32Payload(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

func noTD() tds.TransactionDescriptor { return tds.TransactionDescriptor{} }

func drain(t *testing.T, ch <-chan tds.Message, timeout time.Duration) []tds.Message {
	t.Helper()
	var out []tds.Message
	deadline := time.After(timeout)
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, msg)
		case <-deadline:
			t.Fatal("timed out draining downstream")
		}
	}
}

func TestDirectEmptyResult(t *testing.T) {
	logger, _ := logutil.ForTest(t)
	transport := faketds.NewTransport([]tds.Message{
		tds.ColumnMetadataToken{},
		tds.DoneProcToken{},
	})
	channel := exchange.New(transport, logger)
	defer channel.Close()

	f := cursor.NewDirect("select 1 where 1=0", nil, noTD, logger)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	out, err := f.Start(ctx, channel)
	require.NoError(t, err)

	msgs := drain(t, out, time.Second)
	require.Empty(t, msgs, "zero-column metadata must be suppressed and no rows were sent")
	require.Len(t, transport.Sent(), 1, "direct mode issues exactly one request")
}

func TestCursoredOpenTwoWindowsThenEmpty(t *testing.T) {
	logger, _ := logutil.ForTest(t)
	transport := faketds.NewTransport(
		// sp_cursoropen: cursor id 5
		[]tds.Message{
			&tds.ReturnValue{Ordinal: 0, Payload: int32Payload(5)},
			tds.ColumnMetadataToken{Columns: []tds.ColumnDescriptor{{Name: "c1"}}},
			tds.RowToken{Values: []interface{}{1}},
			tds.DoneInProcToken{Status: 0x0011}, // MORE | COUNT
			tds.DoneProcToken{},
		},
		// sp_cursorfetch window 2
		[]tds.Message{
			tds.RowToken{Values: []interface{}{2}},
			tds.DoneInProcToken{Status: 0x0011},
			tds.DoneProcToken{},
		},
		// sp_cursorfetch window 3: empty
		[]tds.Message{
			tds.DoneInProcToken{Status: 0x0010},
			tds.DoneProcToken{},
		},
		// sp_cursorclose ack
		[]tds.Message{
			tds.DoneProcToken{},
		},
	)
	channel := exchange.New(transport, logger)
	defer channel.Close()

	f := cursor.NewCursorOpen("select * from t", 10, noTD, logger)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	out, err := f.Start(ctx, channel)
	require.NoError(t, err)

	msgs := drain(t, out, time.Second)

	var rows int
	var intermediateCounts int
	for _, m := range msgs {
		switch m.(type) {
		case tds.RowToken:
			rows++
		case tds.IntermediateCount:
			intermediateCounts++
		}
	}
	require.Equal(t, 2, rows)
	require.Equal(t, 2, intermediateCounts, "the opening round's DoneInProc arrives before phase reaches FETCHING and is not counted")
	require.Len(t, transport.Sent(), 4, "open, fetch, fetch, close")
}

func TestPrepareRetryReprepares(t *testing.T) {
	logger, _ := logutil.ForTest(t)
	transport := faketds.NewTransport(
		// sp_cursorprepexec fails with an invalidated-handle error
		[]tds.Message{
			tds.ErrorToken{Number: 8144, Message: "handle invalid"},
			tds.DoneProcToken{},
		},
		// retried sp_cursorprepexec succeeds, empty result, closes immediately
		[]tds.Message{
			&tds.ReturnValue{Ordinal: 0, Payload: int32Payload(1)}, // handle
			&tds.ReturnValue{Ordinal: 1, Payload: int32Payload(9)}, // cursor id
			tds.DoneProcToken{},
		},
		// sp_cursorclose ack
		[]tds.Message{
			tds.DoneProcToken{},
		},
	)
	channel := exchange.New(transport, logger)
	defer channel.Close()

	f := cursor.NewCursorParameterized("select @p1", nil, 10, noCache{}, noFingerprint, noTD, logger)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	out, err := f.Start(ctx, channel)
	require.NoError(t, err)

	msgs := drain(t, out, time.Second)
	require.Empty(t, msgs, "no ErrorToken should surface, retry is silent")
	require.Len(t, transport.Sent(), 3, "prepexec, retried prepexec, close")
}

// noCache is a prepcache.Cache that always misses, used by
// TestPrepareRetryReprepares to force the sp_cursorprepexec path.
type noCache struct{}

func (noCache) Get(prepcache.Fingerprint) (int32, bool) { return 0, false }
func (noCache) Put(prepcache.Fingerprint, int32)         {}
func (noCache) Remove(prepcache.Fingerprint)             {}
