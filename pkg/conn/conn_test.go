package conn_test

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mp911de/2dbc-mssql/pkg/conn"
	"github.com/mp911de/2dbc-mssql/pkg/logutil"
	"github.com/mp911de/2dbc-mssql/pkg/tds"
)

// lineCodec is a trivial test-only Decoder: it treats the whole read
// buffer as one opaque RowToken and never produces EnvChangeTokens,
// enough to exercise Conn's lifecycle without a real TDS framer.
type lineCodec struct{}

func (lineCodec) Encode(tds.ClientMessage) ([]byte, error) { return []byte("x"), nil }
func (lineCodec) Decode(b []byte) (tds.Message, error) {
	return tds.RowToken{Values: []interface{}{string(b)}}, nil
}

func TestConnCloseStopsExchange(t *testing.T) {
	logger, _ := logutil.ForTest(t)
	client, server := net.Pipe()
	defer server.Close()

	c := conn.New(client, lineCodec{}, logger)
	require.True(t, c.Connected())

	require.NoError(t, c.Close())
	require.False(t, c.Connected())
}

func TestConnTransactionDescriptorDefaultsToZero(t *testing.T) {
	logger, _ := logutil.ForTest(t)
	client, server := net.Pipe()
	defer server.Close()
	defer client.Close()

	c := conn.New(client, lineCodec{}, logger)
	require.True(t, c.Txn.TransactionDescriptor().IsZero())
}
