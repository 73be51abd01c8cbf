package mssql_test

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mp911de/2dbc-mssql/mssql"
	"github.com/mp911de/2dbc-mssql/pkg/conn"
	"github.com/mp911de/2dbc-mssql/pkg/logutil"
	"github.com/mp911de/2dbc-mssql/pkg/tds"
)

type passthroughCodec struct{}

func (passthroughCodec) Encode(tds.ClientMessage) ([]byte, error) { return []byte{0}, nil }
func (passthroughCodec) Decode([]byte) (tds.Message, error)       { return tds.DoneProcToken{}, nil }

func TestNewConnectionRejectsInvalidOptions(t *testing.T) {
	logger, _ := logutil.ForTest(t)
	client, server := net.Pipe()
	defer server.Close()
	defer client.Close()

	c := conn.New(client, passthroughCodec{}, logger)
	_, err := mssql.NewConnection("test", c, mssql.EngineOptions{FetchSize: -1}, logger)
	require.ErrorIs(t, err, mssql.ErrInvalidOption)
}

func TestNewConnectionAcceptsValidOptions(t *testing.T) {
	logger, _ := logutil.ForTest(t)
	client, server := net.Pipe()
	defer server.Close()
	defer client.Close()

	c := conn.New(client, passthroughCodec{}, logger)
	connection, err := mssql.NewConnection("test", c, mssql.EngineOptions{FetchSize: 128}, logger)
	require.NoError(t, err)
	require.NotNil(t, connection)
}
