package codec_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mp911de/2dbc-mssql/pkg/codec"
	"github.com/mp911de/2dbc-mssql/pkg/tds"
)

func payload(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

func TestDecodeInt32(t *testing.T) {
	rv := &tds.ReturnValue{Ordinal: 1, Payload: payload(42)}
	v, err := codec.DecodeInt32(rv)
	require.NoError(t, err)
	require.Equal(t, int32(42), v)
}

func TestDecodeInt32Null(t *testing.T) {
	rv := &tds.ReturnValue{Ordinal: 1, Payload: nil}
	v, err := codec.DecodeInt32(rv)
	require.NoError(t, err)
	require.Zero(t, v)
}

func TestDecodeInt32BadWidth(t *testing.T) {
	rv := &tds.ReturnValue{Ordinal: 1, Payload: []byte{1, 2}}
	_, err := codec.DecodeInt32(rv)
	require.ErrorIs(t, err, codec.ErrUnsupportedPayload)
}
