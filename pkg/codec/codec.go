// Package codec is the facade the cursor flow engine uses to turn a raw
// ReturnValue payload into a typed scalar. The full per-SQL-type codec
// (decimals, datetimes, XML, ...) is out of scope: the engine only ever
// needs to decode integer OUT parameters (cursor ids, prepared statement
// handles), so that is the only conversion implemented here.
package codec

import (
	"encoding/binary"

	"github.com/mp911de/2dbc-mssql/pkg/tds"
	"github.com/mp911de/2dbc-mssql/pkg/werror"
)

// ErrUnsupportedPayload classifies a ReturnValue whose payload cannot be
// decoded as a 32-bit integer (wrong width, or a NULL value where a cursor
// id/handle was expected) as a protocol-fatal error.
var ErrUnsupportedPayload = werror.New("codec: return value is not a 4-byte integer")

// DecodeInt32 decodes an intN-typed ReturnValue payload (as returned for
// cursor ids and prepared statement handles by sp_cursor*) into an int32.
// Payloads are little-endian, matching the TDS wire order.
func DecodeInt32(rv *tds.ReturnValue) (int32, error) {
	switch len(rv.Payload) {
	case 4:
		return int32(binary.LittleEndian.Uint32(rv.Payload)), nil
	case 0:
		// NULL: the server reports no cursor/handle; callers treat this as 0.
		return 0, nil
	default:
		return 0, werror.Wrapf(ErrUnsupportedPayload, "unexpected payload length %d for ordinal %d", len(rv.Payload), rv.Ordinal)
	}
}
