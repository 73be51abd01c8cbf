package tds

import "github.com/mp911de/2dbc-mssql/pkg/werror"

// TransactionDescriptorLength is the fixed wire size of a transaction
// descriptor; any EnvChangeToken carrying a different length is a protocol
// error (see the listener in pkg/txn).
const TransactionDescriptorLength = 8

// ErrBadTransactionDescriptor classifies a descriptor of the wrong length
// as a protocol-fatal error (§7(b) of the engine's error taxonomy).
var ErrBadTransactionDescriptor = werror.New("tds: transaction descriptor must be 8 bytes")

// TransactionDescriptor is the opaque 8-byte token the server assigns to
// bind an RPC to the current transaction scope. The zero value is the
// "no transaction" descriptor used outside of an explicit transaction.
type TransactionDescriptor [TransactionDescriptorLength]byte

// ParseTransactionDescriptor validates and copies b into a descriptor.
func ParseTransactionDescriptor(b []byte) (TransactionDescriptor, error) {
	var d TransactionDescriptor
	if len(b) != TransactionDescriptorLength {
		return d, ErrBadTransactionDescriptor
	}
	copy(d[:], b)
	return d, nil
}

// IsZero reports whether this is the default, no-transaction descriptor.
func (d TransactionDescriptor) IsZero() bool {
	return d == TransactionDescriptor{}
}

// Collation is the opaque database collation the server reports via
// EnvChangeCollation; only its raw encoding is kept. The listener in
// pkg/txn stores it; no RPC request built by pkg/rpc carries it.
type Collation struct {
	raw []byte
}

// NewCollation wraps a raw collation payload.
func NewCollation(raw []byte) Collation {
	return Collation{raw: raw}
}

// Raw returns the encoded collation bytes.
func (c Collation) Raw() []byte {
	return c.raw
}
