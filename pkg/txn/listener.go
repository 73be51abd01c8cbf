// Package txn tracks connection-global transaction and collation state
// from EnvChangeTokens arriving on the inbound stream, publishing it via
// atomic values so RPC builders on other goroutines always see the current
// transaction descriptor without synchronizing with the reader path.
package txn

import (
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/mp911de/2dbc-mssql/pkg/tds"
)

// Listener holds the single-writer/multi-reader connection state updated
// by EnvChangeTokens and read by any goroutine building an RPC request.
type Listener struct {
	logger *zap.Logger

	descriptor atomic.Value // tds.TransactionDescriptor
	collation  atomic.Value // tds.Collation
	inTxn      atomic.Bool
}

// NewListener returns a Listener with the zero transaction descriptor and
// no collation, matching a freshly logged-in connection.
func NewListener(logger *zap.Logger) *Listener {
	l := &Listener{logger: logger}
	l.descriptor.Store(tds.TransactionDescriptor{})
	l.collation.Store(tds.Collation{})
	return l
}

// TransactionDescriptor returns the current transaction descriptor; every
// RPC request built after an env-change token is delivered carries this
// value.
func (l *Listener) TransactionDescriptor() tds.TransactionDescriptor {
	return l.descriptor.Load().(tds.TransactionDescriptor)
}

// Collation returns the current database collation.
func (l *Listener) Collation() tds.Collation {
	return l.collation.Load().(tds.Collation)
}

// InTransaction reports whether the connection currently has an open
// server-side transaction.
func (l *Listener) InTransaction() bool {
	return l.inTxn.Load()
}

// Observe applies one EnvChangeToken, updating state before the token is
// surfaced to the consumer (listener updates must be visible first, per
// the ordering guarantee in the concurrency model).
func (l *Listener) Observe(token tds.EnvChangeToken) error {
	switch token.ChangeType {
	case tds.EnvChangeBeginTx, tds.EnvChangeEnlistDTC:
		td, err := tds.ParseTransactionDescriptor(token.NewValue)
		if err != nil {
			return err
		}
		l.descriptor.Store(td)
		l.inTxn.Store(true)
		l.logger.Debug("transaction descriptor updated", zap.Binary("descriptor", td[:]))

	case tds.EnvChangeCommitTx, tds.EnvChangeRollbackTx:
		l.descriptor.Store(tds.TransactionDescriptor{})
		l.inTxn.Store(false)
		l.logger.Debug("transaction descriptor reset")

	case tds.EnvChangeCollation:
		l.collation.Store(tds.NewCollation(token.NewValue))

	default:
		// Database/language/packet-size env changes are acknowledged but
		// carry no state this engine needs to track.
	}
	return nil
}
