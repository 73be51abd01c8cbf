// Package mssql is the minimal connection/statement/result façade that
// exercises the cursor flow engine end to end. It is not the product
// surface; URL/DSN option parsing is out of scope, EngineOptions is built
// programmatically by the caller.
package mssql

import (
	"time"

	"github.com/mp911de/2dbc-mssql/pkg/werror"
)

// ErrInvalidOption classifies an EngineOptions field that fails eager
// validation as a caller-validation error (§7(e)): raised synchronously,
// before any network I/O.
var ErrInvalidOption = werror.New("mssql: invalid engine option")

// PreparedStatementCacheMode selects one of the three prepcache variants.
type PreparedStatementCacheMode int

const (
	// PreparedStatementCacheUnbounded never evicts.
	PreparedStatementCacheUnbounded PreparedStatementCacheMode = iota
	// PreparedStatementCacheLRU bounds the cache to PreparedStatementCacheSize entries.
	PreparedStatementCacheLRU
	// PreparedStatementCacheNone disables prepared-statement reuse entirely.
	PreparedStatementCacheNone
)

// EngineOptions configures the cursor flow engine for one connection.
type EngineOptions struct {
	// FetchSize is the row count requested per sp_cursorfetch window.
	// Zero routes every query through sp_executesql instead of cursoring.
	FetchSize int

	// PreparedStatementCache selects the cache variant; Size is only
	// consulted when Mode == PreparedStatementCacheLRU.
	PreparedStatementCache PreparedStatementCacheMode
	PreparedStatementCacheSize int

	// StatementTimeout arms an out-of-band attention after this long;
	// zero disables it.
	StatementTimeout time.Duration

	// LockWaitTimeout is the lock wait timeout for transactions; negative
	// means infinite (SQL Server's own "no timeout" sentinel). Connection
	// does not read it: BeginTransaction takes the timeout as an argument.
	LockWaitTimeout time.Duration
}

// Validate eagerly checks EngineOptions, matching the teacher's practice
// of validating config fields before any network I/O rather than failing
// later on first use.
func (o EngineOptions) Validate() error {
	if o.FetchSize < 0 {
		return werror.Wrapf(ErrInvalidOption, "FetchSize must be >= 0, got %d", o.FetchSize)
	}
	if o.PreparedStatementCache == PreparedStatementCacheLRU && o.PreparedStatementCacheSize <= 0 {
		return werror.Wrapf(ErrInvalidOption, "PreparedStatementCacheSize must be > 0 for the LRU cache, got %d", o.PreparedStatementCacheSize)
	}
	if o.StatementTimeout < 0 {
		return werror.Wrapf(ErrInvalidOption, "StatementTimeout must be >= 0, got %s", o.StatementTimeout)
	}
	return nil
}
