// Package errclass classifies TDS server error numbers so the cursor flow
// engine knows whether an ErrorToken means "silently reprepare and retry"
// or "surface to the caller".
package errclass

// Classification is the outcome of classifying one server error number.
type Classification int

const (
	// Fatal is any error number with no special handling: surfaced
	// downstream, and the exchange finishes in the ERROR phase.
	Fatal Classification = iota
	// TransientReprepare marks a prepared-handle invalidation: the engine
	// retries once with a fresh sp_cursorprepexec instead of surfacing it.
	TransientReprepare
)

// Prepared-handle invalidation error numbers (MS-TDS / SQL Server engine
// errors reported when a cached prepared statement handle no longer
// refers to a valid plan, e.g. after a schema change).
const (
	errPreparedHandleInvalid1 = 586
	errPreparedHandleInvalid2 = 8144
	errPreparedHandleInvalid3 = 8178
	errPreparedHandleInvalid4 = 8179
)

// Classify maps one ErrorToken.Number to a Classification.
func Classify(errorNumber int32) Classification {
	switch errorNumber {
	case errPreparedHandleInvalid1, errPreparedHandleInvalid2, errPreparedHandleInvalid3, errPreparedHandleInvalid4:
		return TransientReprepare
	default:
		return Fatal
	}
}
