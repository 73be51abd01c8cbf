package rpc

import "github.com/mp911de/2dbc-mssql/pkg/tds"

// Cursor scroll/concurrency/fetch option bits (MS-TDS sp_cursor* parameter
// values). The engine only ever issues FORWARD_ONLY (plus PARAMETERIZED_STMT
// for bound sp_cursorprepexec calls) and READ_ONLY|ALLOW_DIRECT; the other
// bits are named for reference only.
const (
	scrollOptKeyset            = 0x0001
	scrollOptDynamic           = 0x0002
	scrollOptForwardOnly       = 0x0004
	scrollOptStatic            = 0x0008
	scrollOptFastForward       = 0x0010
	scrollOptParameterizedStmt = 0x1000
	scrollOptAutoFetch         = 0x2000
	scrollOptAutoClose         = 0x4000

	ccOptReadOnly     = 0x0001
	ccOptScrollLocks  = 0x0002
	ccOptOptimisticCC = 0x0004
	ccOptAllowDirect  = 0x2000
	ccOptUpdInPlace   = 0x4000

	// FetchNext is the only fetch type the engine issues: cursors are
	// opened FORWARD_ONLY/READ_ONLY so FETCH_NEXT is sufficient and the
	// server rejects positioned fetches against them.
	FetchNext uint32 = 0x0002
)

// SpExecuteSql builds a direct (non-cursored) "exec sp_executesql" request:
// executes query immediately and streams its result set without opening a
// server-side cursor.
func SpExecuteSql(query string, binding *Binding, td tds.TransactionDescriptor) *Request {
	b := NewBuilder(procIDSpExecuteSql, td).
		WithParam(In, query).
		WithParam(In, binding.FormalParams())
	binding.AppendTo(b)
	return b.Build()
}

// SpCursorOpen builds "exec sp_cursoropen" for a non-parameterized cursored
// query: forward-only, read-only, direct-mode cursor. The two OUT
// parameters (cursor id first, row count last) are populated by ReturnValue
// tokens in the response.
func SpCursorOpen(query string, td tds.TransactionDescriptor) *Request {
	return NewBuilder(procIDSpCursorOpen, td).
		WithParam(Out, int32(0)).                                  // cursor
		WithParam(In, query).                                      // query text
		WithParam(In, int32(scrollOptForwardOnly)).                // scrollopt
		WithParam(In, int32(ccOptReadOnly|ccOptAllowDirect)).       // ccopt
		WithParam(Out, int32(0)).                                  // rowcount
		Build()
}

// SpCursorFetch builds "exec sp_cursorfetch" for one fetch window. Every
// fetch request sets NoMetadata: the column metadata arrives with the
// cursor-opening response and never changes shape across windows of the
// same cursor, so suppressing it on fetches saves wire bytes.
func SpCursorFetch(cursor int32, fetchType uint32, rowCount int32, td tds.TransactionDescriptor) *Request {
	b := NewBuilder(procIDSpCursorFetch, td).
		WithOptions(NoMetadata).
		WithParam(In, cursor).
		WithParam(In, int32(fetchType)).
		WithParam(In, int32(0)). // rownum, unused for FETCH_NEXT
		WithParam(In, rowCount)
	return b.Build()
}

// SpCursorClose builds "exec sp_cursorclose" to release the server-side
// cursor. Idempotent from the caller's point of view: closing an
// already-closed cursor id is treated the same as a normal close by the
// state machine (see pkg/cursor).
func SpCursorClose(cursor int32, td tds.TransactionDescriptor) *Request {
	return NewBuilder(procIDSpCursorClose, td).
		WithParam(In, cursor).
		Build()
}

// SpCursorPrepExec builds "exec sp_cursorprepexec" for the first execution
// of a parameterized cursored query: prepares and opens the cursor in one
// round trip, returning both the prepared statement handle and the cursor
// id as OUT parameters.
func SpCursorPrepExec(query string, binding *Binding, td tds.TransactionDescriptor) *Request {
	scrollOpt := scrollOptForwardOnly
	if !binding.IsEmpty() {
		scrollOpt |= scrollOptParameterizedStmt
	}
	b := NewBuilder(procIDSpCursorPrepExec, td).
		WithParam(Out, int32(0)).              // prepared handle
		WithParam(Out, int32(0)).              // cursor
		WithParam(In, binding.FormalParams()). // formal params
		WithParam(In, query).                  // query text
		WithParam(In, int32(scrollOpt)).
		WithParam(In, int32(ccOptReadOnly|ccOptAllowDirect)).
		WithParam(Out, int32(0)) // rowcount
	binding.AppendTo(b)
	return b.Build()
}

// SpCursorExecute builds "exec sp_cursorexecute" to re-run a previously
// prepared cursored query against a new set of bound parameter values,
// reusing the prepared statement handle obtained from SpCursorPrepExec.
func SpCursorExecute(preparedHandle int32, binding *Binding, td tds.TransactionDescriptor) *Request {
	b := NewBuilder(procIDSpCursorExecute, td).
		WithParam(In, preparedHandle).
		WithParam(Out, int32(0)). // cursor
		WithParam(In, int32(scrollOptForwardOnly)).
		WithParam(In, int32(ccOptReadOnly|ccOptAllowDirect)).
		WithParam(Out, int32(0)) // rowcount
	binding.AppendTo(b)
	return b.Build()
}
