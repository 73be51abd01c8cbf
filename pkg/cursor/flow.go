// Package cursor implements the RPC query message flow: the state machine
// that turns one logical query subscription into a sequence of
// sp_executesql / sp_cursoropen / sp_cursorprepexec / sp_cursorexecute /
// sp_cursorfetch / sp_cursorclose requests and a filtered stream of result
// tokens, including silent retry after a prepared-statement invalidation.
package cursor

import (
	"context"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/mp911de/2dbc-mssql/pkg/codec"
	"github.com/mp911de/2dbc-mssql/pkg/errclass"
	"github.com/mp911de/2dbc-mssql/pkg/exchange"
	"github.com/mp911de/2dbc-mssql/pkg/metrics"
	"github.com/mp911de/2dbc-mssql/pkg/prepcache"
	"github.com/mp911de/2dbc-mssql/pkg/rpc"
	"github.com/mp911de/2dbc-mssql/pkg/tds"
)

// DefaultFetchSize is used when the caller configures FetchSize <= 0 while
// still requesting cursored execution (FetchSize == 0 outright routes
// through NewDirect instead, see EngineOptions in the mssql facade).
const DefaultFetchSize = 128

// Ordinal surfacing thresholds (see onReturnValue): OUT parameter ordinals
// below the threshold are engine-internal (cursor id, prepared handle, row
// count) and never reach the consumer.
const (
	surfaceThresholdDefault  = 5 // sp_executesql, sp_cursoropen, sp_cursorexecute
	surfaceThresholdPrepExec = 7 // sp_cursorprepexec
)

// The ordinal* constants name the fixed OUT-parameter
// positions per procedure, per the MS-TDS parameter layouts in §6.
const (
	ordinalCursorOpenCursorID = 0
	ordinalCursorExecCursorID = 1
	ordinalPrepExecHandle     = 0
	ordinalPrepExecCursorID   = 1
)

// kind distinguishes the three entry points of the flow engine.
type kind int

const (
	kindDirect kind = iota
	kindCursorOpen
	kindCursorPrepExec
	kindCursorExecute
)

// Flow drives one logical query subscription from initial RPC through
// repeated fetch windows to close (or through sp_executesql directly).
// A Flow is single-use: call Start once.
type Flow struct {
	kind        kind
	query       string
	binding     *rpc.Binding
	fetchSize   int32
	cache       prepcache.Cache
	fingerprint prepcache.Fingerprint
	tdProvider  func() tds.TransactionDescriptor
	logger      *zap.Logger

	cursorID        int32
	preparedHandle  int32
	phase           Phase
	hasMore         bool
	hasSeenRows     bool
	hasSeenError    bool
	errorToken      *tds.ErrorToken
	directMode      bool
	cancelRequested atomic.Bool
	prepareRetried  atomic.Bool

	outbound   chan tds.ClientMessage
	downstream chan tds.Message
}

func newFlow(k kind, query string, binding *rpc.Binding, fetchSize int32, tdProvider func() tds.TransactionDescriptor, logger *zap.Logger) *Flow {
	if fetchSize <= 0 {
		fetchSize = DefaultFetchSize
	}
	return &Flow{
		kind:       k,
		query:      query,
		binding:    binding,
		fetchSize:  fetchSize,
		tdProvider: tdProvider,
		logger:     logger,
		phase:      PhaseNone,
		directMode: k == kindDirect,
		outbound:   make(chan tds.ClientMessage, 1),
		downstream: make(chan tds.Message, 64),
	}
}

// NewDirect builds a flow for a non-cursored sp_executesql exchange.
func NewDirect(query string, binding *rpc.Binding, tdProvider func() tds.TransactionDescriptor, logger *zap.Logger) *Flow {
	return newFlow(kindDirect, query, binding, 0, tdProvider, logger)
}

// NewCursorOpen builds a flow for a non-parameterized cursored query.
func NewCursorOpen(query string, fetchSize int32, tdProvider func() tds.TransactionDescriptor, logger *zap.Logger) *Flow {
	return newFlow(kindCursorOpen, query, nil, fetchSize, tdProvider, logger)
}

// NewCursorParameterized builds a flow for a parameterized cursored query,
// consulting cache for a previously prepared handle: a cache hit issues
// sp_cursorexecute, a miss issues sp_cursorprepexec and populates the cache
// on success.
func NewCursorParameterized(query string, binding *rpc.Binding, fetchSize int32, cache prepcache.Cache, fingerprint prepcache.Fingerprint, tdProvider func() tds.TransactionDescriptor, logger *zap.Logger) *Flow {
	f := newFlow(kindCursorPrepExec, query, binding, fetchSize, tdProvider, logger)
	f.cache = cache
	f.fingerprint = fingerprint
	if handle, ok := cache.Get(fingerprint); ok {
		f.kind = kindCursorExecute
		f.preparedHandle = handle
	}
	return f
}

// Cancel requests the flow wind down at the next onDone decision point
// rather than issuing another fetch; already in-flight tokens are still
// delivered.
func (f *Flow) Cancel() {
	f.cancelRequested.Store(true)
}

// Start issues the initial request over channel and returns the filtered
// downstream token stream. The returned channel closes once the exchange
// reaches a terminal phase.
func (f *Flow) Start(ctx context.Context, channel *exchange.Channel) (<-chan tds.Message, error) {
	f.outbound <- f.initialRequest()

	inbound, err := channel.Exchange(ctx, f.outbound, f.onMessage)
	if err != nil {
		close(f.downstream)
		return nil, err
	}

	go func() {
		for range inbound {
			// onMessage already filtered/forwarded as each message arrived;
			// this loop only waits for the exchange to end.
		}
		close(f.downstream)
	}()

	return f.downstream, nil
}

func (f *Flow) initialRequest() *rpc.Request {
	td := f.tdProvider()
	switch f.kind {
	case kindDirect:
		return rpc.SpExecuteSql(f.query, f.binding, td)
	case kindCursorOpen:
		metrics.CursorOpens.Inc()
		return rpc.SpCursorOpen(f.query, td)
	case kindCursorPrepExec:
		metrics.CursorOpens.Inc()
		return rpc.SpCursorPrepExec(f.query, f.binding, td)
	case kindCursorExecute:
		metrics.CursorOpens.Inc()
		return rpc.SpCursorExecute(f.preparedHandle, f.binding, td)
	default:
		panic("cursor: unknown flow kind")
	}
}

// onMessage is both the reducer (§4.5) and the isLastFrame predicate
// handed to the exchange channel: it runs on the single dispatcher
// goroutine, in arrival order, so no locking is needed around Flow state.
func (f *Flow) onMessage(m tds.Message) bool {
	// While a prepare retry is pending, every token up to the failed round's
	// DoneProcToken is suppressed; the DoneProcToken itself is handled below.
	if f.phase == PhasePrepareRetry {
		if _, ok := m.(tds.DoneProcToken); !ok {
			if rv, ok := m.(*tds.ReturnValue); ok {
				rv.Release()
			}
			return false
		}
	}

	switch msg := m.(type) {
	case tds.RowToken:
		f.hasSeenRows = true
		f.forward(msg)
		return false

	case *tds.ReturnValue:
		f.onReturnValue(msg)
		return false

	case tds.InfoToken:
		if msg.Number == tds.DirectModeInfoNumber {
			f.directMode = true
		}
		f.forward(msg)
		return false

	case tds.ErrorToken:
		f.hasSeenError = true
		token := msg
		f.errorToken = &token
		if errclass.Classify(msg.Number) == errclass.TransientReprepare && f.prepareRetried.CompareAndSwap(false, true) {
			f.logger.Debug("cursor: prepared statement invalidated, scheduling reprepare",
				zap.Int32("errorNumber", msg.Number))
			f.transitionTo(PhasePrepareRetry)
			f.hasSeenError = false
			f.errorToken = nil
			return false
		}
		f.forward(msg)
		return false

	case tds.ColumnMetadataToken:
		if !msg.HasColumns() {
			return false
		}
		f.forward(msg)
		return false

	case tds.DoneInProcToken:
		f.hasMore = msg.HasMore()
		if f.directMode {
			f.forward(msg)
			return false
		}
		if f.phase == PhaseFetching && msg.HasCount() {
			f.forward(tds.IntermediateCount{RowCount: msg.RowCount})
		}
		return false

	case tds.DoneProcToken:
		if msg.IsAttentionAck() {
			f.transitionTo(PhaseClosed)
			f.forward(msg)
			return true
		}
		if !msg.IsDone() {
			return false
		}
		if f.hasSeenError {
			f.transitionTo(PhaseError)
		}
		if f.phase == PhasePrepareRetry {
			return f.retryPrepare()
		}
		return f.onDone()

	default:
		f.forward(m)
		return false
	}
}

// onReturnValue implements reducer step 2: decode engine-internal OUT
// parameters, release and suppress them, forward everything else.
func (f *Flow) onReturnValue(rv *tds.ReturnValue) {
	threshold := surfaceThresholdDefault
	if f.kind == kindCursorPrepExec {
		threshold = surfaceThresholdPrepExec
	}

	switch {
	case f.kind == kindCursorOpen && rv.Ordinal == ordinalCursorOpenCursorID:
		f.assignOrdinal(&f.cursorID, rv)
	case f.kind == kindCursorExecute && rv.Ordinal == ordinalCursorExecCursorID:
		f.assignOrdinal(&f.cursorID, rv)
	case f.kind == kindCursorPrepExec && rv.Ordinal == ordinalPrepExecHandle:
		f.assignOrdinal(&f.preparedHandle, rv)
		if f.cache != nil && f.preparedHandle != 0 {
			f.cache.Put(f.fingerprint, f.preparedHandle)
		}
	case f.kind == kindCursorPrepExec && rv.Ordinal == ordinalPrepExecCursorID:
		f.assignOrdinal(&f.cursorID, rv)
	}

	if rv.Ordinal < threshold {
		rv.Release()
		return
	}
	f.forward(rv)
}

// onDone implements the onDone decision table (§4.5).
func (f *Flow) onDone() bool {
	if f.phase.terminal() || ((f.phase == PhaseNone || f.phase == PhaseFetching) && f.cursorID == 0) {
		f.transitionTo(PhaseClosed)
		return true
	}

	wantsMore := (f.phase == PhaseNone && f.hasMore) || f.hasSeenRows
	if wantsMore && !f.cancelRequested.Load() {
		f.transitionTo(PhaseFetching)
		f.hasSeenRows = false
		td := f.tdProvider()
		metrics.FetchWindows.Inc()
		f.pushOutbound(rpc.SpCursorFetch(f.cursorID, rpc.FetchNext, f.fetchSize, td))
		return false
	}

	f.transitionTo(PhaseClosing)
	td := f.tdProvider()
	f.pushOutbound(rpc.SpCursorClose(f.cursorID, td))
	return false
}

// retryPrepare implements the prepare-retry protocol: once the invalidated
// round's DoneProcToken arrives, reset to NONE, drop the cache entry, and
// reissue sp_cursorprepexec.
func (f *Flow) retryPrepare() bool {
	f.transitionTo(PhaseNone)
	f.cursorID = 0
	f.preparedHandle = 0
	if f.cache != nil {
		f.cache.Remove(f.fingerprint)
	}
	f.kind = kindCursorPrepExec
	td := f.tdProvider()
	metrics.PrepareRetries.Inc()
	f.logger.Debug("cursor: reissuing sp_cursorprepexec after reprepare", zap.String("query", f.query))
	f.pushOutbound(rpc.SpCursorPrepExec(f.query, f.binding, td))
	return false
}

// transitionTo moves the flow to phase, logging the transition at debug
// level per the engine's phase-transition logging convention.
func (f *Flow) transitionTo(phase Phase) {
	f.logger.Debug("cursor: phase transition",
		zap.String("from", f.phase.String()), zap.String("to", phase.String()))
	f.phase = phase
}

func (f *Flow) pushOutbound(req *rpc.Request) {
	f.outbound <- req
}

func (f *Flow) forward(m tds.Message) {
	f.downstream <- m
}

// assignOrdinal decodes rv into dst. A decode failure is protocol-fatal
// (§7(b)): it cannot be mistaken for a legitimate zero cursor id/handle, so
// it forces the flow into PhaseError instead of silently defaulting to 0.
func (f *Flow) assignOrdinal(dst *int32, rv *tds.ReturnValue) {
	v, err := codec.DecodeInt32(rv)
	if err != nil {
		f.logger.Error("cursor: malformed ordinal return value, failing exchange",
			zap.Int("ordinal", rv.Ordinal), zap.Error(err))
		f.hasSeenError = true
		f.transitionTo(PhaseError)
		return
	}
	*dst = v
}
