package mssql

import (
	"context"

	"go.uber.org/zap"

	"github.com/mp911de/2dbc-mssql/pkg/conn"
	"github.com/mp911de/2dbc-mssql/pkg/cursor"
	"github.com/mp911de/2dbc-mssql/pkg/prepcache"
	"github.com/mp911de/2dbc-mssql/pkg/querylog"
	"github.com/mp911de/2dbc-mssql/pkg/rpc"
	"github.com/mp911de/2dbc-mssql/pkg/tds"
)

// Connection is the minimal façade exercising the cursor flow engine end
// to end. It is not the product surface: a real driver would expose
// database/sql's driver.Conn/driver.Stmt/driver.Rows instead.
type Connection struct {
	id      string
	conn    *conn.Conn
	options EngineOptions
	cache   prepcache.Cache
	logger  *zap.Logger
}

// NewConnection validates opts and builds a Connection around an
// already-established conn.Conn. id identifies the connection in the
// query logger's single per-subscription record.
func NewConnection(id string, c *conn.Conn, opts EngineOptions, logger *zap.Logger) (*Connection, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var cache prepcache.Cache
	switch opts.PreparedStatementCache {
	case PreparedStatementCacheNone:
		cache = prepcache.NewNone()
	case PreparedStatementCacheLRU:
		lru, err := prepcache.NewLRU(opts.PreparedStatementCacheSize, nil)
		if err != nil {
			return nil, err
		}
		cache = lru
	default:
		cache = prepcache.NewUnbounded()
	}

	return &Connection{id: id, conn: c, options: opts, cache: cache, logger: logger}, nil
}

// Query runs one query to completion, selecting the direct, cursored, or
// cursored-parameterized flow entry point per §4.5 and §6.
func (c *Connection) Query(ctx context.Context, query string, binding *rpc.Binding) (<-chan tds.Message, error) {
	querylog.Subscribed(c.logger, c.id, query)

	td := c.conn.Txn.TransactionDescriptor

	var f *cursor.Flow
	switch {
	case c.options.FetchSize == 0:
		f = cursor.NewDirect(query, binding, td, c.logger)
	case binding == nil || binding.IsEmpty():
		f = cursor.NewCursorOpen(query, int32(c.options.FetchSize), td, c.logger)
	default:
		fp := prepcache.Fingerprint{Query: query, FormalParameters: binding.FormalParameters}
		f = cursor.NewCursorParameterized(query, binding, int32(c.options.FetchSize), c.cache, fp, td, c.logger)
	}

	if c.options.StatementTimeout > 0 {
		c.conn.ArmStatementTimeout(ctx, c.options.StatementTimeout)
	}

	return f.Start(ctx, c.conn.Exchange)
}
