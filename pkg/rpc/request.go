// Package rpc builds the TDS RPC requests the cursor flow engine issues:
// sp_executesql, sp_cursoropen, sp_cursorprepexec, sp_cursorexecute,
// sp_cursorfetch and sp_cursorclose, each with a fixed, bit-exact positional
// parameter layout (see the Engine Cursors Functional Specification).
package rpc

import "github.com/mp911de/2dbc-mssql/pkg/tds"

// Direction is the IN/OUT tag carried by every RPC parameter.
type Direction byte

const (
	In Direction = iota
	Out
)

// OptionFlags are the per-request RPC option bits.
type OptionFlags uint16

const (
	// NoMetadata suppresses ColumnMetadataToken in the response; applied to
	// sp_cursorfetch requests since the shape of the result set never
	// changes between fetch windows.
	NoMetadata OptionFlags = 1 << iota
)

// Param is one positional or named RPC parameter.
type Param struct {
	Direction Direction
	Name      string // empty for positional parameters
	Value     interface{}
}

// Request is an immutable, fully-built RPC call ready to hand to the
// exchange channel.
type Request struct {
	ProcID                ProcID
	TransactionDescriptor tds.TransactionDescriptor
	Options               OptionFlags
	Params                []Param
}

func (*Request) ClientMessage() {}

// Builder assembles a Request with strict positional ordering: positional
// parameters first (fixed per ProcID, see the Sp* constructors in
// procedures.go), then the caller's named parameters in binding order.
type Builder struct {
	req Request
}

func NewBuilder(proc ProcID, td tds.TransactionDescriptor) *Builder {
	return &Builder{req: Request{ProcID: proc, TransactionDescriptor: td}}
}

func (b *Builder) WithOptions(opts OptionFlags) *Builder {
	b.req.Options |= opts
	return b
}

func (b *Builder) WithParam(dir Direction, value interface{}) *Builder {
	b.req.Params = append(b.req.Params, Param{Direction: dir, Value: value})
	return b
}

func (b *Builder) WithNamedParam(dir Direction, name string, value interface{}) *Builder {
	b.req.Params = append(b.req.Params, Param{Direction: dir, Name: name, Value: value})
	return b
}

// Build finalizes the request. The returned Request must not be mutated.
func (b *Builder) Build() *Request {
	req := b.req
	params := make([]Param, len(b.req.Params))
	copy(params, b.req.Params)
	req.Params = params
	return &req
}
