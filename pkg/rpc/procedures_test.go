package rpc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mp911de/2dbc-mssql/pkg/rpc"
	"github.com/mp911de/2dbc-mssql/pkg/tds"
)

func TestSpCursorOpenParamOrder(t *testing.T) {
	req := rpc.SpCursorOpen("select 1", tds.TransactionDescriptor{})
	require.Equal(t, "sp_cursoropen", req.ProcID.String())
	require.Len(t, req.Params, 5)
	require.Equal(t, rpc.Out, req.Params[0].Direction)
	require.Equal(t, "select 1", req.Params[1].Value)
	require.Equal(t, rpc.Out, req.Params[4].Direction)
}

func TestSpCursorFetchSuppressesMetadata(t *testing.T) {
	req := rpc.SpCursorFetch(7, rpc.FetchNext, 10, tds.TransactionDescriptor{})
	require.NotZero(t, req.Options&rpc.NoMetadata)
	require.Equal(t, int32(7), req.Params[0].Value)
}

func TestSpCursorPrepExecReturnsHandleAndCursor(t *testing.T) {
	b := rpc.NewBinding("@p1 int")
	b.Add("@p1", rpc.In, int32(5))
	req := rpc.SpCursorPrepExec("select @p1", b, tds.TransactionDescriptor{})
	require.Equal(t, rpc.Out, req.Params[0].Direction) // prepared handle
	require.Equal(t, rpc.Out, req.Params[1].Direction) // cursor
	last := req.Params[len(req.Params)-1] // named params follow the rowcount OUT
	require.Equal(t, "@p1", last.Name)
}

func TestSpCursorExecuteReusesHandle(t *testing.T) {
	b := rpc.NewBinding("@p1 int")
	b.Add("@p1", rpc.In, int32(9))
	req := rpc.SpCursorExecute(42, b, tds.TransactionDescriptor{})
	require.Equal(t, int32(42), req.Params[0].Value)
	require.Equal(t, rpc.In, req.Params[0].Direction)
}

func TestSpExecuteSqlAcceptsNilBinding(t *testing.T) {
	req := rpc.SpExecuteSql("select 1", nil, tds.TransactionDescriptor{})
	require.Equal(t, "select 1", req.Params[0].Value)
	require.Equal(t, "", req.Params[1].Value)
	require.Len(t, req.Params, 2)
}

func TestSpCursorPrepExecSetsParameterizedBitOnlyWithParams(t *testing.T) {
	noParams := rpc.SpCursorPrepExec("select 1", nil, tds.TransactionDescriptor{})
	scrollOpt := noParams.Params[4].Value.(int32)
	require.Zero(t, scrollOpt&0x1000, "no bound parameters must not set the PARAMETERIZED_STMT bit")

	b := rpc.NewBinding("@p1 int")
	b.Add("@p1", rpc.In, int32(5))
	withParams := rpc.SpCursorPrepExec("select @p1", b, tds.TransactionDescriptor{})
	scrollOpt = withParams.Params[4].Value.(int32)
	require.NotZero(t, scrollOpt&0x1000, "bound parameters must set the PARAMETERIZED_STMT bit")
}

func TestSpCursorExecuteNeverSetsParameterizedBit(t *testing.T) {
	b := rpc.NewBinding("@p1 int")
	b.Add("@p1", rpc.In, int32(9))
	req := rpc.SpCursorExecute(42, b, tds.TransactionDescriptor{})
	scrollOpt := req.Params[2].Value.(int32)
	require.Zero(t, scrollOpt&0x1000, "sp_cursorexecute never sets the PARAMETERIZED_STMT bit")
}

func TestBindingPreservesOrder(t *testing.T) {
	b := rpc.NewBinding("@a int, @b int")
	b.Add("@a", rpc.In, int32(1))
	b.Add("@b", rpc.In, int32(2))
	var order []string
	b.ForEach(func(name string, _ rpc.NamedParameter) {
		order = append(order, name)
	})
	require.Equal(t, []string{"@a", "@b"}, order)
}
