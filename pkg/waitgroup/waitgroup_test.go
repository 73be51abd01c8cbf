package waitgroup_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/mp911de/2dbc-mssql/pkg/waitgroup"
)

func TestRun(t *testing.T) {
	var wg waitgroup.WaitGroup
	ran := atomic.NewBool(false)
	wg.Run(func() { ran.Store(true) })
	wg.Wait()
	require.True(t, ran.Load())
}

func TestRunWithRecoverRecoversPanic(t *testing.T) {
	var wg waitgroup.WaitGroup
	recovered := make(chan interface{}, 1)
	wg.RunWithRecover(func() {
		panic("boom")
	}, func(r interface{}) {
		recovered <- r
	}, nil)
	wg.Wait()
	require.Equal(t, "boom", <-recovered)
}
