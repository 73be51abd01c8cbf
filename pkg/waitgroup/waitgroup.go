// Package waitgroup adds panic recovery on top of sync.WaitGroup for the
// long-running goroutines that drive a connection (reader, writer,
// dispatcher): a panic in one of them must not take down the process
// silently, it should be logged and the goroutine's departure accounted for.
package waitgroup

import (
	"sync"

	"go.uber.org/zap"
)

// WaitGroup is a sync.WaitGroup that can launch goroutines for you.
type WaitGroup struct {
	sync.WaitGroup
}

// Run starts exec in a goroutine tracked by the WaitGroup. Do not panic in exec.
func (w *WaitGroup) Run(exec func()) {
	w.Add(1)
	go func() {
		defer w.Done()
		exec()
	}()
}

// RunWithRecover is like Run but recovers a panic in exec, logs it, and
// invokes recoverFn (which may itself call Close()/Wait()) afterwards.
func (w *WaitGroup) RunWithRecover(exec func(), recoverFn func(r interface{}), logger *zap.Logger) {
	w.Add(1)
	go func() {
		defer recoverFromPanic(&w.WaitGroup, recoverFn, logger)
		exec()
	}()
}

func recoverFromPanic(wg *sync.WaitGroup, recoverFn func(r interface{}), logger *zap.Logger) {
	r := recover()
	defer func() {
		_ = recover() // a second panic during recovery: give up quietly
	}()
	if r != nil && logger != nil {
		logger.Error("panic in connection goroutine", zap.Reflect("recovered", r), zap.Stack("stack"))
	}
	wg.Done()
	if r != nil && recoverFn != nil {
		recoverFn(r)
	}
}
