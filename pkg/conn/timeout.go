package conn

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ArmStatementTimeout starts a background timer that sends an Attention
// command if d elapses before ctx is done (the caller cancels ctx once the
// exchange completes normally). A zero d disables the timeout, matching
// EngineOptions.StatementTimeout's documented "0 disables" semantics.
//
// The timer goroutine is tracked by c.wg via waitgroup.RunWithRecover so a
// panic inside it is logged instead of silently killing the connection.
func (c *Conn) ArmStatementTimeout(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	c.wg.RunWithRecover(func() {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			if err := c.Exchange.SendAttention(ctx); err != nil {
				c.logger.Warn("statement timeout: failed to send attention", zap.Error(err))
			}
		case <-ctx.Done():
		}
	}, func(r interface{}) {
		c.logger.Error("statement timeout goroutine panicked", zap.Any("recovered", r))
	}, c.logger)
}
