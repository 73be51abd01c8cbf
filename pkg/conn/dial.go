package conn

import (
	"context"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Exponential backoff defaults for the dial path, reused verbatim from the
// teacher's backend connection manager.
const (
	defaultInitialInterval     = 100 * time.Millisecond
	defaultRandomizationFactor = 0.5
	defaultMultiplier          = 2
	defaultMaxInterval         = 4 * time.Second
)

func newExponentialBackOff(maxElapsed time.Duration) *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     defaultInitialInterval,
		RandomizationFactor: defaultRandomizationFactor,
		Multiplier:          defaultMultiplier,
		MaxInterval:         defaultMaxInterval,
		MaxElapsedTime:      maxElapsed,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	return b
}

// Dial connects to addr, retrying transient dial failures with exponential
// backoff until ctx is done or connectTimeout elapses.
func Dial(ctx context.Context, addr string, connectTimeout time.Duration, logger *zap.Logger) (net.Conn, error) {
	bctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	return backoff.RetryNotifyWithData(
		func() (net.Conn, error) {
			d := net.Dialer{}
			nc, err := d.DialContext(bctx, "tcp", addr)
			if err != nil {
				return nil, err
			}
			return nc, nil
		},
		backoff.WithContext(newExponentialBackOff(connectTimeout), bctx),
		func(err error, d time.Duration) {
			logger.Warn("dial failed, retrying", zap.String("addr", addr), zap.Error(err), zap.Duration("backoff", d))
		},
	)
}
