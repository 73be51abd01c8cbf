// Package logutil constructs the zap.Logger instances threaded through the
// engine and a recording logger used by tests.
package logutil

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production logger writing JSON at the given level.
func New(level zapcore.Level) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := cfg.Build()
	if err != nil {
		// Config above is static and always valid; fall back rather than panic.
		return zap.NewNop()
	}
	return logger
}

type testingWriter struct {
	*testing.T
	sync.Mutex
	buf bytes.Buffer
}

func (w *testingWriter) Write(b []byte) (int, error) {
	w.Lock()
	defer w.Unlock()
	w.Logf("%s", b)
	return w.buf.Write(b)
}

func (w *testingWriter) String() string {
	w.Lock()
	defer w.Unlock()
	return w.buf.String()
}

// ForTest returns a logger that writes to t.Log, plus the captured contents
// so assertions can check which records were emitted.
func ForTest(t *testing.T) (*zap.Logger, fmt.Stringer) {
	w := &testingWriter{T: t}
	return zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(w),
		zap.DebugLevel,
	)).Named(t.Name()), w
}
