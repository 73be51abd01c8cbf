// Package querylog emits the single structured log record the engine
// produces per query subscription. No per-token logging happens at info
// level; phase transitions and retries log at debug from pkg/cursor
// directly.
package querylog

import "go.uber.org/zap"

// Subscribed logs one info record for a new query subscription.
func Subscribed(logger *zap.Logger, connID, query string) {
	logger.Info("query subscribed", zap.String("conn", connID), zap.String("query", query))
}
