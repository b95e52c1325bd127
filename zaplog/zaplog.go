// Package zaplog adapts a zap logger to the logger interface used by
// redikit caches and pools.
package zaplog

import (
	"go.uber.org/zap"

	"github.com/efritz/redikit/iface"
)

// Logger writes printf-style messages to zap at debug level.
type Logger struct {
	logger *zap.SugaredLogger
}

var _ iface.Logger = &Logger{}

// New creates a Logger writing to logger.
func New(logger *zap.Logger) *Logger {
	return &Logger{
		logger: logger.Sugar(),
	}
}

// Printf formats the message and logs it at debug level.
func (l *Logger) Printf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}
