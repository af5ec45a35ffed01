// Package zap adapts a zap logger to the chorus Logger interface.
//
// Key/value pairs are passed to the zap.SugaredLogger "w" methods, so they
// become structured fields:
//
//	logger, _ := zap.NewProduction()
//	client, _ := chorus.NewClient(transport,
//	    chorus.WithLogger(zaplog.New(logger)),
//	)
package zap

import (
	"go.uber.org/zap"

	"github.com/arloliu/chorus/types"
)

// Logger implements types.Logger on top of a zap.SugaredLogger.
type Logger struct {
	sugar *zap.SugaredLogger
}

var _ types.Logger = (*Logger)(nil)

// New wraps l. A nil logger is replaced by zap.NewNop().
func New(l *zap.Logger) *Logger {
	if l == nil {
		l = zap.NewNop()
	}

	return &Logger{sugar: l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

// Named returns a logger with name appended to the logger name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{sugar: l.sugar.Named(name)}
}

// With returns a logger that adds keysAndValues to every message.
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{sugar: l.sugar.With(keysAndValues...)}
}

// Sync flushes buffered log entries.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...any) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...any) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...any) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...any) {
	l.sugar.Errorw(msg, keysAndValues...)
}

// Fatal logs the message and exits the process, as zap does.
func (l *Logger) Fatal(msg string, keysAndValues ...any) {
	l.sugar.Fatalw(msg, keysAndValues...)
}
