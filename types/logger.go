package types

// Logger is the structured logger used throughout chorus.
//
// Messages carry alternating key/value pairs, the same convention as
// zap.SugaredLogger's "w" methods (see contrib/logging/zap).
// Implementations must be safe for concurrent use.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	Fatal(msg string, keysAndValues ...any)
}
