package log

// NoopLogger drops every message. It is the default when a Regulator is
// built without WithLogger, and what most tests pass in.
type NoopLogger struct{}

// NewNoopLogger returns a logger that discards everything.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

func (NoopLogger) Debug(msg string, fields ...Field) {}
func (NoopLogger) Info(msg string, fields ...Field)  {}
func (NoopLogger) Warn(msg string, fields ...Field)  {}
func (NoopLogger) Error(msg string, fields ...Field) {}
