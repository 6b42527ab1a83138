// Package log is the small structured-logging surface the regulator logs
// through. The control loop and adapters depend only on the Logger
// interface, so embedders decide where log output actually goes.
//
// The zerolog adapter is what the pinchctl CLI installs:
//
//	logger := log.NewZerologAdapter()
//
// Library callers that want the regulator silent take the default no-op
// logger, or pass NewNoopLogger explicitly. Anything else plugs in by
// satisfying Logger:
//
//	func (l *ringLogger) Debug(msg string, fields ...log.Field) { ... }
//	func (l *ringLogger) Info(msg string, fields ...log.Field)  { ... }
//	func (l *ringLogger) Warn(msg string, fields ...log.Field)  { ... }
//	func (l *ringLogger) Error(msg string, fields ...log.Field) { ... }
package log
