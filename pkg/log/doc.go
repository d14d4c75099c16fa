// Package log provides the logging abstraction used across dockscale.
//
// The Logger interface can be implemented by any logging library. A
// zerolog-backed console adapter and a no-op logger are provided; the
// no-op logger is the default when embedding dockscale as a library.
//
// # Usage
//
// Use the provided zerolog adapter:
//
//	logger := log.NewZerologAdapter()
//
// Or wrap an existing zerolog.Logger:
//
//	logger := log.NewZerologAdapterWithLogger(zl)
//
// # Custom Loggers
//
// Implement the Logger interface to integrate with existing logging
// infrastructure:
//
//	type MyLogger struct { ... }
//
//	func (l *MyLogger) Debug(msg string, fields ...log.Field) { ... }
//	func (l *MyLogger) Info(msg string, fields ...log.Field)  { ... }
//	func (l *MyLogger) Warn(msg string, fields ...log.Field)  { ... }
//	func (l *MyLogger) Error(msg string, fields ...log.Field) { ... }
package log
