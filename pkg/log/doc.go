// Package log provides Causeway's structured logging facade.
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. Internally it is backed by Go's
// standard library slog via a custom handler that preserves the
// formatter/outputs pipeline, so output stays consistent across the codebase
// while slog-aware libraries still integrate cleanly.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("ingest"), log.Str("session", "default"))
//	l.Info("collector started", log.Int("port", 7070))
//
// Use ApplyConfig to build a logger from a declarative Config (level plus
// json or text formatting). To integrate with libraries expecting a standard
// *log.Logger, use RedirectStdLog.
package log
