// Package logging provides the logging facade used by the alpm binding.
//
// The Logger interface is a context-aware subset of log/slog. The handle
// forwards libalpm's own log output to it and adds a few lifecycle events of
// its own, so applications decide where pacman-style diagnostics end up.
//
// # Default Implementation
//
//	// Use slog.Default()
//	logger := logging.New(nil)
//
//	// Use a custom slog.Logger
//	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})
//	h, err := alpm.New("/", "/var/lib/pacman/", alpm.WithLogger(logging.New(slog.New(handler))))
//
// # Native Messages
//
// Lines coming from libalpm carry the attribute source=libalpm. libalpm's
// error and warning levels map to slog's Error and Warn; debug and function
// tracing both map to Debug. Trailing newlines are stripped.
//
// # Discarding
//
// Discard returns a Logger that drops every record, which is what tests use
// when the output is noise.
package logging
