// Package pkg provides shared utilities for the vidq streaming stack.
//
// This package contains common functionality used across the core state
// machines and the device backends, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error values for transport and protocol failures
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with streaming-specific context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentEndpoint, "buffer dequeued", "index", 1)
//
// # Errors
//
// Failures are defined as sentinel values and wrapped with context at the
// call site. The one that matters most is [ErrProtocolViolation], which
// marks an ownership transition attempted against its precondition:
//
//	if errors.Is(err, pkg.ErrProtocolViolation) {
//	    // A logic bug in the driver or a policy layer. Abort.
//	}
//
// Transport failures keep their underlying cause in the wrap chain, so
// errno values from a device backend remain reachable via [errors.Is].
package pkg
