// Package observability provides structured logging, Prometheus metrics and
// graceful shutdown handling for the channel content store.
//
// # Logging
//
// Logger wraps log/slog with a JSON handler and field chaining:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("org_id", orgID).Debug("addChannel enter")
//
// Request-scoped loggers travel on the context; FromContext annotates the
// logger with the request correlation id:
//
//	ctx = observability.WithRequestID(ctx, reqID)
//	observability.FromContext(ctx).Info("handled")
//
// # Metrics
//
// Metrics registers counters and histograms for blob backend operations and
// lifecycle operations on a private registry. All observation helpers accept
// a nil receiver so metrics remain optional for library consumers.
//
// # Shutdown
//
// ShutdownManager drains the HTTP server on SIGINT/SIGTERM and then runs any
// registered cleanup functions (database disconnects, flushes) with a bounded
// timeout.
package observability
