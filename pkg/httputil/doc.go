// Package httputil provides shared HTTP plumbing for the REST surface:
// JSON request/response helpers, path and query parameter parsing, and the
// middleware chain (request ids, context loggers, access logging, panic
// recovery, body size caps).
package httputil
