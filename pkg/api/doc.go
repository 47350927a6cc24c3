// Package api exposes the org, channel and version lifecycle over a
// versioned REST surface. Handlers stay thin: request parsing and status
// mapping live here, all domain rules live in pkg/channels and pkg/orgs.
//
// Routes are rooted at /api/v1. The caller identity arrives in the
// X-Subject header, forwarded by the fronting gateway.
package api
