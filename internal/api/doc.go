// Package api implements the HTTP and WebSocket surface of Gray Logic Voice.
//
// This package provides:
//   - POST /api/v1/directives: execute one voice directive and return its event
//   - GET /api/v1/audit: paginated directive history from the audit log
//   - GET /api/v1/health and /api/v1/metrics for the supervisor
//   - A WebSocket hub broadcasting "directive.executed" events
//
// # Architecture
//
// The skill adapter posts each directive as received from the voice cloud.
// The handler runs it through the directive dispatcher and always answers
// 200 with exactly one response event, which may be an Alexa.ErrorResponse.
// The outcome is then recorded to the audit writer, InfluxDB, WebSocket
// subscribers and the MQTT bus. None of those can fail the request.
//
// # Security
//
// Callers present an HS256 JWT whose role grants the route's permission.
// WebSocket clients trade their token for a single-use ticket so the token
// never appears in a URL.
package api
