// Package backend is the transport to the home automation backend.
//
// Items are read with GET /rest/items/{name} and commanded with
// POST /rest/items/{name} (text/plain body). Every call carries the bearer
// token of the voice directive that caused it, falling back to a configured
// service token.
//
// Non-2xx answers are returned as *StatusError so callers can distinguish a
// missing item (IsNotFound) from any other failure. Retry policy is not
// applied here; the HTTP client timeout bounds each call.
//
// Mirror decorates any Backend to copy successful commands onto the MQTT bus
// (graylogic/voice/command/{item}) and successful reads into InfluxDB
// (measurement item_state). Mirror failures are logged, never returned.
package backend
