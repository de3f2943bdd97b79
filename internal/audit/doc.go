// Package audit records every executed voice directive in the directive_log
// table and serves it back for the audit endpoint.
//
// Writes go through Writer, which queues entries on a bounded channel and
// inserts them from a single goroutine so request handling never waits on
// SQLite. A full queue drops the entry and logs a warning.
package audit
