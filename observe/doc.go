// Package observe provides JSON structured logging, action metrics and
// instrumentation for units of work.
//
// Log lines carry a fixed schema (ts, level, msg, logger, service, version,
// env, request_id, task_id, step) merged with caller fields and the ambient
// fields of the current logctx flow. Instrument wraps a function with
// start/done/failed logs, a latency histogram and a success/error counter.
package observe
