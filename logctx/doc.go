// Package logctx carries ambient log fields (request_id, task_id, step) for one
// logical execution flow.
//
// A flow is attached to a context.Context. Code running on that context reads
// the fields without explicit parameter threading. Enter overlays fields on a
// fork of the flow, so siblings never observe each other's values, and Exit
// restores the previous values on every exit path. Set changes the flow in
// place; goroutines calling it directly must run on their own Fork.
package logctx
