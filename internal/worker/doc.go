// Package worker runs cleanup operations either in the calling goroutine
// or on a pool of background goroutines.
//
// Every operation is a Func registered under a name in a Registry. An
// Executor runs a Task (operation name, input buffer, payload) and returns
// the resulting buffer:
//
//   - Local runs the registry function directly and never fails for
//     transport reasons.
//   - Pool is a Transport: a fixed set of goroutines fed through a channel.
//     It must be started with Init and stopped with Close.
//   - Fallback tries a Transport for large inputs and reruns the task
//     locally when the transport is unavailable or fails. The transport's
//     failure is logged as a warning and never reaches the caller.
//
// Local and Pool call the same registry functions, so both paths produce
// byte-identical buffers.
//
// # Progress
//
// A raster.ProgressFunc passed to Execute receives advisory updates. Pool
// workers forward them to the caller until the caller stops waiting.
//
// # Cancellation
//
// Local ignores cancellation; an operation that has started runs to
// completion. Pool honours ctx while a task is queued or running, returning
// ctx.Err() to the caller; the abandoned worker finishes in the background
// and its result is discarded.
package worker
