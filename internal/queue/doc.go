// Package queue implements the download scheduler: a bounded-concurrency job
// runner with cooperative pause and cancel.
//
// # Ownership
//
// [Item] state is owned exclusively by the scheduler. Callers and listeners
// only ever see value snapshots; pause, resume, and cancel requests flip
// flags that the owning worker consumes cooperatively at its checkpoints.
//
// # Checkpoints
//
// A worker may block in two places: before the download starts and inside
// the engine's progress callback. Both poll the pause flag at a fixed short
// interval and re-check cancellation every cycle, so a cancel can never be
// starved by an indefinite pause. Cancellation is a request, not an
// interrupt: it takes effect at the next checkpoint, and a cancel requested
// before an engine success is recorded wins the race.
//
// # Locking
//
// One scheduler lock guards the items map, done-channel map, listener map,
// and claimed output paths. It is held only for short bookkeeping sections,
// never across a blocking wait or an engine call.
package queue
