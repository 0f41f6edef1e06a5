// Package engine defines the download-engine contract consumed by the queue
// scheduler and implements it on top of kkdai/youtube.
//
// An engine call is an opaque blocking operation; its only cancellation hook
// is the progress callback. Returning a non-nil error from the callback
// aborts the transfer and the engine propagates that error unchanged, which
// is how the scheduler's cooperative cancellation reaches a running download.
package engine
