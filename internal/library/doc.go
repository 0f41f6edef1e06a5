// Package library coordinates per-service sync runs.
//
// # State machine
//
// A sync run moves through fetching → resolving → completed, or lands in
// error on the first fetch or resolution failure. Failures in the
// enumeration loop abort the whole run: a partial snapshot makes progress
// accounting unreliable, so the coordinator fails fast and surfaces the
// error to the caller.
//
// A track with no candidate from either the service's first-party matcher or
// the fallback resolver is logged and skipped; it never aborts the run.
//
// # Listeners
//
// Every transition notifies all subscribed listeners synchronously, in
// subscription order. A panicking listener is recovered and logged; it can
// neither break the sync run nor starve later listeners.
package library
