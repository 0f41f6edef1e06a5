// Package tasks composes the library sync pipeline with the download queue.
//
// [Orchestrator.Sync] runs a full library sync for one streaming service and
// returns the resolved tracks. [Orchestrator.SyncAndEnqueue] additionally
// hands every resolved track to the download queue, rate limiting the
// enqueue loop so a large library does not hammer the resolver proxy's
// download endpoints all at once.
//
// [CachingResolver] wraps the fallback resolver with the SQLite resolution
// cache so re-syncing a library skips search round trips for tracks that
// already resolved once.
package tasks
