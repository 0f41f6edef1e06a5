// Package repositories implements SQLite persistence for resolution data.
//
// [ResolutionRepository] caches the mapping from a streaming track to the
// download source it resolved to, keyed by (service, track_id) with a UNIQUE
// constraint so repeated syncs never duplicate rows. [ResolutionCacheAdapter]
// wraps the repository behind the narrow cache interface the sync
// orchestrator consumes, swallowing constraint violations from concurrent
// writers.
package repositories
