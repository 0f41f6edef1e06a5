// Package models defines the domain entities shared across the sync and download pipeline.
//
// The types fall into three groups:
//
// 1. Streaming-service data, immutable once fetched:
//   - [StreamingTrack] : Canonical track identity from Spotify or Apple Music
//   - [Playlist] : A playlist or library collection with its tracks
//   - [LibrarySnapshot] : Everything fetched for one sync run (playlists + liked tracks)
//
// 2. Resolution output, produced by the search/resolver pipeline:
//   - [SearchResult] : A raw search hit with its batch-relative base ranking score
//   - [ResolutionCandidate] : A scored download-source guess for one track
//   - [ResolvedTrack] : Final pairing of track, best candidate, and confidence
//
// 3. Sync bookkeeping:
//   - [SyncProgress] lives in the library package since it is owned by the coordinator
//
// None of these types are persisted; the repositories package stores its own row types.
package models
