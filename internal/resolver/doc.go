// Package resolver maps streaming tracks to ranked download-source candidates.
//
// # Scoring
//
// [Score] is a pure function layering track-specific adjustments on top of a
// result's batch-relative base ranking score:
//   - +40 when the result duration is within 5% (or 5s, whichever is larger)
//     of the track duration; otherwise a penalty capped at 30 grows with the
//     difference in seconds
//   - +15 when any artist name appears in the result title, +15 when the
//     track name does (both case-insensitive)
//   - -10 for "lyric" titles without "official", -20 for "live"
//
// A missing duration on either side skips the duration term entirely.
//
// # Resolution
//
// [Resolver.GenerateCandidates] searches with the track's canonical query,
// scores every raw result, and returns the top candidates in stable
// descending score order. [Resolver.PickBest] is the single-candidate
// convenience wrapper used by the library sync coordinator.
package resolver
