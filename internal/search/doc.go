// Package search defines the [Provider] contract for locating downloadable
// sources and implements it against the yt-dlp metadata proxy.
//
// Raw results carry a batch-relative base ranking score computed by
// [RankResults]: view counts are normalized against the best result in the
// batch, and title/channel keywords add graduated bonuses or penalties. The
// resolver package layers track-specific scoring on top of this base score.
package search
