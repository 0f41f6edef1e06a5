package models

import (
	"strings"
	"time"
)

// StreamingTrack is the canonical representation of a track sourced from a streaming service.
type StreamingTrack struct {
	Service     string
	TrackID     string
	Name        string
	Artists     []string
	Album       string
	AlbumArtist string
	DurationMS  int    // 0 when the service did not report a duration
	ISRC        string // International Standard Recording Code for matching
	ArtworkURL  string
	TrackNumber int
	DiscNumber  int
	Explicit    bool
	ReleaseDate string // e.g. "2011-08-16"
}

// DisplayArtist returns a human readable artist string.
func (t StreamingTrack) DisplayArtist() string {
	if len(t.Artists) > 0 {
		return strings.Join(t.Artists, ", ")
	}
	if t.AlbumArtist != "" {
		return t.AlbumArtist
	}
	return "Unknown"
}

// CanonicalQuery builds a deterministic search query for resolver heuristics.
// Empty parts are filtered out.
func (t StreamingTrack) CanonicalQuery() string {
	pieces := make([]string, 0, 3)
	for _, piece := range []string{t.DisplayArtist(), t.Name, t.Album} {
		if piece != "" {
			pieces = append(pieces, piece)
		}
	}
	return strings.Join(pieces, " ")
}

// Playlist represents a playlist or library collection.
type Playlist struct {
	Service     string
	PlaylistID  string
	Name        string
	Description string
	Owner       string
	TrackCount  int
	ArtworkURL  string
	Tracks      []StreamingTrack
}

// LibrarySnapshot is a summary of fetched library data for one sync run.
type LibrarySnapshot struct {
	Service     string
	FetchedAt   time.Time
	Playlists   []Playlist
	LikedTracks []StreamingTrack
}

// TotalTracks returns the sum of all playlist track counts plus liked tracks.
func (s LibrarySnapshot) TotalTracks() int {
	total := len(s.LikedTracks)
	for _, pl := range s.Playlists {
		total += len(pl.Tracks)
	}
	return total
}

// SearchResult represents a raw search provider hit.
//
// RankingScore is the provider-level base score computed against the result batch,
// independent of any target track.
type SearchResult struct {
	SourceID     string
	URL          string
	Title        string
	Channel      string
	DurationSec  int // 0 when unknown
	ViewCount    int64
	RankingScore float64
}

// ResolutionCandidate is a potential download-source match for a streaming track.
type ResolutionCandidate struct {
	SourceID    string
	URL         string
	Title       string
	Channel     string
	Score       float64
	DurationSec int
	ViewCount   int64
}

// ResolvedTrack is the final mapping between a streaming track and a download source.
type ResolvedTrack struct {
	Track      StreamingTrack
	Candidate  ResolutionCandidate
	Confidence float64
}
