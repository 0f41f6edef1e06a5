package queue

import (
	"time"

	"github.com/jordolang/tunedl/internal/formatter"
	"github.com/jordolang/tunedl/internal/models"
)

// Item is one scheduled download. The scheduler hands out value copies;
// only the owning worker mutates the canonical record.
type Item struct {
	ID         string
	Track      models.StreamingTrack
	SourceURL  string
	OutputPath string
	Quality    int
	Status     Status
	Percent    float64
	Speed      float64
	Downloaded int64
	TotalBytes int64
	Error      string
	EnqueuedAt time.Time
	StartedAt  time.Time
	FinishedAt time.Time
}

// ETA returns the estimated time remaining as a human-readable string,
// derived from the last progress report.
func (it *Item) ETA() string {
	return formatter.FormatETA(it.TotalBytes-it.Downloaded, it.Speed)
}

// Metadata returns the tag map passed to the download engine. Empty
// fields are omitted so the engine only writes tags it has values for.
func (it *Item) Metadata() map[string]string {
	meta := map[string]string{
		"title":  it.Track.Name,
		"artist": it.Track.DisplayArtist(),
	}

	if it.Track.Album != "" {
		meta["album"] = it.Track.Album
	}

	if it.Track.AlbumArtist != "" {
		meta["album_artist"] = it.Track.AlbumArtist
	}

	if len(it.Track.ReleaseDate) >= 4 {
		meta["year"] = it.Track.ReleaseDate[:4]
	}

	return meta
}
