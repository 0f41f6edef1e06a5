package engine

import (
	"context"

	"github.com/jordolang/tunedl/internal/formatter"
)

// Transfer phases reported through [Progress].
const (
	StatusDownloading = "downloading"
	StatusProcessing  = "processing"
)

// Progress carries transfer state for a single callback invocation.
type Progress struct {
	Status          string // downloading or processing
	Percent         float64
	DownloadedBytes int64
	TotalBytes      int64
	Speed           float64 // bytes per second
	Filename        string
}

// FormattedSpeed returns the speed as a human-readable string.
func (p Progress) FormattedSpeed() string {
	return formatter.FormatSpeed(p.Speed)
}

// FormattedETA returns the estimated time remaining as a human-readable string.
func (p Progress) FormattedETA() string {
	return formatter.FormatETA(p.TotalBytes-p.DownloadedBytes, p.Speed)
}

// ProgressFunc receives transfer updates. A non-nil return aborts the
// transfer; the engine propagates the returned error to its caller.
type ProgressFunc func(Progress) error

// Engine downloads a source URL to an audio file.
//
// Returns (true, nil) on success, (false, nil) on a handled failure, and a
// non-nil error for unhandled failures, including the abort error produced
// by the progress callback.
type Engine interface {
	Download(ctx context.Context, url, outputPath string, quality int, progress ProgressFunc, metadata map[string]string) (bool, error)
}
