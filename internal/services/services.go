// package services defines interface StreamingService for music streaming providers
//
// Spotify, Apple Music
package services

import (
	"context"

	"github.com/jordolang/tunedl/internal/models"
)

// StreamingService defines the contract for streaming providers (Spotify,
// Apple Music) whose libraries feed the sync pipeline. The coordinator and
// scheduler depend only on this interface, never on concrete clients.
type StreamingService interface {
	// Authenticate performs OAuth or token-based authentication with the service.
	// Returns an error if authentication fails.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// FetchLibrary returns a snapshot of the user's playlists and liked tracks.
	FetchLibrary(ctx context.Context) (*models.LibrarySnapshot, error)

	// ResolveTrack performs first-party matching for a track (e.g. ISRC
	// lookup). Returns (nil, nil) when the service has no match; the
	// coordinator then falls back to the generic resolver.
	ResolveTrack(ctx context.Context, track models.StreamingTrack) (*models.ResolutionCandidate, error)

	// Name returns the name of the service (e.g. "spotify", "apple_music")
	Name() string
}
