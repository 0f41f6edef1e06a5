package repositories

import (
	"fmt"
	"strings"

	"github.com/jordolang/tunedl/internal/models"
)

// ResolutionCacheAdapter implements tasks.ResolutionCacher on top of
// [ResolutionRepository].
//
// Duplicate writes for the same (service, track_id) pair are silently
// ignored so concurrent sync runs do not fail on UNIQUE constraint
// violations.
type ResolutionCacheAdapter struct {
	repo *ResolutionRepository
}

// NewResolutionCacheAdapter creates a new ResolutionCacheAdapter with the given repository
func NewResolutionCacheAdapter(repo *ResolutionRepository) *ResolutionCacheAdapter {
	return &ResolutionCacheAdapter{repo: repo}
}

// CacheResolution persists the candidate a track resolved to. Returns nil
// when the track already has a cached resolution.
func (a *ResolutionCacheAdapter) CacheResolution(service, trackID string, candidate models.ResolutionCandidate) error {
	existing, err := a.repo.Get(service, trackID)
	if err == nil && existing != nil {
		return nil
	}

	err = a.repo.Create(&CachedResolution{
		Service:   service,
		TrackID:   trackID,
		Candidate: candidate,
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache resolution: %w", err)
	}

	return nil
}

// LookupResolution returns the cached candidate for a track, or (nil, nil)
// on a miss.
func (a *ResolutionCacheAdapter) LookupResolution(service, trackID string) (*models.ResolutionCandidate, error) {
	cached, err := a.repo.Get(service, trackID)
	if err != nil {
		return nil, err
	}
	if cached == nil {
		return nil, nil
	}

	candidate := cached.Candidate

	return &candidate, nil
}
