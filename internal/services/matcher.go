package services

import (
	"context"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/jordolang/tunedl/internal/models"
	"github.com/jordolang/tunedl/internal/search"
)

// similarityThreshold is the minimum Jaro-Winkler similarity between the
// track's "artist title" string and a candidate's before an ISRC hit is
// trusted.
const similarityThreshold = 0.85

// FirstPartyMatcher resolves tracks by ISRC through the search provider and
// validates hits with string similarity, so a bad ISRC index entry cannot
// hijack a track.
type FirstPartyMatcher struct {
	provider search.Provider
}

// NewFirstPartyMatcher creates a matcher backed by the given search provider.
func NewFirstPartyMatcher(provider search.Provider) *FirstPartyMatcher {
	return &FirstPartyMatcher{provider: provider}
}

// Resolve returns a validated candidate for the track's ISRC, or (nil, nil)
// when the track has no ISRC or nothing similar enough comes back.
func (m *FirstPartyMatcher) Resolve(ctx context.Context, track models.StreamingTrack) (*models.ResolutionCandidate, error) {
	if m == nil || m.provider == nil || track.ISRC == "" {
		return nil, nil
	}

	results, err := m.provider.Search(ctx, track.ISRC, 5)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	want := strings.ToLower(track.DisplayArtist() + " " + track.Name)
	jw := metrics.NewJaroWinkler()

	var best *models.SearchResult
	var bestSim float64
	for i := range results {
		got := strings.ToLower(results[i].Channel + " " + results[i].Title)
		sim := strutil.Similarity(want, got, jw)
		if sim >= similarityThreshold && sim > bestSim {
			bestSim = sim
			best = &results[i]
		}
	}

	if best == nil {
		return nil, nil
	}

	return &models.ResolutionCandidate{
		SourceID:    best.SourceID,
		URL:         best.URL,
		Title:       best.Title,
		Channel:     best.Channel,
		Score:       bestSim * 100,
		DurationSec: best.DurationSec,
		ViewCount:   best.ViewCount,
	}, nil
}
