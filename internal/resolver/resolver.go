package resolver

import (
	"context"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jordolang/tunedl/internal/models"
	"github.com/jordolang/tunedl/internal/search"
)

const minRawResults = 10

// Resolver generates ranked download-source candidates for streaming tracks.
type Resolver struct {
	provider search.Provider
	logger   *log.Logger
}

// New creates a Resolver backed by the given search provider.
func New(provider search.Provider, logger *log.Logger) *Resolver {
	return &Resolver{provider: provider, logger: logger}
}

// GenerateCandidates returns up to limit candidates for the track, sorted by
// descending score. Ties keep provider order. Zero search results yield an
// empty slice, never an error.
func (r *Resolver) GenerateCandidates(ctx context.Context, track models.StreamingTrack, limit int) ([]models.ResolutionCandidate, error) {
	query := track.CanonicalQuery()

	fetch := limit * 2
	if fetch < minRawResults {
		fetch = minRawResults
	}

	if r.logger != nil {
		r.logger.Info("resolving track via search", "query", query)
	}

	results, err := r.provider.Search(ctx, query, fetch)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		// Bracketed suffixes ("(Deluxe Edition)", "[Remastered]") often
		// spoil organic search; retry once with the plain title.
		if stripped := stripBrackets(track.Name); stripped != "" && stripped != track.Name {
			plain := track
			plain.Name = stripped
			results, err = r.provider.Search(ctx, plain.CanonicalQuery(), fetch)
			if err != nil {
				return nil, err
			}
		}
		if len(results) == 0 {
			return []models.ResolutionCandidate{}, nil
		}
	}

	candidates := make([]models.ResolutionCandidate, 0, len(results))
	for _, result := range results {
		candidates = append(candidates, models.ResolutionCandidate{
			SourceID:    result.SourceID,
			URL:         result.URL,
			Title:       result.Title,
			Channel:     result.Channel,
			Score:       Score(track, result),
			DurationSec: result.DurationSec,
			ViewCount:   result.ViewCount,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// PickBest returns the highest scoring candidate for the track, or nil when
// the search yields nothing.
func (r *Resolver) PickBest(ctx context.Context, track models.StreamingTrack) (*models.ResolutionCandidate, error) {
	candidates, err := r.GenerateCandidates(ctx, track, 1)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return &candidates[0], nil
}

func stripBrackets(name string) string {
	if idx := strings.IndexAny(name, "(["); idx != -1 {
		return strings.TrimSpace(name[:idx])
	}
	return name
}
