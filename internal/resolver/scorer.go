package resolver

import (
	"math"
	"strings"

	"github.com/jordolang/tunedl/internal/models"
)

const (
	durationBonus      = 40.0
	durationPenaltyCap = 30.0
	keywordBonus       = 15.0
	lyricPenalty       = 10.0
	livePenalty        = 20.0
)

// Score computes a heuristic match score for a search result against a
// target track. Higher is better; the value is unbounded in both directions.
// Deterministic and side-effect free.
func Score(track models.StreamingTrack, result models.SearchResult) float64 {
	score := result.RankingScore

	// Duration agreement, skipped when either side is unknown
	if track.DurationMS > 0 && result.DurationSec > 0 {
		expected := float64(track.DurationMS) / 1000
		diff := math.Abs(expected - float64(result.DurationSec))
		tolerance := math.Max(5.0, expected*0.05)
		if diff <= tolerance {
			score += durationBonus
		} else {
			score -= math.Min(durationPenaltyCap, diff)
		}
	}

	title := strings.ToLower(result.Title)

	for _, artist := range track.Artists {
		if artist != "" && strings.Contains(title, strings.ToLower(artist)) {
			score += keywordBonus
			break
		}
	}
	if track.Name != "" && strings.Contains(title, strings.ToLower(track.Name)) {
		score += keywordBonus
	}

	if strings.Contains(title, "lyric") && !strings.Contains(title, "official") {
		score -= lyricPenalty
	}
	if strings.Contains(title, "live") {
		score -= livePenalty
	}

	return score
}
