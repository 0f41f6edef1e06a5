package search

import (
	"strings"

	"github.com/jordolang/tunedl/internal/models"
)

// Ranking weights applied by [RankResults]. Bonuses reward signals of an
// official upload; penalties push down live cuts, covers, and karaoke noise.
const (
	maxViewScore = 40.0

	officialTitleBonus   = 30.0
	officialChannelBonus = 20.0

	officialVideoBonus = 15.0
	officialAudioBonus = 12.0
	musicVideoBonus    = 8.0

	livePenalty         = 25.0
	coverPenalty        = 15.0
	lyricsPenalty       = 10.0
	karaokePenalty      = 20.0
	instrumentalPenalty = 15.0
	remixPenalty        = 10.0

	shortDurationPenalty = 15.0
	longDurationPenalty  = 10.0

	minReasonableDuration = 60
	maxReasonableDuration = 600
)

// RankResults assigns a base ranking score to every result in the batch.
//
// The score is independent of any target track: view counts are normalized
// linearly against the batch maximum, and title/channel text contributes
// fixed bonuses and penalties. Scores are written to the results in place.
func RankResults(results []models.SearchResult) {
	var maxViews int64
	for _, r := range results {
		if r.ViewCount > maxViews {
			maxViews = r.ViewCount
		}
	}

	for i := range results {
		results[i].RankingScore = rankResult(results[i], maxViews)
	}
}

func rankResult(r models.SearchResult, maxViews int64) float64 {
	score := 0.0

	if maxViews > 0 && r.ViewCount > 0 {
		score += maxViewScore * float64(r.ViewCount) / float64(maxViews)
	}

	title := strings.ToLower(r.Title)
	channel := strings.ToLower(r.Channel)

	if strings.Contains(title, "official") {
		score += officialTitleBonus
	}
	if strings.Contains(channel, "official") || strings.Contains(channel, "vevo") {
		score += officialChannelBonus
	}

	// Content-type bonus, first match wins
	switch {
	case strings.Contains(title, "official video"):
		score += officialVideoBonus
	case strings.Contains(title, "official audio"):
		score += officialAudioBonus
	case strings.Contains(title, "music video"):
		score += musicVideoBonus
	}

	if strings.Contains(title, "live") {
		score -= livePenalty
	}
	if strings.Contains(title, "cover") {
		score -= coverPenalty
	}
	if strings.Contains(title, "lyrics") && !strings.Contains(title, "official") {
		score -= lyricsPenalty
	}
	if strings.Contains(title, "karaoke") {
		score -= karaokePenalty
	}
	if strings.Contains(title, "instrumental") {
		score -= instrumentalPenalty
	}
	if strings.Contains(title, "remix") && !strings.Contains(title, "official") {
		score -= remixPenalty
	}

	if r.DurationSec > 0 {
		if r.DurationSec < minReasonableDuration {
			score -= shortDurationPenalty
		} else if r.DurationSec > maxReasonableDuration {
			score -= longDurationPenalty
		}
	}

	return score
}
