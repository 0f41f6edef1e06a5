package queue

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jordolang/tunedl/internal/formatter"
	"github.com/jordolang/tunedl/internal/models"
	"github.com/jordolang/tunedl/internal/shared"
)

const maxRenameAttempts = 1000

// buildOutputPath lays tracks out as base/artist/album/title.mp3, dropping
// the album level when the track has none.
func buildOutputPath(baseDir string, track models.StreamingTrack) string {
	artist := formatter.SanitizeFilename(track.DisplayArtist())
	title := formatter.SanitizeFilename(track.Name)

	dir := filepath.Join(baseDir, artist)
	if track.Album != "" {
		dir = filepath.Join(dir, formatter.SanitizeFilename(track.Album))
	}

	return filepath.Join(dir, title+".mp3")
}

// resolveDuplicatePath applies the configured duplicate strategy to a
// candidate output path. A path counts as taken when it exists on disk or
// is already claimed by a queued item that has not finished writing yet.
//
// Skip and overwrite return the path as-is; colliding enqueues share one
// path under both. Rename probes "name (n).ext" until it finds a free slot.
func resolveDuplicatePath(path string, strategy shared.DuplicateStrategy, claimed map[string]struct{}) (string, error) {
	taken := func(p string) bool {
		if _, ok := claimed[p]; ok {
			return true
		}

		_, err := os.Stat(p)

		return err == nil
	}

	if strategy == shared.DuplicateSkip || strategy == shared.DuplicateOverwrite {
		return path, nil
	}

	if !taken(path) {
		return path, nil
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)

	for n := 1; n <= maxRenameAttempts; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		if !taken(candidate) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: no free name for %s", shared.ErrOutputPathConflict, path)
}
