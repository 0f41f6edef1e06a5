package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/jordolang/tunedl/internal/models"
	"github.com/jordolang/tunedl/internal/queue"
	"github.com/jordolang/tunedl/internal/shared"
)

// Resolve finds download-source candidates for a single track described by
// flags and prints them best first.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	track := models.StreamingTrack{
		Name:       cmd.String("title"),
		Album:      cmd.String("album"),
		DurationMS: int(cmd.Int("duration")) * 1000,
	}

	if artist := cmd.String("artist"); artist != "" {
		track.Artists = strings.Split(artist, ",")
		for i := range track.Artists {
			track.Artists[i] = strings.TrimSpace(track.Artists[i])
		}
	}

	limit := int(cmd.Int("limit"))
	if limit <= 0 {
		limit = r.config.Advanced.SearchLimit
	}

	candidates, err := r.resolver.GenerateCandidates(ctx, track, limit)
	if err != nil {
		return fmt.Errorf("resolution failed: %w", err)
	}

	if len(candidates) == 0 {
		return r.writePlain("No candidates found for %q.\n", track.CanonicalQuery())
	}

	if cmd.Bool("json") {
		return r.writeJSON(candidates, cmd.Bool("pretty"))
	}

	for i, c := range candidates {
		if err := r.writePlain("%d. [%.1f] %s (%s) %s\n", i+1, c.Score, c.Title, c.Channel, c.URL); err != nil {
			return err
		}
	}

	return nil
}

// Download runs a one-shot synchronous download of a single source URL.
// It goes through the queue so output path layout and duplicate handling
// match batch syncs.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	url := cmd.StringArg("url")
	if url == "" {
		return fmt.Errorf("%w: source url", shared.ErrMissingArgument)
	}

	track := models.StreamingTrack{
		Name:  cmd.String("title"),
		Album: cmd.String("album"),
	}
	if artist := cmd.String("artist"); artist != "" {
		track.Artists = []string{artist}
	}

	q := queue.NewManager(r.engine, queue.Options{
		BaseDir:     r.config.General.SaveLocation,
		Quality:     r.config.Bitrate(),
		Duplicates:  r.config.Duplicates(),
		Synchronous: true,
	}, r.logger)
	defer q.Shutdown(true)

	token := q.Subscribe(r.queueListener())
	defer q.Unsubscribe(token)

	id, err := q.Enqueue(track, url)
	if err != nil {
		return fmt.Errorf("failed to enqueue download: %w", err)
	}

	item, err := q.Item(id)
	if err != nil {
		return err
	}

	if item.Status == queue.StatusError {
		return fmt.Errorf("%w: %s", shared.ErrDownloadFailed, item.Error)
	}

	return nil
}
