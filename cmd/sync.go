package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/jordolang/tunedl/internal/library"
	"github.com/jordolang/tunedl/internal/queue"
	"github.com/jordolang/tunedl/internal/shared"
	"github.com/jordolang/tunedl/internal/tasks"
)

// Sync fetches a service's library, resolves every track, and optionally
// enqueues the results for download.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	serviceName := cmd.StringArg("service")
	if serviceName == "" {
		return fmt.Errorf("%w: service name", shared.ErrMissingArgument)
	}

	if _, ok := r.library.Service(serviceName); !ok {
		return fmt.Errorf("%w: %s", shared.ErrServiceNotRegistered, serviceName)
	}

	listenToken := r.library.Subscribe(r.syncListener())
	defer r.library.Unsubscribe(listenToken)

	opts := tasks.SyncOpts{
		AutoResolve: r.config.Advanced.AutoResolve && !cmd.Bool("no-auto-resolve"),
		RateLimit:   cmd.Float("rate-limit"),
	}

	if !cmd.Bool("download") {
		resolved, err := r.orchestrator.Sync(ctx, serviceName, opts)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		if cmd.Bool("json") {
			return r.writeJSON(resolved, true)
		}

		return r.writePlain("Resolved %d tracks.\n", len(resolved))
	}

	queueToken := r.queue.Subscribe(r.queueListener())
	defer r.queue.Unsubscribe(queueToken)

	result, err := r.orchestrator.SyncAndEnqueue(ctx, serviceName, opts)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if !r.queue.WaitForAll(cmd.Duration("timeout")) {
		r.queue.Shutdown(false)
		return fmt.Errorf("%w: downloads still pending after timeout", shared.ErrDownloadFailed)
	}

	r.queue.Shutdown(true)

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	failed := 0
	for _, item := range r.queue.Items() {
		if item.Status == queue.StatusError {
			failed++
		}
	}

	return r.writePlain("Resolved %d, downloaded %d, skipped %d, failed %d.\n",
		len(result.Resolved), len(result.Enqueued)-failed, result.Skipped, failed)
}

// syncListener prints library sync progress as it happens.
func (r *Runner) syncListener() library.Listener {
	return func(event string, progress library.SyncProgress) {
		switch event {
		case library.EventStart:
			r.writePlain("Fetching %s library...\n", progress.Service)
		case library.EventProgress:
			if progress.State == library.StateResolving {
				r.writePlain("[%d/%d] %s\n", progress.Current, progress.Total, progress.Detail)
			}
		case library.EventCompleted:
			r.writePlain("Resolved %d of %d tracks.\n", len(progress.Resolved), progress.Total)
		case library.EventError:
			r.writePlain("Sync error: %s\n", progress.Detail)
		}
	}
}

// queueListener prints download lifecycle events. Per-chunk progress events
// are skipped to keep terminal output readable.
func (r *Runner) queueListener() queue.Listener {
	return func(event string, item queue.Item) {
		switch event {
		case queue.EventStarted:
			r.writePlain("Downloading %s - %s\n", item.Track.DisplayArtist(), item.Track.Name)
		case queue.EventCompleted:
			r.writePlain("Saved %s\n", item.OutputPath)
		case queue.EventError:
			r.writePlain("Failed %s: %s\n", item.Track.Name, item.Error)
		case queue.EventCancelled:
			r.writePlain("Cancelled %s\n", item.Track.Name)
		}
	}
}
