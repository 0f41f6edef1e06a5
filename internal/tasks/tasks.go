package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/jordolang/tunedl/internal/library"
	"github.com/jordolang/tunedl/internal/models"
	"github.com/jordolang/tunedl/internal/shared"
)

// ResolutionCacher persists and recalls track-to-source resolutions.
type ResolutionCacher interface {
	CacheResolution(service, trackID string, candidate models.ResolutionCandidate) error
	LookupResolution(service, trackID string) (*models.ResolutionCandidate, error)
}

// Downloader is the slice of the queue manager the orchestrator needs.
type Downloader interface {
	Enqueue(track models.StreamingTrack, sourceURL string) (string, error)
}

// SyncOpts configures one orchestrated sync run.
type SyncOpts struct {
	// AutoResolve enables the fallback resolver for tracks the service's
	// own matcher cannot place.
	AutoResolve bool
	// RateLimit caps enqueues per second. Zero or less means unlimited.
	RateLimit float64
}

// SyncResult summarizes an orchestrated sync-and-enqueue run.
type SyncResult struct {
	Service  string
	Resolved []models.ResolvedTrack
	// Enqueued holds the queue item IDs in enqueue order.
	Enqueued []string
	// Skipped counts tracks whose output path was already taken under the
	// skip duplicate strategy.
	Skipped int
}

// Orchestrator drives the sync pipeline end to end: fetch, resolve, enqueue.
type Orchestrator struct {
	library *library.Manager
	queue   Downloader
	logger  *log.Logger
}

// NewOrchestrator wires a library manager to a download queue.
func NewOrchestrator(lib *library.Manager, queue Downloader, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Orchestrator{library: lib, queue: queue, logger: logger}
}

// Sync runs a library sync for one service and returns the resolved tracks.
func (o *Orchestrator) Sync(ctx context.Context, service string, opts SyncOpts) ([]models.ResolvedTrack, error) {
	return o.library.SyncService(ctx, service, opts.AutoResolve)
}

// SyncAndEnqueue syncs a service's library and enqueues every resolved track
// for download. Tracks the queue rejects over an output-path conflict are
// counted, not fatal; any other enqueue failure aborts the run.
func (o *Orchestrator) SyncAndEnqueue(ctx context.Context, service string, opts SyncOpts) (*SyncResult, error) {
	resolved, err := o.library.SyncService(ctx, service, opts.AutoResolve)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{Service: service, Resolved: resolved}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	for _, track := range resolved {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return result, err
			}
		}

		id, err := o.queue.Enqueue(track.Track, track.Candidate.URL)
		if err != nil {
			if errors.Is(err, shared.ErrOutputPathConflict) {
				o.logger.Debug("skipping duplicate track", "track", track.Track.Name)
				result.Skipped++

				continue
			}

			return result, fmt.Errorf("failed to enqueue %q: %w", track.Track.Name, err)
		}

		result.Enqueued = append(result.Enqueued, id)
	}

	o.logger.Info("sync complete",
		"service", service,
		"resolved", len(result.Resolved),
		"enqueued", len(result.Enqueued),
		"skipped", result.Skipped,
	)

	return result, nil
}

// CachingResolver layers a resolution cache over a fallback resolver.
// Lookups and writes are best effort; cache errors are logged and the inner
// resolver's answer stands.
type CachingResolver struct {
	inner  library.TrackResolver
	cache  ResolutionCacher
	logger *log.Logger
}

// NewCachingResolver wraps inner with cache. A nil cache passes through.
func NewCachingResolver(inner library.TrackResolver, cache ResolutionCacher, logger *log.Logger) *CachingResolver {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &CachingResolver{inner: inner, cache: cache, logger: logger}
}

// PickBest answers from the cache when it can, otherwise defers to the
// inner resolver and caches a hit for next time.
func (r *CachingResolver) PickBest(ctx context.Context, track models.StreamingTrack) (*models.ResolutionCandidate, error) {
	if r.cache != nil && track.TrackID != "" {
		cached, err := r.cache.LookupResolution(track.Service, track.TrackID)
		if err != nil {
			r.logger.Warn("resolution cache lookup failed", "track", track.Name, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	candidate, err := r.inner.PickBest(ctx, track)
	if err != nil || candidate == nil {
		return candidate, err
	}

	if r.cache != nil && track.TrackID != "" {
		if err := r.cache.CacheResolution(track.Service, track.TrackID, *candidate); err != nil {
			r.logger.Warn("failed to cache resolution", "track", track.Name, "error", err)
		}
	}

	return candidate, nil
}
