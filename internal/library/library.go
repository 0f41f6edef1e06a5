package library

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jordolang/tunedl/internal/models"
	"github.com/jordolang/tunedl/internal/services"
	"github.com/jordolang/tunedl/internal/shared"
)

// Sync run states.
const (
	StateIdle      = "idle"
	StateFetching  = "fetching"
	StateResolving = "resolving"
	StateCompleted = "completed"
	StateError     = "error"
)

// Sync event names passed to listeners.
const (
	EventStart     = "start"
	EventProgress  = "progress"
	EventCompleted = "completed"
	EventError     = "error"
)

// SyncProgress is the transient progress record for one sync run.
// It is recreated per invocation and never persisted.
type SyncProgress struct {
	Service    string
	State      string
	Detail     string
	Current    int
	Total      int
	StartedAt  time.Time
	FinishedAt time.Time
	// Resolved carries the full resolved list on the completed event only.
	Resolved []models.ResolvedTrack
}

// Listener receives sync events. Callbacks run synchronously on the syncing
// goroutine.
type Listener func(event string, progress SyncProgress)

// TrackResolver is the fallback resolution contract consumed by the manager.
type TrackResolver interface {
	PickBest(ctx context.Context, track models.StreamingTrack) (*models.ResolutionCandidate, error)
}

// Manager orchestrates end-to-end synchronization from streaming services to
// resolved tracks ready for the download queue.
type Manager struct {
	mu         sync.Mutex
	services   map[string]services.StreamingService
	resolver   TrackResolver
	listeners  map[int]Listener
	nextListen int
	logger     *log.Logger
}

// NewManager creates a Manager with the given fallback resolver.
func NewManager(resolver TrackResolver, logger *log.Logger) *Manager {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Manager{
		services:  make(map[string]services.StreamingService),
		resolver:  resolver,
		listeners: make(map[int]Listener),
		logger:    logger,
	}
}

// RegisterService adds a streaming service to the registry, replacing any
// previous registration under the same name.
func (m *Manager) RegisterService(svc services.StreamingService) {
	m.logger.Info("registering music service", "service", svc.Name())
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services[svc.Name()] = svc
}

// Service returns the registered service with the given name, if any.
func (m *Manager) Service(name string) (services.StreamingService, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	svc, ok := m.services[name]
	return svc, ok
}

// ListServices returns registered service identifiers in sorted order.
func (m *Manager) ListServices() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.services))
	for name := range m.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Subscribe registers a listener for sync progress events and returns its
// subscription id for Unsubscribe.
func (m *Manager) Subscribe(listener Listener) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextListen
	m.nextListen++
	m.listeners[id] = listener
	return id
}

// Unsubscribe removes the listener registered under id.
func (m *Manager) Unsubscribe(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.listeners, id)
}

// SyncService fetches the library for a registered service and resolves every
// track to a download candidate.
//
// Tracks are processed in playlist order first, then liked tracks. Each track
// is first offered to the service's own resolver; when that yields nothing
// and autoResolve is enabled, the fallback resolver's PickBest runs. Tracks
// without a candidate from either path are skipped.
//
// Any fetch or resolution failure aborts the run: the error state is
// published and the error returned to the caller.
func (m *Manager) SyncService(ctx context.Context, serviceName string, autoResolve bool) ([]models.ResolvedTrack, error) {
	svc, ok := m.Service(serviceName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrServiceNotRegistered, serviceName)
	}

	progress := SyncProgress{
		Service:   serviceName,
		State:     StateFetching,
		StartedAt: time.Now().UTC(),
	}
	m.notify(EventStart, progress)

	resolved, err := m.runSync(ctx, svc, &progress, autoResolve)
	if err != nil {
		progress.State = StateError
		progress.Detail = err.Error()
		progress.FinishedAt = time.Now().UTC()
		m.notify(EventError, progress)
		m.logger.Error("sync failed", "service", serviceName, "err", err)
		return nil, err
	}

	progress.State = StateCompleted
	progress.FinishedAt = time.Now().UTC()
	progress.Resolved = resolved
	m.notify(EventCompleted, progress)
	return resolved, nil
}

func (m *Manager) runSync(ctx context.Context, svc services.StreamingService, progress *SyncProgress, autoResolve bool) ([]models.ResolvedTrack, error) {
	snapshot, err := svc.FetchLibrary(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch library: %w", err)
	}
	progress.Total = snapshot.TotalTracks()

	var resolved []models.ResolvedTrack

	for _, playlist := range snapshot.Playlists {
		for _, track := range playlist.Tracks {
			entry, err := m.resolveOne(ctx, svc, progress, track, playlist.Name, autoResolve)
			if err != nil {
				return nil, err
			}
			if entry != nil {
				resolved = append(resolved, *entry)
			}
		}
	}

	for _, track := range snapshot.LikedTracks {
		entry, err := m.resolveOne(ctx, svc, progress, track, "Liked", autoResolve)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			resolved = append(resolved, *entry)
		}
	}

	return resolved, nil
}

// resolveOne advances the progress counter, publishes the resolving event,
// and resolves a single track. A nil, nil return means the track is skipped.
func (m *Manager) resolveOne(ctx context.Context, svc services.StreamingService, progress *SyncProgress, track models.StreamingTrack, origin string, autoResolve bool) (*models.ResolvedTrack, error) {
	progress.Current++
	progress.State = StateResolving
	progress.Detail = fmt.Sprintf("%s - %s", origin, track.Name)
	m.notify(EventProgress, *progress)

	candidate, err := svc.ResolveTrack(ctx, track)
	if err != nil {
		return nil, fmt.Errorf("resolve track %q: %w", track.Name, err)
	}

	if candidate == nil && autoResolve && m.resolver != nil {
		candidate, err = m.resolver.PickBest(ctx, track)
		if err != nil {
			return nil, fmt.Errorf("resolve track %q: %w", track.Name, err)
		}
	}

	if candidate == nil {
		m.logger.Info("no candidate found", "artist", track.DisplayArtist(), "track", track.Name)
		return nil, nil
	}

	return &models.ResolvedTrack{
		Track:      track,
		Candidate:  *candidate,
		Confidence: candidate.Score,
	}, nil
}

// notify fans an event out to every listener in subscription order.
// Listener panics are isolated.
func (m *Manager) notify(event string, progress SyncProgress) {
	m.mu.Lock()
	ids := make([]int, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, m.listeners[id])
	}
	m.mu.Unlock()

	for _, listener := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.logger.Warn("sync listener panicked", "event", event, "recovered", r)
				}
			}()
			listener(event, progress)
		}()
	}
}
