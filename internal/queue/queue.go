package queue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/jordolang/tunedl/internal/engine"
	"github.com/jordolang/tunedl/internal/models"
	"github.com/jordolang/tunedl/internal/shared"
)

const defaultPollInterval = 100 * time.Millisecond

// Listener receives queue events with a snapshot of the item at the time
// the event fired. Listeners run outside the scheduler lock and may call
// back into the manager.
type Listener func(event string, item Item)

// Options configures a download queue manager.
type Options struct {
	// BaseDir is the root directory downloads are written under.
	BaseDir string
	// Quality is the target audio bitrate in kbps.
	Quality int
	// Concurrency bounds how many downloads run at once.
	Concurrency int
	// Duplicates selects the strategy for colliding output paths.
	Duplicates shared.DuplicateStrategy
	// PollInterval is how often paused workers re-check their flags.
	PollInterval time.Duration
	// Synchronous runs each download inline during Enqueue. Used by the
	// tests and by one-shot CLI downloads.
	Synchronous bool
}

type control struct {
	paused          bool
	cancelRequested bool
}

// Manager schedules downloads through an [engine.Engine] with bounded
// concurrency, cooperative pause/resume, and cancellation.
type Manager struct {
	engine engine.Engine
	logger *log.Logger
	opts   Options

	ctx    context.Context
	cancel context.CancelFunc
	sem    chan struct{}

	mu         sync.Mutex
	closed     bool
	items      map[string]*Item
	ctrls      map[string]*control
	done       map[string]chan struct{}
	order      []string
	claimed    map[string]struct{}
	listeners  map[int]Listener
	nextListen int
}

// NewManager builds a queue manager around the given download engine.
func NewManager(eng engine.Engine, opts Options, logger *log.Logger) *Manager {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 3
	}

	if opts.Quality <= 0 {
		opts.Quality = 320
	}

	if opts.Duplicates == "" {
		opts.Duplicates = shared.DuplicateRename
	}

	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}

	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		engine:    eng,
		logger:    logger,
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
		sem:       make(chan struct{}, opts.Concurrency),
		items:     make(map[string]*Item),
		ctrls:     make(map[string]*control),
		done:      make(map[string]chan struct{}),
		claimed:   make(map[string]struct{}),
		listeners: make(map[int]Listener),
	}
}

// Enqueue schedules a track for download from sourceURL and returns the new
// item's ID. The output path is derived from the track's artist, album, and
// title and claimed immediately, so concurrent enqueues of colliding tracks
// get distinct paths under the rename strategy. Returns
// [shared.ErrQueueShutdown] after Shutdown.
func (m *Manager) Enqueue(track models.StreamingTrack, sourceURL string) (string, error) {
	m.mu.Lock()

	if m.closed {
		m.mu.Unlock()

		return "", shared.ErrQueueShutdown
	}

	path := buildOutputPath(m.opts.BaseDir, track)

	path, err := resolveDuplicatePath(path, m.opts.Duplicates, m.claimed)
	if err != nil {
		m.mu.Unlock()

		return "", err
	}

	item := &Item{
		ID:         shared.GenerateID(),
		Track:      track,
		SourceURL:  sourceURL,
		OutputPath: path,
		Quality:    m.opts.Quality,
		Status:     StatusQueued,
		EnqueuedAt: time.Now(),
	}

	m.items[item.ID] = item
	m.ctrls[item.ID] = &control{}
	m.done[item.ID] = make(chan struct{})
	m.order = append(m.order, item.ID)
	m.claimed[path] = struct{}{}
	snap := *item
	m.mu.Unlock()

	m.notify(EventQueued, snap)
	m.logger.Debug("enqueued download", "id", item.ID, "track", track.Name, "path", path)

	if m.opts.Synchronous {
		m.runDownload(item.ID)
	} else {
		go m.runDownload(item.ID)
	}

	return item.ID, nil
}

// Pause suspends a non-terminal item. Paused items hold their worker slot
// and poll for resume or cancel. Pausing a terminal item is a no-op.
func (m *Manager) Pause(id string) error {
	m.mu.Lock()

	item, ok := m.items[id]
	if !ok {
		m.mu.Unlock()

		return fmt.Errorf("%w: %s", shared.ErrItemNotFound, id)
	}

	if item.Status.IsTerminal() {
		m.mu.Unlock()

		return nil
	}

	ctrl := m.ctrls[id]
	if ctrl.paused {
		m.mu.Unlock()

		return nil
	}

	ctrl.paused = true
	item.Status = StatusPaused
	snap := *item
	m.mu.Unlock()

	m.notify(EventPaused, snap)

	return nil
}

// Resume clears a pause. The item returns to queued if it never started,
// or downloading if a transfer is in flight. Resuming an item that is not
// paused is a no-op, and resuming one that was cancelled while paused does
// not revive it.
func (m *Manager) Resume(id string) error {
	m.mu.Lock()

	item, ok := m.items[id]
	if !ok {
		m.mu.Unlock()

		return fmt.Errorf("%w: %s", shared.ErrItemNotFound, id)
	}

	ctrl := m.ctrls[id]
	if !ctrl.paused || item.Status.IsTerminal() {
		m.mu.Unlock()

		return nil
	}

	// A cancel requested while paused wins: releasing the pause lets the
	// worker observe the cancel, but the item is not brought back.
	if ctrl.cancelRequested {
		ctrl.paused = false
		m.mu.Unlock()

		return nil
	}

	ctrl.paused = false
	if item.StartedAt.IsZero() {
		item.Status = StatusQueued
	} else {
		item.Status = StatusDownloading
	}

	snap := *item
	m.mu.Unlock()

	m.notify(EventResumed, snap)

	return nil
}

// Cancel requests cancellation of an item. The request takes effect at the
// worker's next checkpoint; a cancel that lands before the transfer is
// recorded as complete wins over the completed transfer. Cancelling a
// terminal item is a no-op.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()

	item, ok := m.items[id]
	if !ok {
		m.mu.Unlock()

		return fmt.Errorf("%w: %s", shared.ErrItemNotFound, id)
	}

	if item.Status.IsTerminal() {
		m.mu.Unlock()

		return nil
	}

	m.ctrls[id].cancelRequested = true
	started := !item.StartedAt.IsZero()
	m.mu.Unlock()

	// No worker is transferring yet, so nothing will observe the flag
	// until the semaphore frees up. Record the cancellation now; the
	// worker's pre-start checkpoint finds the item already terminal.
	if !started {
		m.finish(id, StatusCancelled, "")
	}

	return nil
}

// Item returns a snapshot of a single queue item.
func (m *Manager) Item(id string) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return Item{}, fmt.Errorf("%w: %s", shared.ErrItemNotFound, id)
	}

	return *item, nil
}

// Items returns snapshots of every item in enqueue order.
func (m *Manager) Items() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Item, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.items[id])
	}

	return out
}

// Subscribe registers a listener and returns a token for Unsubscribe.
func (m *Manager) Subscribe(fn Listener) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextListen++
	m.listeners[m.nextListen] = fn

	return m.nextListen
}

// Unsubscribe removes a previously registered listener.
func (m *Manager) Unsubscribe(token int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.listeners, token)
}

// WaitForAll blocks until every item enqueued so far reaches a terminal
// state. A timeout of zero or less waits indefinitely. Returns false when
// the timeout elapses first.
func (m *Manager) WaitForAll(timeout time.Duration) bool {
	m.mu.Lock()
	chans := make([]chan struct{}, 0, len(m.done))
	for _, ch := range m.done {
		chans = append(chans, ch)
	}
	m.mu.Unlock()

	var deadline <-chan time.Time

	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for _, ch := range chans {
		select {
		case <-ch:
		case <-deadline:
			return false
		}
	}

	return true
}

// Shutdown stops the queue. With wait set, it blocks until in-flight
// downloads finish; otherwise pending and running items are cancelled.
// Either way, after Shutdown the queue rejects new enqueues.
func (m *Manager) Shutdown(wait bool) {
	m.mu.Lock()

	if m.closed {
		m.mu.Unlock()

		return
	}

	m.closed = true

	if !wait {
		for _, ctrl := range m.ctrls {
			ctrl.cancelRequested = true
		}
	}

	m.mu.Unlock()

	if wait {
		m.WaitForAll(0)
	}

	m.cancel()
	m.WaitForAll(0)
}

func (m *Manager) runDownload(id string) {
	select {
	case m.sem <- struct{}{}:
		defer func() { <-m.sem }()
	case <-m.ctx.Done():
		m.finish(id, StatusCancelled, "")

		return
	}

	// Pre-start checkpoint: honour a pause or cancel that landed while
	// the item was waiting for a worker slot.
	if cancelled := m.holdWhilePaused(id); cancelled {
		m.finish(id, StatusCancelled, "")

		return
	}

	m.mu.Lock()
	item := m.items[id]
	if item.Status.IsTerminal() {
		m.mu.Unlock()

		return
	}

	item.Status = StatusDownloading
	item.StartedAt = time.Now()
	snap := *item
	url, path, quality := item.SourceURL, item.OutputPath, item.Quality
	meta := item.Metadata()
	m.mu.Unlock()

	m.notify(EventStarted, snap)

	ok, err := m.engine.Download(m.ctx, url, path, quality, m.progressFunc(id), meta)

	m.mu.Lock()
	ctrl := m.ctrls[id]
	cancelRequested := ctrl.cancelRequested
	m.mu.Unlock()

	switch {
	case err != nil && errors.Is(err, shared.ErrDownloadCancelled):
		m.finish(id, StatusCancelled, "")
	case cancelRequested:
		// A requested cancel beats whatever the transfer reported,
		// success and failure alike.
		m.finish(id, StatusCancelled, "")
	case err != nil:
		m.finish(id, StatusError, err.Error())
	case ok:
		m.finish(id, StatusComplete, "")
	default:
		m.finish(id, StatusError, "download failed")
	}
}

// progressFunc builds the engine callback for one item. Returning
// [shared.ErrDownloadCancelled] from it aborts the transfer.
func (m *Manager) progressFunc(id string) engine.ProgressFunc {
	return func(p engine.Progress) error {
		if cancelled := m.holdWhilePaused(id); cancelled {
			return shared.ErrDownloadCancelled
		}

		m.mu.Lock()
		item := m.items[id]

		if item.Status.IsTerminal() {
			m.mu.Unlock()

			return shared.ErrDownloadCancelled
		}

		if p.Status == engine.StatusProcessing {
			item.Status = StatusProcessing
		} else {
			item.Status = StatusDownloading
		}

		item.Percent = p.Percent
		item.Speed = p.Speed
		item.Downloaded = p.DownloadedBytes
		item.TotalBytes = p.TotalBytes
		snap := *item
		m.mu.Unlock()

		m.logger.Debug("transfer progress",
			"id", id, "percent", fmt.Sprintf("%.1f", p.Percent),
			"speed", p.FormattedSpeed(), "eta", p.FormattedETA())
		m.notify(EventProgress, snap)

		return nil
	}
}

// holdWhilePaused blocks while the item's pause flag is set, polling at the
// configured interval. It returns true as soon as cancellation is requested,
// whether or not the item is paused.
func (m *Manager) holdWhilePaused(id string) (cancelled bool) {
	for {
		m.mu.Lock()
		ctrl := m.ctrls[id]

		if ctrl.cancelRequested {
			m.mu.Unlock()

			return true
		}

		if !ctrl.paused {
			m.mu.Unlock()

			return false
		}
		m.mu.Unlock()

		select {
		case <-time.After(m.opts.PollInterval):
		case <-m.ctx.Done():
			return true
		}
	}
}

// finish moves an item to a terminal state, releases its claimed output
// path, and signals waiters. Safe to call more than once; only the first
// call takes effect.
func (m *Manager) finish(id string, status Status, errMsg string) {
	m.mu.Lock()

	item := m.items[id]
	if item.Status.IsTerminal() {
		m.mu.Unlock()

		return
	}

	item.Status = status
	item.Error = errMsg
	item.FinishedAt = time.Now()

	if status == StatusComplete {
		item.Percent = 100
	}

	delete(m.claimed, item.OutputPath)
	close(m.done[id])
	snap := *item
	m.mu.Unlock()

	switch status {
	case StatusComplete:
		m.logger.Info("download complete", "id", id, "path", snap.OutputPath)
		m.notify(EventCompleted, snap)
	case StatusCancelled:
		m.logger.Debug("download cancelled", "id", id)
		m.notify(EventCancelled, snap)
	default:
		m.logger.Error("download failed", "id", id, "error", errMsg)
		m.notify(EventError, snap)
	}
}

// notify fans an event out to listeners in subscription order. A panicking
// listener is logged and skipped so it cannot take down a worker or starve
// the other listeners.
func (m *Manager) notify(event string, item Item) {
	m.mu.Lock()
	tokens := make([]int, 0, len(m.listeners))
	for token := range m.listeners {
		tokens = append(tokens, token)
	}

	sort.Ints(tokens)

	fns := make([]Listener, len(tokens))
	for i, token := range tokens {
		fns[i] = m.listeners[token]
	}
	m.mu.Unlock()

	for _, fn := range fns {
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.logger.Error("queue listener panicked", "event", event, "panic", r)
				}
			}()

			fn(event, item)
		}()
	}
}
