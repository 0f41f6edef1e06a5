package queue

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jordolang/tunedl/internal/engine"
	"github.com/jordolang/tunedl/internal/models"
	"github.com/jordolang/tunedl/internal/shared"
)

type mockEngine struct {
	mu     sync.Mutex
	calls  []string
	result bool
	err    error

	started chan string
	release chan struct{}
	// script drives the progress callback mid-transfer when set
	script func(progress engine.ProgressFunc) error
}

func (m *mockEngine) Download(ctx context.Context, url, outputPath string, quality int, progress engine.ProgressFunc, metadata map[string]string) (bool, error) {
	m.mu.Lock()
	m.calls = append(m.calls, url)
	m.mu.Unlock()

	if m.started != nil {
		m.started <- url
	}
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	if m.script != nil {
		if err := m.script(progress); err != nil {
			return false, err
		}
	}
	return m.result, m.err
}

func (m *mockEngine) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []string
	items  []Item
}

func (r *eventRecorder) listen(event string, item Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.items = append(r.items, item)
}

func (r *eventRecorder) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.events...)
}

func testTrack(name string) models.StreamingTrack {
	return models.StreamingTrack{
		Service: "spotify",
		TrackID: "t-" + name,
		Name:    name,
		Artists: []string{"Artist"},
		Album:   "Album",
	}
}

func syncManager(t *testing.T, eng engine.Engine, strategy shared.DuplicateStrategy) *Manager {
	t.Helper()
	return NewManager(eng, Options{
		BaseDir:      t.TempDir(),
		Duplicates:   strategy,
		Synchronous:  true,
		PollInterval: time.Millisecond,
	}, shared.NewLogger(nil))
}

func TestEnqueueSynchronousComplete(t *testing.T) {
	eng := &mockEngine{
		result: true,
		script: func(progress engine.ProgressFunc) error {
			return progress(engine.Progress{Status: engine.StatusDownloading, Percent: 50})
		},
	}
	m := syncManager(t, eng, shared.DuplicateRename)

	rec := &eventRecorder{}
	m.Subscribe(rec.listen)

	id, err := m.Enqueue(testTrack("Song"), "https://example.com/v1")
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	item, err := m.Item(id)
	if err != nil {
		t.Fatalf("Item() error = %v", err)
	}

	if item.Status != StatusComplete {
		t.Errorf("Status = %v, want complete", item.Status)
	}
	if item.Percent != 100 {
		t.Errorf("Percent = %v, want 100", item.Percent)
	}
	if want := filepath.Join("Artist", "Album", "Song.mp3"); !strings.HasSuffix(item.OutputPath, want) {
		t.Errorf("OutputPath = %q, want suffix %q", item.OutputPath, want)
	}

	events := rec.recorded()
	want := []string{EventQueued, EventStarted, EventProgress, EventCompleted}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event[%d] = %v, want %v", i, events[i], want[i])
		}
	}
}

func TestEnqueueHandledFailure(t *testing.T) {
	eng := &mockEngine{result: false}
	m := syncManager(t, eng, shared.DuplicateRename)

	id, err := m.Enqueue(testTrack("Song"), "https://example.com/v1")
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	item, _ := m.Item(id)
	if item.Status != StatusError {
		t.Errorf("Status = %v, want error", item.Status)
	}
	if item.Error == "" {
		t.Error("expected an error message on handled failure")
	}
}

func TestDuplicateStrategies(t *testing.T) {
	t.Run("rename assigns distinct paths to queued collisions", func(t *testing.T) {
		// Neither file exists on disk yet; the second enqueue must rename
		// off the first item's in-memory claim alone.
		blocked := &mockEngine{result: true, started: make(chan string, 2), release: make(chan struct{})}
		am := NewManager(blocked, Options{
			BaseDir:      t.TempDir(),
			Duplicates:   shared.DuplicateRename,
			Concurrency:  2,
			PollInterval: time.Millisecond,
		}, shared.NewLogger(nil))

		id1, err := am.Enqueue(testTrack("Song"), "https://example.com/v1")
		if err != nil {
			t.Fatalf("first Enqueue() error = %v", err)
		}
		id2, err := am.Enqueue(testTrack("Song"), "https://example.com/v2")
		if err != nil {
			t.Fatalf("second Enqueue() error = %v", err)
		}

		first, _ := am.Item(id1)
		second, _ := am.Item(id2)
		if first.OutputPath == second.OutputPath {
			t.Errorf("colliding enqueues share path %q", first.OutputPath)
		}
		if want := "Song (1).mp3"; !strings.HasSuffix(second.OutputPath, want) {
			t.Errorf("second path = %q, want suffix %q", second.OutputPath, want)
		}

		close(blocked.release)
		am.WaitForAll(5 * time.Second)
	})

	t.Run("skip reuses the path for queued collisions", func(t *testing.T) {
		blocked := &mockEngine{result: true, started: make(chan string, 2), release: make(chan struct{})}
		m := NewManager(blocked, Options{
			BaseDir:      t.TempDir(),
			Duplicates:   shared.DuplicateSkip,
			Concurrency:  2,
			PollInterval: time.Millisecond,
		}, shared.NewLogger(nil))

		id1, err := m.Enqueue(testTrack("Song"), "https://example.com/v1")
		if err != nil {
			t.Fatalf("first Enqueue() error = %v", err)
		}
		id2, err := m.Enqueue(testTrack("Song"), "https://example.com/v2")
		if err != nil {
			t.Fatalf("second Enqueue() error = %v", err)
		}

		first, _ := m.Item(id1)
		second, _ := m.Item(id2)
		if first.OutputPath != second.OutputPath {
			t.Errorf("skip paths differ: %q vs %q", first.OutputPath, second.OutputPath)
		}

		close(blocked.release)
		m.WaitForAll(5 * time.Second)
	})

	t.Run("overwrite reuses the path", func(t *testing.T) {
		eng := &mockEngine{result: true}
		m := syncManager(t, eng, shared.DuplicateOverwrite)

		id1, _ := m.Enqueue(testTrack("Song"), "https://example.com/v1")
		id2, _ := m.Enqueue(testTrack("Song"), "https://example.com/v2")

		first, _ := m.Item(id1)
		second, _ := m.Item(id2)
		if first.OutputPath != second.OutputPath {
			t.Errorf("overwrite paths differ: %q vs %q", first.OutputPath, second.OutputPath)
		}
	})
}

func TestCancelBeforeStart(t *testing.T) {
	eng := &mockEngine{result: true, started: make(chan string, 1), release: make(chan struct{})}
	m := NewManager(eng, Options{
		BaseDir:      t.TempDir(),
		Concurrency:  1,
		PollInterval: time.Millisecond,
	}, shared.NewLogger(nil))

	id1, err := m.Enqueue(testTrack("First"), "https://example.com/v1")
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	<-eng.started

	id2, err := m.Enqueue(testTrack("Second"), "https://example.com/v2")
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	if err := m.Cancel(id2); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	close(eng.release)
	if !m.WaitForAll(5 * time.Second) {
		t.Fatal("WaitForAll() timed out")
	}

	first, _ := m.Item(id1)
	if first.Status != StatusComplete {
		t.Errorf("first Status = %v, want complete", first.Status)
	}

	second, _ := m.Item(id2)
	if second.Status != StatusCancelled {
		t.Errorf("second Status = %v, want cancelled", second.Status)
	}
	if eng.callCount() != 1 {
		t.Errorf("engine called %d times, want 1 (cancelled item must never start)", eng.callCount())
	}
}

func TestCancelDuringDownload(t *testing.T) {
	var (
		m         *Manager
		id        string
		cancelErr error
	)

	eng := &mockEngine{result: true}
	eng.script = func(progress engine.ProgressFunc) error {
		if err := progress(engine.Progress{Status: engine.StatusDownloading, Percent: 10}); err != nil {
			return err
		}
		cancelErr = m.Cancel(id)
		if err := progress(engine.Progress{Status: engine.StatusDownloading, Percent: 20}); err != nil {
			return err
		}
		return nil
	}

	m = syncManager(t, eng, shared.DuplicateRename)

	// The item ID is only known after Enqueue returns, but synchronous mode
	// runs the download inside Enqueue. Capture it from the queued event.
	m.Subscribe(func(event string, item Item) {
		if event == EventQueued {
			id = item.ID
		}
	})

	if _, err := m.Enqueue(testTrack("Song"), "https://example.com/v1"); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if cancelErr != nil {
		t.Fatalf("Cancel() error = %v", cancelErr)
	}

	item, _ := m.Item(id)
	if item.Status != StatusCancelled {
		t.Errorf("Status = %v, want cancelled", item.Status)
	}
}

func TestCancelWinsOverCompletedTransfer(t *testing.T) {
	// Engine reports success even though the cancel landed before it
	// returned; the cancel must still win.
	var (
		m  *Manager
		id string
	)

	eng := &mockEngine{result: true}
	eng.script = func(progress engine.ProgressFunc) error {
		progress(engine.Progress{Status: engine.StatusDownloading, Percent: 90})
		m.Cancel(id)
		return nil
	}

	m = syncManager(t, eng, shared.DuplicateRename)

	m.Subscribe(func(event string, item Item) {
		if event == EventQueued {
			id = item.ID
		}
	})

	if _, err := m.Enqueue(testTrack("Song"), "https://example.com/v1"); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	item, _ := m.Item(id)
	if item.Status != StatusCancelled {
		t.Errorf("Status = %v, want cancelled over complete", item.Status)
	}
}

func TestPauseResume(t *testing.T) {
	eng := &mockEngine{result: true, started: make(chan string, 1), release: make(chan struct{})}
	eng.script = func(progress engine.ProgressFunc) error {
		return progress(engine.Progress{Status: engine.StatusDownloading, Percent: 50})
	}
	m := NewManager(eng, Options{
		BaseDir:      t.TempDir(),
		Concurrency:  1,
		PollInterval: time.Millisecond,
	}, shared.NewLogger(nil))

	id, err := m.Enqueue(testTrack("Song"), "https://example.com/v1")
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	<-eng.started

	if err := m.Pause(id); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}

	item, _ := m.Item(id)
	if item.Status != StatusPaused {
		t.Errorf("Status after Pause = %v, want paused", item.Status)
	}

	// Let the engine reach the progress callback, which must block while
	// the item is paused.
	close(eng.release)
	time.Sleep(20 * time.Millisecond)

	item, _ = m.Item(id)
	if item.Status.IsTerminal() {
		t.Fatalf("item finished while paused: %v", item.Status)
	}

	if err := m.Resume(id); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}

	if !m.WaitForAll(5 * time.Second) {
		t.Fatal("WaitForAll() timed out after resume")
	}

	item, _ = m.Item(id)
	if item.Status != StatusComplete {
		t.Errorf("Status = %v, want complete", item.Status)
	}
	if item.Percent != 100 {
		t.Errorf("Percent = %v, want 100", item.Percent)
	}
}

func TestCancelWhilePaused(t *testing.T) {
	eng := &mockEngine{result: true, started: make(chan string, 1), release: make(chan struct{})}
	eng.script = func(progress engine.ProgressFunc) error {
		return progress(engine.Progress{Status: engine.StatusDownloading, Percent: 50})
	}
	m := NewManager(eng, Options{
		BaseDir:      t.TempDir(),
		Concurrency:  1,
		PollInterval: time.Millisecond,
	}, shared.NewLogger(nil))

	id, _ := m.Enqueue(testTrack("Song"), "https://example.com/v1")
	<-eng.started

	if err := m.Pause(id); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	close(eng.release)

	if err := m.Cancel(id); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	if !m.WaitForAll(5 * time.Second) {
		t.Fatal("WaitForAll() timed out")
	}

	item, _ := m.Item(id)
	if item.Status != StatusCancelled {
		t.Errorf("Status = %v, want cancelled", item.Status)
	}
}

func TestResumeAfterCancelWhilePausedDoesNotRevive(t *testing.T) {
	eng := &mockEngine{result: true, started: make(chan string, 1), release: make(chan struct{})}
	eng.script = func(progress engine.ProgressFunc) error {
		return progress(engine.Progress{Status: engine.StatusDownloading, Percent: 50})
	}
	m := NewManager(eng, Options{
		BaseDir:      t.TempDir(),
		Concurrency:  1,
		PollInterval: time.Millisecond,
	}, shared.NewLogger(nil))

	rec := &eventRecorder{}
	m.Subscribe(rec.listen)

	id, _ := m.Enqueue(testTrack("Song"), "https://example.com/v1")
	<-eng.started

	if err := m.Pause(id); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if err := m.Cancel(id); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if err := m.Resume(id); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}

	item, _ := m.Item(id)
	if item.Status != StatusPaused {
		t.Errorf("Status after resume = %v, want paused (cancel pending)", item.Status)
	}

	close(eng.release)
	if !m.WaitForAll(5 * time.Second) {
		t.Fatal("WaitForAll() timed out")
	}

	for _, event := range rec.recorded() {
		if event == EventResumed {
			t.Error("resumed event fired for an item cancelled while paused")
		}
	}

	item, _ = m.Item(id)
	if item.Status != StatusCancelled {
		t.Errorf("final Status = %v, want cancelled", item.Status)
	}
}

func TestPauseDuringProcessing(t *testing.T) {
	var (
		m          *Manager
		id         string
		pauseErr   error
		pausedSeen Status
	)

	eng := &mockEngine{result: true}
	eng.script = func(progress engine.ProgressFunc) error {
		if err := progress(engine.Progress{Status: engine.StatusProcessing, Percent: 99}); err != nil {
			return err
		}
		pauseErr = m.Pause(id)
		item, _ := m.Item(id)
		pausedSeen = item.Status
		if err := m.Resume(id); err != nil {
			return err
		}
		return nil
	}

	m = syncManager(t, eng, shared.DuplicateRename)
	m.Subscribe(func(event string, item Item) {
		if event == EventQueued {
			id = item.ID
		}
	})

	if _, err := m.Enqueue(testTrack("Song"), "https://example.com/v1"); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	if pauseErr != nil {
		t.Fatalf("Pause() during processing error = %v", pauseErr)
	}
	if pausedSeen != StatusPaused {
		t.Errorf("Status after pause = %v, want paused", pausedSeen)
	}

	item, _ := m.Item(id)
	if item.Status != StatusComplete {
		t.Errorf("final Status = %v, want complete", item.Status)
	}
}

func TestControlsOnTerminalItemsAreNoOps(t *testing.T) {
	eng := &mockEngine{result: true}
	m := syncManager(t, eng, shared.DuplicateRename)

	id, _ := m.Enqueue(testTrack("Song"), "https://example.com/v1")

	if err := m.Pause(id); err != nil {
		t.Errorf("Pause() on terminal item error = %v, want nil", err)
	}
	if err := m.Resume(id); err != nil {
		t.Errorf("Resume() on terminal item error = %v, want nil", err)
	}
	if err := m.Cancel(id); err != nil {
		t.Errorf("Cancel() on terminal item error = %v, want nil", err)
	}

	item, _ := m.Item(id)
	if item.Status != StatusComplete {
		t.Errorf("Status = %v, want complete untouched", item.Status)
	}
}

func TestUnknownItemErrors(t *testing.T) {
	m := syncManager(t, &mockEngine{result: true}, shared.DuplicateRename)

	if err := m.Pause("nope"); !errors.Is(err, shared.ErrItemNotFound) {
		t.Errorf("Pause() error = %v, want ErrItemNotFound", err)
	}
	if err := m.Resume("nope"); !errors.Is(err, shared.ErrItemNotFound) {
		t.Errorf("Resume() error = %v, want ErrItemNotFound", err)
	}
	if err := m.Cancel("nope"); !errors.Is(err, shared.ErrItemNotFound) {
		t.Errorf("Cancel() error = %v, want ErrItemNotFound", err)
	}
	if _, err := m.Item("nope"); !errors.Is(err, shared.ErrItemNotFound) {
		t.Errorf("Item() error = %v, want ErrItemNotFound", err)
	}
}

func TestListenerIsolation(t *testing.T) {
	eng := &mockEngine{result: true}
	m := syncManager(t, eng, shared.DuplicateRename)

	m.Subscribe(func(event string, item Item) {
		panic("listener bug")
	})

	rec := &eventRecorder{}
	m.Subscribe(rec.listen)

	if _, err := m.Enqueue(testTrack("Song"), "https://example.com/v1"); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	events := rec.recorded()
	if len(events) == 0 || events[len(events)-1] != EventCompleted {
		t.Errorf("surviving listener events = %v, want trailing completed", events)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	eng := &mockEngine{result: true}
	m := syncManager(t, eng, shared.DuplicateRename)

	rec := &eventRecorder{}
	token := m.Subscribe(rec.listen)
	m.Unsubscribe(token)

	m.Enqueue(testTrack("Song"), "https://example.com/v1")

	if events := rec.recorded(); len(events) != 0 {
		t.Errorf("unsubscribed listener received %v", events)
	}
}

func TestWaitForAllTimeout(t *testing.T) {
	eng := &mockEngine{result: true, started: make(chan string, 1), release: make(chan struct{})}
	m := NewManager(eng, Options{
		BaseDir:      t.TempDir(),
		PollInterval: time.Millisecond,
	}, shared.NewLogger(nil))

	m.Enqueue(testTrack("Song"), "https://example.com/v1")
	<-eng.started

	if m.WaitForAll(20 * time.Millisecond) {
		t.Error("WaitForAll() = true with a download still running")
	}

	close(eng.release)
	if !m.WaitForAll(5 * time.Second) {
		t.Error("WaitForAll() timed out after release")
	}
}

func TestShutdownRejectsNewWork(t *testing.T) {
	m := syncManager(t, &mockEngine{result: true}, shared.DuplicateRename)
	m.Shutdown(true)

	if _, err := m.Enqueue(testTrack("Song"), "https://example.com/v1"); !errors.Is(err, shared.ErrQueueShutdown) {
		t.Errorf("Enqueue() after Shutdown error = %v, want ErrQueueShutdown", err)
	}
}

func TestShutdownWithoutWaitCancelsPending(t *testing.T) {
	eng := &mockEngine{result: true, started: make(chan string, 1), release: make(chan struct{})}
	m := NewManager(eng, Options{
		BaseDir:      t.TempDir(),
		Concurrency:  1,
		PollInterval: time.Millisecond,
	}, shared.NewLogger(nil))

	m.Enqueue(testTrack("First"), "https://example.com/v1")
	<-eng.started
	id2, _ := m.Enqueue(testTrack("Second"), "https://example.com/v2")

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(eng.release)
	}()
	m.Shutdown(false)

	second, _ := m.Item(id2)
	if second.Status != StatusCancelled {
		t.Errorf("pending item Status = %v, want cancelled", second.Status)
	}
}

func TestItemsSnapshotOrder(t *testing.T) {
	m := syncManager(t, &mockEngine{result: true}, shared.DuplicateRename)

	m.Enqueue(testTrack("A"), "https://example.com/a")
	m.Enqueue(testTrack("B"), "https://example.com/b")

	items := m.Items()
	if len(items) != 2 {
		t.Fatalf("Items() len = %d, want 2", len(items))
	}
	if items[0].Track.Name != "A" || items[1].Track.Name != "B" {
		t.Errorf("Items() order = %q, %q; want A, B", items[0].Track.Name, items[1].Track.Name)
	}
}
