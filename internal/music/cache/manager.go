// Package cache keeps a bounded sliding window of upcoming tracks downloaded
// ahead of playback. Entries live only while their track sits inside the
// window [cursor-behind, cursor+ahead]; the currently playing track is pinned
// and survives window moves until the next advance or jump.
package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"groovebox/internal/music"
)

// Status is the lifecycle of a cache entry
type Status int

const (
	StatusPending Status = iota
	StatusFetching
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusFetching:
		return "fetching"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// A Failed entry is refetched automatically once; after that it stays Failed
// until evicted or explicitly requested again.
const maxFetchAttempts = 2

// Fetcher downloads a track's audio into a directory and returns the local
// path. Satisfied by extract.Extractor.
type Fetcher interface {
	Fetch(ctx context.Context, track music.Track, destDir string) (string, error)
}

type entry struct {
	track    music.Track
	status   Status
	path     string
	err      error
	attempts int
	touched  time.Time
	done     chan struct{} // closed when the in-flight fetch settles
	cancel   context.CancelFunc
}

// EntryView is a read-only snapshot of an entry
type EntryView struct {
	Track  music.Track
	Status Status
	Path   string
	Err    error
}

// Options configures a Manager
type Options struct {
	Dir          string
	WindowBehind int
	WindowAhead  int
	Concurrency  int64
	Fetcher      Fetcher
	Logger       *zap.Logger
}

// Manager owns the cache directory and every entry in it. All entry state is
// guarded by mu; fetches run in background goroutines coordinated only
// through the entry's status and cancel handle.
type Manager struct {
	dir     string
	behind  int
	ahead   int
	fetcher Fetcher
	sem     *semaphore.Weighted
	logger  *zap.Logger

	mu      sync.Mutex
	entries map[string]*entry
	pinned  string

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager creates a Manager and its cache directory
func NewManager(opts Options) (*Manager, error) {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		dir:     opts.Dir,
		behind:  opts.WindowBehind,
		ahead:   opts.WindowAhead,
		fetcher: opts.Fetcher,
		sem:     semaphore.NewWeighted(opts.Concurrency),
		logger:  opts.Logger,
		entries: make(map[string]*entry),
		baseCtx: ctx,
		stop:    cancel,
	}, nil
}

// Ensure creates a Pending entry for the track and schedules its fetch. If an
// entry already exists it is returned untouched; a second Ensure never starts
// a duplicate fetch.
func (m *Manager) Ensure(t music.Track) EntryView {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[t.ID]; ok {
		e.touched = time.Now()
		return snapshot(e)
	}
	return snapshot(m.scheduleLocked(t))
}

// Request is Ensure for an explicit playback demand: a sticky-Failed entry
// (one that exhausted its automatic retry) is given a fresh fetch.
func (m *Manager) Request(t music.Track) EntryView {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[t.ID]
	if !ok {
		return snapshot(m.scheduleLocked(t))
	}
	e.touched = time.Now()
	if e.status == StatusFailed {
		e.attempts = 0
		m.refetchLocked(e)
	}
	return snapshot(e)
}

// AwaitReady blocks until the track's entry becomes Ready or Failed, or the
// timeout elapses. The entry is created (or revived) if necessary.
func (m *Manager) AwaitReady(ctx context.Context, t music.Track, timeout time.Duration) (string, error) {
	m.Request(t)

	m.mu.Lock()
	e, ok := m.entries[t.ID]
	if !ok {
		m.mu.Unlock()
		return "", music.ErrFetchTimeout(t.ID, 0)
	}
	done := e.done
	m.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		return "", music.ErrFetchTimeout(t.ID, timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if e.status == StatusReady {
		return e.path, nil
	}
	if e.err != nil {
		return "", e.err
	}
	return "", music.NewError(music.KindExtractionFailed,
		"fetch for track "+t.ID+" did not produce a file",
		"Could not load that track", nil)
}

// Status returns a snapshot of the entry for a track
func (m *Manager) Status(trackID string) (EntryView, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[trackID]
	if !ok {
		return EntryView{}, false
	}
	return snapshot(e), true
}

// TrackIDs lists the tracks currently held in the cache
func (m *Manager) TrackIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	return ids
}

// Pin marks the track whose entry must survive eviction while it is the
// active playback source. An empty ID clears the pin.
func (m *Manager) Pin(trackID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pinned = trackID
}

// OnQueueChange recomputes the desired window from the queue snapshot and
// diffs the live entry set against it: tracks inside the window gain entries
// (Failed ones get their single automatic retry), everything outside except
// the pinned track is evicted and its in-flight fetch cancelled.
func (m *Manager) OnQueueChange(tracks []music.Track, cursor int) {
	indices := music.WindowIndices(cursor, len(tracks), m.behind, m.ahead)

	desired := make(map[string]struct{}, len(indices))
	for _, i := range indices {
		desired[tracks[i].ID] = struct{}{}
	}

	var stale []string
	m.mu.Lock()
	for id, e := range m.entries {
		if _, keep := desired[id]; keep || id == m.pinned {
			continue
		}
		e.cancel()
		delete(m.entries, id)
		if e.path != "" {
			stale = append(stale, e.path)
		}
		m.logger.Debug("evicted cache entry",
			zap.String("track", id), zap.String("status", e.status.String()))
	}
	for _, i := range indices {
		t := tracks[i]
		e, ok := m.entries[t.ID]
		if !ok {
			m.scheduleLocked(t)
			continue
		}
		if e.status == StatusFailed && e.attempts < maxFetchAttempts {
			m.refetchLocked(e)
		}
	}
	m.mu.Unlock()

	for _, path := range stale {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			m.logger.Warn("failed to remove evicted payload", zap.String("path", path), zap.Error(err))
		}
	}
}

// Run refreshes the window periodically until the context ends, so prefetch
// keeps up even when the player is not transitioning
func (m *Manager) Run(ctx context.Context, snapshot func() ([]music.Track, int), interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tracks, cursor := snapshot()
			m.OnQueueChange(tracks, cursor)
		}
	}
}

// Clear cancels every fetch, drops every entry, and removes all media files
// from the cache directory, including unconverted leftovers. Returns the
// number of files removed.
func (m *Manager) Clear() int {
	m.mu.Lock()
	for id, e := range m.entries {
		e.cancel()
		delete(m.entries, id)
	}
	m.pinned = ""
	m.mu.Unlock()

	removed := 0
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return 0
	}
	for _, f := range entries {
		if f.IsDir() || !isMediaFile(f.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, f.Name())); err == nil {
			removed++
		}
	}
	return removed
}

// Close cancels all background work and waits for it to finish. Payload
// files are kept for reuse on the next start.
func (m *Manager) Close() {
	m.stop()
	m.wg.Wait()
}

// scheduleLocked creates a Pending entry and starts its background fetch.
// Callers must hold mu.
func (m *Manager) scheduleLocked(t music.Track) *entry {
	ctx, cancel := context.WithCancel(m.baseCtx)
	e := &entry{
		track:   t,
		status:  StatusPending,
		touched: time.Now(),
		done:    make(chan struct{}),
		cancel:  cancel,
	}
	m.entries[t.ID] = e

	m.wg.Add(1)
	go m.fetch(ctx, e, e.done)
	return e
}

// refetchLocked gives an already-settled Failed entry a fresh fetch.
// Callers must hold mu.
func (m *Manager) refetchLocked(e *entry) {
	select {
	case <-e.done:
	default:
		// a fetch is still in flight; attach to it
		return
	}

	ctx, cancel := context.WithCancel(m.baseCtx)
	e.status = StatusPending
	e.err = nil
	e.done = make(chan struct{})
	e.cancel = cancel

	m.wg.Add(1)
	go m.fetch(ctx, e, e.done)
}

// fetch runs one download attempt for an entry. At most one fetch per track
// is in flight; the global semaphore bounds fetches across tracks.
func (m *Manager) fetch(ctx context.Context, e *entry, done chan struct{}) {
	defer m.wg.Done()
	defer close(done)

	if err := m.sem.Acquire(ctx, 1); err != nil {
		m.settle(e, "", err)
		return
	}
	defer m.sem.Release(1)

	m.mu.Lock()
	e.status = StatusFetching
	e.attempts++
	m.mu.Unlock()

	path, err := m.fetcher.Fetch(ctx, e.track, m.dir)
	m.settle(e, path, err)

	if err != nil && ctx.Err() == nil {
		m.logger.Warn("prefetch failed",
			zap.String("track", e.track.ID),
			zap.String("title", e.track.Title),
			zap.Error(err))
	}
}

func (m *Manager) settle(e *entry, path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		e.status = StatusFailed
		e.err = err
		return
	}
	e.status = StatusReady
	e.path = path
	e.err = nil
}

func snapshot(e *entry) EntryView {
	return EntryView{Track: e.track, Status: e.status, Path: e.path, Err: e.err}
}

var mediaExtensions = map[string]struct{}{
	".opus": {}, ".webm": {}, ".m4a": {}, ".mp3": {},
	".mp4": {}, ".wav": {}, ".ogg": {}, ".flac": {}, ".part": {},
}

func isMediaFile(name string) bool {
	_, ok := mediaExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}
