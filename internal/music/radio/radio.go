package radio

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"groovebox/internal/music"
)

const (
	// refill fires when this many tracks or fewer remain after the cursor
	refillThreshold    = 2
	maxTracksPerRefill = 6
	maxTrackDuration   = 7 * time.Minute
	historySize        = 50
	recentContextSize  = 5
)

// Resolver turns a text query into a playable track. Satisfied by
// extract.Extractor.
type Resolver interface {
	Resolve(ctx context.Context, urlOrQuery string) (music.Track, error)
}

// Radio refills the queue from model suggestions when it runs low. A history
// of recently queued URLs stops the station from looping on itself.
type Radio struct {
	suggester *Suggester
	resolver  Resolver
	queue     *music.Queue
	logger    *zap.Logger

	mu        sync.Mutex
	enabled   bool
	seed      string
	refilling bool
	history   []string
	historyAt map[string]struct{}
}

// New creates a Radio over the shared queue
func New(suggester *Suggester, resolver Resolver, queue *music.Queue, logger *zap.Logger) *Radio {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Radio{
		suggester: suggester,
		resolver:  resolver,
		queue:     queue,
		logger:    logger,
		historyAt: make(map[string]struct{}),
	}
}

// Start turns radio mode on with a seed describing the station
func (r *Radio) Start(seed string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = true
	r.seed = seed
}

// Stop turns radio mode off. History is kept so restarting the station does
// not immediately repeat itself.
func (r *Radio) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = false
}

// Enabled reports whether radio mode is on
func (r *Radio) Enabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

// Seed returns the station's seed text
func (r *Radio) Seed() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seed
}

// NoteTrack records a track as played so it is not suggested again
func (r *Radio) NoteTrack(t music.Track) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rememberLocked(t.URL)
}

// MaybeRefill tops the queue up if radio mode is on and few tracks remain
// after the cursor. At most one refill runs at a time; extra calls return
// immediately.
func (r *Radio) MaybeRefill(ctx context.Context) {
	r.mu.Lock()
	if !r.enabled || r.refilling {
		r.mu.Unlock()
		return
	}
	tracks, cursor := r.queue.Snapshot()
	remaining := len(tracks) - cursor - 1
	if cursor >= 0 && remaining > refillThreshold {
		r.mu.Unlock()
		return
	}
	r.refilling = true
	seed := r.seed
	recent := r.recentLocked(recentContextSize)
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.refilling = false
		r.mu.Unlock()
	}()

	queries := r.suggester.Suggest(ctx, seed, recent)
	if len(queries) == 0 {
		return
	}

	added := 0
	for _, query := range queries {
		if added >= maxTracksPerRefill {
			break
		}
		track, err := r.resolver.Resolve(ctx, query)
		if err != nil {
			r.logger.Debug("radio suggestion did not resolve",
				zap.String("query", query), zap.Error(err))
			continue
		}
		if track.Duration > maxTrackDuration {
			continue
		}

		r.mu.Lock()
		if _, seen := r.historyAt[track.URL]; seen {
			r.mu.Unlock()
			continue
		}
		r.rememberLocked(track.URL)
		r.mu.Unlock()

		track.RequesterID = "radio"
		r.queue.Add(track)
		added++
	}

	if added > 0 {
		r.logger.Info("radio refilled queue",
			zap.String("seed", seed), zap.Int("added", added))
	}
}

// rememberLocked appends a URL to the bounded history. Callers must hold mu.
func (r *Radio) rememberLocked(url string) {
	if url == "" {
		return
	}
	if _, ok := r.historyAt[url]; ok {
		return
	}
	r.history = append(r.history, url)
	r.historyAt[url] = struct{}{}
	if len(r.history) > historySize {
		delete(r.historyAt, r.history[0])
		r.history = r.history[1:]
	}
}

// recentLocked returns the n most recently remembered URLs.
// Callers must hold mu.
func (r *Radio) recentLocked(n int) []string {
	if len(r.history) < n {
		n = len(r.history)
	}
	out := make([]string, n)
	copy(out, r.history[len(r.history)-n:])
	return out
}
