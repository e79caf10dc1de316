// Package player drives playback of the queue's current track through a
// voice session, advancing automatically and reconnecting after transport
// drops. One mutex serializes every state transition; slow work (waiting for
// a download) happens outside it, validated afterwards by a generation
// counter so a manual command issued in the meantime always wins.
package player

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"groovebox/internal/music"
)

// SourceProvider supplies local audio files for tracks. Satisfied by
// cache.Manager.
type SourceProvider interface {
	AwaitReady(ctx context.Context, t music.Track, timeout time.Duration) (string, error)
	OnQueueChange(tracks []music.Track, cursor int)
	Pin(trackID string)
}

// AudioSession streams a prepared audio file to the voice transport. Start
// returns quickly; the returned channel delivers exactly one value when the
// stream ends, nil for a natural end or an error describing the failure.
type AudioSession interface {
	Start(ctx context.Context, path string) (<-chan error, error)
	Pause() error
	Resume() error
	Stop()
	Reconnect(ctx context.Context) error
}

// Options configures a Player
type Options struct {
	FetchTimeout         time.Duration
	ReconnectMaxAttempts int
	ReconnectInterval    time.Duration
	ManualDebounce       time.Duration
	ProgressInterval     time.Duration
	Logger               *zap.Logger
}

// Snapshot is a point-in-time view of the player for status displays
type Snapshot struct {
	SessionID         string
	State             State
	Track             *music.Track
	Elapsed           time.Duration
	Duration          time.Duration
	ReconnectFailures int
}

// Player owns the playback state machine for one guild's voice session
type Player struct {
	id      string
	queue   *music.Queue
	source  SourceProvider
	session AudioSession
	opts    Options
	logger  *zap.Logger
	events  chan Event

	mu                sync.Mutex
	state             State
	gen               uint64
	current           *music.Track
	timeline          timeline
	lastManual        time.Time
	reconnectFailures int
	termErr           error
}

// New creates a Player over an existing queue, source and session
func New(queue *music.Queue, source SourceProvider, session AudioSession, opts Options) *Player {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 180 * time.Second
	}
	if opts.ReconnectMaxAttempts <= 0 {
		opts.ReconnectMaxAttempts = 15
	}
	if opts.ReconnectInterval <= 0 {
		opts.ReconnectInterval = 15 * time.Second
	}
	if opts.ManualDebounce <= 0 {
		opts.ManualDebounce = 2 * time.Second
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	id := uuid.NewString()
	return &Player{
		id:      id,
		queue:   queue,
		source:  source,
		session: session,
		opts:    opts,
		logger:  opts.Logger.With(zap.String("player", id[:8])),
		events:  make(chan Event, 64),
		state:   StateIdle,
	}
}

// SessionID identifies this player instance in logs and status output
func (p *Player) SessionID() string { return p.id }

// Queue exposes the queue the player reads its cursor from
func (p *Player) Queue() *music.Queue { return p.queue }

// State reports the current lifecycle state
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Snapshot captures the player's visible state in one locked read
func (p *Player) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Snapshot{
		SessionID:         p.id,
		State:             p.state,
		Elapsed:           p.timeline.elapsed(),
		ReconnectFailures: p.reconnectFailures,
	}
	if p.current != nil {
		t := *p.current
		s.Track = &t
		s.Duration = t.Duration
	}
	return s
}

// Play starts playback of the queue's current track. If nothing is active it
// advances into the queue first; on a paused player it resumes instead.
func (p *Player) Play(ctx context.Context) error {
	p.mu.Lock()
	if p.state == StateError {
		err := p.termErr
		p.mu.Unlock()
		return err
	}
	switch p.state {
	case StatePlaying, StateLoading:
		p.mu.Unlock()
		return nil
	case StatePaused:
		err := p.resumeLocked()
		p.mu.Unlock()
		return err
	}

	tr, ok := p.queue.Current()
	if !ok {
		tr, ok = p.queue.Advance()
		if !ok {
			p.mu.Unlock()
			return music.ErrQueueEmpty()
		}
	}
	p.markManualLocked()
	gen := p.beginTransitionLocked(tr)
	p.mu.Unlock()

	p.refreshWindow()
	return p.loadAndStart(ctx, tr, gen)
}

// Skip stops the current track and plays the next one. At the end of the
// queue it stops and goes idle.
func (p *Player) Skip(ctx context.Context) error {
	return p.seek(ctx, func() (music.Track, bool) { return p.queue.Advance() })
}

// Previous moves one track back and plays it
func (p *Player) Previous(ctx context.Context) error {
	return p.seek(ctx, func() (music.Track, bool) { return p.queue.Previous() })
}

func (p *Player) seek(ctx context.Context, move func() (music.Track, bool)) error {
	p.mu.Lock()
	if p.state == StateError {
		err := p.termErr
		p.mu.Unlock()
		return err
	}
	p.markManualLocked()
	p.session.Stop()

	tr, ok := move()
	if !ok {
		p.finishLocked()
		p.mu.Unlock()
		p.refreshWindow()
		return nil
	}
	gen := p.beginTransitionLocked(tr)
	p.mu.Unlock()

	p.refreshWindow()
	return p.loadAndStart(ctx, tr, gen)
}

// JumpTo plays the track at the given queue index. An out-of-range index is
// rejected without disturbing the current playback.
func (p *Player) JumpTo(ctx context.Context, index int) error {
	p.mu.Lock()
	if p.state == StateError {
		err := p.termErr
		p.mu.Unlock()
		return err
	}
	tr, err := p.queue.JumpTo(index)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	p.markManualLocked()
	p.session.Stop()
	gen := p.beginTransitionLocked(tr)
	p.mu.Unlock()

	p.refreshWindow()
	return p.loadAndStart(ctx, tr, gen)
}

// Pause freezes playback and the elapsed clock
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePlaying {
		return nil
	}
	if err := p.session.Pause(); err != nil {
		return err
	}
	p.timeline.pause()
	p.setStateLocked(StatePaused)
	return nil
}

// Resume continues a paused track
func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StatePaused {
		return nil
	}
	return p.resumeLocked()
}

func (p *Player) resumeLocked() error {
	if err := p.session.Resume(); err != nil {
		return err
	}
	p.timeline.resume()
	p.setStateLocked(StatePlaying)
	return nil
}

// Stop halts playback and clears the active track. The queue keeps its
// cursor, so Play picks up where the listener left off.
func (p *Player) Stop() {
	p.mu.Lock()
	if p.state == StateIdle || p.state == StateError {
		p.mu.Unlock()
		return
	}
	p.markManualLocked()
	p.setStateLocked(StateStopping)
	p.session.Stop()
	p.gen++
	p.finishLocked()
	p.mu.Unlock()

	p.refreshWindow()
}

// NotifyQueueChange re-syncs the prefetch window after the queue was edited
// outside the player (enqueue, remove, clear)
func (p *Player) NotifyQueueChange() {
	p.refreshWindow()
}

// Run emits periodic progress events until the context ends
func (p *Player) Run(ctx context.Context) {
	ticker := time.NewTicker(p.opts.ProgressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.mu.Lock()
			if p.state != StatePlaying || p.current == nil {
				p.mu.Unlock()
				continue
			}
			t := *p.current
			ev := Event{
				Type:     EventProgress,
				State:    p.state,
				Track:    &t,
				Elapsed:  p.timeline.elapsed(),
				Duration: t.Duration,
			}
			p.mu.Unlock()
			p.emit(ev)
		}
	}
}

// beginTransitionLocked points the player at a new track and invalidates any
// in-flight load or stream for the previous one. Callers must hold mu.
func (p *Player) beginTransitionLocked(tr music.Track) uint64 {
	p.gen++
	t := tr
	p.current = &t
	p.timeline.stop()
	p.source.Pin(tr.ID)
	p.setStateLocked(StateLoading)
	p.emit(Event{Type: EventTrackChanged, State: p.state, Track: &t, Duration: t.Duration})
	return p.gen
}

// finishLocked returns the player to idle with no active track.
// Callers must hold mu.
func (p *Player) finishLocked() {
	p.current = nil
	p.timeline.stop()
	p.source.Pin("")
	p.setStateLocked(StateIdle)
	p.emit(Event{Type: EventTrackChanged, State: p.state})
}

func (p *Player) setStateLocked(s State) {
	if p.state == s {
		return
	}
	p.state = s
	p.emit(Event{Type: EventStateChanged, State: s, Track: p.current})
}

func (p *Player) markManualLocked() {
	p.lastManual = time.Now()
}

func (p *Player) refreshWindow() {
	tracks, cursor := p.queue.Snapshot()
	p.source.OnQueueChange(tracks, cursor)
}

// loadAndStart waits for the track's audio outside the lock, then starts the
// session if the transition is still current. A track that fails to load is
// reported and skipped, continuing down the queue.
func (p *Player) loadAndStart(ctx context.Context, tr music.Track, gen uint64) error {
	for {
		path, err := p.source.AwaitReady(ctx, tr, p.opts.FetchTimeout)

		p.mu.Lock()
		if gen != p.gen {
			p.mu.Unlock()
			return nil
		}

		if err == nil {
			// Start opens the local file and hands off to a goroutine, so
			// holding the lock across it keeps transitions serial without
			// blocking on I/O
			var done <-chan error
			done, err = p.session.Start(ctx, path)
			if err == nil {
				t := tr
				p.timeline.start(t.Duration)
				p.reconnectFailures = 0
				p.setStateLocked(StatePlaying)
				p.mu.Unlock()
				go p.monitor(ctx, t, gen, done)
				return nil
			}
		}

		p.logger.Warn("track failed to start, advancing",
			zap.String("track", tr.ID),
			zap.String("title", tr.Title),
			zap.Error(err))
		t := tr
		p.emit(Event{Type: EventError, State: p.state, Track: &t, Err: err})

		next, ok := p.queue.Advance()
		if !ok {
			p.finishLocked()
			p.mu.Unlock()
			p.refreshWindow()
			return nil
		}
		tr = next
		gen = p.beginTransitionLocked(tr)
		p.mu.Unlock()
		p.refreshWindow()
	}
}

// monitor waits for the stream to end and decides what happens next: advance
// on a natural end, reconnect on a transport drop, nothing if a newer
// transition already took over
func (p *Player) monitor(ctx context.Context, tr music.Track, gen uint64, done <-chan error) {
	var cause error
	select {
	case cause = <-done:
	case <-ctx.Done():
		return
	}

	if cause != nil && music.KindOf(cause) == music.KindTransportDisconnected {
		p.handleDisconnect(ctx, tr, gen, cause)
		return
	}

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		return
	}
	if time.Since(p.lastManual) < p.opts.ManualDebounce {
		// a manual operation just fired; let it own the next transition
		p.mu.Unlock()
		return
	}
	if cause != nil {
		t := tr
		p.emit(Event{Type: EventError, State: p.state, Track: &t, Err: cause})
	}

	next, ok := p.queue.Advance()
	if !ok {
		p.finishLocked()
		p.mu.Unlock()
		p.refreshWindow()
		return
	}
	gen = p.beginTransitionLocked(next)
	p.mu.Unlock()

	p.refreshWindow()
	p.loadAndStart(ctx, next, gen)
}

// handleDisconnect retries the voice connection on a fixed interval. After
// the attempt budget is spent the player enters Error and emits exactly one
// exhaustion event; later disconnects find the stale generation and do
// nothing.
func (p *Player) handleDisconnect(ctx context.Context, tr music.Track, gen uint64, cause error) {
	p.logger.Warn("voice transport dropped",
		zap.String("track", tr.ID), zap.Error(cause))

	for {
		p.mu.Lock()
		if gen != p.gen {
			p.mu.Unlock()
			return
		}
		if p.reconnectFailures >= p.opts.ReconnectMaxAttempts {
			p.termErr = music.ErrReconnectExhausted(p.opts.ReconnectMaxAttempts)
			p.setStateLocked(StateError)
			t := tr
			p.emit(Event{Type: EventError, State: p.state, Track: &t, Err: p.termErr})
			p.mu.Unlock()
			p.logger.Error("reconnect attempts exhausted",
				zap.Int("attempts", p.opts.ReconnectMaxAttempts))
			return
		}
		attempt := p.reconnectFailures + 1
		p.setStateLocked(StateLoading)
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case <-time.After(p.opts.ReconnectInterval):
		}

		if err := p.session.Reconnect(ctx); err != nil {
			p.mu.Lock()
			p.reconnectFailures++
			p.mu.Unlock()
			p.logger.Warn("reconnect attempt failed",
				zap.Int("attempt", attempt), zap.Error(err))
			continue
		}

		p.mu.Lock()
		if gen != p.gen {
			p.mu.Unlock()
			return
		}
		p.reconnectFailures = 0
		p.logger.Info("voice transport restored", zap.Int("attempt", attempt))
		gen = p.beginTransitionLocked(tr)
		p.mu.Unlock()

		p.refreshWindow()
		p.loadAndStart(ctx, tr, gen)
		return
	}
}
