package player

import "time"

// timeline tracks elapsed playback time from wall-clock timestamps instead of
// counting frames. Pausing freezes the accumulated time; resuming restarts
// the clock from now.
type timeline struct {
	total       time.Duration
	startedAt   time.Time
	accumulated time.Duration
	running     bool
}

func (t *timeline) start(total time.Duration) {
	t.total = total
	t.startedAt = time.Now()
	t.accumulated = 0
	t.running = true
}

func (t *timeline) pause() {
	if !t.running {
		return
	}
	t.accumulated += time.Since(t.startedAt)
	t.running = false
}

func (t *timeline) resume() {
	if t.running {
		return
	}
	t.startedAt = time.Now()
	t.running = true
}

func (t *timeline) stop() {
	t.total = 0
	t.accumulated = 0
	t.running = false
}

// elapsed never exceeds the track's total duration when one is known
func (t *timeline) elapsed() time.Duration {
	e := t.accumulated
	if t.running {
		e += time.Since(t.startedAt)
	}
	if t.total > 0 && e > t.total {
		return t.total
	}
	return e
}
