package player

import (
	"time"

	"groovebox/internal/music"
)

// EventType discriminates Event payloads
type EventType int

const (
	EventStateChanged EventType = iota
	EventTrackChanged
	EventProgress
	EventError
)

func (t EventType) String() string {
	switch t {
	case EventStateChanged:
		return "state_changed"
	case EventTrackChanged:
		return "track_changed"
	case EventProgress:
		return "progress"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a playback notification. Track is nil when nothing is active.
type Event struct {
	Type     EventType
	State    State
	Track    *music.Track
	Elapsed  time.Duration
	Duration time.Duration
	Err      error
}

// Events exposes the notification stream. The channel is buffered and never
// blocks the player; when a consumer falls behind the oldest event is dropped.
func (p *Player) Events() <-chan Event {
	return p.events
}

func (p *Player) emit(ev Event) {
	select {
	case p.events <- ev:
		return
	default:
	}
	select {
	case <-p.events:
	default:
	}
	select {
	case p.events <- ev:
	default:
	}
}
