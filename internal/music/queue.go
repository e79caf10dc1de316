package music

import "sync"

// Queue is an ordered list of tracks with a cursor marking the active
// position. The cursor is -1 when nothing is active (the empty sentinel) and
// is only ever mutated by the queue's own navigation operations.
type Queue struct {
	mu     sync.Mutex
	tracks []Track
	cursor int
	loop   bool
}

// QueuePage is one page of the queue listing
type QueuePage struct {
	Tracks     []Track
	StartIndex int // index of the first track on this page
	Page       int
	TotalPages int
	Total      int
	Cursor     int
}

// NewQueue creates an empty queue
func NewQueue() *Queue {
	return &Queue{cursor: -1}
}

// Add appends a track and returns its position. The first track added to an
// empty queue becomes the current one.
func (q *Queue) Add(t Track) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.tracks = append(q.tracks, t)
	if len(q.tracks) == 1 {
		q.cursor = 0
	}
	return len(q.tracks) - 1
}

// AddAll appends tracks in order and returns the position of the first one
func (q *Queue) AddAll(tracks []Track) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	first := len(q.tracks)
	q.tracks = append(q.tracks, tracks...)
	if first == 0 && len(q.tracks) > 0 {
		q.cursor = 0
	}
	return first
}

// Remove deletes the track at index. When the current track is removed the
// cursor keeps pointing at the same logical next track, clamped to the last
// valid index.
func (q *Queue) Remove(index int) (Track, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if index < 0 || index >= len(q.tracks) {
		return Track{}, ErrIndexOutOfRange(index, len(q.tracks))
	}

	removed := q.tracks[index]
	q.tracks = append(q.tracks[:index], q.tracks[index+1:]...)

	switch {
	case len(q.tracks) == 0:
		q.cursor = -1
	case index < q.cursor:
		q.cursor--
	case index == q.cursor && q.cursor >= len(q.tracks):
		q.cursor = len(q.tracks) - 1
	}
	return removed, nil
}

// Clear empties the queue and resets the cursor
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	count := len(q.tracks)
	q.tracks = nil
	q.cursor = -1
	return count
}

// JumpTo sets the cursor to index and returns the track there
func (q *Queue) JumpTo(index int) (Track, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if index < 0 || index >= len(q.tracks) {
		return Track{}, ErrIndexOutOfRange(index, len(q.tracks))
	}
	q.cursor = index
	return q.tracks[index], nil
}

// Advance moves the cursor to the next track. At the end of the queue the
// cursor moves to the empty sentinel and Advance reports no track; with loop
// mode on it wraps to the first track instead.
func (q *Queue) Advance() (Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tracks) == 0 {
		q.cursor = -1
		return Track{}, false
	}

	if q.loop {
		q.cursor = (q.cursor + 1) % len(q.tracks)
		return q.tracks[q.cursor], true
	}

	if q.cursor+1 >= len(q.tracks) {
		q.cursor = -1
		return Track{}, false
	}
	q.cursor++
	return q.tracks[q.cursor], true
}

// Previous moves the cursor to the preceding track. With loop mode on the
// first track wraps to the last; otherwise the cursor is left untouched and
// Previous reports no track.
func (q *Queue) Previous() (Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tracks) == 0 {
		return Track{}, false
	}

	if q.loop {
		q.cursor = ((q.cursor-1)%len(q.tracks) + len(q.tracks)) % len(q.tracks)
		return q.tracks[q.cursor], true
	}

	if q.cursor <= 0 {
		return Track{}, false
	}
	q.cursor--
	return q.tracks[q.cursor], true
}

// Current returns the track at the cursor
func (q *Queue) Current() (Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.cursor < 0 || q.cursor >= len(q.tracks) {
		return Track{}, false
	}
	return q.tracks[q.cursor], true
}

// CurrentIndex returns the cursor position, -1 when nothing is active
func (q *Queue) CurrentIndex() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cursor
}

// Len returns the number of queued tracks
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tracks)
}

// Get returns the track at index without moving the cursor
func (q *Queue) Get(index int) (Track, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if index < 0 || index >= len(q.tracks) {
		return Track{}, ErrIndexOutOfRange(index, len(q.tracks))
	}
	return q.tracks[index], nil
}

// Upcoming returns up to n tracks after the cursor
func (q *Queue) Upcoming(n int) []Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tracks) == 0 || q.cursor < 0 {
		return nil
	}
	start := q.cursor + 1
	end := min(start+n, len(q.tracks))
	if start >= end {
		return nil
	}
	out := make([]Track, end-start)
	copy(out, q.tracks[start:end])
	return out
}

// Snapshot returns a copy of the track list and the cursor position
func (q *Queue) Snapshot() ([]Track, int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Track, len(q.tracks))
	copy(out, q.tracks)
	return out, q.cursor
}

// Page returns one page of the listing, 1-based page numbers clamped to the
// valid range
func (q *Queue) Page(page, perPage int) QueuePage {
	q.mu.Lock()
	defer q.mu.Unlock()

	total := len(q.tracks)
	totalPages := max(1, (total+perPage-1)/perPage)
	page = max(1, min(page, totalPages))

	start := (page - 1) * perPage
	end := min(start+perPage, total)

	tracks := make([]Track, end-start)
	copy(tracks, q.tracks[start:end])

	return QueuePage{
		Tracks:     tracks,
		StartIndex: start,
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		Cursor:     q.cursor,
	}
}

// SetLoop toggles loop mode
func (q *Queue) SetLoop(loop bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.loop = loop
}

// Loop reports whether loop mode is on
func (q *Queue) Loop() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.loop
}

// WindowIndices computes the queue positions inside the sliding cache window
// [cursor-behind, cursor+ahead] for a given queue length. It is a pure
// function of its inputs; an inactive cursor yields no window.
func WindowIndices(cursor, length, behind, ahead int) []int {
	if cursor < 0 || cursor >= length {
		return nil
	}
	start := max(0, cursor-behind)
	end := min(length, cursor+ahead+1)

	indices := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		indices = append(indices, i)
	}
	return indices
}
