package music

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTracks(n int) []Track {
	tracks := make([]Track, n)
	for i := range tracks {
		tracks[i] = Track{
			ID:    fmt.Sprintf("track-%d", i),
			Title: fmt.Sprintf("Track %d", i),
			URL:   fmt.Sprintf("https://example.com/%d", i),
		}
	}
	return tracks
}

func TestQueueStartsEmpty(t *testing.T) {
	q := NewQueue()

	assert.Equal(t, 0, q.Len())
	assert.Equal(t, -1, q.CurrentIndex())

	_, ok := q.Current()
	assert.False(t, ok)
}

func TestAddFirstTrackBecomesCurrent(t *testing.T) {
	q := NewQueue()
	tracks := makeTracks(2)

	pos := q.Add(tracks[0])
	assert.Equal(t, 0, pos)
	assert.Equal(t, 0, q.CurrentIndex())

	pos = q.Add(tracks[1])
	assert.Equal(t, 1, pos)
	assert.Equal(t, 0, q.CurrentIndex(), "adding more tracks must not move the cursor")

	cur, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, "track-0", cur.ID)
}

func TestJumpToOutOfRangeLeavesCursorUntouched(t *testing.T) {
	q := NewQueue()
	q.AddAll(makeTracks(3))

	_, err := q.JumpTo(5)
	require.Error(t, err)
	assert.Equal(t, KindIndexOutOfRange, KindOf(err))
	assert.Equal(t, 0, q.CurrentIndex())

	tr, err := q.JumpTo(2)
	require.NoError(t, err)
	assert.Equal(t, "track-2", tr.ID)
	assert.Equal(t, 2, q.CurrentIndex())
}

func TestAdvanceOnLastTrackGoesEmpty(t *testing.T) {
	q := NewQueue()
	q.AddAll(makeTracks(2))

	tr, ok := q.Advance()
	require.True(t, ok)
	assert.Equal(t, "track-1", tr.ID)

	_, ok = q.Advance()
	assert.False(t, ok, "advancing past the end must not wrap")
	assert.Equal(t, -1, q.CurrentIndex())

	// the queue itself is untouched, a jump restores playback
	assert.Equal(t, 2, q.Len())
	_, err := q.JumpTo(0)
	require.NoError(t, err)
	assert.Equal(t, 0, q.CurrentIndex())
}

func TestAdvanceWrapsWithLoop(t *testing.T) {
	q := NewQueue()
	q.AddAll(makeTracks(2))
	q.SetLoop(true)

	_, ok := q.Advance()
	require.True(t, ok)

	tr, ok := q.Advance()
	require.True(t, ok)
	assert.Equal(t, "track-0", tr.ID)
	assert.Equal(t, 0, q.CurrentIndex())
}

func TestPreviousAtStart(t *testing.T) {
	q := NewQueue()
	q.AddAll(makeTracks(3))

	_, ok := q.Previous()
	assert.False(t, ok)
	assert.Equal(t, 0, q.CurrentIndex())

	q.SetLoop(true)
	tr, ok := q.Previous()
	require.True(t, ok)
	assert.Equal(t, "track-2", tr.ID)
}

func TestRemoveBeforeCursorShiftsItDown(t *testing.T) {
	q := NewQueue()
	q.AddAll(makeTracks(4))
	_, err := q.JumpTo(2)
	require.NoError(t, err)

	removed, err := q.Remove(0)
	require.NoError(t, err)
	assert.Equal(t, "track-0", removed.ID)
	assert.Equal(t, 1, q.CurrentIndex())

	cur, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, "track-2", cur.ID, "the same track stays current")
}

func TestRemoveCurrentKeepsCursorOnNext(t *testing.T) {
	q := NewQueue()
	q.AddAll(makeTracks(3))
	_, err := q.JumpTo(1)
	require.NoError(t, err)

	_, err = q.Remove(1)
	require.NoError(t, err)
	assert.Equal(t, 1, q.CurrentIndex())

	cur, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, "track-2", cur.ID)
}

func TestRemoveLastWhileCurrentClampsCursor(t *testing.T) {
	q := NewQueue()
	q.AddAll(makeTracks(3))
	_, err := q.JumpTo(2)
	require.NoError(t, err)

	_, err = q.Remove(2)
	require.NoError(t, err)
	assert.Equal(t, 1, q.CurrentIndex())
}

func TestRemoveOnlyTrackEmptiesQueue(t *testing.T) {
	q := NewQueue()
	q.Add(makeTracks(1)[0])

	_, err := q.Remove(0)
	require.NoError(t, err)
	assert.Equal(t, -1, q.CurrentIndex())
	assert.Equal(t, 0, q.Len())
}

func TestRemoveOutOfRange(t *testing.T) {
	q := NewQueue()
	q.AddAll(makeTracks(2))

	_, err := q.Remove(7)
	require.Error(t, err)
	assert.Equal(t, KindIndexOutOfRange, KindOf(err))

	_, err = q.Remove(-1)
	require.Error(t, err)
}

func TestClearResetsCursor(t *testing.T) {
	q := NewQueue()
	q.AddAll(makeTracks(5))

	count := q.Clear()
	assert.Equal(t, 5, count)
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, -1, q.CurrentIndex())

	// the queue is reusable after a clear
	q.Add(makeTracks(1)[0])
	assert.Equal(t, 0, q.CurrentIndex())
}

func TestUpcoming(t *testing.T) {
	q := NewQueue()
	q.AddAll(makeTracks(5))
	_, err := q.JumpTo(1)
	require.NoError(t, err)

	up := q.Upcoming(2)
	require.Len(t, up, 2)
	assert.Equal(t, "track-2", up[0].ID)
	assert.Equal(t, "track-3", up[1].ID)

	_, err = q.JumpTo(4)
	require.NoError(t, err)
	assert.Empty(t, q.Upcoming(2))
}

func TestPagePagination(t *testing.T) {
	q := NewQueue()
	q.AddAll(makeTracks(12))

	page := q.Page(2, 5)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 12, page.Total)
	assert.Equal(t, 5, page.StartIndex)
	require.Len(t, page.Tracks, 5)
	assert.Equal(t, "track-5", page.Tracks[0].ID)

	// out-of-range pages clamp
	last := q.Page(99, 5)
	assert.Equal(t, 3, last.Page)
	assert.Len(t, last.Tracks, 2)

	first := q.Page(-1, 5)
	assert.Equal(t, 1, first.Page)
}

func TestWindowIndices(t *testing.T) {
	tests := []struct {
		name   string
		cursor int
		length int
		behind int
		ahead  int
		want   []int
	}{
		{"empty cursor", -1, 5, 2, 3, nil},
		{"empty queue", 0, 0, 2, 3, nil},
		{"middle", 5, 20, 2, 3, []int{3, 4, 5, 6, 7, 8}},
		{"clipped at start", 0, 20, 2, 3, []int{0, 1, 2, 3}},
		{"clipped at end", 19, 20, 2, 3, []int{17, 18, 19}},
		{"window covers whole queue", 1, 3, 2, 3, []int{0, 1, 2}},
		{"zero-size window", 4, 10, 0, 0, []int{4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WindowIndices(tt.cursor, tt.length, tt.behind, tt.ahead))
		})
	}
}
