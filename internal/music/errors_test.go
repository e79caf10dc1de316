package music

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewError(KindNetworkFailure, "yt-dlp failed", "Could not reach the source", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "network_failure")
	assert.Contains(t, err.Error(), "connection reset")
	assert.False(t, err.Timestamp.IsZero())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindQueueEmpty, KindOf(ErrQueueEmpty()))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))

	// kind survives wrapping
	wrapped := fmt.Errorf("while starting playback: %w", ErrFetchTimeout("abc", 0))
	assert.Equal(t, KindFetchTimeout, KindOf(wrapped))
}

func TestUserMessageOf(t *testing.T) {
	assert.Equal(t, "The queue is empty", UserMessageOf(ErrQueueEmpty()))
	assert.Equal(t, "Something went wrong, please try again later", UserMessageOf(errors.New("internal details")))

	assert.Equal(t, "There is no track at position 8", UserMessageOf(ErrIndexOutOfRange(7, 3)))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0:05", Track{Duration: 5 * time.Second}.FormatDuration())
	assert.Equal(t, "3:25", Track{Duration: 205 * time.Second}.FormatDuration())
	assert.Equal(t, "1:00:01", Track{Duration: 3601 * time.Second}.FormatDuration())
	assert.Equal(t, "0:00", Track{}.FormatDuration())
}
