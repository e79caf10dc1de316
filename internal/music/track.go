package music

import (
	"fmt"
	"time"
)

// Track is a single requested media item. Immutable once created; the queue
// entry that holds it owns it.
type Track struct {
	ID          string // stable platform ID (e.g. YouTube video ID)
	Title       string
	URL         string
	Duration    time.Duration
	Uploader    string
	UploaderURL string
	Thumbnail   string
	RequesterID string
	Source      string // "youtube", "soundcloud", "twitch", ...
}

// FormatDuration renders the duration as M:SS or H:MM:SS
func (t Track) FormatDuration() string {
	total := int(t.Duration.Seconds())
	if total >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
