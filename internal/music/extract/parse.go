package extract

import (
	"strings"
	"time"

	"groovebox/internal/music"
)

// videoInfo is the subset of yt-dlp's JSON output the player cares about
type videoInfo struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	WebpageURL  string      `json:"webpage_url"`
	URL         string      `json:"url"`
	Duration    float64     `json:"duration"`
	Uploader    string      `json:"uploader"`
	Artist      string      `json:"artist"`
	Creator     string      `json:"creator"`
	ChannelURL  string      `json:"channel_url"`
	UploaderURL string      `json:"uploader_url"`
	Thumbnail   string      `json:"thumbnail"`
	Thumbnails  []thumbnail `json:"thumbnails"`
	Extractor   string      `json:"extractor"`
	IsLive      bool        `json:"is_live"`
}

type thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Titles yt-dlp reports for entries that exist but cannot be played
var invalidTitlePatterns = []string{
	"deleted video", "private video", "video unavailable",
	"track not found", "private track", "removed track",
	"track unavailable", "not available",
	"not found", "removed by artist",
	"content not available", "no longer exists",
}

// toTrack converts raw yt-dlp output into a Track, reporting false for
// entries that are not playable
func (v videoInfo) toTrack() (music.Track, bool) {
	title := strings.ToLower(strings.TrimSpace(v.Title))
	if title == "" || title == "unknown title" || title == "untitled" {
		return music.Track{}, false
	}
	for _, pattern := range invalidTitlePatterns {
		if strings.Contains(title, pattern) {
			return music.Track{}, false
		}
	}

	duration := int(v.Duration)
	if duration < 0 {
		return music.Track{}, false
	}
	if duration == 0 && !v.IsLive {
		// flat playlist entries legitimately lack a duration; a resolved
		// single entry without one is not playable
		if v.Extractor != "" && !strings.HasSuffix(strings.ToLower(v.Extractor), "tab") {
			return music.Track{}, false
		}
	}

	pageURL := v.WebpageURL
	if pageURL == "" {
		pageURL = v.URL
	}
	if pageURL == "" && v.ID != "" {
		extractor := strings.ToLower(v.Extractor)
		if extractor == "" || strings.Contains(extractor, "youtube") {
			pageURL = "https://www.youtube.com/watch?v=" + v.ID
		}
	}
	if pageURL == "" {
		return music.Track{}, false
	}

	uploader := v.Uploader
	if uploader == "" {
		uploader = v.Artist
	}
	if uploader == "" {
		uploader = v.Creator
	}
	if uploader == "" {
		uploader = "Unknown uploader"
	}

	uploaderURL := v.ChannelURL
	if uploaderURL == "" {
		uploaderURL = v.UploaderURL
	}

	return music.Track{
		ID:          v.ID,
		Title:       v.Title,
		URL:         pageURL,
		Duration:    time.Duration(duration) * time.Second,
		Uploader:    uploader,
		UploaderURL: uploaderURL,
		Thumbnail:   v.bestThumbnail(),
		Source:      sourceTag(v.Extractor),
	}, true
}

func (v videoInfo) bestThumbnail() string {
	if v.Thumbnail != "" {
		return v.Thumbnail
	}
	best := ""
	bestArea := -1
	for _, t := range v.Thumbnails {
		area := t.Width * t.Height
		if area > bestArea {
			bestArea = area
			best = t.URL
		}
	}
	return best
}

func sourceTag(extractor string) string {
	e := strings.ToLower(extractor)
	switch {
	case strings.Contains(e, "youtube"), e == "":
		return "youtube"
	case strings.Contains(e, "soundcloud"):
		return "soundcloud"
	case strings.Contains(e, "twitch"):
		return "twitch"
	default:
		return e
	}
}
