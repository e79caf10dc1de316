package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"groovebox/internal/music"
	"groovebox/internal/music/player"
)

const (
	colorAccent = 0x9b59b6
	colorError  = 0xe74c3c
)

func (h *Handler) replyText(s *discordgo.Session, channelID, text string) {
	_, _ = s.ChannelMessageSend(channelID, text)
}

func (h *Handler) replyError(s *discordgo.Session, channelID, userMessage string) {
	if userMessage == "" {
		userMessage = "Something went wrong"
	}
	h.replyEmbed(s, channelID, &discordgo.MessageEmbed{
		Description: userMessage,
		Color:       colorError,
	})
}

func (h *Handler) replyEmbed(s *discordgo.Session, channelID string, embed *discordgo.MessageEmbed) {
	_, _ = s.ChannelMessageSendEmbed(channelID, embed)
}

func (h *Handler) enqueuedEmbed(t music.Track, position int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "Added to queue",
		Description: fmt.Sprintf("**[%s](%s)**\nby %s", t.Title, t.URL, t.Uploader),
		Color:       colorAccent,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Position %d • %s", position+1, t.FormatDuration()),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: h.thumbnailFor(t)}
	return embed
}

// thumbnailFor prefers the extractor's thumbnail and falls back to the
// track page's OpenGraph image
func (h *Handler) thumbnailFor(t music.Track) string {
	if t.Thumbnail != "" {
		return t.Thumbnail
	}
	if h.preview == nil {
		return ""
	}
	p, err := h.preview.Fetch(h.ctx, t.URL)
	if err != nil {
		return ""
	}
	return p.Image
}

func (h *Handler) nowPlayingEmbed(snap player.Snapshot) *discordgo.MessageEmbed {
	t := snap.Track
	desc := fmt.Sprintf("**[%s](%s)**\nby %s\n\n%s %s / %s",
		t.Title, t.URL, t.Uploader,
		progressBar(snap.Elapsed, snap.Duration, 16),
		formatClock(snap.Elapsed), t.FormatDuration())

	return &discordgo.MessageEmbed{
		Title:       "Now playing",
		Description: desc,
		Color:       colorAccent,
		Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: t.Thumbnail},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("State: %s", snap.State),
		},
	}
}

func (h *Handler) queueEmbed(view music.QueuePage) *discordgo.MessageEmbed {
	var b strings.Builder
	for i, t := range view.Tracks {
		index := view.StartIndex + i
		marker := "  "
		if index == view.Cursor {
			marker = "▶ "
		}
		fmt.Fprintf(&b, "%s`%2d.` **%s** (%s)\n", marker, index+1, t.Title, t.FormatDuration())
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Queue • %d tracks", view.Total),
		Description: b.String(),
		Color:       colorAccent,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Page %d/%d", view.Page, view.TotalPages),
		},
	}
}

func progressBar(elapsed, total time.Duration, width int) string {
	if total <= 0 {
		return ""
	}
	filled := int(float64(width) * float64(elapsed) / float64(total))
	if filled > width {
		filled = width
	}
	return strings.Repeat("▬", filled) + "🔘" + strings.Repeat("▬", width-filled)
}

func formatClock(d time.Duration) string {
	t := music.Track{Duration: d}
	return t.FormatDuration()
}
