package discord

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"groovebox/internal/music"
	"groovebox/internal/music/extract"
	"groovebox/internal/music/player"
)

func (h *Handler) handlePlay(s *discordgo.Session, m *discordgo.MessageCreate, args string) {
	if args == "" {
		h.replyError(s, m.ChannelID, "Give me a link or something to search for")
		return
	}
	if !h.joinInvokerChannel(s, m) {
		return
	}

	if extract.IsPlaylistURL(args) {
		h.enqueuePlaylist(s, m, args)
		return
	}

	track, err := h.extractor.Resolve(h.ctx, args)
	if err != nil {
		h.logger.Warn("resolve failed", zap.String("query", args), zap.Error(err))
		h.replyError(s, m.ChannelID, music.UserMessageOf(err))
		return
	}
	track.RequesterID = m.Author.ID

	position := h.queue.Add(track)
	h.player.NotifyQueueChange()
	h.replyEmbed(s, m.ChannelID, h.enqueuedEmbed(track, position))

	h.startIfIdle(s, m)
}

func (h *Handler) enqueuePlaylist(s *discordgo.Session, m *discordgo.MessageCreate, url string) {
	h.replyText(s, m.ChannelID, "Loading playlist, this can take a moment...")

	tracks, err := h.extractor.ResolvePlaylist(h.ctx, url)
	if err != nil {
		h.replyError(s, m.ChannelID, music.UserMessageOf(err))
		return
	}
	for i := range tracks {
		tracks[i].RequesterID = m.Author.ID
	}

	h.queue.AddAll(tracks)
	h.player.NotifyQueueChange()
	h.replyText(s, m.ChannelID, fmt.Sprintf("Queued **%d** tracks from the playlist", len(tracks)))

	h.startIfIdle(s, m)
}

// startIfIdle kicks playback off when nothing is playing yet
func (h *Handler) startIfIdle(s *discordgo.Session, m *discordgo.MessageCreate) {
	if h.player.State() != player.StateIdle {
		return
	}
	go func() {
		if err := h.player.Play(h.ctx); err != nil {
			h.logger.Warn("playback did not start", zap.Error(err))
			h.replyError(s, m.ChannelID, music.UserMessageOf(err))
		}
	}()
}

func (h *Handler) handleSkip(s *discordgo.Session, m *discordgo.MessageCreate) {
	go func() {
		if err := h.player.Skip(h.ctx); err != nil {
			h.replyError(s, m.ChannelID, music.UserMessageOf(err))
			return
		}
		h.radio.MaybeRefill(h.ctx)
	}()
	h.replyText(s, m.ChannelID, "Skipping...")
}

func (h *Handler) handlePrevious(s *discordgo.Session, m *discordgo.MessageCreate) {
	go func() {
		if err := h.player.Previous(h.ctx); err != nil {
			h.replyError(s, m.ChannelID, music.UserMessageOf(err))
		}
	}()
	h.replyText(s, m.ChannelID, "Going back...")
}

func (h *Handler) handlePause(s *discordgo.Session, m *discordgo.MessageCreate) {
	if err := h.player.Pause(); err != nil {
		h.replyError(s, m.ChannelID, music.UserMessageOf(err))
		return
	}
	h.replyText(s, m.ChannelID, "Paused")
}

func (h *Handler) handleResume(s *discordgo.Session, m *discordgo.MessageCreate) {
	if err := h.player.Resume(); err != nil {
		h.replyError(s, m.ChannelID, music.UserMessageOf(err))
		return
	}
	h.replyText(s, m.ChannelID, "Resumed")
}

func (h *Handler) handleStop(s *discordgo.Session, m *discordgo.MessageCreate) {
	h.radio.Stop()
	h.player.Stop()
	h.replyText(s, m.ChannelID, "Stopped")
}

func (h *Handler) handleJump(s *discordgo.Session, m *discordgo.MessageCreate, args string) {
	index, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		h.replyError(s, m.ChannelID, "Give me a track number, like `!jump 3`")
		return
	}
	go func() {
		// displayed positions are 1-based
		if err := h.player.JumpTo(h.ctx, index-1); err != nil {
			h.replyError(s, m.ChannelID, music.UserMessageOf(err))
			return
		}
		h.replyText(s, m.ChannelID, fmt.Sprintf("Jumped to track %d", index))
	}()
}

func (h *Handler) handleRemove(s *discordgo.Session, m *discordgo.MessageCreate, args string) {
	index, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		h.replyError(s, m.ChannelID, "Give me a track number, like `!remove 3`")
		return
	}

	removed, err := h.queue.Remove(index - 1)
	if err != nil {
		h.replyError(s, m.ChannelID, music.UserMessageOf(err))
		return
	}
	h.player.NotifyQueueChange()
	h.replyText(s, m.ChannelID, fmt.Sprintf("Removed **%s**", removed.Title))
}

func (h *Handler) handleClear(s *discordgo.Session, m *discordgo.MessageCreate) {
	h.radio.Stop()
	h.player.Stop()
	h.queue.Clear()
	removed := h.cache.Clear()
	h.player.NotifyQueueChange()
	h.logger.Info("queue cleared", zap.Int("files_removed", removed))
	h.replyText(s, m.ChannelID, "Queue cleared")
}

func (h *Handler) handleQueue(s *discordgo.Session, m *discordgo.MessageCreate, args string) {
	page := 1
	if args != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(args)); err == nil {
			page = n
		}
	}

	view := h.queue.Page(page, h.pageSize)
	if view.Total == 0 {
		h.replyText(s, m.ChannelID, "The queue is empty")
		return
	}
	h.replyEmbed(s, m.ChannelID, h.queueEmbed(view))
}

func (h *Handler) handleNowPlaying(s *discordgo.Session, m *discordgo.MessageCreate) {
	snap := h.player.Snapshot()
	if snap.Track == nil {
		h.replyText(s, m.ChannelID, "Nothing is playing")
		return
	}
	h.replyEmbed(s, m.ChannelID, h.nowPlayingEmbed(snap))
}

func (h *Handler) handleLoop(s *discordgo.Session, m *discordgo.MessageCreate) {
	enabled := !h.queue.Loop()
	h.queue.SetLoop(enabled)
	if enabled {
		h.replyText(s, m.ChannelID, "Loop is on")
	} else {
		h.replyText(s, m.ChannelID, "Loop is off")
	}
}

func (h *Handler) handleRadio(s *discordgo.Session, m *discordgo.MessageCreate, args string) {
	if strings.EqualFold(strings.TrimSpace(args), "off") {
		h.radio.Stop()
		h.replyText(s, m.ChannelID, "Radio mode is off")
		return
	}
	if args == "" {
		h.replyError(s, m.ChannelID, "Tell me what the station should sound like, like `!radio 90s hip hop`")
		return
	}
	if !h.joinInvokerChannel(s, m) {
		return
	}

	h.radio.Start(args)
	h.replyText(s, m.ChannelID, fmt.Sprintf("Radio mode is on: *%s*", args))

	go func() {
		h.radio.MaybeRefill(h.ctx)
		h.startIfIdle(s, m)
	}()
}

func (h *Handler) handleLeave(s *discordgo.Session, m *discordgo.MessageCreate) {
	h.radio.Stop()
	h.player.Stop()
	if err := h.voices.Leave(); err != nil {
		h.logger.Warn("voice disconnect failed", zap.Error(err))
	}
	h.replyText(s, m.ChannelID, "Bye")
}
