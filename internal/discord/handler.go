// Package discord wires chat commands to the playback core. Commands use a
// plain text prefix; replies are embeds carrying the user-facing side of
// structured errors.
package discord

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"groovebox/internal/music"
	"groovebox/internal/music/cache"
	"groovebox/internal/music/extract"
	"groovebox/internal/music/player"
	"groovebox/internal/music/radio"
	"groovebox/internal/music/scrape"
	"groovebox/internal/voice"
)

const commandPrefix = "!"

// Handler routes music commands to the player, queue and extractor
type Handler struct {
	ctx       context.Context
	queue     *music.Queue
	player    *player.Player
	extractor *extract.Extractor
	cache     *cache.Manager
	radio     *radio.Radio
	voices    *voice.Manager
	preview   *scrape.Client
	pageSize  int
	logger    *zap.Logger
}

// HandlerOptions bundles the dependencies a Handler needs
type HandlerOptions struct {
	Ctx       context.Context
	Queue     *music.Queue
	Player    *player.Player
	Extractor *extract.Extractor
	Cache     *cache.Manager
	Radio     *radio.Radio
	Voices    *voice.Manager
	Preview   *scrape.Client
	PageSize  int
	Logger    *zap.Logger
}

// NewHandler creates a command handler
func NewHandler(opts HandlerOptions) *Handler {
	if opts.Ctx == nil {
		opts.Ctx = context.Background()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 5
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Handler{
		ctx:       opts.Ctx,
		queue:     opts.Queue,
		player:    opts.Player,
		extractor: opts.Extractor,
		cache:     opts.Cache,
		radio:     opts.Radio,
		voices:    opts.Voices,
		preview:   opts.Preview,
		pageSize:  opts.PageSize,
		logger:    opts.Logger,
	}
}

// HandleMessage dispatches a chat message if it is a recognized command
func (h *Handler) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID || m.GuildID == "" {
		return
	}

	content := strings.TrimSpace(m.Content)
	if !strings.HasPrefix(content, commandPrefix) {
		return
	}

	fields := strings.Fields(content[len(commandPrefix):])
	if len(fields) == 0 {
		return
	}
	command := strings.ToLower(fields[0])
	args := strings.TrimSpace(strings.TrimPrefix(content[len(commandPrefix):], fields[0]))

	h.logger.Info("music command",
		zap.String("command", command),
		zap.String("user", m.Author.ID),
		zap.String("guild", m.GuildID))

	switch command {
	case "play", "p":
		h.handlePlay(s, m, args)
	case "skip", "next":
		h.handleSkip(s, m)
	case "prev", "previous", "back":
		h.handlePrevious(s, m)
	case "pause":
		h.handlePause(s, m)
	case "resume", "unpause":
		h.handleResume(s, m)
	case "stop":
		h.handleStop(s, m)
	case "jump", "goto":
		h.handleJump(s, m, args)
	case "remove", "rm":
		h.handleRemove(s, m, args)
	case "clear":
		h.handleClear(s, m)
	case "queue", "q", "list":
		h.handleQueue(s, m, args)
	case "np", "nowplaying":
		h.handleNowPlaying(s, m)
	case "loop":
		h.handleLoop(s, m)
	case "radio":
		h.handleRadio(s, m, args)
	case "leave", "disconnect":
		h.handleLeave(s, m)
	}
}

// joinInvokerChannel points the voice manager at the channel the invoking
// user currently sits in
func (h *Handler) joinInvokerChannel(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	guild, err := s.State.Guild(m.GuildID)
	if err != nil {
		h.replyError(s, m.ChannelID, "I can't see this server right now")
		return false
	}
	for _, vs := range guild.VoiceStates {
		if vs.UserID == m.Author.ID {
			h.voices.SetTarget(m.GuildID, vs.ChannelID)
			return true
		}
	}
	h.replyError(s, m.ChannelID, "Join a voice channel first")
	return false
}
