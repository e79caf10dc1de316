package voice

import (
	"context"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"groovebox/internal/music"
)

// Manager dials a guild's voice channel through discordgo and hands the live
// connection to the streaming session. It implements Connector.
type Manager struct {
	session *discordgo.Session
	logger  *zap.Logger

	mu        sync.Mutex
	guildID   string
	channelID string
	vc        *discordgo.VoiceConnection
}

// NewManager wraps a connected discordgo session
func NewManager(session *discordgo.Session, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{session: session, logger: logger}
}

// SetTarget records which guild and voice channel to join. Must be called
// before Connect.
func (m *Manager) SetTarget(guildID, channelID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.guildID = guildID
	m.channelID = channelID
}

// Connect joins the target voice channel, muted for input. Joining a channel
// the bot already sits in reuses the existing connection.
func (m *Manager) Connect(ctx context.Context) (Connection, error) {
	m.mu.Lock()
	guildID, channelID := m.guildID, m.channelID
	m.mu.Unlock()

	if guildID == "" || channelID == "" {
		return nil, music.ErrNotConnected()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vc, err := m.session.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		m.logger.Warn("voice join failed",
			zap.String("guild", guildID),
			zap.String("channel", channelID),
			zap.Error(err))
		return nil, music.ErrTransportDisconnected(err)
	}

	m.mu.Lock()
	m.vc = vc
	m.mu.Unlock()

	m.logger.Info("joined voice channel",
		zap.String("guild", guildID), zap.String("channel", channelID))
	return &discordConnection{vc: vc}, nil
}

// Leave disconnects from the current voice channel
func (m *Manager) Leave() error {
	m.mu.Lock()
	vc := m.vc
	m.vc = nil
	m.mu.Unlock()

	if vc == nil {
		return nil
	}
	return vc.Disconnect()
}

// Connected reports whether a voice connection is currently held
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vc != nil
}

type discordConnection struct {
	vc *discordgo.VoiceConnection
}

func (c *discordConnection) Speaking(b bool) error {
	return c.vc.Speaking(b)
}

func (c *discordConnection) OpusSend() chan<- []byte {
	return c.vc.OpusSend
}
