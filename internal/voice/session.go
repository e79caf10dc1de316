// Package voice streams OGG Opus files into a Discord voice connection and
// owns the lifecycle of that connection.
package voice

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"groovebox/internal/music"
)

// Connection is the live voice transport a stream writes to
type Connection interface {
	Speaking(b bool) error
	OpusSend() chan<- []byte
}

// Connector dials (or re-dials) the voice channel
type Connector interface {
	Connect(ctx context.Context) (Connection, error)
}

// Session plays one audio file at a time over a voice connection. Starting a
// new file cancels the previous stream; the player sees the cancellation as
// a stale result and ignores it.
type Session struct {
	connector   Connector
	sendTimeout time.Duration
	logger      *zap.Logger

	mu   sync.Mutex
	conn Connection
	cur  *stream
}

type stream struct {
	cancel context.CancelFunc
	pause  chan bool
	done   chan error
}

// SessionOptions configures a Session
type SessionOptions struct {
	// SendTimeout bounds how long a single frame may block on the transport
	// before the connection is declared dead
	SendTimeout time.Duration
	Logger      *zap.Logger
}

// NewSession creates a Session over a Connector
func NewSession(connector Connector, opts SessionOptions) *Session {
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Session{
		connector:   connector,
		sendTimeout: opts.SendTimeout,
		logger:      opts.Logger,
	}
}

// Start begins streaming the file at path. It returns a channel that delivers
// exactly one value when the stream ends: nil for a natural end, an error
// otherwise.
func (s *Session) Start(ctx context.Context, path string) (<-chan error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur != nil {
		s.cur.cancel()
		s.cur = nil
	}

	if s.conn == nil {
		conn, err := s.connector.Connect(ctx)
		if err != nil {
			return nil, music.ErrNotConnected()
		}
		s.conn = conn
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	st := &stream{
		cancel: cancel,
		pause:  make(chan bool, 1),
		done:   make(chan error, 1),
	}
	s.cur = st

	go s.run(streamCtx, f, s.conn, st)
	return st.done, nil
}

// Pause suspends frame delivery without tearing down the stream
func (s *Session) Pause() error {
	return s.setPaused(true)
}

// Resume continues a paused stream
func (s *Session) Resume() error {
	return s.setPaused(false)
}

func (s *Session) setPaused(paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur == nil {
		return nil
	}
	select {
	case s.cur.pause <- paused:
	default:
		// replace a not-yet-consumed toggle
		select {
		case <-s.cur.pause:
		default:
		}
		select {
		case s.cur.pause <- paused:
		default:
		}
	}
	return nil
}

// Stop cancels the current stream, if any. The connection stays up for the
// next Start.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur != nil {
		s.cur.cancel()
		s.cur = nil
	}
}

// Reconnect drops the cached connection and dials the voice channel again
func (s *Session) Reconnect(ctx context.Context) error {
	conn, err := s.connector.Connect(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	return nil
}

// Close stops any stream and forgets the connection
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur != nil {
		s.cur.cancel()
		s.cur = nil
	}
	s.conn = nil
}

// run pumps Opus packets from the file into the transport. Pacing comes from
// the transport itself: the send channel accepts one 20ms frame at a time.
func (s *Session) run(ctx context.Context, f *os.File, conn Connection, st *stream) {
	defer f.Close()

	finish := func(err error) {
		conn.Speaking(false)
		st.done <- err
	}

	if err := conn.Speaking(true); err != nil {
		st.done <- music.ErrTransportDisconnected(err)
		return
	}

	reader := newOggReader(f)
	paused := false

	for {
		pkt, err := reader.Next()
		if err != nil {
			if err == io.EOF {
				finish(nil)
				return
			}
			finish(music.NewError(
				music.KindMalformedOutput,
				"corrupt audio stream: "+err.Error(),
				"The audio for this track is corrupt",
				err,
			))
			return
		}
		if isHeaderPacket(pkt) {
			continue
		}

		// a pause toggle never loses the frame in hand
		for sent := false; !sent; {
			if paused {
				select {
				case <-ctx.Done():
					finish(ctx.Err())
					return
				case paused = <-st.pause:
					conn.Speaking(!paused)
				}
				continue
			}

			select {
			case conn.OpusSend() <- pkt:
				sent = true
			case paused = <-st.pause:
				conn.Speaking(!paused)
			case <-ctx.Done():
				finish(ctx.Err())
				return
			case <-time.After(s.sendTimeout):
				s.logger.Warn("voice transport stopped accepting frames",
					zap.Duration("timeout", s.sendTimeout))
				finish(music.ErrTransportDisconnected(nil))
				return
			}
		}
	}
}

// isHeaderPacket reports whether a packet is one of the two OGG Opus stream
// headers, which must not be sent as audio
func isHeaderPacket(pkt []byte) bool {
	return bytes.HasPrefix(pkt, []byte("OpusHead")) || bytes.HasPrefix(pkt, []byte("OpusTags"))
}
