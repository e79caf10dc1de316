package voice

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groovebox/internal/music"
)

type fakeConnection struct {
	mu       sync.Mutex
	send     chan []byte
	speaking []bool
}

func newFakeConnection(buffer int) *fakeConnection {
	return &fakeConnection{send: make(chan []byte, buffer)}
}

func (c *fakeConnection) Speaking(b bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speaking = append(c.speaking, b)
	return nil
}

func (c *fakeConnection) OpusSend() chan<- []byte {
	return c.send
}

type fakeConnector struct {
	conn     Connection
	err      error
	connects int
}

func (f *fakeConnector) Connect(ctx context.Context) (Connection, error) {
	f.connects++
	if f.err != nil {
		return nil, f.err
	}
	return f.conn, nil
}

// writeOggFile writes a container with the two Opus headers and n audio packets
func writeOggFile(t *testing.T, n int) string {
	t.Helper()

	var stream bytes.Buffer
	head := append([]byte("OpusHead"), make([]byte, 11)...)
	tags := append([]byte("OpusTags"), make([]byte, 8)...)
	stream.Write(buildPage([]byte{byte(len(head))}, head))
	stream.Write(buildPage([]byte{byte(len(tags))}, tags))

	for i := 0; i < n; i++ {
		pkt := bytes.Repeat([]byte{byte(i + 1)}, 40)
		stream.Write(buildPage([]byte{40}, pkt))
	}

	path := filepath.Join(t.TempDir(), "track.opus")
	require.NoError(t, os.WriteFile(path, stream.Bytes(), 0o644))
	return path
}

func TestSessionStreamsAllPackets(t *testing.T) {
	conn := newFakeConnection(16)
	session := NewSession(&fakeConnector{conn: conn}, SessionOptions{})

	done, err := session.Start(context.Background(), writeOggFile(t, 5))
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("stream never finished")
	}

	assert.Len(t, conn.send, 5, "header packets are filtered, audio packets delivered")
	assert.Equal(t, []bool{true, false}, conn.speaking)
}

func TestSessionStartFailsWithoutConnection(t *testing.T) {
	session := NewSession(&fakeConnector{err: music.ErrNotConnected()}, SessionOptions{})

	_, err := session.Start(context.Background(), "/nonexistent.opus")
	require.Error(t, err)
	assert.Equal(t, music.KindNotConnected, music.KindOf(err))
}

func TestSessionStartMissingFile(t *testing.T) {
	conn := newFakeConnection(1)
	session := NewSession(&fakeConnector{conn: conn}, SessionOptions{})

	_, err := session.Start(context.Background(), filepath.Join(t.TempDir(), "missing.opus"))
	assert.Error(t, err)
}

func TestSessionStopCancelsStream(t *testing.T) {
	// unbuffered send channel with no reader: the stream blocks on delivery
	conn := newFakeConnection(0)
	session := NewSession(&fakeConnector{conn: conn}, SessionOptions{SendTimeout: time.Minute})

	done, err := session.Start(context.Background(), writeOggFile(t, 5))
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	session.Stop()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("stop did not end the stream")
	}
}

func TestSessionSendTimeoutIsTransportError(t *testing.T) {
	conn := newFakeConnection(0)
	session := NewSession(&fakeConnector{conn: conn}, SessionOptions{SendTimeout: 20 * time.Millisecond})

	done, err := session.Start(context.Background(), writeOggFile(t, 3))
	require.NoError(t, err)

	select {
	case err := <-done:
		assert.Equal(t, music.KindTransportDisconnected, music.KindOf(err))
	case <-time.After(time.Second):
		t.Fatal("send timeout never fired")
	}
}

func TestSessionPauseHoldsFrames(t *testing.T) {
	// small buffer so the stream blocks early and the pause lands mid-track
	conn := newFakeConnection(8)
	session := NewSession(&fakeConnector{conn: conn}, SessionOptions{SendTimeout: time.Minute})

	done, err := session.Start(context.Background(), writeOggFile(t, 50))
	require.NoError(t, err)
	require.NoError(t, session.Pause())

	time.Sleep(30 * time.Millisecond)
	delivered := len(conn.send)
	assert.LessOrEqual(t, delivered, 9, "paused stream must stop delivering")

	require.NoError(t, session.Resume())

	// drain the transport until the stream ends
	total := 0
	for {
		select {
		case <-conn.send:
			total++
		case err := <-done:
			require.NoError(t, err)
			total += len(conn.send)
			assert.Equal(t, 50, total, "no frame may be lost across a pause")
			return
		case <-time.After(time.Second):
			t.Fatal("stream never finished after resume")
		}
	}
}

func TestSessionNewStartCancelsPrevious(t *testing.T) {
	conn := newFakeConnection(0)
	session := NewSession(&fakeConnector{conn: conn}, SessionOptions{SendTimeout: time.Minute})

	first, err := session.Start(context.Background(), writeOggFile(t, 5))
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	second, err := session.Start(context.Background(), writeOggFile(t, 0))
	require.NoError(t, err)

	select {
	case err := <-first:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("previous stream was not cancelled")
	}

	select {
	case err := <-second:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("second stream never finished")
	}
}

func TestSessionReconnectDialsAgain(t *testing.T) {
	conn := newFakeConnection(16)
	connector := &fakeConnector{conn: conn}
	session := NewSession(connector, SessionOptions{})

	done, err := session.Start(context.Background(), writeOggFile(t, 1))
	require.NoError(t, err)
	<-done

	require.NoError(t, session.Reconnect(context.Background()))
	assert.Equal(t, 2, connector.connects)
}
