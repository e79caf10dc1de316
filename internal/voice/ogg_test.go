package voice

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPage assembles a minimal OGG page around raw segment data
func buildPage(segTable []byte, segments []byte) []byte {
	var page bytes.Buffer
	page.WriteString("OggS")
	page.Write(make([]byte, 22)) // version, flags, granule, serial, seq, crc
	page.WriteByte(byte(len(segTable)))
	page.Write(segTable)
	page.Write(segments)
	return page.Bytes()
}

func TestOggReaderSinglePage(t *testing.T) {
	pkt1 := bytes.Repeat([]byte{0xA1}, 50)
	pkt2 := bytes.Repeat([]byte{0xB2}, 30)

	page := buildPage([]byte{50, 30}, append(append([]byte{}, pkt1...), pkt2...))
	r := newOggReader(bytes.NewReader(page))

	got, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, pkt1, got)

	got, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, pkt2, got)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestOggReaderLacedPacket(t *testing.T) {
	// 300-byte packet needs lacing values 255 + 45
	pkt := bytes.Repeat([]byte{0xC3}, 300)
	page := buildPage([]byte{255, 45}, pkt)
	r := newOggReader(bytes.NewReader(page))

	got, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, pkt, got)
}

func TestOggReaderPacketSpanningPages(t *testing.T) {
	// a packet whose final lacing value is 255 continues on the next page
	part1 := bytes.Repeat([]byte{0xD4}, 255)
	part2 := bytes.Repeat([]byte{0xE5}, 20)

	var stream bytes.Buffer
	stream.Write(buildPage([]byte{255}, part1))
	stream.Write(buildPage([]byte{20}, part2))

	r := newOggReader(&stream)
	got, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, append(append([]byte{}, part1...), part2...), got)
}

func TestOggReaderSkipsEmptyPages(t *testing.T) {
	pkt := []byte{1, 2, 3}
	var stream bytes.Buffer
	stream.Write(buildPage(nil, nil))
	stream.Write(buildPage([]byte{3}, pkt))

	r := newOggReader(&stream)
	got, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, pkt, got)
}

func TestOggReaderRejectsGarbage(t *testing.T) {
	r := newOggReader(bytes.NewReader(bytes.Repeat([]byte{0x55}, 64)))
	_, err := r.Next()
	assert.ErrorIs(t, err, errBadCapture)
}

func TestOggReaderTruncatedHeaderIsEOF(t *testing.T) {
	r := newOggReader(bytes.NewReader([]byte("OggS")))
	_, err := r.Next()
	assert.Equal(t, io.EOF, err)
}
