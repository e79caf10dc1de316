package voice

import (
	"errors"
	"io"
)

const oggPageHeaderSize = 27

var errBadCapture = errors.New("missing OggS capture pattern")

// oggReader walks the pages of an OGG container and reassembles the Opus
// packets inside. A lacing value of 255 means the packet continues into the
// next segment, possibly on the next page.
type oggReader struct {
	r       io.Reader
	header  [oggPageHeaderSize]byte
	pending []byte
	packets [][]byte
}

func newOggReader(r io.Reader) *oggReader {
	return &oggReader{r: r}
}

// Next returns the next complete Opus packet. io.EOF signals a clean end of
// the stream.
func (o *oggReader) Next() ([]byte, error) {
	for len(o.packets) == 0 {
		if err := o.readPage(); err != nil {
			return nil, err
		}
	}
	pkt := o.packets[0]
	o.packets = o.packets[1:]
	return pkt, nil
}

func (o *oggReader) readPage() error {
	if _, err := io.ReadFull(o.r, o.header[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return io.EOF
		}
		return err
	}
	if string(o.header[0:4]) != "OggS" {
		return errBadCapture
	}

	segCount := int(o.header[26])
	if segCount == 0 {
		return nil
	}

	segTable := make([]byte, segCount)
	if _, err := io.ReadFull(o.r, segTable); err != nil {
		return err
	}

	for _, lacing := range segTable {
		n := int(lacing)
		if n > 0 {
			seg := make([]byte, n)
			if _, err := io.ReadFull(o.r, seg); err != nil {
				return err
			}
			o.pending = append(o.pending, seg...)
		}
		if n < 255 && len(o.pending) > 0 {
			o.packets = append(o.packets, o.pending)
			o.pending = nil
		}
	}
	return nil
}
