package maskdump

import (
	"bufio"
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/LdDl/sot-go/sot"
)

// ChunkSize is the largest write the framed writer issues at once.
const ChunkSize = 64

var (
	// StartMarker precedes every framed mask.
	StartMarker = []byte{0xAA, 0x55, 0xAA, 0x55}
	// EndMarker follows every framed mask.
	EndMarker = []byte{0x55, 0xAA, 0x55, 0xAA}
)

// WriteFrame writes the packed mask between the start and end markers, the
// payload in ChunkSize pieces.
func WriteFrame(w io.Writer, mask *sot.Mask) error {
	if _, err := w.Write(StartMarker); err != nil {
		return errors.Wrap(err, "couldn't write start marker")
	}
	payload := mask.Bytes()
	for len(payload) > 0 {
		n := min(ChunkSize, len(payload))
		if _, err := w.Write(payload[:n]); err != nil {
			return errors.Wrap(err, "couldn't write mask chunk")
		}
		payload = payload[n:]
	}
	if _, err := w.Write(EndMarker); err != nil {
		return errors.Wrap(err, "couldn't write end marker")
	}
	return nil
}

// FrameReader extracts packed masks from a framed stream
type FrameReader struct {
	r      *bufio.Reader
	width  int
	height int
	size   int
}

// NewFrameReader creates a reader for masks of the given geometry
func NewFrameReader(r io.Reader, width, height int) *FrameReader {
	size := sot.PackedSize(width, height)
	return &FrameReader{
		r:      bufio.NewReaderSize(r, size+len(StartMarker)+len(EndMarker)),
		width:  width,
		height: height,
		size:   size,
	}
}

// Next skips to the next start marker and returns the mask that follows. A
// frame whose payload is not exactly the packed mask size yields an error
// wrapping sot.ErrMalformedFrame; the next call resynchronises on the
// following start marker. io.EOF is returned at the end of the stream.
func (fr *FrameReader) Next() (*sot.Mask, error) {
	if err := fr.sync(); err != nil {
		return nil, err
	}
	want := fr.size + len(EndMarker)
	buf, err := fr.r.Peek(want)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "couldn't read frame")
	}
	if len(buf) == want && bytes.Equal(buf[fr.size:], EndMarker) {
		mask, err := sot.NewMaskFromBytes(fr.width, fr.height, buf[:fr.size])
		if err != nil {
			return nil, err
		}
		if _, err := fr.r.Discard(want); err != nil {
			return nil, errors.Wrap(err, "couldn't read frame")
		}
		return mask, nil
	}
	// leave the peeked bytes in place so that a start marker inside them is found
	if i := bytes.Index(buf, EndMarker); i >= 0 && i < fr.size {
		return nil, errors.Wrapf(sot.ErrMalformedFrame, "payload of %d bytes, want %d", i, fr.size)
	}
	if len(buf) < want {
		return nil, errors.Wrapf(sot.ErrMalformedFrame, "truncated frame of %d bytes", len(buf))
	}
	return nil, errors.Wrapf(sot.ErrMalformedFrame, "no end marker after %d bytes", fr.size)
}

// sync consumes bytes up to and including the next start marker
func (fr *FrameReader) sync() error {
	var window [4]byte
	seen := 0
	for {
		b, err := fr.r.ReadByte()
		if err != nil {
			return err
		}
		copy(window[:], window[1:])
		window[3] = b
		seen++
		if seen >= len(window) && bytes.Equal(window[:], StartMarker) {
			return nil
		}
	}
}
