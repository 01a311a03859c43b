// Package maskdump streams classified masks to a debug link and parses them
// back on the host side.
package maskdump

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/LdDl/sot-go/sot"
)

// WriteRows writes mask as one line per row, '1' for a set pixel and '0'
// otherwise.
func WriteRows(w io.Writer, mask *sot.Mask) error {
	bw := bufio.NewWriterSize(w, mask.Width()+1)
	for y := 0; y < mask.Height(); y++ {
		for x := 0; x < mask.Width(); x++ {
			c := byte('0')
			if mask.Get(x, y) {
				c = '1'
			}
			if err := bw.WriteByte(c); err != nil {
				return errors.Wrap(err, "couldn't write mask row")
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return errors.Wrap(err, "couldn't write mask row")
		}
	}
	return errors.Wrap(bw.Flush(), "couldn't flush mask rows")
}

// RowReader assembles masks from a row dump. Lines that are not exactly
// width characters of '0' and '1' are skipped, so log output interleaved on
// the same link is tolerated.
type RowReader struct {
	scanner *bufio.Scanner
	width   int
	height  int
}

// NewRowReader creates a reader for masks of the given geometry
func NewRowReader(r io.Reader, width, height int) *RowReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	return &RowReader{scanner: scanner, width: width, height: height}
}

// Next returns the next complete mask. It returns io.EOF when the stream
// ends, discarding any partial mask.
func (rr *RowReader) Next() (*sot.Mask, error) {
	mask := sot.NewMask(rr.width, rr.height)
	y := 0
	for rr.scanner.Scan() {
		line := strings.TrimSpace(rr.scanner.Text())
		if !rr.isRow(line) {
			continue
		}
		for x := 0; x < rr.width; x++ {
			mask.Set(x, y, line[x] == '1')
		}
		y++
		if y == rr.height {
			return mask, nil
		}
	}
	if err := rr.scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "couldn't read mask rows")
	}
	return nil, io.EOF
}

func (rr *RowReader) isRow(line string) bool {
	if len(line) != rr.width {
		return false
	}
	for i := 0; i < len(line); i++ {
		if line[i] != '0' && line[i] != '1' {
			return false
		}
	}
	return true
}
