package camera

import (
	"context"
	"image"
	"image/png"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/image/bmp"

	"github.com/LdDl/sot-go/sot"
)

// Replay is a FrameSource playing back recorded BMP or PNG frames in lexical
// file name order. Without looping, StartCapture returns sot.ErrEndOfStream
// once every frame has been played.
type Replay struct {
	fsys   fs.FS
	names  []string
	loop   bool
	next   int
	cursor int
}

var _ sot.FrameSource = (*Replay)(nil)

// NewReplay lists the frames found at the top level of fsys
func NewReplay(fsys fs.FS, loop bool) (*Replay, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, errors.Wrap(err, "couldn't list recorded frames")
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(path.Ext(entry.Name())) {
		case ".bmp", ".png":
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return nil, errors.New("no .bmp or .png frames found")
	}
	sort.Strings(names)
	return &Replay{fsys: fsys, names: names, loop: loop, cursor: -1}, nil
}

// Len returns the number of recorded frames
func (r *Replay) Len() int {
	return len(r.names)
}

// StartCapture moves to the next recorded frame
func (r *Replay) StartCapture(ctx context.Context) error {
	if r.next >= len(r.names) {
		if !r.loop {
			return errors.Wrapf(sot.ErrEndOfStream, "all %d recorded frames played", len(r.names))
		}
		r.next = 0
	}
	r.cursor = r.next
	r.next++
	return nil
}

// WaitCapture completes immediately: recorded frames are always ready
func (r *Replay) WaitCapture(ctx context.Context, timeout time.Duration) error {
	if r.cursor < 0 {
		return errors.New("capture was never started")
	}
	return ctx.Err()
}

// ReadFrame decodes the current frame
func (r *Replay) ReadFrame(ctx context.Context) (image.Image, error) {
	if r.cursor < 0 {
		return nil, errors.New("capture was never started")
	}
	name := r.names[r.cursor]
	f, err := r.fsys.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't open frame %q", name)
	}
	defer f.Close()
	var img image.Image
	if strings.EqualFold(path.Ext(name), ".bmp") {
		img, err = bmp.Decode(f)
	} else {
		img, err = png.Decode(f)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't decode frame %q", name)
	}
	return img, nil
}
