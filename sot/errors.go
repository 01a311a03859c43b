package sot

import "github.com/pkg/errors"

var (
	// ErrCaptureTimeout is returned by a FrameSource when the capture-complete
	// signal did not arrive before the deadline.
	ErrCaptureTimeout = errors.New("capture timed out")
	// ErrUnexpectedFrameSize marks a captured frame whose geometry differs from the configured one.
	ErrUnexpectedFrameSize = errors.New("unexpected frame size")
	// ErrEndOfStream is returned by a FrameSource that has no more frames to
	// deliver. Run stops when it sees it.
	ErrEndOfStream = errors.New("end of frame stream")
	// ErrMalformedFrame marks packed or streamed mask data of the wrong length.
	ErrMalformedFrame = errors.New("malformed frame")
)
