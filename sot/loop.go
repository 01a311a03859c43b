package sot

import (
	"context"
	"image"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

// FrameSource is the capture hardware as seen by the loop.
type FrameSource interface {
	// StartCapture triggers acquisition of one frame.
	StartCapture(ctx context.Context) error
	// WaitCapture blocks until the capture-complete signal or the timeout,
	// returning ErrCaptureTimeout in the latter case.
	WaitCapture(ctx context.Context, timeout time.Duration) error
	// ReadFrame returns the captured frame.
	ReadFrame(ctx context.Context) (image.Image, error)
}

// Classifier writes the target mask for a frame. It must overwrite every bit
// and return ErrUnexpectedFrameSize when the frame does not match the mask.
type Classifier interface {
	Classify(img image.Image, mask *Mask) error
}

// Axis is a single actuator: set its position in whole degrees.
type Axis interface {
	Move(ctx context.Context, angleDeg uint8) error
}

// MaskSink receives the classified mask before extraction consumes it. Sinks
// must not retain the mask after WriteMask returns.
type MaskSink interface {
	WriteMask(mask *Mask) error
}

// Mode is the state of the frame loop.
type Mode int

const (
	Searching Mode = iota
	Tracking
)

func (m Mode) String() string {
	switch m {
	case Searching:
		return "SEARCHING"
	case Tracking:
		return "TRACKING"
	default:
		return "UNKNOWN"
	}
}

// Outcome summarises what one cycle did.
type Outcome int

const (
	// OutcomeSkipped means the cycle aborted before extraction; no state changed.
	OutcomeSkipped Outcome = iota
	// OutcomeSearching means no target qualified while searching.
	OutcomeSearching
	// OutcomeAcquired means a target was locked from SEARCHING.
	OutcomeAcquired
	// OutcomeTracked means the locked target was found and the actuators corrected.
	OutcomeTracked
	// OutcomeRelocked means tracking failed but acquisition found a target within the budget.
	OutcomeRelocked
	// OutcomeRetrying means tracking failed and the budget is not yet spent.
	OutcomeRetrying
	// OutcomeLost means the budget ran out and the loop went back to SEARCHING.
	OutcomeLost
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeSearching:
		return "searching"
	case OutcomeAcquired:
		return "acquired"
	case OutcomeTracked:
		return "tracked"
	case OutcomeRelocked:
		return "relocked"
	case OutcomeRetrying:
		return "retrying"
	case OutcomeLost:
		return "lost"
	default:
		return "unknown"
	}
}

// CycleResult describes one iteration of the loop.
type CycleResult struct {
	Mode        Mode
	Outcome     Outcome
	Target      Pixel
	Blobs       int
	Moved       Axes
	Persistence int
	// Err is set for skipped cycles.
	Err error
}

// Stats counts loop events since construction.
type Stats struct {
	Cycles    int
	Timeouts  int
	Discarded int
	Acquired  int
	Lost      int
}

// LoopOption customises a Loop.
type LoopOption func(*Loop)

// WithMaskSink streams every classified mask to sink before extraction.
func WithMaskSink(sink MaskSink) LoopOption {
	return func(loop *Loop) {
		loop.sink = sink
	}
}

// statsEvery is how often Run logs its counters, in cycles.
const statsEvery = 500

// Loop is the frame control loop. It owns the mask, the tracker state and the
// actuator position; it is not safe for concurrent use.
type Loop struct {
	cfg        Config
	logger     golog.Logger
	debug      bool
	source     FrameSource
	classifier Classifier
	pan        Axis
	tilt       Axis
	sink       MaskSink

	mask      *Mask
	extractor *Extractor

	mode        Mode
	persistence int
	state       *TrackerState
	position    Position
	stats       Stats
}

// NewLoop creates a loop in SEARCHING mode with the actuators at their start positions.
func NewLoop(cfg Config, source FrameSource, classifier Classifier, pan, tilt Axis, logger golog.Logger, opts ...LoopOption) (*Loop, error) {
	if err := cfg.Validate("tracking"); err != nil {
		return nil, err
	}
	if source == nil || classifier == nil || pan == nil || tilt == nil || logger == nil {
		return nil, errors.New("frame source, classifier, logger and both axes are required")
	}
	loop := &Loop{
		cfg:        cfg,
		logger:     logger,
		debug:      logger.Desugar().Core().Enabled(zapcore.DebugLevel),
		source:     source,
		classifier: classifier,
		pan:        pan,
		tilt:       tilt,
		mask:       NewMask(cfg.Width, cfg.Height),
		extractor:  NewExtractor(cfg.Width, cfg.Height),
		mode:       Searching,
		state:      NewTrackerState(),
		position:   Position{H: cfg.Actuator.StartH, V: cfg.Actuator.StartV},
	}
	for _, opt := range opts {
		opt(loop)
	}
	return loop, nil
}

// Mode returns the current loop state
func (loop *Loop) Mode() Mode {
	return loop.mode
}

// Persistence returns the remaining retry budget. It is meaningful only while tracking.
func (loop *Loop) Persistence() int {
	return loop.persistence
}

// Position returns the last commanded actuator position
func (loop *Loop) Position() Position {
	return loop.position
}

// TrackerState returns a copy of the current lock
func (loop *Loop) TrackerState() TrackerState {
	return *loop.state
}

// Stats returns the event counters
func (loop *Loop) Stats() Stats {
	return loop.stats
}

// Home commands both axes to their current positions, which are the start
// positions until the first correction.
func (loop *Loop) Home(ctx context.Context) error {
	if err := loop.pan.Move(ctx, uint8(loop.position.H)); err != nil {
		return errors.Wrap(err, "couldn't move pan axis to start position")
	}
	if err := loop.tilt.Move(ctx, uint8(loop.position.V)); err != nil {
		return errors.Wrap(err, "couldn't move tilt axis to start position")
	}
	return nil
}

// Run homes the actuators and then executes cycles until ctx is done or the
// source reports ErrEndOfStream.
func (loop *Loop) Run(ctx context.Context) error {
	if err := loop.Home(ctx); err != nil {
		return err
	}
	loop.logger.Infow("frame loop started", "width", loop.cfg.Width, "height", loop.cfg.Height, "position", loop.position)
	for {
		select {
		case <-ctx.Done():
			loop.logger.Infow("frame loop stopped", "stats", loop.stats)
			return ctx.Err()
		default:
		}
		if res := loop.Step(ctx); errors.Is(res.Err, ErrEndOfStream) {
			loop.logger.Infow("frame source exhausted", "stats", loop.stats)
			return res.Err
		}
		if loop.stats.Cycles%statsEvery == 0 {
			loop.logger.Infow("frame loop stats", "stats", loop.stats)
		}
	}
}

// Step runs exactly one cycle: capture, classify, extract, select or track, actuate.
// Recoverable failures skip the cycle without touching tracker state or actuators.
func (loop *Loop) Step(ctx context.Context) CycleResult {
	loop.stats.Cycles++
	blobs, err := loop.acquireFrame(ctx)
	if err != nil {
		return loop.skip(ctx, err)
	}
	res := CycleResult{Target: NoTarget, Blobs: len(blobs)}
	switch loop.mode {
	case Searching:
		loop.search(blobs, &res)
	case Tracking:
		loop.track(ctx, blobs, &res)
	}
	res.Mode = loop.mode
	res.Persistence = loop.persistence
	if loop.debug {
		loop.logger.Debugw("cycle", "mode", res.Mode, "outcome", res.Outcome, "blobs", res.Blobs,
			"target", res.Target, "persistence", res.Persistence, "position", loop.position)
	}
	return res
}

// acquireFrame captures a frame into the mask and extracts its blobs
func (loop *Loop) acquireFrame(ctx context.Context) ([]Blob, error) {
	if err := loop.source.StartCapture(ctx); err != nil {
		return nil, errors.Wrap(err, "couldn't start capture")
	}
	if err := loop.source.WaitCapture(ctx, loop.cfg.CaptureTimeout); err != nil {
		if errors.Is(err, ErrCaptureTimeout) {
			loop.stats.Timeouts++
		}
		return nil, err
	}
	img, err := loop.source.ReadFrame(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't read frame")
	}
	if err := loop.classifier.Classify(img, loop.mask); err != nil {
		loop.stats.Discarded++
		return nil, errors.Wrap(err, "frame discarded")
	}
	if loop.sink != nil {
		if err := loop.sink.WriteMask(loop.mask); err != nil {
			loop.logger.Warnw("couldn't dump mask", "error", err)
		}
	}
	return loop.extractor.Extract(loop.mask), nil
}

func (loop *Loop) skip(ctx context.Context, err error) CycleResult {
	if ctx.Err() != nil {
		loop.logger.Debugw("cycle skipped", "mode", loop.mode, "error", err)
	} else {
		loop.logger.Warnw("cycle skipped", "mode", loop.mode, "error", err)
	}
	return CycleResult{
		Mode:        loop.mode,
		Outcome:     OutcomeSkipped,
		Target:      NoTarget,
		Persistence: loop.persistence,
		Err:         err,
	}
}

func (loop *Loop) search(blobs []Blob, res *CycleResult) {
	target, ok := SelectTarget(blobs, loop.cfg.Selector, loop.state)
	if !ok {
		res.Outcome = OutcomeSearching
		return
	}
	loop.mode = Tracking
	loop.persistence = loop.cfg.Persistence.Acquire
	loop.stats.Acquired++
	res.Outcome = OutcomeAcquired
	res.Target = target
	loop.logger.Infow("target acquired", "target", target, "pixels", loop.state.LastPixelCount, "lock", loop.state.LockID)
}

func (loop *Loop) track(ctx context.Context, blobs []Blob, res *CycleResult) {
	previous := loop.state.LastCentroid
	target := TrackTarget(blobs, loop.cfg.Tracker, loop.state)
	if !target.IsNone() {
		res.Outcome = OutcomeTracked
		res.Target = target
		res.Moved = Correct(target, loop.cfg.Center(), loop.cfg.Actuator, &loop.position)
		loop.drive(ctx, res.Moved)
		loop.persistence = loop.cfg.Persistence.Healthy
		if loop.debug && !previous.IsNone() {
			loop.logger.Debugw("target tracked", "target", target, "drift", euclideanDistance(previous, target))
		}
		return
	}

	loop.persistence--
	if loop.persistence > 0 {
		// Re-acquire on this frame's blobs without moving the actuators and
		// without spending another unit of budget.
		if relock, ok := SelectTarget(blobs, loop.cfg.Selector, loop.state); ok {
			res.Outcome = OutcomeRelocked
			res.Target = relock
			loop.logger.Infow("target relocked", "target", relock, "persistence", loop.persistence, "lock", loop.state.LockID)
			return
		}
		res.Outcome = OutcomeRetrying
		loop.logger.Debugw("target missing", "persistence", loop.persistence)
		return
	}

	loop.mode = Searching
	loop.persistence = 0
	loop.state.Reset()
	loop.stats.Lost++
	res.Outcome = OutcomeLost
	loop.logger.Infow("target lost", "position", loop.position)
}

// drive writes moved axes to their drivers. A failed write is logged and the
// commanded position is kept.
func (loop *Loop) drive(ctx context.Context, moved Axes) {
	if moved.H {
		if err := loop.pan.Move(ctx, uint8(loop.position.H)); err != nil {
			loop.logger.Warnw("couldn't move pan axis", "position", loop.position.H, "error", err)
		}
	}
	if moved.V {
		if err := loop.tilt.Move(ctx, uint8(loop.position.V)); err != nil {
			loop.logger.Warnw("couldn't move tilt axis", "position", loop.position.V, "error", err)
		}
	}
}
