package sot

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"go.viam.com/test"
)

// scriptedSource times out on the cycles listed in timeouts and otherwise
// captures immediately. With a positive limit it runs dry after that many cycles.
type scriptedSource struct {
	cycle    int
	limit    int
	timeouts map[int]bool
}

func (s *scriptedSource) StartCapture(ctx context.Context) error {
	s.cycle++
	if s.limit > 0 && s.cycle > s.limit {
		return ErrEndOfStream
	}
	return nil
}

func (s *scriptedSource) WaitCapture(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.timeouts[s.cycle] {
		return errors.Wrapf(ErrCaptureTimeout, "after %s", timeout)
	}
	return nil
}

func (s *scriptedSource) ReadFrame(ctx context.Context) (image.Image, error) {
	return image.NewGray(image.Rect(0, 0, 1, 1)), nil
}

// sceneClassifier replays prepared masks, one per classified frame. A nil
// scene stands for a frame of the wrong size.
type sceneClassifier struct {
	scenes []*Mask
	next   int
}

func (c *sceneClassifier) Classify(img image.Image, mask *Mask) error {
	scene := c.scenes[c.next]
	c.next++
	if scene == nil {
		return ErrUnexpectedFrameSize
	}
	return mask.Load(scene.Bytes())
}

type recordingAxis struct {
	moves []uint8
	fail  bool
}

func (a *recordingAxis) Move(ctx context.Context, angleDeg uint8) error {
	if a.fail {
		return errors.New("driver fault")
	}
	a.moves = append(a.moves, angleDeg)
	return nil
}

type countingSink struct {
	counts []int
}

func (s *countingSink) WriteMask(mask *Mask) error {
	s.counts = append(s.counts, mask.Count())
	return nil
}

func emptyScene() *Mask {
	return NewMask(DefaultWidth, DefaultHeight)
}

func squareScene(cx, cy, half int) *Mask {
	mask := NewMask(DefaultWidth, DefaultHeight)
	fillRect(mask, cx-half, cy-half, cx+half, cy+half)
	return mask
}

type loopFixture struct {
	loop   *Loop
	source *scriptedSource
	pan    *recordingAxis
	tilt   *recordingAxis
}

func newLoopFixture(t *testing.T, scenes []*Mask, opts ...LoopOption) loopFixture {
	t.Helper()
	return newLoopFixtureWithConfig(t, DefaultConfig(), golog.NewTestLogger(t), scenes, opts...)
}

func newLoopFixtureWithConfig(t *testing.T, cfg Config, logger golog.Logger, scenes []*Mask, opts ...LoopOption) loopFixture {
	t.Helper()
	f := loopFixture{
		source: &scriptedSource{timeouts: map[int]bool{}},
		pan:    &recordingAxis{},
		tilt:   &recordingAxis{},
	}
	loop, err := NewLoop(cfg, f.source, &sceneClassifier{scenes: scenes}, f.pan, f.tilt, logger, opts...)
	test.That(t, err, test.ShouldBeNil)
	f.loop = loop
	return f
}

func TestLoopEmptySceneStaysSearching(t *testing.T) {
	f := newLoopFixture(t, []*Mask{emptyScene(), emptyScene()})
	for i := 0; i < 2; i++ {
		res := f.loop.Step(context.Background())
		test.That(t, res.Err, test.ShouldBeNil)
		test.That(t, res.Outcome, test.ShouldEqual, OutcomeSearching)
		test.That(t, res.Mode, test.ShouldEqual, Searching)
		test.That(t, res.Blobs, test.ShouldEqual, 0)
		test.That(t, res.Target, test.ShouldResemble, NoTarget)
	}
	test.That(t, f.pan.moves, test.ShouldBeEmpty)
	test.That(t, f.tilt.moves, test.ShouldBeEmpty)
}

func TestLoopCenteredTargetNeverCommands(t *testing.T) {
	scenes := []*Mask{squareScene(80, 60, 3), squareScene(80, 60, 3), squareScene(80, 60, 3)}
	f := newLoopFixture(t, scenes)

	res := f.loop.Step(context.Background())
	test.That(t, res.Outcome, test.ShouldEqual, OutcomeAcquired)
	test.That(t, res.Mode, test.ShouldEqual, Tracking)
	test.That(t, res.Persistence, test.ShouldEqual, DefaultAcquireBudget)
	test.That(t, res.Target, test.ShouldResemble, NewPixel(80, 60))

	for i := 0; i < 2; i++ {
		res = f.loop.Step(context.Background())
		test.That(t, res.Outcome, test.ShouldEqual, OutcomeTracked)
		test.That(t, res.Persistence, test.ShouldEqual, DefaultHealthyBudget)
		test.That(t, res.Moved.Any(), test.ShouldBeFalse)
	}
	test.That(t, f.pan.moves, test.ShouldBeEmpty)
	test.That(t, f.tilt.moves, test.ShouldBeEmpty)
	test.That(t, f.loop.Position(), test.ShouldResemble, Position{H: 90, V: 90})
}

func TestLoopOffCenterTargetDrivesAxes(t *testing.T) {
	scenes := []*Mask{squareScene(100, 50, 2), squareScene(100, 48, 2)}
	f := newLoopFixture(t, scenes)

	test.That(t, f.loop.Step(context.Background()).Outcome, test.ShouldEqual, OutcomeAcquired)
	// acquisition itself never moves the actuators
	test.That(t, f.pan.moves, test.ShouldBeEmpty)

	res := f.loop.Step(context.Background())
	test.That(t, res.Outcome, test.ShouldEqual, OutcomeTracked)
	// errors are +20 and -12 with gain 0.1
	test.That(t, res.Moved, test.ShouldResemble, Axes{H: true, V: true})
	test.That(t, f.pan.moves, test.ShouldResemble, []uint8{92})
	test.That(t, f.tilt.moves, test.ShouldResemble, []uint8{89})
}

func TestLoopAxisAtLimitIsNotRewritten(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Actuator.StartH = 179
	scenes := []*Mask{squareScene(120, 60, 2), squareScene(120, 60, 2), squareScene(120, 60, 2)}
	f := newLoopFixtureWithConfig(t, cfg, golog.NewTestLogger(t), scenes)
	f.loop.Step(context.Background())

	// +4 is clamped to the 180 degree limit
	res := f.loop.Step(context.Background())
	test.That(t, res.Outcome, test.ShouldEqual, OutcomeTracked)
	test.That(t, res.Moved, test.ShouldResemble, Axes{H: true})
	test.That(t, f.pan.moves, test.ShouldResemble, []uint8{180})

	// pinned at the limit: the position does not change so the driver is not called
	res = f.loop.Step(context.Background())
	test.That(t, res.Outcome, test.ShouldEqual, OutcomeTracked)
	test.That(t, res.Persistence, test.ShouldEqual, DefaultHealthyBudget)
	test.That(t, res.Moved.Any(), test.ShouldBeFalse)
	test.That(t, f.pan.moves, test.ShouldResemble, []uint8{180})
	test.That(t, f.tilt.moves, test.ShouldBeEmpty)
	test.That(t, f.loop.Position(), test.ShouldResemble, Position{H: 180, V: 90})
}

func TestLoopPersistenceAfterAcquire(t *testing.T) {
	scenes := []*Mask{squareScene(80, 60, 3), emptyScene(), emptyScene(), emptyScene()}
	f := newLoopFixture(t, scenes)
	test.That(t, f.loop.Step(context.Background()).Outcome, test.ShouldEqual, OutcomeAcquired)

	res := f.loop.Step(context.Background())
	test.That(t, res.Outcome, test.ShouldEqual, OutcomeRetrying)
	test.That(t, res.Mode, test.ShouldEqual, Tracking)
	test.That(t, res.Persistence, test.ShouldEqual, 2)

	res = f.loop.Step(context.Background())
	test.That(t, res.Outcome, test.ShouldEqual, OutcomeRetrying)
	test.That(t, res.Mode, test.ShouldEqual, Tracking)

	res = f.loop.Step(context.Background())
	test.That(t, res.Outcome, test.ShouldEqual, OutcomeLost)
	test.That(t, res.Mode, test.ShouldEqual, Searching)
	test.That(t, f.loop.TrackerState().IsSet(), test.ShouldBeFalse)
	test.That(t, f.loop.Stats().Lost, test.ShouldEqual, 1)
}

func TestLoopPersistenceAfterHealthyFrame(t *testing.T) {
	scenes := []*Mask{squareScene(80, 60, 3), squareScene(80, 60, 3)}
	for i := 0; i < DefaultHealthyBudget; i++ {
		scenes = append(scenes, emptyScene())
	}
	f := newLoopFixture(t, scenes)
	f.loop.Step(context.Background())
	test.That(t, f.loop.Step(context.Background()).Outcome, test.ShouldEqual, OutcomeTracked)

	for i := 1; i < DefaultHealthyBudget; i++ {
		res := f.loop.Step(context.Background())
		test.That(t, res.Outcome, test.ShouldEqual, OutcomeRetrying)
		test.That(t, res.Persistence, test.ShouldEqual, DefaultHealthyBudget-i)
		test.That(t, f.loop.Mode(), test.ShouldEqual, Tracking)
	}
	res := f.loop.Step(context.Background())
	test.That(t, res.Outcome, test.ShouldEqual, OutcomeLost)
	test.That(t, f.loop.Mode(), test.ShouldEqual, Searching)
	// the actuators hold their last position
	test.That(t, f.loop.Position(), test.ShouldResemble, Position{H: 90, V: 90})
}

func TestLoopRelockWithinBudget(t *testing.T) {
	scenes := []*Mask{squareScene(80, 60, 2), squareScene(40, 30, 2), squareScene(40, 30, 2)}
	f := newLoopFixture(t, scenes)
	f.loop.Step(context.Background())
	firstLock := f.loop.TrackerState().LockID

	res := f.loop.Step(context.Background())
	test.That(t, res.Outcome, test.ShouldEqual, OutcomeRelocked)
	test.That(t, res.Mode, test.ShouldEqual, Tracking)
	test.That(t, res.Persistence, test.ShouldEqual, DefaultAcquireBudget-1)
	test.That(t, res.Target, test.ShouldResemble, NewPixel(40, 30))
	test.That(t, res.Moved.Any(), test.ShouldBeFalse)
	test.That(t, f.pan.moves, test.ShouldBeEmpty)
	test.That(t, f.loop.TrackerState().LockID, test.ShouldNotEqual, firstLock)

	res = f.loop.Step(context.Background())
	test.That(t, res.Outcome, test.ShouldEqual, OutcomeTracked)
	test.That(t, res.Persistence, test.ShouldEqual, DefaultHealthyBudget)
	test.That(t, f.pan.moves, test.ShouldResemble, []uint8{86})
	test.That(t, f.tilt.moves, test.ShouldResemble, []uint8{87})
}

func TestLoopTimeoutSkipsCycle(t *testing.T) {
	scenes := []*Mask{squareScene(80, 60, 3), squareScene(80, 60, 3)}
	f := newLoopFixture(t, scenes)
	f.source.timeouts[2] = true
	f.loop.Step(context.Background())
	before := f.loop.TrackerState()

	res := f.loop.Step(context.Background())
	test.That(t, res.Outcome, test.ShouldEqual, OutcomeSkipped)
	test.That(t, errors.Is(res.Err, ErrCaptureTimeout), test.ShouldBeTrue)
	test.That(t, res.Mode, test.ShouldEqual, Tracking)
	test.That(t, res.Persistence, test.ShouldEqual, DefaultAcquireBudget)
	test.That(t, f.loop.TrackerState(), test.ShouldResemble, before)
	test.That(t, f.loop.Stats().Timeouts, test.ShouldEqual, 1)

	// the scene queue was not consumed by the skipped cycle
	test.That(t, f.loop.Step(context.Background()).Outcome, test.ShouldEqual, OutcomeTracked)
}

func TestLoopCanceledCycleLogsAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	f := newLoopFixtureWithConfig(t, DefaultConfig(), zap.New(core).Sugar(), []*Mask{squareScene(80, 60, 3)})
	f.source.timeouts[2] = true

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := f.loop.Step(ctx)
	test.That(t, res.Outcome, test.ShouldEqual, OutcomeSkipped)
	test.That(t, errors.Is(res.Err, context.Canceled), test.ShouldBeTrue)
	test.That(t, logs.FilterLevelExact(zapcore.WarnLevel).Len(), test.ShouldEqual, 0)
	test.That(t, logs.FilterMessage("cycle skipped").FilterLevelExact(zapcore.DebugLevel).Len(), test.ShouldEqual, 1)

	// a timeout on a live context is still worth a warning
	test.That(t, f.loop.Step(context.Background()).Outcome, test.ShouldEqual, OutcomeSkipped)
	test.That(t, logs.FilterMessage("cycle skipped").FilterLevelExact(zapcore.WarnLevel).Len(), test.ShouldEqual, 1)
}

func TestLoopDiscardsMalformedFrame(t *testing.T) {
	f := newLoopFixture(t, []*Mask{nil, squareScene(80, 60, 3)})
	res := f.loop.Step(context.Background())
	test.That(t, res.Outcome, test.ShouldEqual, OutcomeSkipped)
	test.That(t, errors.Is(res.Err, ErrUnexpectedFrameSize), test.ShouldBeTrue)
	test.That(t, f.loop.Stats().Discarded, test.ShouldEqual, 1)
	test.That(t, f.loop.Mode(), test.ShouldEqual, Searching)

	test.That(t, f.loop.Step(context.Background()).Outcome, test.ShouldEqual, OutcomeAcquired)
	test.That(t, f.loop.Stats().Cycles, test.ShouldEqual, 2)
}

func TestLoopSinkSeesMaskBeforeExtraction(t *testing.T) {
	sink := &countingSink{}
	f := newLoopFixture(t, []*Mask{squareScene(80, 60, 3), emptyScene()}, WithMaskSink(sink))
	f.loop.Step(context.Background())
	f.loop.Step(context.Background())
	test.That(t, sink.counts, test.ShouldResemble, []int{49, 0})
}

func TestLoopAxisFailureKeepsTracking(t *testing.T) {
	scenes := []*Mask{squareScene(120, 60, 2), squareScene(120, 60, 2)}
	f := newLoopFixture(t, scenes)
	f.pan.fail = true
	f.loop.Step(context.Background())
	res := f.loop.Step(context.Background())
	test.That(t, res.Outcome, test.ShouldEqual, OutcomeTracked)
	test.That(t, f.loop.Position().H, test.ShouldEqual, 94)
	test.That(t, f.loop.Mode(), test.ShouldEqual, Tracking)
}

func TestLoopHomeAndRun(t *testing.T) {
	f := newLoopFixture(t, nil)
	test.That(t, f.loop.Home(context.Background()), test.ShouldBeNil)
	test.That(t, f.pan.moves, test.ShouldResemble, []uint8{DefaultStartDeg})
	test.That(t, f.tilt.moves, test.ShouldResemble, []uint8{DefaultStartDeg})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := f.loop.Run(ctx)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
	test.That(t, f.loop.Stats().Cycles, test.ShouldEqual, 0)
}

func TestLoopRunStopsAtEndOfStream(t *testing.T) {
	f := newLoopFixture(t, []*Mask{squareScene(80, 60, 3), squareScene(80, 60, 3)})
	f.source.limit = 2
	err := f.loop.Run(context.Background())
	test.That(t, errors.Is(err, ErrEndOfStream), test.ShouldBeTrue)
	test.That(t, f.loop.Stats(), test.ShouldResemble, Stats{Cycles: 3, Acquired: 1})
	test.That(t, f.loop.Mode(), test.ShouldEqual, Tracking)
}

func TestNewLoopValidates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Persistence.Acquire = 0
	_, err := NewLoop(cfg, &scriptedSource{}, &sceneClassifier{}, &recordingAxis{}, &recordingAxis{}, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "persistence")

	_, err = NewLoop(DefaultConfig(), nil, &sceneClassifier{}, &recordingAxis{}, &recordingAxis{}, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}
