package sot

import (
	"testing"

	"go.viam.com/test"
)

func lockedState(t *testing.T, blob Blob) *TrackerState {
	t.Helper()
	state := NewTrackerState()
	_, ok := SelectTarget([]Blob{blob}, DefaultConfig().Selector, state)
	test.That(t, ok, test.ShouldBeTrue)
	return state
}

func TestTrackTargetFollowsMovingBlob(t *testing.T) {
	cfg := TrackerConfig{PositionWindow: 15, SizeWindow: 40}
	state := lockedState(t, squareBlob(1, 80, 60, 2))
	lock := state.LockID

	// Each nested slice is the set of blobs seen on one frame
	frames := [][]Blob{
		{squareBlob(1, 84, 61, 2)},
		{squareBlob(1, 10, 10, 2), squareBlob(2, 90, 63, 2)},
		{squareBlob(1, 97, 66, 3)},
		{squareBlob(1, 104, 70, 3), squareBlob(2, 110, 75, 3)},
	}
	expected := []Pixel{{84, 61}, {90, 63}, {97, 66}, {104, 70}}
	for i, blobs := range frames {
		target := TrackTarget(blobs, cfg, state)
		test.That(t, target, test.ShouldResemble, expected[i])
		test.That(t, state.LastCentroid, test.ShouldResemble, expected[i])
	}
	test.That(t, state.LastPixelCount, test.ShouldEqual, 49)
	test.That(t, state.LockID, test.ShouldEqual, lock)
}

func TestTrackTargetPositionWindowIsOpen(t *testing.T) {
	cfg := TrackerConfig{PositionWindow: 15, SizeWindow: 40}
	for _, c := range []struct {
		name  string
		cx    int
		cy    int
		match bool
	}{
		{"inside", 94, 46, true},
		{"right edge", 95, 60, false},
		{"left edge", 65, 60, false},
		{"bottom edge", 80, 75, false},
		{"top edge", 80, 45, false},
		{"far away", 150, 110, false},
	} {
		t.Run(c.name, func(t *testing.T) {
			state := lockedState(t, squareBlob(1, 80, 60, 2))
			target := TrackTarget([]Blob{squareBlob(1, c.cx, c.cy, 2)}, cfg, state)
			if c.match {
				test.That(t, target, test.ShouldResemble, NewPixel(c.cx, c.cy))
			} else {
				test.That(t, target, test.ShouldResemble, NoTarget)
				test.That(t, state.IsSet(), test.ShouldBeFalse)
			}
		})
	}
}

func TestTrackTargetSizeWindow(t *testing.T) {
	cfg := TrackerConfig{PositionWindow: 15, SizeWindow: 24}
	// 5x5 = 25 pixels locked. 7x7 = 49 differs by 24, 1x1 differs by 24 as well.
	for _, half := range []int{0, 3, 10} {
		state := lockedState(t, squareBlob(1, 80, 60, 2))
		target := TrackTarget([]Blob{squareBlob(1, 80, 60, half)}, cfg, state)
		test.That(t, target, test.ShouldResemble, NoTarget)
	}

	// 3x3 = 9 pixels differs by 16
	state := lockedState(t, squareBlob(1, 80, 60, 2))
	target := TrackTarget([]Blob{squareBlob(1, 81, 60, 1)}, cfg, state)
	test.That(t, target, test.ShouldResemble, NewPixel(81, 60))
	test.That(t, state.LastPixelCount, test.ShouldEqual, 9)
}

func TestTrackTargetUnsetStateNeverMatches(t *testing.T) {
	cfg := TrackerConfig{PositionWindow: 15, SizeWindow: 40}
	state := NewTrackerState()
	// small blobs near the sentinel would pass both windows if the state were compared blindly
	target := TrackTarget([]Blob{squareBlob(1, 2, 2, 1)}, cfg, state)
	test.That(t, target, test.ShouldResemble, NoTarget)
	test.That(t, state.IsSet(), test.ShouldBeFalse)
}

func TestTrackTargetFirstMatchWins(t *testing.T) {
	cfg := TrackerConfig{PositionWindow: 15, SizeWindow: 40}
	state := lockedState(t, squareBlob(1, 80, 60, 2))
	// the second blob is closer, but the first one qualifies and comes first
	target := TrackTarget([]Blob{squareBlob(1, 70, 55, 2), squareBlob(2, 80, 60, 2)}, cfg, state)
	test.That(t, target, test.ShouldResemble, NewPixel(70, 55))
}
