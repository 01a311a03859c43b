package sot

import (
	"fmt"

	"github.com/google/uuid"
)

// TrackerState is the lock carried across frames. Unset state is the NoTarget
// sentinel with a zero pixel count.
type TrackerState struct {
	LastCentroid   Pixel
	LastPixelCount int
	// LockID names the current lock. It is assigned when a target is acquired
	// and survives successful re-identification, unlike Blob.ID.
	LockID uuid.UUID
}

// NewTrackerState returns an unset tracker state.
func NewTrackerState() *TrackerState {
	state := &TrackerState{}
	state.Reset()
	return state
}

// Reset abandons the lock
func (state *TrackerState) Reset() {
	state.LastCentroid = NoTarget
	state.LastPixelCount = 0
	state.LockID = uuid.Nil
}

// IsSet reports whether a target is locked
func (state TrackerState) IsSet() bool {
	return !state.LastCentroid.IsNone() && state.LastPixelCount > 0
}

// update records a matched blob. Centroid and count are always written together.
func (state *TrackerState) update(blob Blob) {
	state.LastCentroid = blob.GetCenter()
	state.LastPixelCount = blob.PixelCount
}

// acquire starts a new lock on blob
func (state *TrackerState) acquire(blob Blob) {
	state.update(blob)
	state.LockID = uuid.New()
}

func (state TrackerState) String() string {
	if !state.IsSet() {
		return "unset"
	}
	return fmt.Sprintf("%s n=%d lock=%s", state.LastCentroid, state.LastPixelCount, state.LockID)
}
