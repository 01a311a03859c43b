package sot

import (
	"github.com/samber/lo"
)

// matches reports whether blob is the locked target seen again: its rounded
// centroid lies strictly inside the position window around the last centroid
// and its size strictly inside the size window around the last count.
func (cfg TrackerConfig) matches(state *TrackerState, blob Blob) bool {
	if !state.IsSet() {
		return false
	}
	if absInt(blob.PixelCount-state.LastPixelCount) >= cfg.SizeWindow {
		return false
	}
	center := blob.GetCenter()
	return withinOpen(center.X, state.LastCentroid.X, cfg.PositionWindow) &&
		withinOpen(center.Y, state.LastCentroid.Y, cfg.PositionWindow)
}

// TrackTarget re-identifies the locked target among this frame's blobs. The
// first matching blob in extraction order wins and overwrites state. Without
// a match the lock is abandoned: state is reset and NoTarget is returned.
// Whether to retry acquisition is up to the caller.
func TrackTarget(blobs []Blob, cfg TrackerConfig, state *TrackerState) Pixel {
	target, ok := lo.Find(blobs, func(blob Blob) bool {
		return cfg.matches(state, blob)
	})
	if !ok {
		state.Reset()
		return NoTarget
	}
	state.update(target)
	return state.LastCentroid
}
