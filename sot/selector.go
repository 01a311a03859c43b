package sot

import (
	"github.com/samber/lo"
)

// qualifies is the acquisition filter. The roundness test compares the raw
// coordinate sums of the region, so its outcome depends on where the blob sits
// in the frame as well as on its shape. Blobs with a zero sum never qualify.
func (cfg SelectorConfig) qualifies(blob Blob) bool {
	if blob.PixelCount <= cfg.MinPixels {
		return false
	}
	if blob.SumX == 0 || blob.SumY == 0 {
		return false
	}
	sumX, sumY := float64(blob.SumX), float64(blob.SumY)
	return sumX/sumY < cfg.Roundness && sumY/sumX < cfg.Roundness
}

// SelectTarget picks the first blob, in extraction order, that passes the
// acquisition filter and locks it into state. When nothing qualifies the
// state is left unset and NoTarget is returned.
func SelectTarget(blobs []Blob, cfg SelectorConfig, state *TrackerState) (Pixel, bool) {
	target, ok := lo.Find(blobs, cfg.qualifies)
	if !ok {
		state.Reset()
		return NoTarget, false
	}
	state.acquire(target)
	return state.LastCentroid, true
}
