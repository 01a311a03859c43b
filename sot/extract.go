package sot

// neighbours lists the 8-neighbourhood in visiting order: row above, own row, row below.
var neighbours = [8]Pixel{
	{X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
	{X: -1, Y: 0}, {X: 1, Y: 0},
	{X: -1, Y: 1}, {X: 0, Y: 1}, {X: 1, Y: 1},
}

// Extractor finds connected regions in a Mask. It keeps its frontier stack
// between calls so extraction does not allocate per frame once warmed up.
type Extractor struct {
	stack []Pixel
	blobs []Blob
}

// NewExtractor creates an extractor sized for width x height masks.
func NewExtractor(width, height int) *Extractor {
	return &Extractor{
		stack: make([]Pixel, 0, width*height),
		blobs: make([]Blob, 0, 16),
	}
}

// Extract consumes the mask: every set bit is visited exactly once and
// cleared, so the mask is empty on return. Blobs come out in discovery order
// (row-major seed scan, LIFO flood fill over the 8-neighbourhood) which is
// deterministic for a given mask content.
//
// The returned slice is owned by the extractor and is overwritten by the next call.
func (ex *Extractor) Extract(mask *Mask) []Blob {
	ex.blobs = ex.blobs[:0]
	width, height := mask.width, mask.height
	nextID := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !mask.Get(x, y) {
				continue
			}
			nextID++
			blob := newBlob(nextID, x, y)
			ex.stack = append(ex.stack[:0], Pixel{X: x, Y: y})
			mask.Clear(x, y)
			for len(ex.stack) > 0 {
				p := ex.stack[len(ex.stack)-1]
				ex.stack = ex.stack[:len(ex.stack)-1]
				blob.add(p.X, p.Y)
				for _, d := range neighbours {
					nx, ny := p.X+d.X, p.Y+d.Y
					// Get is bounds checked, so border pixels need no special case.
					if mask.Get(nx, ny) {
						mask.Clear(nx, ny)
						ex.stack = append(ex.stack, Pixel{X: nx, Y: ny})
					}
				}
			}
			blob.finalize()
			ex.blobs = append(ex.blobs, blob)
		}
	}
	return ex.blobs
}

// ExtractBlobs is a convenience wrapper returning a freshly allocated blob list.
func ExtractBlobs(mask *Mask) []Blob {
	blobs := NewExtractor(mask.width, mask.height).Extract(mask)
	out := make([]Blob, len(blobs))
	copy(out, blobs)
	return out
}
