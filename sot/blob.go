package sot

import "fmt"

// Blob is one 8-connected region of set mask bits together with its first
// moments. ID is a frame-scoped label: it restarts every frame and must not be
// used to identify a target across frames.
type Blob struct {
	ID         int
	BBox       Rectangle
	PixelCount int
	SumX       int
	SumY       int
	Centroid   Point
}

func newBlob(id, x, y int) Blob {
	return Blob{
		ID:   id,
		BBox: NewRect(x, y, x, y),
	}
}

// add accounts for one member pixel
func (blob *Blob) add(x, y int) {
	blob.PixelCount++
	blob.SumX += x
	blob.SumY += y
	blob.BBox.extend(x, y)
}

// finalize computes the centroid once every member pixel has been added
func (blob *Blob) finalize() {
	blob.Centroid = Point{
		X: float64(blob.SumX) / float64(blob.PixelCount),
		Y: float64(blob.SumY) / float64(blob.PixelCount),
	}
}

// GetCenter returns blob's centroid rounded to the nearest pixel
func (blob Blob) GetCenter() Pixel {
	return blob.Centroid.Round()
}

func (blob Blob) String() string {
	return fmt.Sprintf("blob#%d{n=%d bbox=(%d,%d)-(%d,%d) c=(%.2f,%.2f)}",
		blob.ID, blob.PixelCount, blob.BBox.MinX, blob.BBox.MinY, blob.BBox.MaxX, blob.BBox.MaxY,
		blob.Centroid.X, blob.Centroid.Y)
}
