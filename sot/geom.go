package sot

import (
	"fmt"
	"image"
	"math"
)

// Pixel is an integer pixel location. NoTarget is the "no target" sentinel.
type Pixel struct {
	X int
	Y int
}

// NoTarget is returned wherever no target location is available.
var NoTarget = Pixel{X: -1, Y: -1}

// NewPixel creates a pixel location.
func NewPixel(x, y int) Pixel {
	return Pixel{
		X: x,
		Y: y,
	}
}

// IsNone reports whether p is the NoTarget sentinel
func (p Pixel) IsNone() bool {
	return p == NoTarget
}

func (p Pixel) String() string {
	if p.IsNone() {
		return "none"
	}
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Point is a real-valued location, used for centroids.
type Point struct {
	X float64
	Y float64
}

// NewPoint creates a real-valued location.
func NewPoint(x, y float64) Point {
	return Point{
		X: x,
		Y: y,
	}
}

// Round returns the nearest pixel, halves rounded away from zero
func (p Point) Round() Pixel {
	return Pixel{
		X: int(math.Round(p.X)),
		Y: int(math.Round(p.Y)),
	}
}

// Rectangle is an inclusive integer bounding box.
type Rectangle struct {
	MinX int
	MinY int
	MaxX int
	MaxY int
}

// NewRect creates a box from its inclusive corners.
func NewRect(minX, minY, maxX, maxY int) Rectangle {
	return Rectangle{
		MinX: minX,
		MinY: minY,
		MaxX: maxX,
		MaxY: maxY,
	}
}

// NewRectFrom converts a half-open image.Rectangle into an inclusive one.
func NewRectFrom(rect image.Rectangle) Rectangle {
	return Rectangle{
		MinX: rect.Min.X,
		MinY: rect.Min.Y,
		MaxX: rect.Max.X - 1,
		MaxY: rect.Max.Y - 1,
	}
}

// Width is the number of columns covered
func (r Rectangle) Width() int {
	return r.MaxX - r.MinX + 1
}

// Height is the number of rows covered
func (r Rectangle) Height() int {
	return r.MaxY - r.MinY + 1
}

// ContainsPoint reports whether p lies inside the box, edges included
func (r Rectangle) ContainsPoint(p Point) bool {
	return p.X >= float64(r.MinX) && p.X <= float64(r.MaxX) &&
		p.Y >= float64(r.MinY) && p.Y <= float64(r.MaxY)
}

func (r *Rectangle) extend(x, y int) {
	if x < r.MinX {
		r.MinX = x
	}
	if x > r.MaxX {
		r.MaxX = x
	}
	if y < r.MinY {
		r.MinY = y
	}
	if y > r.MaxY {
		r.MaxY = y
	}
}

func euclideanDistance(p1, p2 Pixel) float64 {
	return math.Sqrt(math.Pow(float64(p1.X-p2.X), 2) + math.Pow(float64(p1.Y-p2.Y), 2))
}
