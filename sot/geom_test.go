package sot

import (
	"image"
	"math"
	"testing"
)

const (
	eps = 0.00001
)

func TestEuclideanDistance(t *testing.T) {
	p1 := Pixel{X: 341, Y: 264}
	p2 := Pixel{X: 421, Y: 427}
	correnctAnswer := 181.57367
	answer := euclideanDistance(p1, p2)
	if math.Abs(answer-correnctAnswer) > eps {
		t.Errorf("Wrong answer: %v, correct answer: %v", answer, correnctAnswer)
	}
}

func TestPointRound(t *testing.T) {
	cases := []struct {
		in   Point
		want Pixel
	}{
		{Point{X: 2.0, Y: 2.0}, Pixel{X: 2, Y: 2}},
		{Point{X: 2.5, Y: 3.49}, Pixel{X: 3, Y: 3}},
		{Point{X: 0.5, Y: 119.5}, Pixel{X: 1, Y: 120}},
	}
	for _, c := range cases {
		if got := c.in.Round(); got != c.want {
			t.Errorf("Round(%v): got %v, expected %v", c.in, got, c.want)
		}
	}
}

func TestRectangleConversions(t *testing.T) {
	r := NewRect(0, 0, 4, 4)
	if r.Width() != 5 || r.Height() != 5 {
		t.Errorf("Expected 5x5, got %dx%d", r.Width(), r.Height())
	}
	if from := NewRectFrom(image.Rect(0, 0, 5, 5)); from != r {
		t.Errorf("Expected %v, got %v", r, from)
	}
	if from := NewRectFrom(image.Rect(10, 20, 14, 22)); from.Width() != 4 || from.Height() != 2 || from.MaxX != 13 {
		t.Errorf("Unexpected conversion of offset bounds: %+v", from)
	}
	if !r.ContainsPoint(NewPoint(4, 0)) {
		t.Error("Edge point should be contained")
	}
	if r.ContainsPoint(NewPoint(4.01, 0)) {
		t.Error("Point past the edge should not be contained")
	}
}

func TestNoTarget(t *testing.T) {
	if !NoTarget.IsNone() {
		t.Error("NoTarget should be none")
	}
	if NewPixel(0, 0).IsNone() {
		t.Error("Origin is a valid pixel")
	}
	if NoTarget.String() != "none" {
		t.Errorf("Unexpected string %q", NoTarget.String())
	}
}
