package geometry

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
)

func TestNewBoundingBoxFromRadius(t *testing.T) {
	box := NewBoundingBoxFromRadius(r3.Vector{X: 1, Y: -2, Z: 3}, 10)

	if box.Xmin != -9 || box.Xmax != 11 {
		t.Fatalf("expected X extent [-9,11] got [%v,%v]", box.Xmin, box.Xmax)
	}
	if box.Ymin != -12 || box.Ymax != 8 {
		t.Fatalf("expected Y extent [-12,8] got [%v,%v]", box.Ymin, box.Ymax)
	}
	if box.Zmin != -7 || box.Zmax != 13 {
		t.Fatalf("expected Z extent [-7,13] got [%v,%v]", box.Zmin, box.Zmax)
	}
}

func TestContainsIsInclusiveOnAllFaces(t *testing.T) {
	box := NewBoundingBox(-1, 1, -1, 1, -1, 1)

	faces := [][3]float64{
		{-1, 0, 0}, {1, 0, 0},
		{0, -1, 0}, {0, 1, 0},
		{0, 0, -1}, {0, 0, 1},
		{1, 1, 1}, {-1, -1, -1},
	}
	for _, f := range faces {
		if !box.Contains(f[0], f[1], f[2]) {
			t.Fatalf("expected point %v on the face to be contained", f)
		}
	}

	outside := [][3]float64{
		{-1.0001, 0, 0}, {1.0001, 0, 0},
		{0, 2, 0}, {0, 0, -5},
	}
	for _, f := range outside {
		if box.Contains(f[0], f[1], f[2]) {
			t.Fatalf("expected point %v to be outside", f)
		}
	}
}

func TestContainsRejectsNonFiniteCoordinates(t *testing.T) {
	box := NewBoundingBox(-1, 1, -1, 1, -1, 1)

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if box.Contains(bad, 0, 0) || box.Contains(0, bad, 0) || box.Contains(0, 0, bad) {
			t.Fatalf("expected non-finite coordinate %v to be outside", bad)
		}
	}
}

// the filter is a projection: applying it to already filtered points
// changes nothing
func TestContainsIsIdempotent(t *testing.T) {
	box := NewBoundingBoxFromRadius(r3.Vector{}, 5)

	points := [][3]float64{
		{0, 0, 0}, {4.9, -4.9, 2}, {5, 5, 5}, {6, 0, 0}, {0, -7, 0},
	}
	var filtered [][3]float64
	for _, p := range points {
		if box.Contains(p[0], p[1], p[2]) {
			filtered = append(filtered, p)
		}
	}
	for _, p := range filtered {
		if !box.Contains(p[0], p[1], p[2]) {
			t.Fatalf("filtered point %v dropped on second pass", p)
		}
	}
}
