package geometry

import (
	"math"

	"github.com/golang/geo/r3"
)

// Represents an axis aligned bounding box used as the crop volume
// around a scan origin
type BoundingBox struct {
	Xmin float64
	Xmax float64
	Ymin float64
	Ymax float64
	Zmin float64
	Zmax float64
}

// Builds a new BoundingBox from the given extremes
func NewBoundingBox(xmin, xmax, ymin, ymax, zmin, zmax float64) *BoundingBox {
	return &BoundingBox{
		Xmin: xmin,
		Xmax: xmax,
		Ymin: ymin,
		Ymax: ymax,
		Zmin: zmin,
		Zmax: zmax,
	}
}

// NewBoundingBoxFromRadius returns the box spanning origin±radius on
// every axis. The radius must be validated as strictly positive by the
// caller before any container is opened.
func NewBoundingBoxFromRadius(origin r3.Vector, radius float64) *BoundingBox {
	return NewBoundingBox(
		origin.X-radius, origin.X+radius,
		origin.Y-radius, origin.Y+radius,
		origin.Z-radius, origin.Z+radius,
	)
}

// Contains tests membership inclusively on all six faces. A point with
// a NaN or infinite coordinate is never contained.
func (b *BoundingBox) Contains(x, y, z float64) bool {
	if !isFinite(x) || !isFinite(y) || !isFinite(z) {
		return false
	}
	return x >= b.Xmin && x <= b.Xmax &&
		y >= b.Ymin && y <= b.Ymax &&
		z >= b.Zmin && z <= b.Zmax
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
