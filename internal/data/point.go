package data

// Contains data of a point cloud point: X,Y,Z coordinates plus the
// optional intensity and RGB color channels carried by the source
// scan. Channel presence is declared per scan, not per point; points
// of a scan without a channel leave the corresponding fields zero.
type Point struct {
	X float64
	Y float64
	Z float64

	Intensity uint16
	R         uint16
	G         uint16
	B         uint16
}

// Builds a new Point from the given coordinates, intensity and color values
func NewPoint(x, y, z float64, intensity, r, g, b uint16) Point {
	return Point{
		X:         x,
		Y:         y,
		Z:         z,
		Intensity: intensity,
		R:         r,
		G:         g,
		B:         b,
	}
}
