// Package thinning suppresses near-duplicate points within a batch by
// greedy spatial-radius filtering over a k-d tree index.
package thinning

import (
	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/scanwerk/scansplit/internal/data"
)

// element is a k-d tree entry carrying its position in the input
// sequence so query hits can be mapped back to mask entries.
type element struct {
	x, y, z float64
	pos     int
}

func (e element) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(element)
	switch d {
	case 0:
		return e.x - q.x
	case 1:
		return e.y - q.y
	default:
		return e.z - q.z
	}
}

func (e element) Dims() int { return 3 }

// Distance returns the squared Euclidean distance, consistent with the
// squared Compare-induced metric the tree prunes with.
func (e element) Distance(c kdtree.Comparable) float64 {
	q := c.(element)
	dx := e.x - q.x
	dy := e.y - q.y
	dz := e.z - q.z
	return dx*dx + dy*dy + dz*dz
}

// elements implements kdtree.Interface for tree construction.
type elements []element

func (es elements) Index(i int) kdtree.Comparable         { return es[i] }
func (es elements) Len() int                              { return len(es) }
func (es elements) Pivot(d kdtree.Dim) int                { return plane{elements: es, Dim: d}.Pivot() }
func (es elements) Slice(start, end int) kdtree.Interface { return es[start:end] }

type plane struct {
	kdtree.Dim
	elements
}

func (p plane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.elements[i].x < p.elements[j].x
	case 1:
		return p.elements[i].y < p.elements[j].y
	default:
		return p.elements[i].z < p.elements[j].z
	}
}

func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.elements = p.elements[start:end]
	return p
}

func (p plane) Swap(i, j int) {
	p.elements[i], p.elements[j] = p.elements[j], p.elements[i]
}

// Mask computes the greedy thinning mask for points: entry i is true
// when point i is retained. Points are visited in input order; each
// point still marked keep suppresses every other point within spacing
// (inclusive) of it. Suppressed points are skipped as query origins
// but stay visible as targets, so the earliest point of any cluster
// survives and all later points within its radius are discarded,
// transitively. The pass is inherently sequential: mask updates from
// earlier points decide which later points act as origins at all.
//
// A spacing <= 0 yields the identity mask; callers reject non-positive
// spacing before this stage. Empty input yields an empty mask.
func Mask(points []data.Point, spacing float64) []bool {
	mask := make([]bool, len(points))
	for i := range mask {
		mask[i] = true
	}
	if spacing <= 0 || len(points) == 0 {
		return mask
	}

	es := make(elements, len(points))
	for i, p := range points {
		es[i] = element{x: p.X, y: p.Y, z: p.Z, pos: i}
	}
	// the tree reorders es in place; queries below rebuild coordinates
	// from the original slice
	tree := kdtree.New(es, false)

	r2 := spacing * spacing
	for i, p := range points {
		if !mask[i] {
			continue
		}
		keep := kdtree.NewDistKeeper(r2)
		tree.NearestSet(keep, element{x: p.X, y: p.Y, z: p.Z, pos: i})
		for _, hit := range keep.Heap {
			if hit.Comparable == nil {
				continue
			}
			j := hit.Comparable.(element).pos
			if j == i {
				// trivial self match
				continue
			}
			mask[j] = false
		}
	}
	return mask
}
