package route

import (
	"gonum.org/v1/gonum/spatial/kdtree"
)

// Index answers nearest-waypoint queries against one path snapshot. Both
// implementations return the same index for the same query (modulo exact
// distance ties); the detector picks one based on path size.
type Index interface {
	// Nearest returns the index of the closest waypoint, or NoWaypoint.
	Nearest(p Point) int
	// Len returns the number of waypoints behind the index.
	Len() int
}

// LinearIndex is the plain left-to-right scan, keeping the first-index tie
// break exactly. At the path sizes seen in practice (a few hundred
// waypoints) this is fast enough and has no build cost.
type LinearIndex struct {
	path Path
}

// NewLinearIndex wraps a path snapshot. The path must not be mutated while
// the index is in use.
func NewLinearIndex(path Path) *LinearIndex {
	return &LinearIndex{path: path}
}

func (ix *LinearIndex) Nearest(p Point) int {
	return ix.path.Nearest(p)
}

func (ix *LinearIndex) Len() int {
	return len(ix.path)
}

// KDIndex resolves nearest-waypoint queries through a k-d tree. Build cost is
// O(n log n) per path snapshot, queries are logarithmic; worth it once paths
// grow beyond a few thousand waypoints.
type KDIndex struct {
	tree *kdtree.Tree
	n    int
}

// NewKDIndex builds a k-d tree over the path snapshot. Returns an index that
// answers NoWaypoint for every query when the path is empty.
func NewKDIndex(path Path) *KDIndex {
	if len(path) == 0 {
		return &KDIndex{}
	}
	pts := make(wpPoints, len(path))
	for i, wp := range path {
		pts[i] = wpPoint{x: wp.X, y: wp.Y, idx: i}
	}
	return &KDIndex{tree: kdtree.New(pts, false), n: len(path)}
}

func (ix *KDIndex) Nearest(p Point) int {
	if ix.tree == nil {
		return NoWaypoint
	}
	got, _ := ix.tree.Nearest(wpPoint{x: p.X, y: p.Y, idx: NoWaypoint})
	if got == nil {
		return NoWaypoint
	}
	return got.(wpPoint).idx
}

func (ix *KDIndex) Len() int {
	return ix.n
}

// wpPoint and wpPoints adapt waypoints to gonum's kdtree interfaces.
type wpPoint struct {
	x, y float64
	idx  int
}

func (p wpPoint) coord(d kdtree.Dim) float64 {
	if d == 0 {
		return p.x
	}
	return p.y
}

func (p wpPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(wpPoint)
	return p.coord(d) - q.coord(d)
}

func (p wpPoint) Dims() int { return 2 }

func (p wpPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(wpPoint)
	dx := p.x - q.x
	dy := p.y - q.y
	return dx*dx + dy*dy
}

type wpPoints []wpPoint

func (p wpPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p wpPoints) Len() int                      { return len(p) }
func (p wpPoints) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}
func (p wpPoints) Pivot(d kdtree.Dim) int {
	return wpPlane{Dim: d, wpPoints: p}.Pivot()
}

type wpPlane struct {
	kdtree.Dim
	wpPoints
}

func (p wpPlane) Less(i, j int) bool {
	return p.wpPoints[i].coord(p.Dim) < p.wpPoints[j].coord(p.Dim)
}
func (p wpPlane) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}
func (p wpPlane) Slice(start, end int) kdtree.SortSlicer {
	p.wpPoints = p.wpPoints[start:end]
	return p
}
func (p wpPlane) Swap(i, j int) {
	p.wpPoints[i], p.wpPoints[j] = p.wpPoints[j], p.wpPoints[i]
}
