// Package route holds the fixed vehicle path and answers nearest-waypoint
// queries. A path snapshot is immutable; updates replace the whole sequence,
// and any index resolved against an old snapshot is void once that happens.
package route

// NoWaypoint is the sentinel index returned when a query cannot be resolved,
// e.g. because the path is empty or not yet received.
const NoWaypoint = -1

// Point is a 2D query position. The path geometry is flat; altitude never
// participates in nearest-waypoint distances.
type Point struct {
	X float64
	Y float64
}

// Waypoint is a single point of the fixed vehicle path. Its identity within
// one path snapshot is its index in the sequence.
type Waypoint struct {
	X float64
	Y float64
	Z float64
}

// Path is an ordered, immutable sequence of waypoints.
type Path []Waypoint

// Nearest returns the index of the waypoint with the smallest squared
// Euclidean distance to p, or NoWaypoint when the path is empty. Ties go to
// the first index reached in the scan so results stay deterministic.
func (path Path) Nearest(p Point) int {
	best := NoWaypoint
	bestDist := 0.0
	for i, wp := range path {
		dx := wp.X - p.X
		dy := wp.Y - p.Y
		dist := dx*dx + dy*dy
		if best == NoWaypoint || dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	return best
}
