package detector

import (
	"time"

	"github.com/fido2478/udacity-sdc-nd/camera"
	"github.com/fido2478/udacity-sdc-nd/route"
)

// Light is one known traffic light: a fixed 3D position in world coordinates
// plus the ground-truth colour the simulator distributes alongside it. The
// ground truth exists for simulation parity only; the classification path
// never reads it, and on a real vehicle it is simply Unknown.
type Light struct {
	X           float64
	Y           float64
	Z           float64
	GroundTruth Color
}

// Position returns the light's 3D position for projection.
func (l Light) Position() [3]float64 {
	return [3]float64{l.X, l.Y, l.Z}
}

// Point returns the light's 2D ground position for stop-line association.
func (l Light) Point() route.Point {
	return route.Point{X: l.X, Y: l.Y}
}

// Pose is the vehicle position and orientation at one point in time. Each
// update replaces the previous one; no history is kept.
type Pose struct {
	Position    route.Point
	Altitude    float64
	Orientation camera.Quaternion
	Stamp       time.Time
}
