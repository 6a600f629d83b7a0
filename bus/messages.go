package bus

import (
	"time"

	"github.com/fido2478/udacity-sdc-nd/camera"
	"github.com/fido2478/udacity-sdc-nd/detector"
	"github.com/fido2478/udacity-sdc-nd/route"
)

// PoseEvent is the payload of TopicCurrentPose.
type PoseEvent struct {
	X           float64           `json:"x"`
	Y           float64           `json:"y"`
	Z           float64           `json:"z"`
	Orientation camera.Quaternion `json:"orientation"`
	Stamp       time.Time         `json:"stamp"`
}

// Pose converts the event into the detector's pose snapshot.
func (e PoseEvent) Pose() detector.Pose {
	return detector.Pose{
		Position:    route.Point{X: e.X, Y: e.Y},
		Altitude:    e.Z,
		Orientation: e.Orientation,
		Stamp:       e.Stamp,
	}
}

// WaypointEvent is one route position inside a PathEvent.
type WaypointEvent struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PathEvent is the payload of TopicBaseWaypoints.
type PathEvent struct {
	Waypoints []WaypointEvent `json:"waypoints"`
}

// NewPathEvent builds the wire representation of a route.
func NewPathEvent(path route.Path) PathEvent {
	wps := make([]WaypointEvent, len(path))
	for i, wp := range path {
		wps[i] = WaypointEvent{X: wp.X, Y: wp.Y, Z: wp.Z}
	}
	return PathEvent{Waypoints: wps}
}

// Path converts the event into the detector's route snapshot.
func (e PathEvent) Path() route.Path {
	path := make(route.Path, len(e.Waypoints))
	for i, wp := range e.Waypoints {
		path[i] = route.Waypoint{X: wp.X, Y: wp.Y, Z: wp.Z}
	}
	return path
}

// LightEvent is one traffic light inside a LightsEvent. State is the
// simulator's ground truth; the production pipeline never consults it.
type LightEvent struct {
	X     float64        `json:"x"`
	Y     float64        `json:"y"`
	Z     float64        `json:"z"`
	State detector.Color `json:"state"`
}

// LightsEvent is the payload of TopicTrafficLights.
type LightsEvent struct {
	Lights []LightEvent `json:"lights"`
	Stamp  time.Time    `json:"stamp"`
}

// NewLightsEvent builds the wire representation of a light list.
func NewLightsEvent(lights []detector.Light, stamp time.Time) LightsEvent {
	evs := make([]LightEvent, len(lights))
	for i, l := range lights {
		evs[i] = LightEvent{X: l.X, Y: l.Y, Z: l.Z, State: l.GroundTruth}
	}
	return LightsEvent{Lights: evs, Stamp: stamp}
}

// TrafficLights converts the event into the detector's light snapshot.
func (e LightsEvent) TrafficLights() []detector.Light {
	lights := make([]detector.Light, len(e.Lights))
	for i, l := range e.Lights {
		lights[i] = detector.Light{X: l.X, Y: l.Y, Z: l.Z, GroundTruth: l.State}
	}
	return lights
}

// ImageEvent is the payload of TopicImageColor: a packed RGB pixel buffer.
type ImageEvent struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Pix    []byte    `json:"pix"`
	Stamp  time.Time `json:"stamp"`
}

// NewImageEvent builds the wire representation of a camera frame.
func NewImageEvent(frame *camera.Frame) ImageEvent {
	return ImageEvent{
		Width:  frame.Width,
		Height: frame.Height,
		Pix:    frame.Pix,
		Stamp:  frame.Stamp,
	}
}

// Frame converts the event into a camera frame. Malformed events still
// produce a frame; Frame.Valid reports them and the pipeline degrades to an
// unknown classification.
func (e ImageEvent) Frame() *camera.Frame {
	return &camera.Frame{
		Width:  e.Width,
		Height: e.Height,
		Pix:    e.Pix,
		Stamp:  e.Stamp,
	}
}

// StopWaypointEvent is the payload of TopicTrafficWaypoint.
type StopWaypointEvent struct {
	Index int `json:"index"`
}
