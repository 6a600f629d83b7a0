package detector

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/fido2478/udacity-sdc-nd/camera"
	"github.com/fido2478/udacity-sdc-nd/route"
)

// Classifier maps a cropped image region to a discrete colour. The concrete
// model behind it is out of scope here; the detector only relies on this
// contract. A classifier that declines returns Unknown.
type Classifier interface {
	Classify(region *camera.Region) Color
}

// Params are the runtime-tunable knobs of the pipeline.
type Params struct {
	// StateCountThreshold is the debounce run length N.
	StateCountThreshold int
	// VisibilityRadius is the maximum path-index distance ahead at which a
	// light is actionable.
	VisibilityRadius int
	// ROIHalfWidth is half the side of the square classifier window.
	ROIHalfWidth int
	// KDTreeMinWaypoints switches the nearest-waypoint index to a k-d tree
	// for paths of at least this many waypoints. Zero keeps the linear scan
	// for every path.
	KDTreeMinWaypoints int
}

// Outcome describes one pipeline pass, for publishing and for the dashboard.
type Outcome struct {
	Stamp        time.Time
	VehicleIndex int // path index of the vehicle, or route.NoWaypoint
	StopIndex    int // candidate stop index fed to the stabilizer, or NoStop
	Raw          Color
	Published    int // the integer to put on the output topic
}

// Detector owns the mutable latest-known pose, path, light set and camera
// frame, and runs the full decision pipeline on each frame event. Update
// methods are constant-time last-write-wins replacements; ProcessFrame runs
// one complete pass under a single lock so passes never interleave.
type Detector struct {
	mu         sync.Mutex
	params     Params
	projector  *camera.Projector
	classifier Classifier
	stopLines  []route.Point

	pose   *Pose
	path   route.Path
	index  route.Index
	lights []Light
	frame  *camera.Frame

	stab *Stabilizer
}

// New creates a detector. stopLines is the fixed per-intersection stop
// position list from configuration and is never modified.
func New(params Params, projector *camera.Projector, classifier Classifier, stopLines []route.Point) *Detector {
	return &Detector{
		params:     params,
		projector:  projector,
		classifier: classifier,
		stopLines:  stopLines,
		stab:       NewStabilizer(params.StateCountThreshold),
	}
}

// UpdatePose replaces the current vehicle pose.
func (d *Detector) UpdatePose(p Pose) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pose = &p
}

// UpdatePath replaces the current path snapshot and rebuilds the
// nearest-waypoint index. All previously resolved indices are void.
func (d *Detector) UpdatePath(path route.Path) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.path = path
	if d.params.KDTreeMinWaypoints > 0 && len(path) >= d.params.KDTreeMinWaypoints {
		d.index = route.NewKDIndex(path)
	} else {
		d.index = route.NewLinearIndex(path)
	}
}

// UpdateLights replaces the current light set.
func (d *Detector) UpdateLights(lights []Light) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lights = lights
}

// SetParams applies runtime-tunable knobs. The index is not rebuilt; the new
// KDTreeMinWaypoints takes effect with the next path update.
func (d *Detector) SetParams(params Params) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.params = params
	d.stab.SetThreshold(params.StateCountThreshold)
}

// ProcessFrame stores the new camera frame and runs one full pipeline pass:
// locate the vehicle, pick the candidate light, project and classify, then
// debounce. It always produces an Outcome; every failure mode degrades to an
// Unknown raw reading or a NoStop candidate rather than an error.
func (d *Detector) ProcessFrame(ctx context.Context, frame *camera.Frame) Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.frame = frame

	out := Outcome{
		VehicleIndex: route.NoWaypoint,
		StopIndex:    NoStop,
		Raw:          Unknown,
	}
	if frame != nil {
		out.Stamp = frame.Stamp
	}

	stopIdx, raw, vehicleIdx := d.processTrafficLights(ctx, frame)
	out.VehicleIndex = vehicleIdx
	out.StopIndex = stopIdx
	out.Raw = raw
	out.Published = d.stab.Step(raw, stopIdx)
	return out
}

// processTrafficLights is the un-debounced part of the pass: it yields the
// candidate stop index (or NoStop) and the raw classification for this frame.
func (d *Detector) processTrafficLights(ctx context.Context, frame *camera.Frame) (stopIndex int, raw Color, vehicleIndex int) {
	if d.pose == nil || d.index == nil || d.index.Len() == 0 {
		return NoStop, Unknown, route.NoWaypoint
	}

	vehicleIndex = d.index.Nearest(d.pose.Position)
	if vehicleIndex == route.NoWaypoint {
		return NoStop, Unknown, vehicleIndex
	}

	cand, ok := NextRelevantLight(vehicleIndex, d.index, d.lights, d.stopLines, d.params.VisibilityRadius)
	if !ok {
		return NoStop, Unknown, vehicleIndex
	}

	return cand.StopIndex, d.classify(ctx, cand, frame), vehicleIndex
}

// classify projects the candidate light into the frame and runs the external
// classifier on the crop. Every failure mode maps to Unknown.
func (d *Detector) classify(ctx context.Context, cand Candidate, frame *camera.Frame) Color {
	if !frame.Valid() {
		return Unknown
	}

	x, y, err := d.projector.Project(ctx, cand.Light.Position(), frame.Stamp)
	switch {
	case errors.Is(err, camera.ErrTransformUnavailable):
		slog.Error("transform lookup failed, skipping classification", "error", err)
		return Unknown
	case errors.Is(err, camera.ErrBehindCamera):
		slog.Debug("candidate light is behind the camera", "stop_index", cand.StopIndex)
		return Unknown
	case err != nil:
		slog.Error("projection failed", "error", err)
		return Unknown
	}

	roi := d.projector.RegionOfInterest(x, y, d.params.ROIHalfWidth)
	if roi.Empty() {
		slog.Debug("projected light outside image", "x", x, "y", y)
		return Unknown
	}
	region := frame.Region(roi)
	if region == nil {
		return Unknown
	}
	return d.classifier.Classify(region)
}

// Snapshot is a copy of the detector's current state for the dashboard.
type Snapshot struct {
	HavePose   bool
	Pose       Pose
	PathLen    int
	Lights     []Light
	Stabilizer StabilizerState
	Params     Params
}

// Snapshot returns a consistent copy of the current shared state.
func (d *Detector) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	snap := Snapshot{
		PathLen:    len(d.path),
		Lights:     append([]Light(nil), d.lights...),
		Stabilizer: d.stab.State(),
		Params:     d.params,
	}
	if d.pose != nil {
		snap.HavePose = true
		snap.Pose = *d.pose
	}
	return snap
}

// Path returns the current path snapshot. The returned slice must be treated
// as read-only.
func (d *Detector) Path() route.Path {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.path
}
