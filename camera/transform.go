// Package camera projects 3D world points into the 2D image plane of the
// vehicle camera and extracts classifier regions from raw frames. The
// vehicle-body/world transform itself comes from an external provider which
// is queried per frame and may fail or time out.
package camera

import (
	"context"
	"errors"
	"time"

	"gonum.org/v1/gonum/mat"
)

// ErrTransformUnavailable is returned when the transform provider failed or
// did not answer within the configured wait. The frame is unclassifiable;
// the next frame retries naturally.
var ErrTransformUnavailable = errors.New("camera: world transform unavailable")

// Quaternion is a rotation in x, y, z, w order.
type Quaternion struct {
	X, Y, Z, W float64
}

// Identity returns the no-rotation quaternion.
func Identity() Quaternion {
	return Quaternion{W: 1}
}

// Transform carries the world-to-vehicle-body translation and rotation valid
// at one timestamp. It is used immediately for a single projection and then
// discarded; nothing caches transforms.
type Transform struct {
	Translation [3]float64
	Rotation    Quaternion
}

// Matrix builds the homogeneous 4x4 transform matrix from the rotation and
// translation.
func (t Transform) Matrix() *mat.Dense {
	q := t.Rotation
	xx, yy, zz := q.X*q.X, q.Y*q.Y, q.Z*q.Z
	xy, xz, yz := q.X*q.Y, q.X*q.Z, q.Y*q.Z
	wx, wy, wz := q.W*q.X, q.W*q.Y, q.W*q.Z

	return mat.NewDense(4, 4, []float64{
		1 - 2*(yy+zz), 2 * (xy - wz), 2 * (xz + wy), t.Translation[0],
		2 * (xy + wz), 1 - 2*(xx+zz), 2 * (yz - wx), t.Translation[1],
		2 * (xz - wy), 2 * (yz + wx), 1 - 2*(xx+yy), t.Translation[2],
		0, 0, 0, 1,
	})
}

// TransformProvider looks up the world-to-vehicle-body transform for a given
// timestamp. Implementations must honour ctx cancellation; the projector
// bounds every lookup with its configured wait timeout.
type TransformProvider interface {
	Lookup(ctx context.Context, at time.Time) (Transform, error)
}

// StaticTransformProvider always answers with the same transform. Useful for
// tests and for rigs where the camera extrinsics are calibrated once.
type StaticTransformProvider struct {
	Transform Transform
}

func (s StaticTransformProvider) Lookup(ctx context.Context, at time.Time) (Transform, error) {
	return s.Transform, nil
}
