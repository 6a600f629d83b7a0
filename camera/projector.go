package camera

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
)

// ErrBehindCamera is returned when the world point projects to non-positive
// depth, i.e. it is at or behind the image plane.
var ErrBehindCamera = errors.New("camera: point is behind the image plane")

// Intrinsics holds the pinhole camera parameters. The principal point sits at
// the image centre.
type Intrinsics struct {
	FocalLengthX float64
	FocalLengthY float64
	ImageWidth   int
	ImageHeight  int
}

// matrix returns the 3x3 camera matrix K.
func (in Intrinsics) matrix() *mat.Dense {
	cx := float64(in.ImageWidth) / 2
	cy := float64(in.ImageHeight) / 2
	return mat.NewDense(3, 3, []float64{
		in.FocalLengthX, 0, cx,
		0, in.FocalLengthY, cy,
		0, 0, 1,
	})
}

// Projector maps 3D world points to integer pixel coordinates using the
// configured intrinsics and a per-timestamp transform lookup.
type Projector struct {
	intrinsics Intrinsics
	provider   TransformProvider
	wait       time.Duration
}

// NewProjector creates a projector. wait bounds every transform lookup; a
// lookup that does not answer in time fails the projection with
// ErrTransformUnavailable.
func NewProjector(intr Intrinsics, provider TransformProvider, wait time.Duration) *Projector {
	return &Projector{
		intrinsics: intr,
		provider:   provider,
		wait:       wait,
	}
}

// Intrinsics returns the configured camera parameters.
func (p *Projector) Intrinsics() Intrinsics {
	return p.intrinsics
}

// Project transforms a world point into pixel coordinates for the frame taken
// at the given timestamp. Pixel coordinates are truncated toward zero and may
// lie outside the image bounds; callers derive a clamped region of interest
// from them.
func (p *Projector) Project(ctx context.Context, world [3]float64, at time.Time) (x, y int, err error) {
	lctx, cancel := context.WithTimeout(ctx, p.wait)
	defer cancel()

	tf, err := p.provider.Lookup(lctx, at)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrTransformUnavailable, err)
	}

	pt := mat.NewVecDense(4, []float64{world[0], world[1], world[2], 1})
	var body mat.VecDense
	body.MulVec(tf.Matrix(), pt)

	var pix mat.VecDense
	pix.MulVec(p.intrinsics.matrix(), body.SliceVec(0, 3))

	depth := pix.AtVec(2)
	if depth <= 0 {
		return 0, 0, ErrBehindCamera
	}
	return int(pix.AtVec(0) / depth), int(pix.AtVec(1) / depth), nil
}

// ROI is a half-open pixel rectangle [X0,X1) x [Y0,Y1) within image bounds.
type ROI struct {
	X0, Y0, X1, Y1 int
}

// Empty reports whether the region contains no pixels. A projected point
// outside the image produces an empty region, which callers treat as
// unclassifiable rather than as an error.
func (r ROI) Empty() bool {
	return r.X1 <= r.X0 || r.Y1 <= r.Y0
}

// Width returns the pixel width of the region.
func (r ROI) Width() int { return r.X1 - r.X0 }

// Height returns the pixel height of the region.
func (r ROI) Height() int { return r.Y1 - r.Y0 }

// RegionOfInterest derives the square classifier window of the given
// half-width centred on (x, y), clamped to the image bounds.
func (p *Projector) RegionOfInterest(x, y, halfWidth int) ROI {
	w := p.intrinsics.ImageWidth
	h := p.intrinsics.ImageHeight
	return ROI{
		X0: max(x-halfWidth, 0),
		X1: min(x+halfWidth, w),
		Y0: max(y-halfWidth, 0),
		Y1: min(y+halfWidth, h),
	}
}
