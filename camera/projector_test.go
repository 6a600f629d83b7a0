package camera

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIntrinsics = Intrinsics{
	FocalLengthX: 100,
	FocalLengthY: 100,
	ImageWidth:   800,
	ImageHeight:  600,
}

func TestProjectIdentityTransform(t *testing.T) {
	p := NewProjector(testIntrinsics, StaticTransformProvider{Transform: Transform{Rotation: Identity()}}, time.Second)

	// A point on the optical axis lands exactly on the principal point.
	x, y, err := p.Project(context.Background(), [3]float64{0, 0, 10}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 400, x)
	assert.Equal(t, 300, y)

	// Offset scales with focal length over depth: 100*2/10 = 20 pixels.
	x, y, err = p.Project(context.Background(), [3]float64{2, -1, 10}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 420, x)
	assert.Equal(t, 290, y)
}

func TestProjectAppliesTranslation(t *testing.T) {
	tf := Transform{Translation: [3]float64{1, 0, 0}, Rotation: Identity()}
	p := NewProjector(testIntrinsics, StaticTransformProvider{Transform: tf}, time.Second)

	x, y, err := p.Project(context.Background(), [3]float64{0, 0, 10}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 410, x, "a 1m body-frame shift moves the pixel by fx/Z")
	assert.Equal(t, 300, y)
}

func TestProjectAppliesRotation(t *testing.T) {
	// 180 degrees about Z: (x, y, z) -> (-x, -y, z).
	tf := Transform{Rotation: Quaternion{Z: 1}}
	p := NewProjector(testIntrinsics, StaticTransformProvider{Transform: tf}, time.Second)

	x, y, err := p.Project(context.Background(), [3]float64{2, 1, 10}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 380, x)
	assert.Equal(t, 290, y)
}

func TestProjectDeterministic(t *testing.T) {
	p := NewProjector(testIntrinsics, StaticTransformProvider{Transform: Transform{Rotation: Identity()}}, time.Second)
	x1, y1, err := p.Project(context.Background(), [3]float64{3.3, 4.4, 17.5}, time.Now())
	require.NoError(t, err)
	x2, y2, err := p.Project(context.Background(), [3]float64{3.3, 4.4, 17.5}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, x1, x2)
	assert.Equal(t, y1, y2)
}

func TestProjectBehindCamera(t *testing.T) {
	p := NewProjector(testIntrinsics, StaticTransformProvider{Transform: Transform{Rotation: Identity()}}, time.Second)

	_, _, err := p.Project(context.Background(), [3]float64{0, 0, -5}, time.Now())
	assert.ErrorIs(t, err, ErrBehindCamera)

	// Zero depth must not divide by zero either.
	_, _, err = p.Project(context.Background(), [3]float64{1, 1, 0}, time.Now())
	assert.ErrorIs(t, err, ErrBehindCamera)
}

type failingProvider struct {
	err error
}

func (f failingProvider) Lookup(ctx context.Context, at time.Time) (Transform, error) {
	return Transform{}, f.err
}

type hangingProvider struct{}

func (hangingProvider) Lookup(ctx context.Context, at time.Time) (Transform, error) {
	<-ctx.Done()
	return Transform{}, ctx.Err()
}

func TestProjectTransformFailure(t *testing.T) {
	p := NewProjector(testIntrinsics, failingProvider{err: errors.New("no tf published")}, time.Second)
	_, _, err := p.Project(context.Background(), [3]float64{0, 0, 10}, time.Now())
	assert.ErrorIs(t, err, ErrTransformUnavailable)
}

func TestProjectTransformTimeout(t *testing.T) {
	p := NewProjector(testIntrinsics, hangingProvider{}, 10*time.Millisecond)
	start := time.Now()
	_, _, err := p.Project(context.Background(), [3]float64{0, 0, 10}, time.Now())
	assert.ErrorIs(t, err, ErrTransformUnavailable)
	assert.Less(t, time.Since(start), time.Second, "lookup must be bounded by the configured wait")
}

func TestRegionOfInterestClamping(t *testing.T) {
	p := NewProjector(testIntrinsics, StaticTransformProvider{}, time.Second)

	roi := p.RegionOfInterest(400, 300, 16)
	assert.Equal(t, ROI{X0: 384, Y0: 284, X1: 416, Y1: 316}, roi)
	assert.False(t, roi.Empty())
	assert.Equal(t, 32, roi.Width())
	assert.Equal(t, 32, roi.Height())

	// Near the corner the window shrinks.
	roi = p.RegionOfInterest(5, 2, 16)
	assert.Equal(t, ROI{X0: 0, Y0: 0, X1: 21, Y1: 18}, roi)
	assert.False(t, roi.Empty())

	// Far outside the image the window degenerates to empty.
	roi = p.RegionOfInterest(-100, 300, 16)
	assert.True(t, roi.Empty())
	roi = p.RegionOfInterest(400, 900, 16)
	assert.True(t, roi.Empty())
}
