package camera

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameValid(t *testing.T) {
	f := NewFrame(4, 3, time.Now())
	assert.True(t, f.Valid())

	assert.False(t, (&Frame{Width: 4, Height: 3}).Valid(), "missing pixel buffer")
	assert.False(t, (*Frame)(nil).Valid())
}

func TestFramePixelAccess(t *testing.T) {
	f := NewFrame(4, 3, time.Now())
	f.SetRGB(2, 1, 255, 128, 7)

	r, g, b := f.RGBAt(2, 1)
	assert.Equal(t, [3]uint8{255, 128, 7}, [3]uint8{r, g, b})

	r, g, b = f.RGBAt(0, 0)
	assert.Equal(t, [3]uint8{0, 0, 0}, [3]uint8{r, g, b})

	// Out-of-bounds access is inert.
	f.SetRGB(-1, 0, 1, 2, 3)
	f.SetRGB(4, 0, 1, 2, 3)
	r, g, b = f.RGBAt(-1, 99)
	assert.Equal(t, [3]uint8{0, 0, 0}, [3]uint8{r, g, b})
}

func TestFrameRegion(t *testing.T) {
	f := NewFrame(10, 10, time.Now())
	f.SetRGB(3, 3, 200, 0, 0)
	f.SetRGB(4, 4, 0, 200, 0)

	reg := f.Region(ROI{X0: 3, Y0: 3, X1: 6, Y1: 6})
	require.NotNil(t, reg)
	assert.Equal(t, 3, reg.Width)
	assert.Equal(t, 3, reg.Height)

	r, _, _ := reg.RGBAt(0, 0)
	assert.Equal(t, uint8(200), r)
	_, g, _ := reg.RGBAt(1, 1)
	assert.Equal(t, uint8(200), g)
}

func TestFrameRegionDegenerate(t *testing.T) {
	f := NewFrame(10, 10, time.Now())

	assert.Nil(t, f.Region(ROI{X0: 5, Y0: 5, X1: 5, Y1: 8}), "zero-width region")
	assert.Nil(t, f.Region(ROI{X0: 3, Y0: 3, X1: 1, Y1: 8}), "inverted region")

	// ROI larger than the frame is clipped, not rejected.
	reg := f.Region(ROI{X0: 8, Y0: 8, X1: 20, Y1: 20})
	require.NotNil(t, reg)
	assert.Equal(t, 2, reg.Width)
	assert.Equal(t, 2, reg.Height)

	// Entirely outside the frame.
	assert.Nil(t, f.Region(ROI{X0: 12, Y0: 12, X1: 20, Y1: 20}))
}

func TestRegionNilAccess(t *testing.T) {
	var reg *Region
	r, g, b := reg.RGBAt(0, 0)
	assert.Equal(t, [3]uint8{0, 0, 0}, [3]uint8{r, g, b})
}
