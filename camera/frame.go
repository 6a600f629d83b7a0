package camera

import (
	"time"
)

// Frame is one camera image as a packed RGB pixel buffer, three bytes per
// pixel, row-major. Colour-space conversion from the raw sensor format
// happens upstream; by the time a frame reaches the detector it is already
// decodable.
type Frame struct {
	Width  int
	Height int
	Pix    []uint8
	Stamp  time.Time
}

// NewFrame allocates a black frame of the given dimensions.
func NewFrame(width, height int, stamp time.Time) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*3),
		Stamp:  stamp,
	}
}

// Valid reports whether the pixel buffer matches the declared dimensions.
func (f *Frame) Valid() bool {
	return f != nil && f.Width > 0 && f.Height > 0 && len(f.Pix) == f.Width*f.Height*3
}

// SetRGB writes one pixel. Out-of-bounds coordinates are ignored.
func (f *Frame) SetRGB(x, y int, r, g, b uint8) {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return
	}
	i := (y*f.Width + x) * 3
	f.Pix[i] = r
	f.Pix[i+1] = g
	f.Pix[i+2] = b
}

// RGBAt reads one pixel. Out-of-bounds coordinates read as black.
func (f *Frame) RGBAt(x, y int) (r, g, b uint8) {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return 0, 0, 0
	}
	i := (y*f.Width + x) * 3
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// Region copies the pixels of the given ROI into a standalone buffer for the
// classifier. Returns nil for an empty region or an invalid frame.
func (f *Frame) Region(roi ROI) *Region {
	if !f.Valid() || roi.Empty() {
		return nil
	}
	// Clip against the actual frame in case intrinsics and frame disagree.
	x0 := max(roi.X0, 0)
	y0 := max(roi.Y0, 0)
	x1 := min(roi.X1, f.Width)
	y1 := min(roi.Y1, f.Height)
	if x1 <= x0 || y1 <= y0 {
		return nil
	}

	reg := &Region{
		Width:  x1 - x0,
		Height: y1 - y0,
		Pix:    make([]uint8, (x1-x0)*(y1-y0)*3),
	}
	for y := y0; y < y1; y++ {
		src := (y*f.Width + x0) * 3
		dst := (y - y0) * reg.Width * 3
		copy(reg.Pix[dst:dst+reg.Width*3], f.Pix[src:src+reg.Width*3])
	}
	return reg
}

// Region is the cropped pixel window handed to the classifier. Same packing
// as Frame.
type Region struct {
	Width  int
	Height int
	Pix    []uint8
}

// RGBAt reads one pixel of the region. Out-of-bounds coordinates read black.
func (r *Region) RGBAt(x, y int) (red, green, blue uint8) {
	if r == nil || x < 0 || y < 0 || x >= r.Width || y >= r.Height {
		return 0, 0, 0
	}
	i := (y*r.Width + x) * 3
	return r.Pix[i], r.Pix[i+1], r.Pix[i+2]
}
