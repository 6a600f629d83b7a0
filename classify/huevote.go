package classify

import (
	"sync"
	"time"

	"github.com/nathan-osman/go-sunrise"

	"github.com/fido2478/udacity-sdc-nd/camera"
	"github.com/fido2478/udacity-sdc-nd/detector"
)

// Profile holds the pixel-acceptance thresholds for one lighting regime.
// A pixel votes for a colour only if it is bright and saturated enough, and
// a colour wins only if enough of the region voted for it.
type Profile struct {
	MinValue      float64 // minimum brightness, 0..1
	MinSaturation float64 // minimum saturation, 0..1
	MinFraction   float64 // fraction of region pixels required to accept
}

// HueVote is a deliberately simple classifier: each sufficiently bright,
// saturated pixel of the region votes for red, yellow or green based on its
// hue, and the colour with the most votes wins if it clears the profile's
// fraction. It is no substitute for a trained model, but it behaves sensibly
// on simulator imagery and exercises the full pipeline on real frames.
//
// Day and night get separate profiles; which one applies is decided from
// sunrise/sunset at the configured site coordinates.
type HueVote struct {
	mu        sync.RWMutex
	day       Profile
	night     Profile
	latitude  float64
	longitude float64
	now       func() time.Time
}

// NewHueVote creates a hue-voting classifier for a site at the given
// coordinates.
func NewHueVote(day, night Profile, latitude, longitude float64) *HueVote {
	return &HueVote{
		day:       day,
		night:     night,
		latitude:  latitude,
		longitude: longitude,
		now:       time.Now,
	}
}

// SetProfiles replaces both acceptance profiles. Safe to call while the
// classifier is in use; the config hot reload does exactly that.
func (h *HueVote) SetProfiles(day, night Profile) {
	h.mu.Lock()
	h.day = day
	h.night = night
	h.mu.Unlock()
}

// Classify implements the detector classifier contract. A nil or empty
// region yields Unknown.
func (h *HueVote) Classify(region *camera.Region) detector.Color {
	if region == nil || region.Width <= 0 || region.Height <= 0 {
		return detector.Unknown
	}

	h.mu.RLock()
	profile := h.night
	if h.daylight(h.now()) {
		profile = h.day
	}
	h.mu.RUnlock()

	var red, yellow, green int
	for y := 0; y < region.Height; y++ {
		for x := 0; x < region.Width; x++ {
			r, g, b := region.RGBAt(x, y)
			hue, sat, val := rgbToHSV(r, g, b)
			if val < profile.MinValue || sat < profile.MinSaturation {
				continue
			}
			switch {
			case hue <= 20 || hue >= 340:
				red++
			case hue >= 35 && hue <= 75:
				yellow++
			case hue >= 85 && hue <= 180:
				green++
			}
		}
	}

	need := int(profile.MinFraction * float64(region.Width*region.Height))
	if need < 1 {
		need = 1
	}
	best := detector.Unknown
	votes := 0
	if red >= need && red > votes {
		best, votes = detector.Red, red
	}
	if yellow >= need && yellow > votes {
		best, votes = detector.Yellow, yellow
	}
	if green >= need && green > votes {
		best, votes = detector.Green, green
	}
	return best
}

// daylight reports whether t falls between sunrise and sunset at the site.
func (h *HueVote) daylight(t time.Time) bool {
	rise, set := sunrise.SunriseSunset(h.latitude, h.longitude, t.Year(), t.Month(), t.Day())
	return t.After(rise) && t.Before(set)
}

// rgbToHSV converts one pixel to hue (degrees), saturation and value (0..1).
func rgbToHSV(r, g, b uint8) (hue, sat, val float64) {
	rf := float64(r) / 255
	gf := float64(g) / 255
	bf := float64(b) / 255

	maxc := max(rf, max(gf, bf))
	minc := min(rf, min(gf, bf))
	val = maxc
	if maxc > 0 {
		sat = (maxc - minc) / maxc
	}
	delta := maxc - minc
	if delta == 0 {
		return 0, sat, val
	}
	switch maxc {
	case rf:
		hue = 60 * ((gf - bf) / delta)
	case gf:
		hue = 60 * (2 + (bf-rf)/delta)
	default:
		hue = 60 * (4 + (rf-gf)/delta)
	}
	if hue < 0 {
		hue += 360
	}
	return hue, sat, val
}
