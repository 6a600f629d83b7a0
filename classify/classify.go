// Package classify provides concrete implementations of the detector's
// classifier boundary. The pipeline treats whatever sits behind the
// interface as a black box; anything here can be swapped for a learned
// model without touching the pipeline.
package classify

import (
	"github.com/fido2478/udacity-sdc-nd/camera"
	"github.com/fido2478/udacity-sdc-nd/detector"
)

// Static always answers the same colour. Used as a test double and as the
// simulation classifier, where the TUI drives the colour interactively.
type Static struct {
	Color detector.Color
}

func (s Static) Classify(region *camera.Region) detector.Color {
	return s.Color
}

// Func adapts a plain function to the classifier interface.
type Func func(region *camera.Region) detector.Color

func (f Func) Classify(region *camera.Region) detector.Color {
	return f(region)
}
