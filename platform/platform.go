// Package platform abstracts the environment the detector runs in. The
// simulation platform renders a TUI dashboard and feeds synthetic pose,
// light and camera data onto the bus; the headless platform runs on the
// vehicle, where external bridges publish the inbound topics, and optionally
// mirrors the decision on a GPIO stop lamp.
package platform

import (
	"github.com/fido2478/udacity-sdc-nd/camera"
)

// Platform defines the interface for abstracting away the real vehicle from
// the TUI simulation.
type Platform interface {
	// Start initializes the platform (e.g., opens GPIO, or starts the TUI
	// and its data feeder).
	Start() error

	// Stop cleans up all platform resources.
	Stop()

	// Ready returns a channel that is closed once the platform can accept
	// log output and display updates.
	Ready() <-chan bool

	// TransformProvider returns the source of camera extrinsics for the
	// projector on this platform.
	TransformProvider() camera.TransformProvider
}
