package platform

import (
	"fmt"
	"log/slog"

	"github.com/stianeikeland/go-rpio/v4"

	"github.com/fido2478/udacity-sdc-nd/camera"
	"github.com/fido2478/udacity-sdc-nd/config"
	"github.com/fido2478/udacity-sdc-nd/detector"
	"github.com/fido2478/udacity-sdc-nd/util"
)

// RaspberryPiPlatform runs headless on the vehicle. The inbound topics are
// fed by external bridges; the platform's only output surface is an optional
// GPIO stop lamp that is driven high while a red light is confirmed ahead.
type RaspberryPiPlatform struct {
	*AbstractPlatform
	provider camera.TransformProvider
	lampPin  rpio.Pin
	lampOn   bool
	rpioOpen bool
}

// NewRaspberryPiPlatform creates the headless platform. provider supplies
// the camera extrinsics of the vehicle's sensor rig.
func NewRaspberryPiPlatform(conf *config.Config, outcomes *util.AtomicEvent[detector.Outcome], provider camera.TransformProvider) *RaspberryPiPlatform {
	inst := &RaspberryPiPlatform{provider: provider}
	inst.AbstractPlatform = newAbstractPlatform(conf, outcomes, inst.applyOutcome)
	return inst
}

func (s *RaspberryPiPlatform) TransformProvider() camera.TransformProvider {
	return s.provider
}

func (s *RaspberryPiPlatform) Start() error {
	if s.config.StopLamp.Enabled {
		slog.Info("Initialise GPIO...", "pin", s.config.StopLamp.GPIOPin)
		if err := rpio.Open(); err != nil {
			return fmt.Errorf("failed to open rpio: %w", err)
		}
		s.rpioOpen = true
		s.lampPin = rpio.Pin(s.config.StopLamp.GPIOPin)
		s.lampPin.Output()
		s.lampPin.Low()
	}

	s.driverWg.Add(1)
	go s.outcomeDriver()

	close(s.readyChan) // Headless is ready immediately.
	return nil
}

func (s *RaspberryPiPlatform) Stop() {
	s.setInShutdown()

	close(s.driverStopChan)
	s.driverWg.Wait()

	if s.rpioOpen {
		s.lampPin.Low()
		if err := rpio.Close(); err != nil {
			slog.Error("Error closing rpio", "error", err)
		}
		s.rpioOpen = false
	}
}

func (s *RaspberryPiPlatform) applyOutcome(outcome detector.Outcome) {
	stop := lampShouldLight(outcome)
	if stop == s.lampOn {
		return
	}
	s.lampOn = stop
	if s.rpioOpen {
		if stop {
			s.lampPin.High()
		} else {
			s.lampPin.Low()
		}
	}
	slog.Info("Stop lamp state changed", "on", stop, "stopWaypoint", outcome.Published)
}

// lampShouldLight decides the lamp state for one pipeline outcome: lit
// exactly while a stop waypoint is being published.
func lampShouldLight(outcome detector.Outcome) bool {
	return outcome.Published != detector.NoStop
}
