package platform

import (
	"sync"

	"github.com/fido2478/udacity-sdc-nd/config"
	"github.com/fido2478/udacity-sdc-nd/detector"
	"github.com/fido2478/udacity-sdc-nd/util"
)

// AbstractPlatform holds what the concrete platforms share: the config, the
// outcome mailbox feeding the display surface, and the driver goroutine
// choreography around it.
type AbstractPlatform struct {
	config         *config.Config
	outcomes       *util.AtomicEvent[detector.Outcome]
	displayFunc    func(detector.Outcome)
	driverWg       sync.WaitGroup
	driverStopChan chan bool
	readyChan      chan bool
	shutdownMutex  sync.RWMutex
	isShuttingDown bool
}

func newAbstractPlatform(conf *config.Config, outcomes *util.AtomicEvent[detector.Outcome], displayFunc func(detector.Outcome)) *AbstractPlatform {
	return &AbstractPlatform{
		config:         conf,
		outcomes:       outcomes,
		displayFunc:    displayFunc,
		driverStopChan: make(chan bool),
		readyChan:      make(chan bool),
	}
}

func (s *AbstractPlatform) Ready() <-chan bool {
	return s.readyChan
}

func (s *AbstractPlatform) setInShutdown() {
	s.shutdownMutex.Lock()
	s.isShuttingDown = true
	s.shutdownMutex.Unlock()
}

// outcomeDriver forwards each new pipeline outcome to the platform's display
// function. The mailbox coalesces, so a slow display never backs up the
// pipeline.
func (s *AbstractPlatform) outcomeDriver() {
	defer s.driverWg.Done()
	for {
		select {
		case <-s.driverStopChan:
			return
		case <-s.outcomes.Channel():
			s.shutdownMutex.RLock()
			if !s.isShuttingDown {
				s.displayFunc(s.outcomes.Value())
			}
			s.shutdownMutex.RUnlock()
		}
	}
}
