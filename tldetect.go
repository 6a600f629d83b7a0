// Command tldetect locates the nearest upcoming red traffic light along a
// fixed route and publishes the waypoint index to stop at. It runs either as
// a TUI simulation feeding itself synthetic data, or headless on the vehicle
// where external bridges publish the inbound topics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fido2478/udacity-sdc-nd/bus"
	"github.com/fido2478/udacity-sdc-nd/camera"
	"github.com/fido2478/udacity-sdc-nd/classify"
	"github.com/fido2478/udacity-sdc-nd/config"
	"github.com/fido2478/udacity-sdc-nd/detector"
	"github.com/fido2478/udacity-sdc-nd/logging"
	"github.com/fido2478/udacity-sdc-nd/platform"
	"github.com/fido2478/udacity-sdc-nd/util"
)

// App ties the pieces together for one run: bus, detector, platform, config
// watcher and web API. A SIGHUP tears the App down and main builds a fresh
// one from the re-read config file.
type App struct {
	ossignal   chan os.Signal
	config     *config.Config
	bus        *bus.Bus
	detector   *detector.Detector
	classifier *classify.HueVote
	node       *bus.Node
	platform   platform.Platform
	webServer  *http.Server
	nodeCancel context.CancelFunc
	stopsignal chan struct{}
	shutdownWg sync.WaitGroup
}

func NewApp(ossignal chan os.Signal) *App {
	return &App{
		ossignal:   ossignal,
		stopsignal: make(chan struct{}),
	}
}

// initialise sets up logging, picks the platform for the configured mode and
// starts everything.
func (a *App) initialise(conf *config.Config) error {
	a.config = conf

	logcfg := conf.Logging.Sim
	if conf.RealHW {
		logcfg = conf.Logging.HW
	}
	// In simulation the logs are buffered until the TUI log pane takes over.
	if err := logging.Init(!conf.RealHW, logcfg.Level, logcfg.Format, logcfg.File); err != nil {
		return fmt.Errorf("can't initialise logging: %w", err)
	}
	if conf.RealHW {
		if err := logging.SetOutput(os.Stderr); err != nil {
			return fmt.Errorf("can't attach log output: %w", err)
		}
	}

	a.bus = bus.New()
	outcomes := util.NewAtomicEvent[detector.Outcome]()

	if conf.RealHW {
		provider := camera.StaticTransformProvider{Transform: conf.Camera.StaticTransform()}
		a.platform = platform.NewRaspberryPiPlatform(conf, outcomes, provider)
	} else {
		a.platform = platform.NewSimPlatform(conf, a.bus, outcomes, a.ossignal)
	}

	return a.run(outcomes)
}

// run builds the pipeline around the already chosen platform and starts the
// node, the config watcher and the web API.
func (a *App) run(outcomes *util.AtomicEvent[detector.Outcome]) error {
	conf := a.config

	a.classifier = classify.NewHueVote(
		profileFromConfig(conf.Classifier.Day),
		profileFromConfig(conf.Classifier.Night),
		conf.Classifier.Latitude,
		conf.Classifier.Longitude,
	)

	projector := camera.NewProjector(
		conf.Camera.Intrinsics(),
		a.platform.TransformProvider(),
		conf.Camera.TransformWait,
	)
	a.detector = detector.New(paramsFromConfig(conf.Detector), projector, a.classifier, conf.StopLinePoints())
	a.node = bus.NewNode(a.bus, a.detector, outcomes)

	if err := a.platform.Start(); err != nil {
		return fmt.Errorf("can't start platform: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.nodeCancel = cancel
	a.shutdownWg.Add(1)
	go func() {
		defer a.shutdownWg.Done()
		if err := a.node.Run(ctx); err != nil {
			slog.Error("Detector node stopped with error", "error", err)
			a.ossignal <- os.Interrupt
		}
	}()

	a.shutdownWg.Add(1)
	go func() {
		defer a.shutdownWg.Done()
		if err := config.Watch(conf.Configfile, a.applyRuntimeConfig, a.stopsignal); err != nil {
			slog.Error("Config watcher stopped with error", "error", err)
		}
	}()

	if conf.Web.Enabled {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/config", config.ConfigHandler(conf.Configfile))
		a.webServer = &http.Server{Addr: conf.Web.Addr, Handler: mux}
		go func() {
			slog.Info("Web API listening", "addr", conf.Web.Addr)
			if err := a.webServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Web server failed", "error", err)
			}
		}()
	}

	<-a.platform.Ready()
	slog.Info("Traffic light detector running", "realhw", conf.RealHW)
	return nil
}

// applyRuntimeConfig pushes the runtime-tunable subset of a freshly read
// config into the running pipeline.
func (a *App) applyRuntimeConfig(conf *config.Config) {
	a.detector.SetParams(paramsFromConfig(conf.Detector))
	a.classifier.SetProfiles(
		profileFromConfig(conf.Classifier.Day),
		profileFromConfig(conf.Classifier.Night),
	)
	slog.Info("Applied runtime configuration",
		"threshold", conf.Detector.StateCountThreshold,
		"visibilityRadius", conf.Detector.VisibilityRadius,
		"roiHalfWidth", conf.Detector.ROIHalfWidth)
}

func (a *App) shutdown() {
	slog.Info("Shutting down...")

	if a.webServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := a.webServer.Shutdown(ctx); err != nil {
			slog.Error("Error shutting down web server", "error", err)
		}
		cancel()
	}

	close(a.stopsignal)
	a.nodeCancel()
	a.platform.Stop()
	if err := a.bus.Close(); err != nil {
		slog.Error("Error closing bus", "error", err)
	}
	a.shutdownWg.Wait()

	if err := logging.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error closing logging: %v\n", err)
	}
}

func paramsFromConfig(conf config.DetectorConfig) detector.Params {
	return detector.Params{
		StateCountThreshold: conf.StateCountThreshold,
		VisibilityRadius:    conf.VisibilityRadius,
		ROIHalfWidth:        conf.ROIHalfWidth,
		KDTreeMinWaypoints:  conf.KDTreeMinWaypoints,
	}
}

func profileFromConfig(conf config.ClassifierProfile) classify.Profile {
	return classify.Profile{
		MinValue:      conf.MinValue,
		MinSaturation: conf.MinSaturation,
		MinFraction:   conf.MinFraction,
	}
}

func main() {
	cfile := flag.String("config", "config.yml", "path to the configuration file")
	realhw := flag.Bool("real", false, "run on the vehicle instead of the TUI simulation")
	flag.Parse()

	ossignal := make(chan os.Signal, 1)
	signal.Notify(ossignal, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	for {
		conf, err := config.ReadConfig(*cfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Can't read config file: %v\n", err)
			os.Exit(1)
		}
		conf.RealHW = *realhw

		app := NewApp(ossignal)
		if err := app.initialise(conf); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
			os.Exit(1)
		}

		sig := <-ossignal
		reload := sig == syscall.SIGHUP
		if reload {
			slog.Info("Reload requested, restarting with fresh config...")
		}
		app.shutdown()
		if !reload {
			break
		}
	}
}
