package platform

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gammazero/deque"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"golang.org/x/exp/maps"

	"github.com/fido2478/udacity-sdc-nd/bus"
	"github.com/fido2478/udacity-sdc-nd/camera"
	"github.com/fido2478/udacity-sdc-nd/config"
	"github.com/fido2478/udacity-sdc-nd/detector"
	"github.com/fido2478/udacity-sdc-nd/logging"
	"github.com/fido2478/udacity-sdc-nd/route"
	"github.com/fido2478/udacity-sdc-nd/util"
)

const (
	maxHistory = 200
	stripWidth = 100
	// The simulated camera gimbals onto the next light ahead so the crop
	// always lands in frame; this is its fixed viewing distance.
	simCameraDepth = 30.0
	// Lights sit just past their stop line, like on a real intersection.
	simLightLead = 0.4
)

// simTransformProvider answers transform lookups with whatever extrinsic
// the feeder last computed. It never fails and never blocks.
type simTransformProvider struct {
	mu sync.Mutex
	tf camera.Transform
}

func (p *simTransformProvider) Lookup(ctx context.Context, at time.Time) (camera.Transform, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tf, nil
}

func (p *simTransformProvider) aimAt(target route.Point) {
	p.mu.Lock()
	p.tf = camera.Transform{
		Translation: [3]float64{-target.X, -target.Y, simCameraDepth},
		Rotation:    camera.Identity(),
	}
	p.mu.Unlock()
}

// SimPlatform drives the whole pipeline without a vehicle: a feeder
// goroutine publishes synthetic pose, light and camera data onto the bus,
// and a tview dashboard shows the route strip, the latest pipeline passes
// and the logs. Keys select the simulated light colour and the vehicle
// speed.
type SimPlatform struct {
	*AbstractPlatform
	bus      *bus.Bus
	provider *simTransformProvider

	tviewapp     *tview.Application
	intro        *tview.TextView
	stripView    *tview.TextView
	historyView  *tview.TextView
	logView      *tview.TextView
	ossignalChan chan os.Signal
	logFlushOnce sync.Once

	chartocolor map[string]detector.Color
	history     *deque.Deque[detector.Outcome]

	feederWg       sync.WaitGroup
	feederStopChan chan bool

	mu       sync.Mutex
	vehicleX float64
	speed    float64
	selected detector.Color
	frames   map[detector.Color]*camera.Frame

	path      route.Path
	stopIdxs  []int
	stopLines []route.Point
}

func NewSimPlatform(conf *config.Config, b *bus.Bus, outcomes *util.AtomicEvent[detector.Outcome], ossignalchan chan os.Signal) *SimPlatform {
	inst := &SimPlatform{
		bus:            b,
		provider:       &simTransformProvider{},
		ossignalChan:   ossignalchan,
		feederStopChan: make(chan bool),
		history:        new(deque.Deque[detector.Outcome]),
		speed:          conf.Sim.VehicleSpeed,
		selected:       detector.Red,
		frames:         make(map[detector.Color]*camera.Frame),
		chartocolor: map[string]detector.Color{
			"1": detector.Red,
			"2": detector.Yellow,
			"3": detector.Green,
			"0": detector.Unknown,
		},
	}
	inst.history.Grow(maxHistory)
	inst.AbstractPlatform = newAbstractPlatform(conf, outcomes, inst.displayOutcome)
	return inst
}

func (s *SimPlatform) TransformProvider() camera.TransformProvider {
	return s.provider
}

func (s *SimPlatform) Start() error {
	s.path = simPath(s.config.Sim)
	s.stopLines = s.config.StopLinePoints()
	s.stopIdxs = make([]int, len(s.stopLines))
	for i, sl := range s.stopLines {
		s.stopIdxs[i] = s.path.Nearest(sl)
	}

	s.initSimulationTUI()

	s.driverWg.Add(1)
	go s.outcomeDriver()

	s.feederWg.Add(1)
	go s.feeder()

	return nil
}

func (s *SimPlatform) Stop() {
	s.setInShutdown()

	close(s.feederStopChan)
	s.feederWg.Wait()

	close(s.driverStopChan)
	s.driverWg.Wait()

	if s.tviewapp != nil {
		s.tviewapp.Stop()
	}
}

// simPath lays the simulated route along the x axis.
func simPath(conf config.SimConfig) route.Path {
	path := make(route.Path, conf.PathLength)
	for i := range path {
		path[i] = route.Waypoint{X: float64(i) * conf.WaypointGap}
	}
	return path
}

// feeder publishes the route once, then pose, lights and a painted camera
// frame on every tick. The vehicle wraps around at the end of the route.
func (s *SimPlatform) feeder() {
	defer s.feederWg.Done()

	if err := s.bus.PublishPath(bus.NewPathEvent(s.path)); err != nil {
		slog.Error("Failed to publish simulated route", "error", err)
	}

	interval := s.config.Sim.FrameInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.feederStopChan:
			slog.Info("Ending feeder go-routine...")
			return
		case <-ticker.C:
			s.tick(interval)
		}
	}
}

func (s *SimPlatform) tick(interval time.Duration) {
	s.mu.Lock()
	s.vehicleX += s.speed * interval.Seconds()
	end := float64(s.config.Sim.PathLength) * s.config.Sim.WaypointGap
	if s.vehicleX >= end {
		s.vehicleX = 0
	}
	x := s.vehicleX
	color := s.selected
	frame := s.paintedFrame(color)
	s.mu.Unlock()

	now := time.Now()
	lights := make([]detector.Light, len(s.stopLines))
	for i, sl := range s.stopLines {
		lights[i] = detector.Light{X: sl.X + simLightLead, Y: sl.Y, GroundTruth: color}
	}
	if target, ok := nextLightAhead(x, lights); ok {
		s.provider.aimAt(target)
	}

	if err := s.bus.PublishPose(bus.PoseEvent{X: x, Orientation: camera.Identity(), Stamp: now}); err != nil {
		slog.Error("Failed to publish simulated pose", "error", err)
	}
	if err := s.bus.PublishLights(bus.NewLightsEvent(lights, now)); err != nil {
		slog.Error("Failed to publish simulated lights", "error", err)
	}
	if err := s.bus.PublishImage(bus.NewImageEvent(frame)); err != nil {
		slog.Error("Failed to publish simulated camera frame", "error", err)
	}
}

// nextLightAhead picks the first light at or past x, the one the simulated
// camera should be looking at.
func nextLightAhead(x float64, lights []detector.Light) (route.Point, bool) {
	best := route.Point{}
	found := false
	for _, l := range lights {
		if l.X >= x && (!found || l.X < best.X) {
			best = l.Point()
			found = true
		}
	}
	return best, found
}

// paintedFrame returns a camera frame filled with a colour the hue-vote
// classifier recognises as the selected state. Frames are cached per colour.
// Must be called with s.mu held.
func (s *SimPlatform) paintedFrame(color detector.Color) *camera.Frame {
	if frame, ok := s.frames[color]; ok {
		frame.Stamp = time.Now()
		return frame
	}

	var r, g, b uint8
	switch color {
	case detector.Red:
		r, g, b = 255, 30, 30
	case detector.Yellow:
		r, g, b = 255, 210, 40
	case detector.Green:
		r, g, b = 40, 230, 60
	default:
		r, g, b = 90, 90, 90 // too grey to vote for anything
	}

	frame := camera.NewFrame(s.config.Camera.ImageWidth, s.config.Camera.ImageHeight, time.Now())
	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			frame.SetRGB(x, y, r, g, b)
		}
	}
	s.frames[color] = frame
	return frame
}

// getIntroText generates the dynamic text for the top info pane.
func (s *SimPlatform) getIntroText() string {
	s.mu.Lock()
	speed := s.speed
	selected := s.selected
	s.mu.Unlock()

	keys := maps.Keys(s.chartocolor)
	sort.Strings(keys)
	var choices []string
	for _, k := range keys {
		choices = append(choices, fmt.Sprintf("[blue]%s[-]=%s", k, s.chartocolor[k]))
	}

	line1 := fmt.Sprintf("Light colour: %s%s[-] | Hit %s to change",
		colorTag(selected), selected, strings.Join(choices, " "))
	line2 := fmt.Sprintf("Vehicle speed: [#ffff00]%-5.1f[white] m/s | Hit [#ff0000]+[white]/[#ff0000]-[white] to change", speed)
	line3 := "Hit [#ff0000]q[-] to exit, [#ff0000]r[-] to reload, [#ff0000]Up/Down[-] to scroll logs"

	return fmt.Sprintf("%s\n%s\n%s", line1, line2, line3)
}

func (s *SimPlatform) initSimulationTUI() {
	s.tviewapp = tview.NewApplication()

	// --- Intro Pane ---
	s.intro = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	s.intro.SetText(s.getIntroText())
	s.intro.SetBorder(true).SetTitle(" Traffic Light Detector Simulation ").SetTitleColor(tcell.ColorLightBlue)
	s.intro.SetBackgroundColor(tcell.NewRGBColor(20, 20, 20))

	// --- Route Strip Pane ---
	s.stripView = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	s.stripView.SetBorder(true).SetTitle(" Route ").SetTitleColor(tcell.ColorLightBlue)
	s.stripView.SetBackgroundColor(tcell.NewRGBColor(30, 30, 30))

	// --- Pass History Pane ---
	s.historyView = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	s.historyView.SetBorder(true).SetTitle(" Pipeline Passes ").SetTitleColor(tcell.ColorLightBlue)
	s.historyView.SetBackgroundColor(tcell.NewRGBColor(30, 30, 30))

	// --- Log Pane ---
	s.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetChangedFunc(func() {
			s.logView.ScrollToEnd()
			s.tviewapp.Draw()
		})
	s.logView.SetBorder(true).SetTitle(" Logs ").SetTitleColor(tcell.ColorLightBlue)
	s.logView.SetBackgroundColor(tcell.NewRGBColor(40, 40, 40))

	// --- Layout ---
	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(s.intro, 5, 0, false).
		AddItem(s.stripView, 4, 0, false).
		AddItem(s.historyView, 8, 0, false).
		AddItem(s.logView, 0, 1, true)

	// --- Flush logs after first draw ---
	s.tviewapp.SetAfterDrawFunc(func(screen tcell.Screen) {
		s.logFlushOnce.Do(func() {
			logWriter := tview.ANSIWriter(s.logView)
			logging.SetOutput(logWriter)
			close(s.readyChan) // Signal that the TUI is ready
		})
	})

	// --- Input Handling ---
	s.tviewapp.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			s.tviewapp.Stop()
			s.ossignalChan <- os.Interrupt
			return nil
		case tcell.KeyRune:
			key := string(event.Rune())
			if color, exist := s.chartocolor[key]; exist {
				s.mu.Lock()
				s.selected = color
				s.mu.Unlock()
				slog.Info("Simulated light colour changed", "colour", color)
				s.intro.SetText(s.getIntroText())
				return nil
			}
			switch key {
			case "q", "Q":
				s.ossignalChan <- os.Interrupt
				return nil
			case "r", "R":
				s.ossignalChan <- syscall.SIGHUP
				return nil
			case "+":
				s.mu.Lock()
				s.speed = min(s.speed+1, 40)
				s.mu.Unlock()
				s.intro.SetText(s.getIntroText())
				return nil
			case "-":
				s.mu.Lock()
				s.speed = max(s.speed-1, 0)
				s.mu.Unlock()
				s.intro.SetText(s.getIntroText())
				return nil
			}
		case tcell.KeyUp:
			row, col := s.logView.GetScrollOffset()
			s.logView.ScrollTo(row-1, col)
			return nil
		case tcell.KeyDown:
			row, col := s.logView.GetScrollOffset()
			s.logView.ScrollTo(row+1, col)
			return nil
		}
		return event
	})

	// --- Start TUI ---
	go func() {
		if err := s.tviewapp.SetRoot(layout, true).Run(); err != nil {
			slog.Error("Error running TUI", "error", err)
			s.ossignalChan <- os.Interrupt
		}
	}()
}

// displayOutcome records one pipeline pass and schedules a redraw. Called
// from the outcome driver goroutine.
func (s *SimPlatform) displayOutcome(outcome detector.Outcome) {
	s.mu.Lock()
	if s.history.Len() == maxHistory {
		s.history.PopFront()
	}
	s.history.PushBack(outcome)
	color := s.selected
	s.mu.Unlock()

	strip := renderStrip(len(s.path), outcome.VehicleIndex, s.stopIdxs, color, outcome.Published)
	history := s.renderHistory()

	s.tviewapp.QueueUpdateDraw(func() {
		s.stripView.SetText(strip)
		s.historyView.SetText(history)
	})
}

// renderHistory formats the most recent passes, newest at the bottom.
func (s *SimPlatform) renderHistory() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	const visible = 6
	start := s.history.Len() - visible
	if start < 0 {
		start = 0
	}
	var buf strings.Builder
	for i := start; i < s.history.Len(); i++ {
		o := s.history.At(i)
		published := "[#808080]-[-]"
		if o.Published != detector.NoStop {
			published = fmt.Sprintf("[#ff4040]stop @ %d[-]", o.Published)
		}
		fmt.Fprintf(&buf, " %s  vehicle %-4d raw %s%-7s[-] %s\n",
			o.Stamp.Format("15:04:05.000"), o.VehicleIndex, colorTag(o.Raw), o.Raw, published)
	}
	return buf.String()
}

// renderStrip draws the route as a two-line strip: lights on top, the
// vehicle and the published stop waypoint below.
func renderStrip(pathLen int, vehicleIdx int, stopIdxs []int, lightColor detector.Color, published int) string {
	if pathLen < 1 {
		return ""
	}
	col := func(idx int) int {
		c := idx * stripWidth / pathLen
		if c < 0 {
			c = 0
		}
		if c >= stripWidth {
			c = stripWidth - 1
		}
		return c
	}

	top := make([]string, stripWidth)
	bottom := make([]string, stripWidth)
	for i := range top {
		top[i] = "─"
		bottom[i] = " "
	}
	for _, idx := range stopIdxs {
		top[col(idx)] = colorTag(lightColor) + "○[-]"
	}
	if published != detector.NoStop {
		bottom[col(published)] = "[#ff4040]^[-]"
	}
	if vehicleIdx != route.NoWaypoint {
		bottom[col(vehicleIdx)] = "[#40a0ff]▶[-]"
	}

	return " " + strings.Join(top, "") + "\n " + strings.Join(bottom, "")
}

func colorTag(c detector.Color) string {
	switch c {
	case detector.Red:
		return "[#ff4040]"
	case detector.Yellow:
		return "[#ffd040]"
	case detector.Green:
		return "[#40e040]"
	default:
		return "[#b0b0b0]"
	}
}
