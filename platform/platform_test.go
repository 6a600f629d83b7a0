package platform

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fido2478/udacity-sdc-nd/config"
	"github.com/fido2478/udacity-sdc-nd/detector"
	"github.com/fido2478/udacity-sdc-nd/route"
	"github.com/fido2478/udacity-sdc-nd/util"
)

func TestOutcomeDriverForwardsLatest(t *testing.T) {
	outcomes := util.NewAtomicEvent[detector.Outcome]()

	var mu sync.Mutex
	var got []detector.Outcome
	ap := newAbstractPlatform(&config.Config{}, outcomes, func(o detector.Outcome) {
		mu.Lock()
		got = append(got, o)
		mu.Unlock()
	})

	ap.driverWg.Add(1)
	go ap.outcomeDriver()
	t.Cleanup(func() {
		close(ap.driverStopChan)
		ap.driverWg.Wait()
	})

	outcomes.Send(detector.Outcome{Published: 42})

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1 && got[0].Published == 42
	}, time.Second, 5*time.Millisecond)
}

func TestOutcomeDriverStopsDisplayingInShutdown(t *testing.T) {
	outcomes := util.NewAtomicEvent[detector.Outcome]()

	var mu sync.Mutex
	calls := 0
	ap := newAbstractPlatform(&config.Config{}, outcomes, func(o detector.Outcome) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	ap.setInShutdown()
	ap.driverWg.Add(1)
	go ap.outcomeDriver()

	outcomes.Send(detector.Outcome{Published: 42})
	time.Sleep(50 * time.Millisecond)

	close(ap.driverStopChan)
	ap.driverWg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, calls, "Display function must not run during shutdown")
}

func TestLampShouldLight(t *testing.T) {
	assert.True(t, lampShouldLight(detector.Outcome{Published: 148}))
	assert.True(t, lampShouldLight(detector.Outcome{Published: 0}))
	assert.False(t, lampShouldLight(detector.Outcome{Published: detector.NoStop}))
}

func TestSimPath(t *testing.T) {
	path := simPath(config.SimConfig{PathLength: 4, WaypointGap: 2.5})
	assert.Len(t, path, 4)
	assert.Equal(t, 0.0, path[0].X)
	assert.Equal(t, 7.5, path[3].X)
}

func TestNextLightAhead(t *testing.T) {
	lights := []detector.Light{{X: 50}, {X: 150}, {X: 250}}

	target, ok := nextLightAhead(100, lights)
	assert.True(t, ok)
	assert.Equal(t, route.Point{X: 150}, target)

	// A light exactly at the vehicle still counts as ahead.
	target, ok = nextLightAhead(150, lights)
	assert.True(t, ok)
	assert.Equal(t, route.Point{X: 150}, target)

	_, ok = nextLightAhead(300, lights)
	assert.False(t, ok)
}

func TestRenderStrip(t *testing.T) {
	out := renderStrip(200, 50, []int{148}, detector.Red, 148)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "○", "Light marker should be on the top line")
	assert.Contains(t, lines[1], "▶", "Vehicle marker should be on the bottom line")
	assert.Contains(t, lines[1], "^", "Published stop waypoint should be marked")

	// Without a publication there is no stop marker.
	out = renderStrip(200, 50, []int{148}, detector.Green, detector.NoStop)
	assert.NotContains(t, out, "^")

	// A lost vehicle fix leaves the bottom line empty.
	out = renderStrip(200, route.NoWaypoint, nil, detector.Unknown, detector.NoStop)
	assert.NotContains(t, out, "▶")

	assert.Empty(t, renderStrip(0, 0, nil, detector.Unknown, detector.NoStop))
}
