package detector

import (
	"github.com/fido2478/udacity-sdc-nd/route"
)

// Candidate is the light the vehicle should care about next, together with
// the path index of the stop line in front of its intersection.
type Candidate struct {
	Light     Light
	StopIndex int
}

// NextRelevantLight finds the closest light ahead of the vehicle, measured in
// path indices rather than raw distance. Each light is first associated with
// its intersection's stop line (nearest stop line in 2D), the stop line is
// resolved to a path index, and among all lights whose stop index is at or
// ahead of vehicleIndex the smallest stop index wins. The selected light must
// additionally resolve closer than visibilityRadius indices ahead, otherwise
// it is not yet actionable.
//
// The function is a pure query over the given snapshots; it mutates nothing.
func NextRelevantLight(vehicleIndex int, index route.Index, lights []Light, stopLines []route.Point, visibilityRadius int) (Candidate, bool) {
	if vehicleIndex == route.NoWaypoint || index == nil || index.Len() == 0 {
		return Candidate{}, false
	}

	found := false
	var best Candidate
	for _, light := range lights {
		stop, ok := nearestStopLine(light, stopLines)
		if !ok {
			continue
		}
		stopIdx := index.Nearest(stop)
		if stopIdx == route.NoWaypoint || stopIdx < vehicleIndex {
			continue
		}
		if !found || stopIdx < best.StopIndex {
			found = true
			best = Candidate{Light: light, StopIndex: stopIdx}
		}
	}
	if !found {
		return Candidate{}, false
	}
	if best.StopIndex-vehicleIndex >= visibilityRadius {
		return Candidate{}, false
	}
	return best, true
}

// nearestStopLine returns the stop line closest to the light in 2D.
func nearestStopLine(light Light, stopLines []route.Point) (route.Point, bool) {
	if len(stopLines) == 0 {
		return route.Point{}, false
	}
	lp := light.Point()
	best := stopLines[0]
	bestDist := sqDist(lp, best)
	for _, sl := range stopLines[1:] {
		if d := sqDist(lp, sl); d < bestDist {
			best = sl
			bestDist = d
		}
	}
	return best, true
}

func sqDist(a, b route.Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}
