// Package detector implements the traffic-light decision pipeline: locating
// the vehicle on the path, picking the next relevant light ahead, projecting
// it into the camera image, classifying the crop and debouncing the result
// into a stable stop-waypoint output.
package detector

// Color is the discrete traffic-light state. The numeric values follow the
// simulator's wire encoding, where 4 doubles as "no evidence".
type Color int

const (
	Red     Color = 0
	Yellow  Color = 1
	Green   Color = 2
	Unknown Color = 4
)

func (c Color) String() string {
	switch c {
	case Red:
		return "RED"
	case Yellow:
		return "YELLOW"
	case Green:
		return "GREEN"
	case Unknown:
		return "UNKNOWN"
	default:
		return "INVALID"
	}
}

// Valid reports whether c is one of the four defined states.
func (c Color) Valid() bool {
	switch c {
	case Red, Yellow, Green, Unknown:
		return true
	}
	return false
}
