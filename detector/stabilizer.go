package detector

// NoStop is published when no red light is currently confirmed actionable.
const NoStop = -1

// Phase tags the stabilizer state machine.
type Phase int

const (
	// PhaseIdle: no classification observed yet.
	PhaseIdle Phase = iota
	// PhaseObserving: a raw colour has been seen, but not often enough in a
	// row to be trusted.
	PhaseObserving
	// PhaseConfirmed: the observed colour reached the debounce threshold and
	// drives the published output.
	PhaseConfirmed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseObserving:
		return "observing"
	case PhaseConfirmed:
		return "confirmed"
	default:
		return "invalid"
	}
}

// StabilizerState is the full, explicit state of the debounce machine.
// Observed/Run track the current raw streak; Confirmed is the colour the
// output currently trusts; LastPublished is republished while a new streak is
// still below threshold.
type StabilizerState struct {
	Phase         Phase
	Observed      Color
	Run           int
	Confirmed     Color
	LastPublished int
}

// initialState starts idle with nothing confirmed and -1 as the value to
// republish until the first promotion.
func initialState() StabilizerState {
	return StabilizerState{
		Phase:         PhaseIdle,
		Observed:      Unknown,
		Confirmed:     Unknown,
		LastPublished: NoStop,
	}
}

// step is the pure transition function. It feeds one raw classification and
// the candidate stop index into the state and returns the successor state
// plus the value to publish for this pass.
//
// A colour must be observed threshold times in a row before it is promoted;
// until then the previously published value is repeated, so a single
// misclassified frame can never flip the output. Once promoted, the machine
// stays confirmed while the same colour keeps arriving, republishing the
// (possibly advancing) stop index for red and NoStop otherwise.
func step(st StabilizerState, threshold int, raw Color, stopIndex int) (StabilizerState, int) {
	if st.Phase == PhaseIdle || raw != st.Observed {
		st.Phase = PhaseObserving
		st.Observed = raw
		st.Run = 1
	} else {
		st.Run++
	}

	if st.Run >= threshold {
		st.Phase = PhaseConfirmed
		st.Confirmed = st.Observed
		out := NoStop
		if st.Confirmed == Red {
			out = stopIndex
		}
		st.LastPublished = out
		return st, out
	}
	return st, st.LastPublished
}

// Stabilizer wraps the pure transition function with the configured
// threshold and the persistent state. It is not safe for concurrent use; the
// pipeline driver serializes passes.
type Stabilizer struct {
	threshold int
	state     StabilizerState
}

// NewStabilizer creates a stabilizer requiring threshold consecutive
// identical classifications before a state change affects the output.
// Thresholds below one behave as one (every reading is trusted immediately).
func NewStabilizer(threshold int) *Stabilizer {
	if threshold < 1 {
		threshold = 1
	}
	return &Stabilizer{
		threshold: threshold,
		state:     initialState(),
	}
}

// Step feeds one pipeline pass and returns the value to publish.
func (s *Stabilizer) Step(raw Color, stopIndex int) int {
	next, out := step(s.state, s.threshold, raw, stopIndex)
	s.state = next
	return out
}

// State returns a copy of the current machine state, mainly for the
// simulation dashboard and for tests.
func (s *Stabilizer) State() StabilizerState {
	return s.state
}

// SetThreshold adjusts the debounce threshold at runtime. The current streak
// is kept; promotion happens as soon as the streak satisfies the new value.
func (s *Stabilizer) SetThreshold(threshold int) {
	if threshold < 1 {
		threshold = 1
	}
	s.threshold = threshold
}
