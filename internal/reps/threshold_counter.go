package reps

// Phase is the position of a threshold counter within one repetition.
// PhaseDown means the joint was last seen extended (angle above the up threshold),
// PhaseUp means it then closed below the down threshold and the rep was counted.
type Phase int

const (
	PhaseUnset Phase = iota
	PhaseDown
	PhaseUp
)

func (p Phase) String() string {
	switch p {
	case PhaseUnset:
		return "unset"
	case PhaseDown:
		return "down"
	case PhaseUp:
		return "up"
	default:
		return "unknown"
	}
}

// ThresholdCounter counts extended -> contracted cycles of a single joint angle.
type ThresholdCounter struct {
	reps  int
	phase Phase
}

func NewThresholdCounter() *ThresholdCounter {
	return &ThresholdCounter{}
}

// Update feeds one angle observation. A rep is counted only on the down -> up transition,
// so readings between the two thresholds never change the phase.
func (c *ThresholdCounter) Update(angle, upThreshold, downThreshold float64) {
	if angle > upThreshold {
		c.phase = PhaseDown
	}
	if angle < downThreshold && c.phase == PhaseDown {
		c.phase = PhaseUp
		c.reps++
	}
}

func (c *ThresholdCounter) Reps() int {
	return c.reps
}

func (c *ThresholdCounter) Phase() Phase {
	return c.phase
}
