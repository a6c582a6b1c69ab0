package reps

// SideMargin is the dead-zone (normalized units) around the reference points
// inside which the moving point is classified as center.
const SideMargin = 0.02

type Side int

const (
	SideUnset Side = iota
	SideLeft
	SideCenter
	SideRight
)

func (s Side) String() string {
	switch s {
	case SideUnset:
		return "unset"
	case SideLeft:
		return "left"
	case SideCenter:
		return "center"
	case SideRight:
		return "right"
	default:
		return "unknown"
	}
}

func (s Side) isLateral() bool {
	return s == SideLeft || s == SideRight
}

// ClassifySide places movingX relative to the two reference x coordinates.
func ClassifySide(leftRefX, rightRefX, movingX float64) Side {
	switch {
	case movingX < leftRefX-SideMargin:
		return SideLeft
	case movingX > rightRefX+SideMargin:
		return SideRight
	default:
		return SideCenter
	}
}

// DirectionalCounter counts direct left <-> right alternations of a moving point
// (e.g. the nose between the ears during neck rotations).
//
// The previous side is overwritten on every update, center included, so a
// left -> center -> right sequence is not counted. Known undercount, kept until
// product decides whether it is wanted debounce.
type DirectionalCounter struct {
	reps     int
	previous Side
}

func NewDirectionalCounter() *DirectionalCounter {
	return &DirectionalCounter{}
}

func (c *DirectionalCounter) Update(leftRefX, rightRefX, movingX float64) {
	c.UpdateSide(ClassifySide(leftRefX, rightRefX, movingX))
}

// UpdateSide applies an already classified side.
func (c *DirectionalCounter) UpdateSide(current Side) {
	if current != c.previous && current.isLateral() && c.previous.isLateral() {
		c.reps++
	}
	c.previous = current
}

func (c *DirectionalCounter) Reps() int {
	return c.reps
}

func (c *DirectionalCounter) PreviousSide() Side {
	return c.previous
}
