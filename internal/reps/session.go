package reps

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// exerciseTracker binds one exercise to its counter(s) and the landmarks they need.
type exerciseTracker interface {
	name() string
	update(frame LandmarkFrame)
	count() Count
}

type thresholdTracker struct {
	exercise      string
	joint         [3]Landmark
	upThreshold   float64
	downThreshold float64
	counter       *ThresholdCounter
}

func (t *thresholdTracker) name() string { return t.exercise }

func (t *thresholdTracker) update(frame LandmarkFrame) {
	updateThreshold(frame, t.joint, t.upThreshold, t.downThreshold, t.counter)
}

func (t *thresholdTracker) count() Count {
	return Count{Reps: t.counter.Reps()}
}

// sidedThresholdTracker counts the same joint on both sides independently.
// A side whose landmarks are missing in a frame is skipped, the other one still counts.
type sidedThresholdTracker struct {
	exercise      string
	leftJoint     [3]Landmark
	rightJoint    [3]Landmark
	upThreshold   float64
	downThreshold float64
	left          *ThresholdCounter
	right         *ThresholdCounter
}

func (t *sidedThresholdTracker) name() string { return t.exercise }

func (t *sidedThresholdTracker) update(frame LandmarkFrame) {
	updateThreshold(frame, t.leftJoint, t.upThreshold, t.downThreshold, t.left)
	updateThreshold(frame, t.rightJoint, t.upThreshold, t.downThreshold, t.right)
}

func (t *sidedThresholdTracker) count() Count {
	left, right := t.left.Reps(), t.right.Reps()
	return Count{
		Reps:  left + right,
		Sides: &SidedCount{Left: left, Right: right},
	}
}

type directionalTracker struct {
	exercise string
	leftRef  Landmark
	rightRef Landmark
	moving   Landmark
	counter  *DirectionalCounter
}

func (t *directionalTracker) name() string { return t.exercise }

func (t *directionalTracker) update(frame LandmarkFrame) {
	points, ok := frame.Lookup(t.leftRef, t.rightRef, t.moving)
	if !ok {
		return
	}
	t.counter.Update(points[0].X, points[1].X, points[2].X)
}

func (t *directionalTracker) count() Count {
	return Count{Reps: t.counter.Reps()}
}

func updateThreshold(frame LandmarkFrame, joint [3]Landmark, up, down float64, counter *ThresholdCounter) {
	points, ok := frame.Lookup(joint[0], joint[1], joint[2])
	if !ok {
		return
	}
	counter.Update(AngleBetween(points[0], points[1], points[2]), up, down)
}

func newExerciseTracker(exercise string) exerciseTracker {
	switch exercise {
	case LegSquats:
		return &thresholdTracker{
			exercise:      LegSquats,
			joint:         [3]Landmark{LeftHip, LeftKnee, LeftAnkle},
			upThreshold:   LegUpThreshold,
			downThreshold: LegDownThreshold,
			counter:       NewThresholdCounter(),
		}
	case BicepsCurls:
		return &sidedThresholdTracker{
			exercise:      BicepsCurls,
			leftJoint:     [3]Landmark{LeftShoulder, LeftElbow, LeftWrist},
			rightJoint:    [3]Landmark{RightShoulder, RightElbow, RightWrist},
			upThreshold:   BicepUpThreshold,
			downThreshold: BicepDownThreshold,
			left:          NewThresholdCounter(),
			right:         NewThresholdCounter(),
		}
	case NeckRotations:
		return &directionalTracker{
			exercise: NeckRotations,
			leftRef:  LeftEar,
			rightRef: RightEar,
			moving:   Nose,
			counter:  NewDirectionalCounter(),
		}
	default:
		return nil
	}
}

type SessionOption func(*Session)

// WithClock replaces time.Now, used for the session start and duration.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		s.now = now
	}
}

func WithID(id string) SessionOption {
	return func(s *Session) {
		s.id = id
	}
}

// Session owns the counters of one tracking session and feeds them frame by frame.
// It is not safe for concurrent use; frames must be processed one at a time.
type Session struct {
	id        string
	username  string
	exercises []string
	trackers  []exerciseTracker
	now       func() time.Time
	startedAt time.Time

	frames         int
	detectedFrames int
}

func NewSession(username string, exercises []string, opts ...SessionOption) *Session {
	s := &Session{
		username: username,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	seen := map[string]bool{}
	for _, e := range exercises {
		if seen[e] {
			continue
		}
		seen[e] = true
		s.exercises = append(s.exercises, e)

		tracker := newExerciseTracker(e)
		if tracker == nil {
			log.Debugf("session [%s]: exercise [%s] has no counter, ignoring", s.id, e)
			continue
		}
		s.trackers = append(s.trackers, tracker)
	}

	s.startedAt = s.now()
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Username() string {
	return s.username
}

// Exercises returns the selection the session was created with, unsupported ones included.
func (s *Session) Exercises() []string {
	return append([]string(nil), s.exercises...)
}

func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// ProcessFrame updates every active counter from one frame. A nil frame means no pose
// was detected; counters keep their state. Returns whether a pose was present.
func (s *Session) ProcessFrame(frame *LandmarkFrame) bool {
	s.frames++
	if frame == nil || len(*frame) == 0 {
		return false
	}
	s.detectedFrames++
	for _, t := range s.trackers {
		t.update(*frame)
	}
	return true
}

// Frames returns the number of processed frames and how many of them had a pose.
func (s *Session) Frames() (total, detected int) {
	return s.frames, s.detectedFrames
}

// Counts snapshots the current repetitions of the counted exercises.
func (s *Session) Counts() map[string]Count {
	counts := make(map[string]Count, len(s.trackers))
	for _, t := range s.trackers {
		counts[t.name()] = t.count()
	}
	return counts
}

// Finalize builds the summary of the session so far. It can be called at any time,
// more than once, and does not need further frames.
func (s *Session) Finalize() SessionSummary {
	finishedAt := s.now()
	elapsed := finishedAt.Sub(s.startedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	return SessionSummary{
		ID:              s.id,
		Username:        s.username,
		StartedAt:       s.startedAt,
		FinishedAt:      finishedAt,
		Duration:        FormatDuration(elapsed),
		DurationSeconds: int(elapsed / time.Second),
		Exercises:       s.Exercises(),
		Counts:          s.Counts(),
	}
}
