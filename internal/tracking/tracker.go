package tracking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/2beens/gymreps/internal/reps"
	"github.com/2beens/gymreps/internal/sessions"
	"github.com/2beens/gymreps/internal/telemetry/metrics"
	"github.com/2beens/gymreps/internal/telemetry/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrSessionNotFound = errors.New("tracking session not found")
	ErrNoExercises     = errors.New("no exercises selected")
)

const (
	finishReasonClient = "client"
	finishReasonIdle   = "idle"
)

// FinishResult carries the final summary of a session and whether it made it to the store.
// The summary is always present, even when persisting it failed.
type FinishResult struct {
	Summary      reps.SessionSummary `json:"summary"`
	Persisted    bool                `json:"persisted"`
	PersistError string              `json:"persistError,omitempty"`
}

type liveSession struct {
	mu          sync.Mutex
	session     *reps.Session
	lastFrameAt time.Time
	// set once the summary is taken, later frames must not count
	finished bool
	// reps already reported to metrics, per exercise
	reported map[string]int
}

// Tracker holds the live tracking sessions fed by a remote pose source.
type Tracker struct {
	store          sessions.Store
	metricsManager *metrics.Manager
	now            func() time.Time
	newID          func() string

	mu       sync.RWMutex
	sessions map[string]*liveSession
}

type Option func(*Tracker)

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(t *Tracker) {
		t.newID = newID
	}
}

func NewTracker(store sessions.Store, metricsManager *metrics.Manager, opts ...Option) *Tracker {
	t := &Tracker{
		store:          store,
		metricsManager: metricsManager,
		now:            time.Now,
		newID:          uuid.NewString,
		sessions:       make(map[string]*liveSession),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start opens a new session and returns it. Unsupported exercises are kept in the
// selection but get no counter.
func (t *Tracker) Start(username string, exercises []string) (*reps.Session, error) {
	username, err := sessions.ValidateUsername(username)
	if err != nil {
		return nil, err
	}
	if len(exercises) == 0 {
		return nil, ErrNoExercises
	}

	session := reps.NewSession(
		username,
		exercises,
		reps.WithID(t.newID()),
		reps.WithClock(t.now),
	)

	t.mu.Lock()
	t.sessions[session.ID()] = &liveSession{
		session:     session,
		lastFrameAt: session.StartedAt(),
		reported:    make(map[string]int),
	}
	active := len(t.sessions)
	t.mu.Unlock()

	t.metricsManager.CounterSessionsStarted.Inc()
	t.metricsManager.GaugeActiveSessions.Set(float64(active))
	log.Debugf("tracking session [%s] started for [%s]: %v", session.ID(), username, exercises)

	return session, nil
}

func (t *Tracker) get(id string) (*liveSession, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	live, ok := t.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return live, nil
}

// ProcessFrame feeds one frame to the session and returns its live counts.
// A nil frame means no pose was detected.
func (t *Tracker) ProcessFrame(id string, frame *reps.LandmarkFrame) (map[string]reps.Count, error) {
	live, err := t.get(id)
	if err != nil {
		return nil, err
	}
	return t.processFrame(live, frame)
}

func (t *Tracker) processFrame(live *liveSession, frame *reps.LandmarkFrame) (map[string]reps.Count, error) {
	live.mu.Lock()
	defer live.mu.Unlock()

	// finished between the lookup and the lock
	if live.finished {
		return nil, ErrSessionNotFound
	}

	t.metricsManager.CounterFrames.Inc()
	if !live.session.ProcessFrame(frame) {
		t.metricsManager.CounterFramesWithoutPose.Inc()
	}
	live.lastFrameAt = t.now()

	counts := live.session.Counts()
	for exercise, count := range counts {
		if added := count.Reps - live.reported[exercise]; added > 0 {
			t.metricsManager.CounterReps.WithLabelValues(exercise).Add(float64(added))
			live.reported[exercise] = count.Reps
		}
	}

	return counts, nil
}

// Finish closes the session, stores its summary and returns it. A store failure is
// reported in the result; the session is gone either way.
func (t *Tracker) Finish(ctx context.Context, id string) (*FinishResult, error) {
	live, err := t.remove(id)
	if err != nil {
		return nil, err
	}
	return t.finish(ctx, live, finishReasonClient), nil
}

func (t *Tracker) remove(id string) (*liveSession, error) {
	t.mu.Lock()
	live, ok := t.sessions[id]
	if !ok {
		t.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	delete(t.sessions, id)
	active := len(t.sessions)
	t.mu.Unlock()

	t.metricsManager.GaugeActiveSessions.Set(float64(active))
	return live, nil
}

func (t *Tracker) finish(ctx context.Context, live *liveSession, reason string) *FinishResult {
	ctx, span := tracing.GlobalTracer.Start(ctx, "tracking.finish")
	defer span.End()

	// waits for a frame still being processed
	live.mu.Lock()
	live.finished = true
	summary := live.session.Finalize()
	live.mu.Unlock()

	span.SetAttributes(
		attribute.String("session", summary.ID),
		attribute.String("reason", reason),
		attribute.Int("reps", summary.TotalReps()),
	)

	t.metricsManager.CounterSessionsFinished.WithLabelValues(reason).Inc()
	t.metricsManager.HistogramSessionDuration.Observe(float64(summary.DurationSeconds))

	result := &FinishResult{Summary: summary}
	if err := t.store.Append(ctx, summary.Username, summary); err != nil {
		t.metricsManager.CounterPersistenceFailures.Inc()
		log.Errorf("tracking session [%s]: store summary for [%s]: %s", summary.ID, summary.Username, err)
		span.RecordError(err)
		result.PersistError = err.Error()
		return result
	}

	t.metricsManager.CounterSummariesStored.Inc()
	result.Persisted = true
	log.Debugf("tracking session [%s] finished (%s): %s, %d reps", summary.ID, reason, summary.Duration, summary.TotalReps())
	return result
}

// SweepIdle finishes every session that got no frame for longer than maxIdle,
// storing their summaries like a regular finish would.
func (t *Tracker) SweepIdle(ctx context.Context, maxIdle time.Duration) []*FinishResult {
	now := t.now()

	t.mu.RLock()
	var idle []string
	for id, live := range t.sessions {
		live.mu.Lock()
		if now.Sub(live.lastFrameAt) > maxIdle {
			idle = append(idle, id)
		}
		live.mu.Unlock()
	}
	t.mu.RUnlock()

	results := make([]*FinishResult, 0, len(idle))
	for _, id := range idle {
		live, err := t.remove(id)
		if err != nil {
			// finished by its client in the meantime
			continue
		}
		results = append(results, t.finish(ctx, live, finishReasonIdle))
	}

	if len(results) > 0 {
		log.Infof("idle sweep: finished %d tracking sessions", len(results))
	}
	return results
}

// Active returns the number of live sessions.
func (t *Tracker) Active() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

// FinishAll stores every live session, used on shutdown so no counted work is lost.
func (t *Tracker) FinishAll(ctx context.Context) []*FinishResult {
	t.mu.RLock()
	ids := make([]string, 0, len(t.sessions))
	for id := range t.sessions {
		ids = append(ids, id)
	}
	t.mu.RUnlock()

	results := make([]*FinishResult, 0, len(ids))
	for _, id := range ids {
		live, err := t.remove(id)
		if err != nil {
			continue
		}
		results = append(results, t.finish(ctx, live, "shutdown"))
	}
	return results
}
