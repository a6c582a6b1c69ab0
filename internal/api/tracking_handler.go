package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/2beens/gymreps/internal/reps"
	"github.com/2beens/gymreps/internal/sessions"
	"github.com/2beens/gymreps/internal/telemetry/tracing"
	"github.com/2beens/gymreps/internal/tracking"
	"github.com/2beens/gymreps/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=tracking_handler_mocks_test.go -package=api_test

// a frame carries at most 33 points, anything bigger is not a frame
const maxFrameBytes = 64 << 10

type sessionTracker interface {
	Start(username string, exercises []string) (*reps.Session, error)
	ProcessFrame(id string, frame *reps.LandmarkFrame) (map[string]reps.Count, error)
	Finish(ctx context.Context, id string) (*tracking.FinishResult, error)
}

type StartTrackingRequest struct {
	Username  string   `json:"username"`
	Exercises []string `json:"exercises"`
}

type StartTrackingResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Exercises []string  `json:"exercises"`
	StartedAt time.Time `json:"startedAt"`
}

type FrameResponse struct {
	Counts map[string]reps.Count `json:"counts"`
}

// TrackingHandler drives live sessions from frames posted by a remote pose source.
type TrackingHandler struct {
	tracker sessionTracker
}

func NewTrackingHandler(tracker sessionTracker) *TrackingHandler {
	return &TrackingHandler{
		tracker: tracker,
	}
}

func (handler *TrackingHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.tracking.start")
	defer span.End()

	if !isJSON(r) {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req StartTrackingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("start tracking, unmarshal json params: %s", err)
		http.Error(w, "start tracking failed, invalid body", http.StatusBadRequest)
		return
	}

	session, err := handler.tracker.Start(req.Username, req.Exercises)
	switch {
	case errors.Is(err, sessions.ErrEmptyUsername):
		http.Error(w, "error, username empty", http.StatusBadRequest)
		return
	case errors.Is(err, tracking.ErrNoExercises):
		http.Error(w, "error, no exercises selected", http.StatusBadRequest)
		return
	case err != nil:
		log.Errorf("failed to start tracking session for [%s]: %s", req.Username, err)
		http.Error(w, "error, failed to start tracking", http.StatusInternalServerError)
		return
	}
	span.SetAttributes(attribute.String("session", session.ID()))

	respJson, err := json.Marshal(StartTrackingResponse{
		ID:        session.ID(),
		Username:  session.Username(),
		Exercises: session.Exercises(),
		StartedAt: session.StartedAt(),
	})
	if err != nil {
		log.Errorf("failed to marshal start tracking response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusCreated)
}

// HandleFrame takes one landmark frame; a JSON null body is a frame without a pose.
func (handler *TrackingHandler) HandleFrame(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.tracking.frame")
	defer span.End()

	id := mux.Vars(r)["id"]
	span.SetAttributes(attribute.String("session", id))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFrameBytes))
	if err != nil {
		http.Error(w, "error, frame too large", http.StatusRequestEntityTooLarge)
		return
	}

	frame, err := reps.DecodeFrame(body)
	if err != nil {
		log.Tracef("tracking session [%s]: %s", id, err)
		http.Error(w, "error, invalid frame", http.StatusBadRequest)
		return
	}

	counts, err := handler.tracker.ProcessFrame(id, frame)
	if errors.Is(err, tracking.ErrSessionNotFound) {
		http.Error(w, "error, tracking session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("tracking session [%s], process frame: %s", id, err)
		http.Error(w, "error, failed to process frame", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(FrameResponse{Counts: counts})
	if err != nil {
		log.Errorf("failed to marshal frame response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

// HandleFinish ends the session and returns its summary, stored or not.
func (handler *TrackingHandler) HandleFinish(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.tracking.finish")
	defer span.End()

	id := mux.Vars(r)["id"]
	span.SetAttributes(attribute.String("session", id))

	result, err := handler.tracker.Finish(ctx, id)
	if errors.Is(err, tracking.ErrSessionNotFound) {
		http.Error(w, "error, tracking session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("tracking session [%s], finish: %s", id, err)
		http.Error(w, "error, failed to finish tracking", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(result)
	if err != nil {
		log.Errorf("failed to marshal finish response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}
