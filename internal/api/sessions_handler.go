package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/2beens/gymreps/internal/reps"
	"github.com/2beens/gymreps/internal/sessions"
	"github.com/2beens/gymreps/internal/telemetry/metrics"
	"github.com/2beens/gymreps/internal/telemetry/tracing"
	"github.com/2beens/gymreps/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=$GOFILE -destination=sessions_handler_mocks_test.go -package=api_test

type summaryStore interface {
	Append(ctx context.Context, username string, summary reps.SessionSummary) error
	List(ctx context.Context, username string) ([]reps.SessionSummary, error)
}

// SessionsHandler serves the persisted session summaries.
type SessionsHandler struct {
	store          summaryStore
	metricsManager *metrics.Manager
}

func NewSessionsHandler(store summaryStore, metricsManager *metrics.Manager) *SessionsHandler {
	return &SessionsHandler{
		store:          store,
		metricsManager: metricsManager,
	}
}

// HandleSave appends a finished session summary for the user: POST /start_session.
func (handler *SessionsHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.save")
	defer span.End()

	if !isJSON(r) {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req sessions.SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("save session, unmarshal json params: %s", err)
		http.Error(w, "save session failed, invalid body", http.StatusBadRequest)
		return
	}

	username, err := sessions.ValidateUsername(req.Username)
	if err != nil {
		http.Error(w, "error, username empty", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("username", username))

	if err := sessions.ValidateSummary(req.Summary); err != nil {
		log.Tracef("save session for [%s]: %s", username, err)
		http.Error(w, fmt.Sprintf("save session failed, %s", err), http.StatusBadRequest)
		return
	}

	summary := req.Summary
	if summary.Username == "" {
		summary.Username = username
	}
	if summary.Counts == nil {
		summary.Counts = map[string]reps.Count{}
	}

	if err := handler.store.Append(ctx, username, summary); err != nil {
		handler.metricsManager.CounterPersistenceFailures.Inc()
		log.Errorf("failed to save session for [%s]: %s", username, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "store-append-failed")
		http.Error(w, "error, failed to save session", http.StatusInternalServerError)
		return
	}
	handler.metricsManager.CounterSummariesStored.Inc()

	respJson, err := json.Marshal(sessions.SaveResponse{
		Message: fmt.Sprintf("Session saved for %s.", username),
		Summary: summary,
	})
	if err != nil {
		log.Errorf("failed to marshal save session response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	log.Debugf("session saved for [%s]: %s, %d reps", username, summary.Duration, summary.TotalReps())
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusCreated)
}

// HandleList returns all stored summaries of a user, oldest first: GET /user_sessions/{username}.
func (handler *SessionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sessions.list")
	defer span.End()

	username, err := sessions.ValidateUsername(mux.Vars(r)["username"])
	if err != nil {
		http.Error(w, "error, username empty", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("username", username))

	list, err := handler.store.List(ctx, username)
	if err != nil {
		if errors.Is(err, sessions.ErrEmptyUsername) {
			http.Error(w, "error, username empty", http.StatusBadRequest)
			return
		}
		log.Errorf("failed to list sessions for [%s]: %s", username, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "store-list-failed")
		http.Error(w, "error, failed to get sessions", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []reps.SessionSummary{}
	}

	respJson, err := json.Marshal(sessions.ListResponse{
		Username: username,
		Sessions: list,
	})
	if err != nil {
		log.Errorf("failed to marshal sessions of [%s]: %s", username, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), pkg.ContentType.JSON)
}
