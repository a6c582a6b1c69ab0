package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/2beens/gymreps/internal/api"
	"github.com/2beens/gymreps/internal/reps"
	"github.com/2beens/gymreps/internal/sessions"
	"github.com/2beens/gymreps/internal/tracking"
)

func TestTrackingHandler_HandleStart(t *testing.T) {
	ctrl := gomock.NewController(t)
	trackerMock := NewMocksessionTracker(ctrl)
	h := api.NewTrackingHandler(trackerMock)

	startedAt := time.Date(2025, 6, 1, 7, 30, 0, 0, time.UTC)
	exercises := []string{reps.LegSquats, reps.NeckRotations}
	session := reps.NewSession("ana", exercises,
		reps.WithID("abc"),
		reps.WithClock(func() time.Time { return startedAt }),
	)
	trackerMock.EXPECT().Start("ana", exercises).Return(session, nil).Times(1)

	rec := httptest.NewRecorder()
	h.HandleStart(rec, newJSONRequest(t, http.MethodPost, api.StartTrackingRequest{
		Username:  "ana",
		Exercises: exercises,
	}))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp api.StartTrackingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "abc", resp.ID)
	assert.Equal(t, "ana", resp.Username)
	assert.Equal(t, exercises, resp.Exercises)
	assert.True(t, startedAt.Equal(resp.StartedAt))
}

func TestTrackingHandler_HandleStart_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	trackerMock := NewMocksessionTracker(ctrl)
	h := api.NewTrackingHandler(trackerMock)

	trackerMock.EXPECT().Start("", gomock.Any()).Return(nil, sessions.ErrEmptyUsername).Times(1)
	rec := httptest.NewRecorder()
	h.HandleStart(rec, newJSONRequest(t, http.MethodPost, api.StartTrackingRequest{
		Exercises: []string{reps.LegSquats},
	}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	trackerMock.EXPECT().Start("ana", gomock.Any()).Return(nil, tracking.ErrNoExercises).Times(1)
	rec = httptest.NewRecorder()
	h.HandleStart(rec, newJSONRequest(t, http.MethodPost, api.StartTrackingRequest{
		Username: "ana",
	}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTrackingHandler_HandleFrame(t *testing.T) {
	ctrl := gomock.NewController(t)
	trackerMock := NewMocksessionTracker(ctrl)
	h := api.NewTrackingHandler(trackerMock)

	trackerMock.EXPECT().
		ProcessFrame("abc", gomock.Any()).
		DoAndReturn(func(id string, frame *reps.LandmarkFrame) (map[string]reps.Count, error) {
			require.NotNil(t, frame)
			assert.Equal(t, 0.5, (*frame)[reps.Nose].X)
			assert.Equal(t, 0.4, (*frame)[reps.LeftEar].X)
			return map[string]reps.Count{reps.NeckRotations: {Reps: 4}}, nil
		}).Times(1)

	rec := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodPost, "", bytes.NewReader([]byte(
		`{"landmarks": {"nose": {"x": 0.5, "y": 0.1}, "left_ear": {"x": 0.4, "y": 0.1}}}`,
	)))
	require.NoError(t, err)
	req = mux.SetURLVars(req, map[string]string{"id": "abc"})
	h.HandleFrame(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"counts":{"Neck Rotations":{"reps":4}}}`, rec.Body.String())
}

func TestTrackingHandler_HandleFrame_NoPose(t *testing.T) {
	ctrl := gomock.NewController(t)
	trackerMock := NewMocksessionTracker(ctrl)
	h := api.NewTrackingHandler(trackerMock)

	trackerMock.EXPECT().
		ProcessFrame("abc", (*reps.LandmarkFrame)(nil)).
		Return(map[string]reps.Count{reps.LegSquats: {Reps: 1}}, nil).Times(1)

	rec := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodPost, "", bytes.NewReader([]byte(`null`)))
	require.NoError(t, err)
	req = mux.SetURLVars(req, map[string]string{"id": "abc"})
	h.HandleFrame(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTrackingHandler_HandleFrame_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	trackerMock := NewMocksessionTracker(ctrl)
	h := api.NewTrackingHandler(trackerMock)

	// invalid frame never reaches the tracker
	rec := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodPost, "", bytes.NewReader([]byte(`{"landmarks": {"tail": {"x": 1}}}`)))
	require.NoError(t, err)
	req = mux.SetURLVars(req, map[string]string{"id": "abc"})
	h.HandleFrame(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	trackerMock.EXPECT().ProcessFrame("gone", gomock.Any()).Return(nil, tracking.ErrSessionNotFound).Times(1)
	rec = httptest.NewRecorder()
	req, err = http.NewRequest(http.MethodPost, "", bytes.NewReader([]byte(`null`)))
	require.NoError(t, err)
	req = mux.SetURLVars(req, map[string]string{"id": "gone"})
	h.HandleFrame(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrackingHandler_HandleFinish(t *testing.T) {
	ctrl := gomock.NewController(t)
	trackerMock := NewMocksessionTracker(ctrl)
	h := api.NewTrackingHandler(trackerMock)

	result := &tracking.FinishResult{
		Summary: reps.SessionSummary{
			ID:       "abc",
			Username: "ana",
			Duration: "0 min 42 sec",
			Counts:   map[string]reps.Count{reps.LegSquats: {Reps: 6}},
		},
		Persisted:    false,
		PersistError: "db down",
	}
	trackerMock.EXPECT().Finish(gomock.Any(), "abc").Return(result, nil).Times(1)
	trackerMock.EXPECT().Finish(gomock.Any(), "gone").Return(nil, tracking.ErrSessionNotFound).Times(1)

	rec := httptest.NewRecorder()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, "", nil)
	require.NoError(t, err)
	h.HandleFinish(rec, mux.SetURLVars(req, map[string]string{"id": "abc"}))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp tracking.FinishResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Persisted)
	assert.Equal(t, "db down", resp.PersistError)
	assert.Equal(t, "0 min 42 sec", resp.Summary.Duration)
	assert.Equal(t, 6, resp.Summary.Counts[reps.LegSquats].Reps)

	rec = httptest.NewRecorder()
	h.HandleFinish(rec, mux.SetURLVars(req, map[string]string{"id": "gone"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
