//go:build integration_test || all_tests

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/gymreps/internal/api"
	"github.com/2beens/gymreps/internal/reps"
	"github.com/2beens/gymreps/internal/sessions/client"
	"github.com/2beens/gymreps/internal/tracking"
)

func (s *IntegrationTestSuite) postJSON(ctx context.Context, path string, body any, target any) int {
	t := s.T()

	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverEndpoint+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(client.TokenHeader, testApiSecret)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if target != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
	}
	return resp.StatusCode
}

func (s *IntegrationTestSuite) TestTracking_SquatsSession() {
	t := s.T()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var started api.StartTrackingResponse
	status := s.postJSON(ctx, "/tracking/sessions", api.StartTrackingRequest{
		Username:  "integration-drago",
		Exercises: []string{reps.LegSquats, reps.PushUps},
	}, &started)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, started.ID)

	// standing (straight leg) and squatting (knee bent to ~63 degrees), left leg only
	standing := reps.FramePayload{Landmarks: reps.LandmarkFrame{
		reps.LeftHip:   {X: 0.5, Y: 0.3},
		reps.LeftKnee:  {X: 0.5, Y: 0.5},
		reps.LeftAnkle: {X: 0.5, Y: 0.7},
	}}
	squatting := reps.FramePayload{Landmarks: reps.LandmarkFrame{
		reps.LeftHip:   {X: 0.3, Y: 0.6},
		reps.LeftKnee:  {X: 0.5, Y: 0.5},
		reps.LeftAnkle: {X: 0.5, Y: 0.7},
	}}

	framesPath := fmt.Sprintf("/tracking/sessions/%s/frames", started.ID)
	var frameResp api.FrameResponse
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, s.postJSON(ctx, framesPath, standing, &frameResp))
		require.Equal(t, http.StatusOK, s.postJSON(ctx, framesPath, squatting, &frameResp))
	}
	require.Equal(t, http.StatusOK, s.postJSON(ctx, framesPath, standing, &frameResp))
	assert.Equal(t, 3, frameResp.Counts[reps.LegSquats].Reps)

	var finished tracking.FinishResult
	require.Equal(t, http.StatusOK, s.postJSON(ctx, fmt.Sprintf("/tracking/sessions/%s/finish", started.ID), nil, &finished))
	assert.True(t, finished.Persisted)
	assert.Equal(t, 3, finished.Summary.Counts[reps.LegSquats].Reps)

	stored, err := client.New(serverEndpoint, "", 5*time.Second).List(ctx, "integration-drago")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, started.ID, stored[0].ID)
	assert.Equal(t, []string{reps.LegSquats, reps.PushUps}, stored[0].Exercises)

	require.Equal(t, http.StatusNotFound, s.postJSON(ctx, framesPath, standing, nil))
}
