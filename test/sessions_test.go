//go:build integration_test || all_tests

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/gymreps/internal/reps"
	"github.com/2beens/gymreps/internal/sessions"
	"github.com/2beens/gymreps/internal/sessions/client"
)

func testSummary(username string, squats int) reps.SessionSummary {
	startedAt := time.Date(2025, 5, 10, 18, 0, 0, 0, time.UTC)
	return reps.SessionSummary{
		ID:              username + "-session",
		Username:        username,
		StartedAt:       startedAt,
		FinishedAt:      startedAt.Add(65 * time.Second),
		Duration:        "1 min 5 sec",
		DurationSeconds: 65,
		Exercises:       []string{reps.LegSquats},
		Counts:          map[string]reps.Count{reps.LegSquats: {Reps: squats}},
	}
}

func (s *IntegrationTestSuite) TestSessions_SaveAndList() {
	t := s.T()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	apiClient := client.New(serverEndpoint, testApiSecret, 5*time.Second)

	list, err := apiClient.List(ctx, "integration-ana")
	require.NoError(t, err)
	assert.Empty(t, list)

	resp, err := apiClient.Save(ctx, "integration-ana", testSummary("integration-ana", 10))
	require.NoError(t, err)
	assert.Equal(t, "Session saved for integration-ana.", resp.Message)
	require.NoError(t, apiClient.Append(ctx, "integration-ana", testSummary("integration-ana", 20)))

	// the first List is cached, the appends must have dropped it
	list, err = apiClient.List(ctx, "integration-ana")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 10, list[0].Counts[reps.LegSquats].Reps)
	assert.Equal(t, 20, list[1].Counts[reps.LegSquats].Reps)

	var rows int
	require.NoError(t, s.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM rep_session WHERE username = $1", "integration-ana",
	).Scan(&rows))
	assert.Equal(t, 2, rows)
}

func (s *IntegrationTestSuite) TestSessions_Unauthorized() {
	t := s.T()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	apiClient := client.New(serverEndpoint, "wrong-secret", 5*time.Second)
	err := apiClient.Append(ctx, "integration-mallory", testSummary("integration-mallory", 1))
	var statusErr *client.StatusError
	require.True(t, errors.As(err, &statusErr), "got %v", err)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func (s *IntegrationTestSuite) TestSessions_StartSessionRateLimited() {
	t := s.T()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	body, err := json.Marshal(sessions.SaveRequest{
		Username: "integration-spammer",
		Summary:  testSummary("integration-spammer", 1),
	})
	require.NoError(t, err)

	statuses := map[int]int{}
	for i := 0; i < 10; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverEndpoint+"/start_session", bytes.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(client.TokenHeader, testApiSecret)
		// a distinct client ip, so other tests keep their budget
		req.Header.Set("X-Real-Ip", "10.0.0.42")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		statuses[resp.StatusCode]++
	}

	assert.Equal(t, 5, statuses[http.StatusCreated])
	assert.Equal(t, 5, statuses[http.StatusTooManyRequests])
}
