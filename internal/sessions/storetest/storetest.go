// Package storetest holds the behavior every sessions.Store backend must share.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/gymreps/internal/reps"
	"github.com/2beens/gymreps/internal/sessions"
)

// NewSummary returns a finalized summary with fake, but valid, content.
func NewSummary(username string, squats int) reps.SessionSummary {
	startedAt := gofakeit.DateRange(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	).UTC().Truncate(time.Second)
	elapsed := time.Duration(gofakeit.Number(10, 3600)) * time.Second
	return reps.SessionSummary{
		ID:              gofakeit.UUID(),
		Username:        username,
		StartedAt:       startedAt,
		FinishedAt:      startedAt.Add(elapsed),
		Duration:        reps.FormatDuration(elapsed),
		DurationSeconds: int(elapsed / time.Second),
		Exercises:       []string{reps.LegSquats, reps.BicepsCurls},
		Counts: map[string]reps.Count{
			reps.LegSquats: {Reps: squats},
			reps.BicepsCurls: {
				Reps:  3,
				Sides: &reps.SidedCount{Left: 1, Right: 2},
			},
		},
	}
}

// Run executes the shared store behavior tests against stores built by newStore.
// Each call to newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) sessions.Store) {
	t.Run("append keeps order", func(t *testing.T) {
		testAppendKeepsOrder(t, newStore(t))
	})
	t.Run("unknown username", func(t *testing.T) {
		testUnknownUsername(t, newStore(t))
	})
	t.Run("empty username", func(t *testing.T) {
		testEmptyUsername(t, newStore(t))
	})
	t.Run("users are separated", func(t *testing.T) {
		testUsersSeparated(t, newStore(t))
	})
	t.Run("concurrent appends", func(t *testing.T) {
		testConcurrentAppends(t, newStore(t))
	})
}

func testAppendKeepsOrder(t *testing.T, store sessions.Store) {
	ctx := context.Background()
	username := gofakeit.Username()

	first := NewSummary(username, 10)
	second := NewSummary(username, 20)
	require.NoError(t, store.Append(ctx, username, first))
	require.NoError(t, store.Append(ctx, username, second))

	list, err := store.List(ctx, username)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assertSummaryEqual(t, first, list[0])
	assertSummaryEqual(t, second, list[1])
}

func testUnknownUsername(t *testing.T, store sessions.Store) {
	list, err := store.List(context.Background(), "nobody-"+gofakeit.LetterN(8))
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func testEmptyUsername(t *testing.T, store sessions.Store) {
	ctx := context.Background()
	assert.ErrorIs(t, store.Append(ctx, "  ", NewSummary("", 1)), sessions.ErrEmptyUsername)
	_, err := store.List(ctx, "")
	assert.ErrorIs(t, err, sessions.ErrEmptyUsername)
}

func testUsersSeparated(t *testing.T, store sessions.Store) {
	ctx := context.Background()
	ana, drago := "ana-"+gofakeit.LetterN(6), "drago-"+gofakeit.LetterN(6)

	require.NoError(t, store.Append(ctx, ana, NewSummary(ana, 1)))
	require.NoError(t, store.Append(ctx, drago, NewSummary(drago, 2)))
	require.NoError(t, store.Append(ctx, ana, NewSummary(ana, 3)))

	anaList, err := store.List(ctx, ana)
	require.NoError(t, err)
	require.Len(t, anaList, 2)
	assert.Equal(t, 1, anaList[0].Counts[reps.LegSquats].Reps)
	assert.Equal(t, 3, anaList[1].Counts[reps.LegSquats].Reps)

	dragoList, err := store.List(ctx, drago)
	require.NoError(t, err)
	require.Len(t, dragoList, 1)
	assert.Equal(t, 2, dragoList[0].Counts[reps.LegSquats].Reps)
}

func testConcurrentAppends(t *testing.T, store sessions.Store) {
	ctx := context.Background()
	username := gofakeit.Username()
	const writers = 20

	summaries := make([]reps.SessionSummary, writers)
	for i := range summaries {
		summaries[i] = NewSummary(username, i)
	}

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- store.Append(ctx, username, summaries[i])
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	list, err := store.List(ctx, username)
	require.NoError(t, err)
	require.Len(t, list, writers)

	seen := map[int]bool{}
	for _, s := range list {
		seen[s.Counts[reps.LegSquats].Reps] = true
	}
	assert.Len(t, seen, writers, "no summary may be lost")
}

func assertSummaryEqual(t *testing.T, expected, actual reps.SessionSummary) {
	t.Helper()
	assert.Equal(t, expected.ID, actual.ID)
	assert.Equal(t, expected.Username, actual.Username)
	assert.True(t, expected.StartedAt.Equal(actual.StartedAt), "%s != %s", expected.StartedAt, actual.StartedAt)
	assert.True(t, expected.FinishedAt.Equal(actual.FinishedAt), "%s != %s", expected.FinishedAt, actual.FinishedAt)
	assert.Equal(t, expected.Duration, actual.Duration)
	assert.Equal(t, expected.DurationSeconds, actual.DurationSeconds)
	assert.Equal(t, expected.Exercises, actual.Exercises)
	assert.Equal(t, expected.Counts, actual.Counts)
}
