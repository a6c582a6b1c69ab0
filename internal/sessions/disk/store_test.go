package disk_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/2beens/gymreps/internal/reps"
	"github.com/2beens/gymreps/internal/sessions"
	"github.com/2beens/gymreps/internal/sessions/disk"
	"github.com/2beens/gymreps/internal/sessions/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) sessions.Store {
		store, err := disk.NewStore(filepath.Join(t.TempDir(), "exercise_data.json"))
		require.NoError(t, err)
		return store
	})
}

func TestNewStore_EmptyPath(t *testing.T) {
	store, err := disk.NewStore("")
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestStore_WritesFlatShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exercise_data.json")
	store, err := disk.NewStore(path)
	require.NoError(t, err)

	summary := storetest.NewSummary("ana", 8)
	require.NoError(t, store.Append(context.Background(), "ana", summary))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string][]map[string]any
	require.NoError(t, json.Unmarshal(content, &raw))
	require.Len(t, raw["ana"], 1)
	stored := raw["ana"][0]
	assert.Equal(t, summary.Duration, stored["Session Duration"])
	assert.EqualValues(t, 8, stored["Leg Squats"])
	assert.EqualValues(t, 1, stored["Biceps Left"])
	assert.EqualValues(t, 2, stored["Biceps Right"])
	assert.NotContains(t, stored, "Biceps Curls")

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_ReadsLegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exercise_data.json")
	legacy := `{
    "drago": [
        {
            "Session Duration": "2 min 5 sec",
            "Leg Squats": 12,
            "Biceps Left": 4,
            "Biceps Right": 5,
            "Neck Rotations": 3
        }
    ]
}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	store, err := disk.NewStore(path)
	require.NoError(t, err)

	list, err := store.List(context.Background(), "drago")
	require.NoError(t, err)
	require.Len(t, list, 1)

	summary := list[0]
	assert.Equal(t, "2 min 5 sec", summary.Duration)
	assert.Equal(t, 125, summary.DurationSeconds)
	assert.Equal(t, []string{reps.BicepsCurls, reps.LegSquats, reps.NeckRotations}, summary.Exercises)
	assert.Equal(t, map[string]reps.Count{
		reps.LegSquats:     {Reps: 12},
		reps.BicepsCurls:   {Reps: 9, Sides: &reps.SidedCount{Left: 4, Right: 5}},
		reps.NeckRotations: {Reps: 3},
	}, summary.Counts)

	// appending keeps the legacy entry in place
	require.NoError(t, store.Append(context.Background(), "drago", storetest.NewSummary("drago", 1)))
	list, err = store.List(context.Background(), "drago")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 12, list[0].Counts[reps.LegSquats].Reps)
	assert.Equal(t, 1, list[1].Counts[reps.LegSquats].Reps)
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exercise_data.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	store, err := disk.NewStore(path)
	require.NoError(t, err)

	_, err = store.List(context.Background(), "ana")
	assert.Error(t, err)
	// a corrupt file is never overwritten
	assert.Error(t, store.Append(context.Background(), "ana", storetest.NewSummary("ana", 1)))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{broken", string(content))
}
