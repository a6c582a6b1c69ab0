package sessions

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/2beens/gymreps/internal/reps"
)

const (
	keyDuration        = "Session Duration"
	keyID              = "id"
	keyUsername        = "username"
	keyStartedAt       = "startedAt"
	keyFinishedAt      = "finishedAt"
	keyDurationSeconds = "durationSeconds"
	keyExercises       = "exercises"

	suffixLeft  = " Left"
	suffixRight = " Right"
)

// sided exercises are written as "<prefix> Left" / "<prefix> Right"
var sidedPrefixes = map[string]string{
	reps.BicepsCurls: "Biceps",
}

func sidedPrefix(exercise string) string {
	if prefix, ok := sidedPrefixes[exercise]; ok {
		return prefix
	}
	return exercise
}

func exerciseForPrefix(prefix string) string {
	for exercise, p := range sidedPrefixes {
		if p == prefix {
			return exercise
		}
	}
	return prefix
}

// DecodeSummary reads a summary in the structured shape, recognized by its
// "counts" or "duration" key, and falls back to the flat shape otherwise.
func DecodeSummary(data []byte) (reps.SessionSummary, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return reps.SessionSummary{}, err
	}

	_, hasCounts := keys["counts"]
	_, hasDuration := keys["duration"]
	if hasCounts || hasDuration {
		var summary reps.SessionSummary
		if err := json.Unmarshal(data, &summary); err != nil {
			return reps.SessionSummary{}, err
		}
		return summary, nil
	}

	var flat FlatSummary
	if err := json.Unmarshal(data, &flat); err != nil {
		return reps.SessionSummary{}, err
	}
	return reps.SessionSummary(flat), nil
}

// FlatSummary is a summary in the flat shape: every count is a top level key
// next to "Session Duration". Both exercise_data.json and older clients use it.
type FlatSummary reps.SessionSummary

func (r FlatSummary) MarshalJSON() ([]byte, error) {
	flat := map[string]any{
		keyDuration:        r.Duration,
		keyStartedAt:       r.StartedAt,
		keyFinishedAt:      r.FinishedAt,
		keyDurationSeconds: r.DurationSeconds,
	}
	if r.ID != "" {
		flat[keyID] = r.ID
	}
	if r.Username != "" {
		flat[keyUsername] = r.Username
	}
	if len(r.Exercises) > 0 {
		flat[keyExercises] = r.Exercises
	}
	for exercise, count := range r.Counts {
		if count.Sides != nil {
			prefix := sidedPrefix(exercise)
			flat[prefix+suffixLeft] = count.Sides.Left
			flat[prefix+suffixRight] = count.Sides.Right
			continue
		}
		flat[exercise] = count.Reps
	}
	return json.Marshal(flat)
}

func (r *FlatSummary) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	summary := reps.SessionSummary{
		Counts: make(map[string]reps.Count),
	}
	sides := make(map[string]*reps.SidedCount)

	for key, raw := range flat {
		var err error
		switch key {
		case keyDuration:
			err = json.Unmarshal(raw, &summary.Duration)
		case keyID:
			err = json.Unmarshal(raw, &summary.ID)
		case keyUsername:
			err = json.Unmarshal(raw, &summary.Username)
		case keyStartedAt:
			err = json.Unmarshal(raw, &summary.StartedAt)
		case keyFinishedAt:
			err = json.Unmarshal(raw, &summary.FinishedAt)
		case keyDurationSeconds:
			err = json.Unmarshal(raw, &summary.DurationSeconds)
		case keyExercises:
			err = json.Unmarshal(raw, &summary.Exercises)
		default:
			var n int
			if err = json.Unmarshal(raw, &n); err != nil {
				break
			}
			switch {
			case strings.HasSuffix(key, suffixLeft):
				exercise := exerciseForPrefix(strings.TrimSuffix(key, suffixLeft))
				if sides[exercise] == nil {
					sides[exercise] = &reps.SidedCount{}
				}
				sides[exercise].Left = n
			case strings.HasSuffix(key, suffixRight):
				exercise := exerciseForPrefix(strings.TrimSuffix(key, suffixRight))
				if sides[exercise] == nil {
					sides[exercise] = &reps.SidedCount{}
				}
				sides[exercise].Right = n
			default:
				summary.Counts[key] = reps.Count{Reps: n}
			}
		}
		if err != nil {
			return fmt.Errorf("decode key %q: %w", key, err)
		}
	}

	for exercise, sided := range sides {
		summary.Counts[exercise] = reps.Count{
			Reps:  sided.Left + sided.Right,
			Sides: sided,
		}
	}

	// files written before the exercise list was stored only carry the counts
	if len(summary.Exercises) == 0 && len(summary.Counts) > 0 {
		for exercise := range summary.Counts {
			summary.Exercises = append(summary.Exercises, exercise)
		}
		sort.Strings(summary.Exercises)
	}
	if summary.DurationSeconds == 0 && summary.Duration != "" {
		summary.DurationSeconds = parseDurationSeconds(summary.Duration)
	}

	*r = FlatSummary(summary)
	return nil
}

// parseDurationSeconds reads the "M min S sec" form back; unknown forms give 0.
func parseDurationSeconds(duration string) int {
	var minutes, seconds int
	if _, err := fmt.Sscanf(duration, "%d min %d sec", &minutes, &seconds); err != nil {
		return 0
	}
	return int((time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second) / time.Second)
}
