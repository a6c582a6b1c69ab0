package reps

import (
	"fmt"
	"time"
)

// SidedCount holds per-side repetitions of an exercise tracked on both limbs.
type SidedCount struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

// Count is the repetition result of one exercise. For sided exercises
// Reps is the sum of both sides.
type Count struct {
	Reps  int         `json:"reps"`
	Sides *SidedCount `json:"sides,omitempty"`
}

type SessionSummary struct {
	ID              string           `json:"id,omitempty"`
	Username        string           `json:"username,omitempty"`
	StartedAt       time.Time        `json:"startedAt"`
	FinishedAt      time.Time        `json:"finishedAt"`
	Duration        string           `json:"duration"`
	DurationSeconds int              `json:"durationSeconds"`
	Exercises       []string         `json:"exercises,omitempty"`
	Counts          map[string]Count `json:"counts"`
}

// FormatDuration renders elapsed time as "M min S sec", truncated to whole seconds.
func FormatDuration(d time.Duration) string {
	seconds := int(d / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d min %d sec", seconds/60, seconds%60)
}

// TotalReps sums the repetitions of all exercises in the summary.
func (s SessionSummary) TotalReps() int {
	total := 0
	for _, c := range s.Counts {
		total += c.Reps
	}
	return total
}
