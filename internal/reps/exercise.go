package reps

import "strings"

// ExerciseName strings are shared with the UI and the stored summaries; do not rename.
const (
	LegSquats     = "Leg Squats"
	BicepsCurls   = "Biceps Curls"
	NeckRotations = "Neck Rotations"
	PushUps       = "Push-ups"
	Lunges        = "Lunges"
	SidePlanks    = "Side Planks"
)

// Threshold pairs per exercise, in degrees.
const (
	LegUpThreshold     = 160.0
	LegDownThreshold   = 90.0
	BicepUpThreshold   = 160.0
	BicepDownThreshold = 40.0
)

// SelectableExercises lists every exercise a user can pick, in UI order.
var SelectableExercises = []string{
	LegSquats,
	BicepsCurls,
	NeckRotations,
	PushUps,
	Lunges,
	SidePlanks,
}

// DefaultExercises is the selection used when none is given.
var DefaultExercises = []string{LegSquats}

// IsSupported reports whether the exercise has a counter behind it.
// Selectable but unsupported exercises produce no summary entry.
func IsSupported(exercise string) bool {
	switch exercise {
	case LegSquats, BicepsCurls, NeckRotations:
		return true
	default:
		return false
	}
}

func IsSelectable(exercise string) bool {
	for _, e := range SelectableExercises {
		if e == exercise {
			return true
		}
	}
	return false
}

func SupportedExercises() []string {
	var supported []string
	for _, e := range SelectableExercises {
		if IsSupported(e) {
			supported = append(supported, e)
		}
	}
	return supported
}

// ParseExercises splits a comma separated selection, trimming blanks and duplicates.
func ParseExercises(selection string) []string {
	var exercises []string
	seen := map[string]bool{}
	for _, part := range strings.Split(selection, ",") {
		e := strings.TrimSpace(part)
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		exercises = append(exercises, e)
	}
	return exercises
}
