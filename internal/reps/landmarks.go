package reps

import (
	"encoding/json"
	"fmt"
)

// Landmark identifies a body point. Values follow the MediaPipe Pose landmark order,
// so a raw 33-point landmark list can be indexed directly.
type Landmark int

const (
	Nose Landmark = iota
	LeftEyeInner
	LeftEye
	LeftEyeOuter
	RightEyeInner
	RightEye
	RightEyeOuter
	LeftEar
	RightEar
	MouthLeft
	MouthRight
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftPinky
	RightPinky
	LeftIndex
	RightIndex
	LeftThumb
	RightThumb
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
	LeftHeel
	RightHeel
	LeftFootIndex
	RightFootIndex

	NumLandmarks = int(RightFootIndex) + 1
)

var landmarkNames = [NumLandmarks]string{
	"nose",
	"left_eye_inner", "left_eye", "left_eye_outer",
	"right_eye_inner", "right_eye", "right_eye_outer",
	"left_ear", "right_ear",
	"mouth_left", "mouth_right",
	"left_shoulder", "right_shoulder",
	"left_elbow", "right_elbow",
	"left_wrist", "right_wrist",
	"left_pinky", "right_pinky",
	"left_index", "right_index",
	"left_thumb", "right_thumb",
	"left_hip", "right_hip",
	"left_knee", "right_knee",
	"left_ankle", "right_ankle",
	"left_heel", "right_heel",
	"left_foot_index", "right_foot_index",
}

var landmarksByName = func() map[string]Landmark {
	m := make(map[string]Landmark, NumLandmarks)
	for i, name := range landmarkNames {
		m[name] = Landmark(i)
	}
	return m
}()

func (l Landmark) String() string {
	if l < 0 || int(l) >= NumLandmarks {
		return fmt.Sprintf("landmark(%d)", int(l))
	}
	return landmarkNames[l]
}

func ParseLandmark(name string) (Landmark, error) {
	l, ok := landmarksByName[name]
	if !ok {
		return 0, fmt.Errorf("unknown landmark: %q", name)
	}
	return l, nil
}

func (l Landmark) MarshalText() ([]byte, error) {
	if l < 0 || int(l) >= NumLandmarks {
		return nil, fmt.Errorf("invalid landmark: %d", int(l))
	}
	return []byte(landmarkNames[l]), nil
}

func (l *Landmark) UnmarshalText(text []byte) error {
	parsed, err := ParseLandmark(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// LandmarkFrame holds the landmarks detected in a single video frame.
// Points the estimator did not report are simply absent.
type LandmarkFrame map[Landmark]Point

// Lookup returns the requested points in order, or false if any of them is missing.
func (f LandmarkFrame) Lookup(landmarks ...Landmark) ([]Point, bool) {
	points := make([]Point, len(landmarks))
	for i, l := range landmarks {
		p, ok := f[l]
		if !ok {
			return nil, false
		}
		points[i] = p
	}
	return points, true
}

// FramePayload is the wire form of one processed frame. Landmarks may be given by name,
// or as the raw MediaPipe landmark list in Points (null entries are skipped).
// Both empty means no pose was detected.
type FramePayload struct {
	Landmarks LandmarkFrame `json:"landmarks,omitempty"`
	Points    []*Point      `json:"points,omitempty"`
}

// Frame converts the payload into a LandmarkFrame, nil when no pose was detected.
func (p FramePayload) Frame() (*LandmarkFrame, error) {
	if len(p.Landmarks) == 0 && len(p.Points) == 0 {
		return nil, nil
	}
	if len(p.Points) > NumLandmarks {
		return nil, fmt.Errorf("too many points: %d, max %d", len(p.Points), NumLandmarks)
	}

	frame := make(LandmarkFrame, len(p.Landmarks)+len(p.Points))
	for i, point := range p.Points {
		if point == nil {
			continue
		}
		frame[Landmark(i)] = *point
	}
	for l, point := range p.Landmarks {
		frame[l] = point
	}
	return &frame, nil
}

// DecodeFrame parses one JSON frame; a literal null is a frame without a pose.
func DecodeFrame(data []byte) (*LandmarkFrame, error) {
	var payload *FramePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if payload == nil {
		return nil, nil
	}
	return payload.Frame()
}
