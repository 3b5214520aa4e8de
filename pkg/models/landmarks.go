package models

import "time"

// PoseLandmark is one body keypoint in normalized image coordinates.
type PoseLandmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// HandLandmark is one hand keypoint in normalized image coordinates.
type HandLandmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Frame holds the landmarks extracted from a single video frame.
// Pose is nil when no body was detected; Hands holds one slice of 21
// keypoints per detected hand.
type Frame struct {
	FrameIndex int              `json:"frame_index"`
	Timestamp  float64          `json:"timestamp"`
	Pose       []PoseLandmark   `json:"pose,omitempty"`
	Hands      [][]HandLandmark `json:"hands"`
}

// LandmarkData is the per-sign extraction result stored alongside the video.
// The frames are stored and served as-is; nothing here analyzes them.
type LandmarkData struct {
	SignName    string    `json:"sign_name"`
	ProcessedAt time.Time `json:"processed_at"`
	FPS         float64   `json:"fps"`
	FrameCount  int       `json:"frame_count"`
	Duration    float64   `json:"duration"`
	Frames      []Frame   `json:"frames"`
}

// VideoProperties is what the extractor reports about a stored video file.
type VideoProperties struct {
	FPS        float64 `json:"fps"`
	FrameCount int     `json:"frame_count"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Duration   float64 `json:"duration"`
}
