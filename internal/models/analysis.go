package models

import (
	"encoding/json"
	"fmt"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Terminal reports whether a session in this status will never change again.
// Unknown values coming from the backend are treated as still running.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

type StartRequest struct {
	VideoInput      string `json:"video_input"`
	TranscribeModel string `json:"transcribe_model"`
	VisionModel     string `json:"vision_model"`
	FrameSampleRate int    `json:"frame_sample_rate"`
	AnalysisType    string `json:"analysis_type,omitempty"`
}

type StartResponse struct {
	SessionID string `json:"session_id"`
	Status    Status `json:"status"`
}

type StatusResponse struct {
	Status Status          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type AnalysisResult struct {
	Transcript *Transcript    `json:"transcript,omitempty"`
	Scenes     *SceneTimeline `json:"scenes,omitempty"`
	Comparison *Comparison    `json:"comparison,omitempty"`
}

type Transcript struct {
	FullText string    `json:"full_text"`
	Segments []Segment `json:"segments"`
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type SceneTimeline struct {
	Timeline []Scene `json:"timeline"`
	Summary  string  `json:"summary"`
}

type Scene struct {
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Description string  `json:"description"`
}

type Comparison struct {
	OverallAnalysis     OverallAnalysis `json:"overall_analysis"`
	SynchronizedMoments []Moment        `json:"synchronized_moments"`
	MismatchedMoments   []Moment        `json:"mismatched_moments"`
}

type OverallAnalysis struct {
	AverageMatchScore float64  `json:"average_match_score"`
	CoherenceLevel    string   `json:"coherence_level"`
	KeyInsights       []string `json:"key_insights"`
}

type Moment struct {
	Timestamp         float64 `json:"timestamp"`
	TranscriptText    string  `json:"transcript_text,omitempty"`
	VisualDescription string  `json:"visual_description,omitempty"`
	MatchScore        float64 `json:"match_score"`
}

// DecodeResult parses a completed status payload for display. The raw payload
// is what callers forward; this is only a read view of it.
func DecodeResult(data json.RawMessage) (*AnalysisResult, error) {
	if len(data) == 0 || string(data) == "null" {
		return &AnalysisResult{}, nil
	}

	var result AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding analysis result: %w", err)
	}
	return &result, nil
}

func DecodeComparison(data json.RawMessage) (*Comparison, error) {
	var comparison Comparison
	if err := json.Unmarshal(data, &comparison); err != nil {
		return nil, fmt.Errorf("decoding comparison: %w", err)
	}
	return &comparison, nil
}
