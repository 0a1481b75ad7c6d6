package models

import (
	"encoding/json"
	"testing"
)

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusCompleted, true},
		{StatusError, true},
		{Status("processing"), false},
		{Status(""), false},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("Status(%q).Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestDecodeResult(t *testing.T) {
	data := json.RawMessage(`{
		"transcript": {"full_text": "hello there", "segments": [{"start": 0, "end": 1.5, "text": "hello there"}]},
		"scenes": {"timeline": [{"start": 0, "end": 3, "description": "a man waves"}], "summary": "greeting"},
		"comparison": {
			"overall_analysis": {"average_match_score": 0.82, "coherence_level": "high", "key_insights": ["speech matches gestures"]},
			"synchronized_moments": [{"timestamp": 1, "match_score": 0.9}],
			"mismatched_moments": []
		},
		"extra_field": true
	}`)

	result, err := DecodeResult(data)
	if err != nil {
		t.Fatalf("DecodeResult failed: %v", err)
	}

	if result.Transcript == nil || result.Transcript.FullText != "hello there" {
		t.Errorf("Unexpected transcript: %+v", result.Transcript)
	}
	if len(result.Transcript.Segments) != 1 || result.Transcript.Segments[0].End != 1.5 {
		t.Errorf("Unexpected segments: %+v", result.Transcript.Segments)
	}
	if result.Scenes == nil || result.Scenes.Summary != "greeting" || len(result.Scenes.Timeline) != 1 {
		t.Errorf("Unexpected scenes: %+v", result.Scenes)
	}
	if result.Comparison == nil || result.Comparison.OverallAnalysis.CoherenceLevel != "high" {
		t.Errorf("Unexpected comparison: %+v", result.Comparison)
	}
	if result.Comparison.OverallAnalysis.AverageMatchScore != 0.82 {
		t.Errorf("Expected score 0.82, got %v", result.Comparison.OverallAnalysis.AverageMatchScore)
	}
}

func TestDecodeResult_Empty(t *testing.T) {
	for _, data := range []json.RawMessage{nil, json.RawMessage("null")} {
		result, err := DecodeResult(data)
		if err != nil {
			t.Errorf("DecodeResult(%q) failed: %v", data, err)
			continue
		}
		if result.Transcript != nil || result.Scenes != nil || result.Comparison != nil {
			t.Errorf("Expected empty result for %q, got %+v", data, result)
		}
	}
}

func TestDecodeResult_Invalid(t *testing.T) {
	if _, err := DecodeResult(json.RawMessage(`[1,2`)); err == nil {
		t.Error("Expected error for malformed payload")
	}
}

func TestNewSessionRecord(t *testing.T) {
	rec := NewSessionRecord("sess-1", "clip.mp4", "")

	if rec.ID == "" || rec.ID == rec.SessionID {
		t.Errorf("Expected a fresh record id, got %q", rec.ID)
	}
	if rec.Status != StatusPending {
		t.Errorf("Expected pending default, got %q", rec.Status)
	}
	if rec.CreatedAt.IsZero() || !rec.CreatedAt.Equal(rec.UpdatedAt) {
		t.Errorf("Expected matching timestamps, got %v / %v", rec.CreatedAt, rec.UpdatedAt)
	}
}
