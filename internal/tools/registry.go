package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
)

// Args is the union of every tool's arguments, as they arrive from an agent
// or an HTTP caller.
type Args struct {
	VideoURL     string   `json:"video_url,omitempty"`
	AnalysisType string   `json:"analysis_type,omitempty"`
	SessionID    string   `json:"session_id,omitempty"`
	Timestamp    *float64 `json:"timestamp,omitempty"`
	Query        string   `json:"query,omitempty"`
	Command      string   `json:"command,omitempty"`
}

type Tool struct {
	Name        string
	Description string
	// Parameters is a JSON schema object describing Args fields the tool reads.
	Parameters map[string]any

	run func(ctx context.Context, args Args) Result
}

type Registry struct {
	tools  []Tool
	byName map[string]Tool
}

func NewRegistry(t *Toolset) *Registry {
	sessionProp := map[string]any{"type": "string", "description": "Session id returned by start_analysis."}
	timestampProp := map[string]any{"type": "number", "description": "Optional position in seconds."}

	tools := []Tool{
		{
			Name:        "start_analysis",
			Description: "Start analysing a video and wait until the transcript, scenes and comparison are ready.",
			Parameters: schema(map[string]any{
				"video_url":     map[string]any{"type": "string", "description": "URL or path of the video."},
				"analysis_type": map[string]any{"type": "string", "description": "Optional analysis hint, e.g. full."},
			}, "video_url"),
			run: func(ctx context.Context, a Args) Result {
				return t.StartAndPoll(ctx, a.VideoURL, a.AnalysisType)
			},
		},
		{
			Name:        "get_transcript",
			Description: "Fetch the transcript of an analysed video, optionally around a timestamp.",
			Parameters: schema(map[string]any{
				"session_id": sessionProp,
				"timestamp":  timestampProp,
			}, "session_id"),
			run: func(ctx context.Context, a Args) Result {
				return t.GetTranscript(ctx, a.SessionID, a.Timestamp)
			},
		},
		{
			Name:        "get_scenes",
			Description: "Fetch the scene timeline and summary of an analysed video, optionally around a timestamp.",
			Parameters: schema(map[string]any{
				"session_id": sessionProp,
				"timestamp":  timestampProp,
			}, "session_id"),
			run: func(ctx context.Context, a Args) Result {
				return t.GetScenes(ctx, a.SessionID, a.Timestamp)
			},
		},
		{
			Name:        "get_comparison",
			Description: "Fetch how well speech and visuals line up: match score, coherence, synchronized and mismatched moments.",
			Parameters:  schema(map[string]any{"session_id": sessionProp}, "session_id"),
			run: func(ctx context.Context, a Args) Result {
				return t.GetComparison(ctx, a.SessionID)
			},
		},
		{
			Name:        "search_video",
			Description: "Search the transcript and scenes of an analysed video.",
			Parameters: schema(map[string]any{
				"session_id": sessionProp,
				"query":      map[string]any{"type": "string", "description": "Search terms."},
			}, "session_id", "query"),
			run: func(ctx context.Context, a Args) Result {
				return t.Search(ctx, a.SessionID, a.Query)
			},
		},
		{
			Name:        "voice_command",
			Description: "Handle a spoken command: play, pause, stop, describe the scene, or read the transcript.",
			Parameters: schema(map[string]any{
				"command":    map[string]any{"type": "string", "description": "The spoken text."},
				"session_id": sessionProp,
			}, "command"),
			run: func(ctx context.Context, a Args) Result {
				return t.VoiceCommand(ctx, a.Command, a.SessionID)
			},
		},
	}

	byName := make(map[string]Tool, len(tools))
	for _, tool := range tools {
		byName[tool.Name] = tool
	}

	return &Registry{tools: tools, byName: byName}
}

func (r *Registry) Tools() []Tool {
	return r.tools
}

// Invoke runs the named tool. Only an unknown name is returned as an error;
// bad arguments come back as a failed Result like any other tool failure.
func (r *Registry) Invoke(ctx context.Context, name string, rawArgs json.RawMessage) (Result, error) {
	tool, ok := r.byName[name]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	var args Args
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return failure("invalid arguments: "+err.Error(), fmt.Errorf("%w: %w", ErrInvalidInput, err)), nil
		}
	}

	log.Printf("[TOOLS] Invoking %s", name)
	return tool.run(ctx, args), nil
}

func schema(props map[string]any, required ...string) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}
