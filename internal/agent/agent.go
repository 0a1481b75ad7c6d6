package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	openaigo "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/shared"

	"github.com/kdimtricp/vidagent/internal/tools"
)

const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultModel     = "gpt-4o-mini"
	DefaultMaxRounds = 4
	maxRetries       = 2
	requestTimeout   = 60 * time.Second
)

const systemPrompt = `You help people understand videos. Use start_analysis to analyse a video, then answer questions with get_transcript, get_scenes, get_comparison and search_video. Timestamps are in seconds. Use voice_command for spoken playback requests. When a tool returns an error, say so plainly.`

var (
	ErrNoAPIKey      = errors.New("OPENAI_API_KEY is required for chat")
	ErrTooManyRounds = errors.New("tool call limit reached without a reply")
	ErrEmptyChoices  = errors.New("llm returned empty choices")
)

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxRounds  int
	HTTPClient *http.Client
}

// Agent is a single conversation. It is not safe for concurrent use.
type Agent struct {
	client    openaigo.Client
	model     string
	maxRounds int
	registry  *tools.Registry
	tools     []openaigo.ChatCompletionToolUnionParam

	sessionID string
}

func New(registry *tools.Registry, cfg Config) (*Agent, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = DefaultMaxRounds
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}

	client := openaigo.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(maxRetries),
		option.WithRequestTimeout(requestTimeout),
	)

	return &Agent{
		client:    client,
		model:     model,
		maxRounds: cfg.MaxRounds,
		registry:  registry,
		tools:     ToolDefinitions(registry),
	}, nil
}

// ToolDefinitions exposes every registry tool as an OpenAI function tool.
func ToolDefinitions(registry *tools.Registry) []openaigo.ChatCompletionToolUnionParam {
	defs := make([]openaigo.ChatCompletionToolUnionParam, 0, len(registry.Tools()))
	for _, t := range registry.Tools() {
		defs = append(defs, openaigo.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        t.Name,
			Description: param.NewOpt(t.Description),
			Parameters:  shared.FunctionParameters(t.Parameters),
		}))
	}
	return defs
}

// SessionID is the last session started in this conversation.
func (a *Agent) SessionID() string {
	return a.sessionID
}

// Chat sends userText after history and runs tool calls until the model
// replies with text. It returns the reply and the history to pass next time.
func (a *Agent) Chat(ctx context.Context, history []openaigo.ChatCompletionMessageParamUnion, userText string) (string, []openaigo.ChatCompletionMessageParamUnion, error) {
	messages := make([]openaigo.ChatCompletionMessageParamUnion, 0, len(history)+2+a.maxRounds*3)
	if len(history) == 0 {
		messages = append(messages, openaigo.SystemMessage(systemPrompt))
	}
	messages = append(messages, history...)
	messages = append(messages, openaigo.UserMessage(strings.TrimSpace(userText)))

	for round := 1; round <= a.maxRounds; round++ {
		log.Printf("[AGENT] llm call: round=%d messages=%d", round, len(messages))
		resp, err := a.client.Chat.Completions.New(ctx, openaigo.ChatCompletionNewParams{
			Model:    openaigo.ChatModel(a.model),
			Messages: messages,
			Tools:    a.tools,
		})
		if err != nil {
			return "", messages, fmt.Errorf("chat completion: %w", err)
		}
		if resp == nil || len(resp.Choices) == 0 {
			return "", messages, ErrEmptyChoices
		}

		msg := resp.Choices[0].Message
		messages = append(messages, msg.ToParam())

		if len(msg.ToolCalls) == 0 {
			return msg.Content, messages, nil
		}

		for _, tc := range msg.ToolCalls {
			if strings.TrimSpace(tc.Type) != "function" {
				b, _ := json.Marshal(map[string]string{"error": "unsupported tool type: " + tc.Type})
				messages = append(messages, openaigo.ToolMessage(string(b), tc.ID))
				continue
			}
			call := tc.AsFunction()
			out := a.runTool(ctx, strings.TrimSpace(call.Function.Name), call.Function.Arguments)
			messages = append(messages, openaigo.ToolMessage(out, tc.ID))
		}
	}

	return "", messages, fmt.Errorf("%w (%d rounds)", ErrTooManyRounds, a.maxRounds)
}

func (a *Agent) runTool(ctx context.Context, name, arguments string) string {
	log.Printf("[AGENT] tool call: %s args=%s", name, arguments)

	args := a.withSession(name, arguments)
	result, err := a.registry.Invoke(ctx, name, args)
	if err != nil {
		b, _ := json.Marshal(map[string]string{"error": err.Error()})
		return string(b)
	}

	if name == "start_analysis" && result.SessionID != "" {
		a.sessionID = result.SessionID
		log.Printf("[AGENT] remembering session %s", a.sessionID)
	}

	b, err := json.Marshal(result)
	if err != nil {
		b, _ = json.Marshal(map[string]string{"error": err.Error()})
	}
	return string(b)
}

// withSession fills in the remembered session id when the model calls a
// session tool without one.
func (a *Agent) withSession(name, arguments string) json.RawMessage {
	if strings.TrimSpace(arguments) == "" {
		arguments = "{}"
	}
	raw := json.RawMessage(arguments)
	if a.sessionID == "" || name == "start_analysis" {
		return raw
	}

	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return raw
	}
	if args == nil {
		args = map[string]any{}
	}
	if id, _ := args["session_id"].(string); strings.TrimSpace(id) != "" {
		return raw
	}

	args["session_id"] = a.sessionID
	b, err := json.Marshal(args)
	if err != nil {
		return raw
	}
	return b
}
