package llm

import (
	"context"

	"github.com/tandemkit/tandem/schema"
)

// ChatModel is the unified model interface. The model call is opaque to the
// rest of the framework: one request in, one response out.
type ChatModel interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
	SupportsTools() bool
	Info() ModelInfo
}

// Request encapsulates a single generation request.
type Request struct {
	Messages   []schema.Message  `json:"messages"`
	Tools      []ToolSpec        `json:"tools,omitempty"`
	ToolChoice *ToolChoiceOption `json:"tool_choice,omitempty"`
	Config     *GenerationConfig `json:"config,omitempty"`
}

// Response encapsulates model output and metadata.
type Response struct {
	Message      schema.Message `json:"message"`
	Usage        TokenUsage     `json:"usage"`
	FinishReason string         `json:"finish_reason"`
}

// ToolSpec describes a callable tool to the model.
type ToolSpec struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// ToolChoiceOption describes the tool selection strategy.
// Type: auto/none/required/function; Name selects a specific function.
type ToolChoiceOption struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// GenerationConfig controls sampling and length.
type GenerationConfig struct {
	Temperature float64  `json:"temperature"`
	TopP        float64  `json:"top_p,omitempty"`
	MaxTokens   int      `json:"max_tokens"`
	Stop        []string `json:"stop,omitempty"`
}

// TokenUsage reports token accounting for one call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ModelInfo carries basic model identity.
type ModelInfo struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
}
