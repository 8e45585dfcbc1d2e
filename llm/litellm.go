package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/voocel/litellm"

	"github.com/tandemkit/tandem/schema"
)

// ProviderConfig configures the litellm-backed model adapter.
type ProviderConfig struct {
	// Provider is openai, anthropic, or gemini. Empty infers the
	// provider from the model name.
	Provider    string  `json:"provider,omitempty"`
	APIKey      string  `json:"api_key"`
	BaseURL     string  `json:"base_url,omitempty"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// LiteLLMModel adapts the litellm client to the ChatModel interface.
type LiteLLMModel struct {
	client *litellm.Client
	config ProviderConfig
}

// NewLiteLLMModel creates a ChatModel backed by litellm. The provider is
// inferred from the model name (gpt-* -> OpenAI, claude-* -> Anthropic,
// gemini-* -> Gemini, anything else OpenAI-compatible).
func NewLiteLLMModel(config ProviderConfig) (*LiteLLMModel, error) {
	if config.Model == "" {
		return nil, schema.NewValidationError("model", config.Model, "model name cannot be empty")
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 1024
	}
	if config.Provider == "" {
		config.Provider = providerFor(config.Model)
	}

	var providerOpt litellm.ClientOption
	switch config.Provider {
	case "anthropic":
		if config.BaseURL != "" {
			providerOpt = litellm.WithAnthropic(config.APIKey, config.BaseURL)
		} else {
			providerOpt = litellm.WithAnthropic(config.APIKey)
		}
	case "gemini":
		if config.BaseURL != "" {
			providerOpt = litellm.WithGemini(config.APIKey, config.BaseURL)
		} else {
			providerOpt = litellm.WithGemini(config.APIKey)
		}
	default:
		if config.BaseURL != "" {
			providerOpt = litellm.WithOpenAI(config.APIKey, config.BaseURL)
		} else {
			providerOpt = litellm.WithOpenAI(config.APIKey)
		}
	}

	client := litellm.New(
		providerOpt,
		litellm.WithDefaults(config.MaxTokens, config.Temperature),
	)

	return &LiteLLMModel{client: client, config: config}, nil
}

// Generate performs one chat completion.
func (m *LiteLLMModel) Generate(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, schema.NewModelError(m.config.Model, "generate", schema.ErrInvalidInput)
	}

	litellmReq := &litellm.Request{
		Model:    m.config.Model,
		Messages: m.convertMessages(req.Messages),
		Tools:    m.convertTools(req.Tools),
	}
	if req.Config != nil {
		if req.Config.Temperature != 0 {
			litellmReq.Temperature = litellm.Float64Ptr(req.Config.Temperature)
		}
		if req.Config.MaxTokens != 0 {
			litellmReq.MaxTokens = litellm.IntPtr(req.Config.MaxTokens)
		}
	}

	resp, err := m.client.Complete(ctx, litellmReq)
	if err != nil {
		return nil, schema.NewModelError(m.config.Model, "complete", fmt.Errorf("%w: %v", schema.ErrModelAPIError, err))
	}

	message, usage := m.convertResponse(resp)
	finishReason := resp.FinishReason
	if finishReason == "" {
		if message.HasToolCalls() {
			finishReason = "tool_calls"
		} else {
			finishReason = "stop"
		}
	}

	return &Response{Message: message, Usage: usage, FinishReason: finishReason}, nil
}

// SupportsTools reports tool calling capability.
func (m *LiteLLMModel) SupportsTools() bool { return true }

// Info returns model identity.
func (m *LiteLLMModel) Info() ModelInfo {
	return ModelInfo{Name: m.config.Model, Provider: m.config.Provider}
}

func (m *LiteLLMModel) convertMessages(messages []schema.Message) []litellm.Message {
	result := make([]litellm.Message, 0, len(messages))
	for _, msg := range messages {
		lm := litellm.Message{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
		switch msg.Role {
		case schema.RoleAssistant:
			for _, call := range msg.ToolCalls {
				lm.ToolCalls = append(lm.ToolCalls, litellm.ToolCall{
					ID:   call.ID,
					Type: "function",
					Function: litellm.FunctionCall{
						Name:      call.Name,
						Arguments: string(call.Args),
					},
				})
			}
		case schema.RoleTool:
			lm.ToolCallID = msg.ID
		}
		result = append(result, lm)
	}
	return result
}

func (m *LiteLLMModel) convertTools(specs []ToolSpec) []litellm.Tool {
	if len(specs) == 0 {
		return nil
	}
	result := make([]litellm.Tool, len(specs))
	for i, spec := range specs {
		result[i] = litellm.Tool{
			Type: "function",
			Function: litellm.FunctionSchema{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.Parameters,
			},
		}
	}
	return result
}

func (m *LiteLLMModel) convertResponse(resp *litellm.Response) (schema.Message, TokenUsage) {
	msg := schema.Message{
		Role:    schema.RoleAssistant,
		Content: resp.Content,
	}
	for _, call := range resp.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, schema.ToolCall{
			ID:   call.ID,
			Name: call.Function.Name,
			Args: json.RawMessage(call.Function.Arguments),
		})
	}
	usage := TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}
	return msg, usage
}

func isAnthropicModel(model string) bool {
	return strings.HasPrefix(model, "claude")
}

func isGeminiModel(model string) bool {
	return strings.HasPrefix(model, "gemini")
}

func providerFor(model string) string {
	switch {
	case isAnthropicModel(model):
		return "anthropic"
	case isGeminiModel(model):
		return "gemini"
	default:
		return "openai"
	}
}
