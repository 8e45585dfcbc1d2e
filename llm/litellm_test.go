package llm

import (
	"encoding/json"
	"testing"

	"github.com/voocel/litellm"

	"github.com/tandemkit/tandem/schema"
)

func TestConvertMessagesToolRoundTrip(t *testing.T) {
	adapter := &LiteLLMModel{config: ProviderConfig{Model: "gpt-test"}}

	messages := []schema.Message{
		{Role: schema.RoleSystem, Content: "be helpful"},
		{Role: schema.RoleUser, Content: "what is 1+1"},
		{
			Role: schema.RoleAssistant,
			ToolCalls: []schema.ToolCall{
				{ID: "call_1", Name: "calculator", Args: json.RawMessage(`{"value":2}`)},
			},
		},
		{Role: schema.RoleTool, ID: "call_1", Content: "2"},
	}

	llmMessages := adapter.convertMessages(messages)

	if len(llmMessages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(llmMessages))
	}
	if len(llmMessages[2].ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(llmMessages[2].ToolCalls))
	}
	if llmMessages[2].ToolCalls[0].Function.Name != "calculator" {
		t.Errorf("unexpected tool call name: %s", llmMessages[2].ToolCalls[0].Function.Name)
	}
	if llmMessages[3].ToolCallID != "call_1" {
		t.Errorf("expected tool call ID 'call_1', got %s", llmMessages[3].ToolCallID)
	}
}

func TestConvertResponseToolCalls(t *testing.T) {
	adapter := &LiteLLMModel{config: ProviderConfig{Model: "gpt-test"}}

	response := &litellm.Response{
		Content: "",
		ToolCalls: []litellm.ToolCall{
			{
				ID: "call_1",
				Function: litellm.FunctionCall{
					Name:      "calculator",
					Arguments: `{"value":2}`,
				},
			},
		},
		FinishReason: "tool_calls",
		Usage: litellm.Usage{
			PromptTokens:     10,
			CompletionTokens: 5,
			TotalTokens:      15,
		},
	}

	msg, usage := adapter.convertResponse(response)

	if len(msg.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call in response, got %d", len(msg.ToolCalls))
	}
	if msg.ToolCalls[0].Name != "calculator" {
		t.Errorf("unexpected response tool call name: %s", msg.ToolCalls[0].Name)
	}
	if usage.TotalTokens != 15 {
		t.Errorf("expected total tokens 15, got %d", usage.TotalTokens)
	}
}

func TestProviderDetection(t *testing.T) {
	cases := map[string]string{
		"gpt-4o":            "openai",
		"claude-sonnet-4-0": "anthropic",
		"gemini-2.0-flash":  "gemini",
		"qwen-max":          "openai",
	}
	for model, want := range cases {
		if got := providerFor(model); got != want {
			t.Errorf("providerFor(%s) = %s, want %s", model, got, want)
		}
	}
}
