package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/tandemkit/tandem/schema"
)

type echoTool struct {
	*BaseTool
}

func newEchoTool() *echoTool {
	toolSchema := CreateToolSchema("echo", map[string]interface{}{
		"text": StringProperty("text"),
	}, []string{"text"})
	return &echoTool{BaseTool: NewBaseTool("echo", "echo", toolSchema)}
}

func (t *echoTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	var payload map[string]string
	_ = json.Unmarshal(input, &payload)
	return json.Marshal(map[string]string{"echo": payload["text"]})
}

type failingTool struct {
	*BaseTool
}

func newFailingTool() *failingTool {
	return &failingTool{BaseTool: NewBaseTool("broken", "always fails", nil)}
}

func (t *failingTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	return nil, errors.New("boom")
}

func TestSerialInvoker(t *testing.T) {
	registry, err := NewRegistry(newEchoTool())
	if err != nil {
		t.Fatalf("registry error: %v", err)
	}

	results, err := NewSerialInvoker().Invoke(context.Background(), registry, []schema.ToolCall{
		{ID: "1", Name: "echo", Args: json.RawMessage(`{"text":"hi"}`)},
	})
	if err != nil {
		t.Fatalf("invoke error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Name != "echo" {
		t.Errorf("result should carry the tool name, got %q", results[0].Name)
	}
	if string(results[0].Result) != `{"echo":"hi"}` {
		t.Errorf("unexpected result: %s", results[0].Result)
	}
}

func TestInvokerFoldsErrors(t *testing.T) {
	registry, err := NewRegistry(newFailingTool())
	if err != nil {
		t.Fatalf("registry error: %v", err)
	}

	calls := []schema.ToolCall{
		{ID: "1", Name: "broken", Args: json.RawMessage(`{}`)},
		{ID: "2", Name: "missing", Args: json.RawMessage(`{}`)},
	}
	results, err := NewSerialInvoker().Invoke(context.Background(), registry, calls)
	if err != nil {
		t.Fatalf("tool failures must not abort the invocation: %v", err)
	}

	for _, result := range results {
		if result.Error == "" {
			t.Fatalf("expected folded error for call %s", result.ID)
		}
		if !strings.HasPrefix(result.Error, "Error: ") || !strings.HasSuffix(result.Error, "Please fix your mistakes.") {
			t.Errorf("unexpected folded error format: %q", result.Error)
		}
	}
}

func TestConcurrentInvokerOrder(t *testing.T) {
	registry, err := NewRegistry(newEchoTool())
	if err != nil {
		t.Fatalf("registry error: %v", err)
	}

	calls := []schema.ToolCall{
		{ID: "1", Name: "echo", Args: json.RawMessage(`{"text":"a"}`)},
		{ID: "2", Name: "echo", Args: json.RawMessage(`{"text":"b"}`)},
		{ID: "3", Name: "echo", Args: json.RawMessage(`{"text":"c"}`)},
	}
	results, err := NewConcurrentInvoker(2).Invoke(context.Background(), registry, calls)
	if err != nil {
		t.Fatalf("invoke error: %v", err)
	}
	for i, want := range []string{"a", "b", "c"} {
		if !strings.Contains(string(results[i].Result), want) {
			t.Errorf("result %d out of order: %s", i, results[i].Result)
		}
	}
}

func TestNormalizeArgsShorthand(t *testing.T) {
	tool := newEchoTool()

	got := NormalizeArgs(tool, json.RawMessage(`{"__arg1":"hello"}`))
	if string(got) != `{"text":"hello"}` {
		t.Errorf("shorthand not unwrapped: %s", got)
	}

	// A blob with extra keys passes through untouched.
	passthrough := json.RawMessage(`{"__arg1":"x","other":1}`)
	if got := NormalizeArgs(tool, passthrough); string(got) != string(passthrough) {
		t.Errorf("multi-key blob should pass through, got %s", got)
	}

	// Regular args pass through untouched.
	regular := json.RawMessage(`{"text":"plain"}`)
	if got := NormalizeArgs(tool, regular); string(got) != string(regular) {
		t.Errorf("regular args should pass through, got %s", got)
	}
}

func TestValidateInputRequiredFields(t *testing.T) {
	tool := newEchoTool()

	if err := tool.ValidateInput(json.RawMessage(`{"text":"ok"}`)); err != nil {
		t.Errorf("valid input rejected: %v", err)
	}
	if err := tool.ValidateInput(json.RawMessage(`{}`)); err == nil {
		t.Error("missing required field should be rejected")
	}
}
