package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tandemkit/tandem/schema"
)

// Invoker executes the tool calls issued by a model turn and reports one
// result per call. Tool failures are folded into the result's Error field
// so the conversation can continue; the returned error is reserved for
// hard failures such as context cancellation.
type Invoker interface {
	Invoke(ctx context.Context, registry *Registry, calls []schema.ToolCall) ([]schema.ToolResult, error)
}

// SerialInvoker executes tools one at a time, in call order.
type SerialInvoker struct{}

// NewSerialInvoker creates a serial invoker.
func NewSerialInvoker() *SerialInvoker {
	return &SerialInvoker{}
}

func (i *SerialInvoker) Invoke(ctx context.Context, registry *Registry, calls []schema.ToolCall) ([]schema.ToolResult, error) {
	results := make([]schema.ToolResult, len(calls))
	for idx, call := range calls {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results[idx] = executeToolCall(ctx, registry, call)
	}
	return results, nil
}

// ConcurrentInvoker executes tools concurrently with a concurrency cap.
type ConcurrentInvoker struct {
	MaxConcurrency int
}

// NewConcurrentInvoker creates a concurrent invoker.
func NewConcurrentInvoker(maxConcurrency int) *ConcurrentInvoker {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &ConcurrentInvoker{MaxConcurrency: maxConcurrency}
}

func (i *ConcurrentInvoker) Invoke(ctx context.Context, registry *Registry, calls []schema.ToolCall) ([]schema.ToolResult, error) {
	if len(calls) == 0 {
		return []schema.ToolResult{}, nil
	}

	results := make([]schema.ToolResult, len(calls))
	sem := make(chan struct{}, i.MaxConcurrency)

	var wg sync.WaitGroup
	for idx, call := range calls {
		wg.Add(1)
		go func(n int, c schema.ToolCall) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[n] = foldError(c, ctx.Err())
				return
			}
			results[n] = executeToolCall(ctx, registry, c)
		}(idx, call)
	}
	wg.Wait()

	return results, ctx.Err()
}

func executeToolCall(ctx context.Context, registry *Registry, call schema.ToolCall) schema.ToolResult {
	if registry == nil {
		return foldError(call, schema.ErrToolNotFound)
	}

	tool, exists := registry.Get(call.Name)
	if !exists {
		return foldError(call, schema.NewToolError(call.Name, "lookup", schema.ErrToolNotFound))
	}

	args := NormalizeArgs(tool, call.Args)

	if validator, ok := tool.(interface {
		ValidateInput(json.RawMessage) error
	}); ok {
		if err := validator.ValidateInput(args); err != nil {
			return foldError(call, err)
		}
	}

	execCtx := ctx
	if cfg := getToolConfig(tool); cfg != nil && cfg.Timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	result, err := tool.Execute(execCtx, args)
	if err != nil {
		return foldError(call, err)
	}
	return schema.ToolResult{ID: call.ID, Name: call.Name, Result: result}
}

// foldError converts a tool failure into a result the model can read and
// recover from. The run itself is never aborted by a tool error.
func foldError(call schema.ToolCall, err error) schema.ToolResult {
	return schema.ToolResult{
		ID:    call.ID,
		Name:  call.Name,
		Error: fmt.Sprintf("Error: %v. Please fix your mistakes.", err),
	}
}

// NormalizeArgs rewrites the legacy single-argument shorthand. A blob of
// exactly {"__arg1": <value>} is unwrapped and keyed by the tool's sole
// declared property; anything else passes through untouched.
func NormalizeArgs(tool Tool, args json.RawMessage) json.RawMessage {
	var data map[string]json.RawMessage
	if err := json.Unmarshal(args, &data); err != nil {
		return args
	}
	value, ok := data["__arg1"]
	if !ok || len(data) != 1 {
		return args
	}

	key := soleProperty(tool.Schema())
	if key == "" {
		return args
	}
	rewrapped, err := json.Marshal(map[string]json.RawMessage{key: value})
	if err != nil {
		return args
	}
	return rewrapped
}

func soleProperty(toolSchema *ToolSchema) string {
	if toolSchema == nil {
		return ""
	}
	if len(toolSchema.Required) == 1 {
		return toolSchema.Required[0]
	}
	if len(toolSchema.Properties) == 1 {
		for name := range toolSchema.Properties {
			return name
		}
	}
	return ""
}

func getToolConfig(tool Tool) *ToolConfig {
	type configGetter interface {
		Config() *ToolConfig
	}
	if getter, ok := tool.(configGetter); ok {
		if cfg := getter.Config(); cfg != nil {
			return cfg
		}
	}
	return cloneToolConfig(DefaultToolConfig)
}
