package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/tandemkit/tandem/schema"
)

// Tool defines the tool interface. Input and output are raw JSON so the
// model-facing argument blob passes through unmodified.
type Tool interface {
	Name() string
	Description() string
	Schema() *ToolSchema
	Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error)
}

// ToolSchema describes a tool's JSON parameter schema.
type ToolSchema struct {
	Type        string                 `json:"type"`
	Properties  map[string]interface{} `json:"properties"`
	Required    []string               `json:"required"`
	Description string                 `json:"description,omitempty"`
}

// ToolConfig configures tool execution.
type ToolConfig struct {
	Timeout time.Duration `json:"timeout"`
}

// DefaultToolConfig provides default configuration.
var DefaultToolConfig = &ToolConfig{
	Timeout: 30 * time.Second,
}

// BaseTool provides shared tool plumbing. Concrete tools embed it and
// override Execute.
type BaseTool struct {
	name        string
	description string
	schema      *ToolSchema
	config      *ToolConfig
}

// NewBaseTool creates a base tool.
func NewBaseTool(name, description string, toolSchema *ToolSchema) *BaseTool {
	return &BaseTool{
		name:        name,
		description: description,
		schema:      toolSchema,
		config:      cloneToolConfig(DefaultToolConfig),
	}
}

func (t *BaseTool) Name() string        { return t.name }
func (t *BaseTool) Description() string { return t.description }
func (t *BaseTool) Schema() *ToolSchema { return t.schema }

func (t *BaseTool) Config() *ToolConfig {
	if t.config == nil {
		t.config = cloneToolConfig(DefaultToolConfig)
	}
	return t.config
}

func (t *BaseTool) SetConfig(config *ToolConfig) {
	t.config = cloneToolConfig(config)
}

// Execute is a default implementation and should be overridden.
func (t *BaseTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	return nil, schema.NewToolError(t.name, "execute", schema.ErrToolExecutionFailed)
}

// ValidateInput checks the argument blob against the schema's required
// fields. Anything deeper is left to the tool itself.
func (t *BaseTool) ValidateInput(input json.RawMessage) error {
	if t.schema == nil {
		return nil
	}
	trimmed := bytes.TrimSpace(input)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		if len(t.schema.Required) == 0 {
			return nil
		}
		return schema.NewValidationError("input", string(input), "required field missing")
	}
	var data map[string]interface{}
	if err := json.Unmarshal(trimmed, &data); err != nil {
		return schema.NewValidationError("input", string(trimmed), "invalid JSON format")
	}
	for _, required := range t.schema.Required {
		if _, exists := data[required]; !exists {
			return schema.NewValidationError(required, nil, "required field missing")
		}
	}
	return nil
}

// FuncTool wraps a plain function as a Tool.
type FuncTool struct {
	*BaseTool
	fn func(ctx context.Context, input json.RawMessage) (json.RawMessage, error)
}

// NewFuncTool creates a tool from a function.
func NewFuncTool(name, description string, toolSchema *ToolSchema, fn func(ctx context.Context, input json.RawMessage) (json.RawMessage, error)) *FuncTool {
	return &FuncTool{
		BaseTool: NewBaseTool(name, description, toolSchema),
		fn:       fn,
	}
}

func (t *FuncTool) Execute(ctx context.Context, input json.RawMessage) (json.RawMessage, error) {
	return t.fn(ctx, input)
}

// CreateToolSchema builds a schema.
func CreateToolSchema(description string, properties map[string]interface{}, required []string) *ToolSchema {
	return &ToolSchema{
		Type:        "object",
		Description: description,
		Properties:  properties,
		Required:    required,
	}
}

// StringProperty defines a string property.
func StringProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// NumberProperty defines a numeric property.
func NumberProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": description,
	}
}

// IntegerProperty defines an integer property.
func IntegerProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

// BooleanProperty defines a boolean property.
func BooleanProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "boolean",
		"description": description,
	}
}

// ObjectProperty defines an object property.
func ObjectProperty(description string, properties map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": description,
		"properties":  properties,
	}
}

func cloneToolConfig(cfg *ToolConfig) *ToolConfig {
	if cfg == nil {
		copyCfg := *DefaultToolConfig
		return &copyCfg
	}
	copyCfg := *cfg
	return &copyCfg
}
