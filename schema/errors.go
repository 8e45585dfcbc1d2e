package schema

import (
	"errors"
	"fmt"
)

var (
	// Tool-related errors
	ErrToolNotFound        = errors.New("tool not found")
	ErrToolAlreadyExists   = errors.New("tool already exists")
	ErrToolExecutionFailed = errors.New("tool execution failed")
	ErrToolTimeout         = errors.New("tool execution timeout")

	// Model-related errors
	ErrModelNotSupported = errors.New("model not supported")
	ErrModelAPIError     = errors.New("model API error")
	ErrModelRateLimit    = errors.New("model rate limit exceeded")

	// Graph-related errors
	ErrGraphNodeNotFound   = errors.New("graph node not found")
	ErrGraphNoEntryPoint   = errors.New("graph entry point not set")
	ErrGraphStepsExhausted = errors.New("graph step budget exhausted")
	ErrGraphNoRoute        = errors.New("no route from node")

	// Checkpoint-related errors
	ErrCheckpointNotFound = errors.New("checkpoint not found")

	// Common errors
	ErrInvalidInput = errors.New("invalid input")
)

// ToolError wraps a failure in a named tool operation.
type ToolError struct {
	ToolName string
	Op       string
	Err      error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s: %s: %v", e.ToolName, e.Op, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

func NewToolError(toolName, op string, err error) *ToolError {
	return &ToolError{ToolName: toolName, Op: op, Err: err}
}

// AgentError wraps a failure in a named agent operation.
type AgentError struct {
	AgentName string
	Op        string
	Err       error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent %s: %s: %v", e.AgentName, e.Op, e.Err)
}

func (e *AgentError) Unwrap() error {
	return e.Err
}

func NewAgentError(agentName, op string, err error) *AgentError {
	return &AgentError{AgentName: agentName, Op: op, Err: err}
}

// GraphError wraps a failure at a graph node.
type GraphError struct {
	Node string
	Op   string
	Err  error
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("graph node %s: %s: %v", e.Node, e.Op, e.Err)
}

func (e *GraphError) Unwrap() error {
	return e.Err
}

func NewGraphError(node, op string, err error) *GraphError {
	return &GraphError{Node: node, Op: op, Err: err}
}

// ModelError wraps a failure in a model call.
type ModelError struct {
	Model string
	Op    string
	Err   error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model %s: %s: %v", e.Model, e.Op, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

func NewModelError(model, op string, err error) *ModelError {
	return &ModelError{Model: model, Op: op, Err: err}
}

// ValidationError reports a rejected input value.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s (value: %v): %s", e.Field, e.Value, e.Message)
}

func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// IsRetryable reports whether a model error is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrModelRateLimit):
		return true
	case errors.Is(err, ErrModelAPIError):
		return true
	default:
		return false
	}
}
