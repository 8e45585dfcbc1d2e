// Package observer provides observability callbacks for graph runs.
// Library code never logs directly; it reports through an Observer and
// the embedding application decides what to do with the events.
package observer

import (
	"context"

	"github.com/tandemkit/tandem/llm"
	"github.com/tandemkit/tandem/schema"
)

// Observer receives callbacks at model and tool boundaries and on every
// routing decision.
type Observer interface {
	OnRunStart(ctx context.Context, event schema.Event)
	OnRunEnd(ctx context.Context, event schema.Event)
	OnNodeStart(ctx context.Context, event schema.Event)
	OnNodeEnd(ctx context.Context, event schema.Event)
	OnRoute(ctx context.Context, event schema.Event)
	OnModelCall(ctx context.Context, agentName string, usage llm.TokenUsage, err error)
	OnToolCall(ctx context.Context, call schema.ToolCall)
	OnToolResult(ctx context.Context, result schema.ToolResult)
	OnError(ctx context.Context, err error)
}

// Noop is the default no-op implementation.
type Noop struct{}

func (Noop) OnRunStart(ctx context.Context, event schema.Event) {}
func (Noop) OnRunEnd(ctx context.Context, event schema.Event) {}
func (Noop) OnNodeStart(ctx context.Context, event schema.Event) {}
func (Noop) OnNodeEnd(ctx context.Context, event schema.Event)   {}
func (Noop) OnRoute(ctx context.Context, event schema.Event)     {}
func (Noop) OnModelCall(ctx context.Context, agentName string, usage llm.TokenUsage, err error) {
}
func (Noop) OnToolCall(ctx context.Context, call schema.ToolCall)       {}
func (Noop) OnToolResult(ctx context.Context, result schema.ToolResult) {}
func (Noop) OnError(ctx context.Context, err error)                     {}

// Multi fans out to several observers in order.
type Multi []Observer

func (m Multi) OnRunStart(ctx context.Context, event schema.Event) {
	for _, o := range m {
		o.OnRunStart(ctx, event)
	}
}

func (m Multi) OnRunEnd(ctx context.Context, event schema.Event) {
	for _, o := range m {
		o.OnRunEnd(ctx, event)
	}
}

func (m Multi) OnNodeStart(ctx context.Context, event schema.Event) {
	for _, o := range m {
		o.OnNodeStart(ctx, event)
	}
}

func (m Multi) OnNodeEnd(ctx context.Context, event schema.Event) {
	for _, o := range m {
		o.OnNodeEnd(ctx, event)
	}
}

func (m Multi) OnRoute(ctx context.Context, event schema.Event) {
	for _, o := range m {
		o.OnRoute(ctx, event)
	}
}

func (m Multi) OnModelCall(ctx context.Context, agentName string, usage llm.TokenUsage, err error) {
	for _, o := range m {
		o.OnModelCall(ctx, agentName, usage, err)
	}
}

func (m Multi) OnToolCall(ctx context.Context, call schema.ToolCall) {
	for _, o := range m {
		o.OnToolCall(ctx, call)
	}
}

func (m Multi) OnToolResult(ctx context.Context, result schema.ToolResult) {
	for _, o := range m {
		o.OnToolResult(ctx, result)
	}
}

func (m Multi) OnError(ctx context.Context, err error) {
	for _, o := range m {
		o.OnError(ctx, err)
	}
}
