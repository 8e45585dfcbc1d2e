package observer

import (
	"context"
	"sync/atomic"

	"github.com/tandemkit/tandem/llm"
	"github.com/tandemkit/tandem/schema"
)

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	NodeRuns         int64
	Routes           int64
	ModelCalls       int64
	ModelErrors      int64
	PromptTokens     int64
	CompletionTokens int64
	ToolCalls        int64
	ToolResults      int64
	ToolErrors       int64
	Errors           int64
	LastError        string
}

// Metrics accumulates simple counters over a run.
type Metrics struct {
	Noop

	nodeRuns         atomic.Int64
	routes           atomic.Int64
	modelCalls       atomic.Int64
	modelErrors      atomic.Int64
	promptTokens     atomic.Int64
	completionTokens atomic.Int64
	toolCalls        atomic.Int64
	toolResults      atomic.Int64
	toolErrors       atomic.Int64
	errors           atomic.Int64
	lastError        atomic.Value
}

// NewMetrics creates a metrics observer.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) OnNodeEnd(ctx context.Context, event schema.Event) {
	m.nodeRuns.Add(1)
}

func (m *Metrics) OnRoute(ctx context.Context, event schema.Event) {
	m.routes.Add(1)
}

func (m *Metrics) OnModelCall(ctx context.Context, agentName string, usage llm.TokenUsage, err error) {
	m.modelCalls.Add(1)
	m.promptTokens.Add(int64(usage.PromptTokens))
	m.completionTokens.Add(int64(usage.CompletionTokens))
	if err != nil {
		m.modelErrors.Add(1)
	}
}

func (m *Metrics) OnToolCall(ctx context.Context, call schema.ToolCall) {
	m.toolCalls.Add(1)
}

func (m *Metrics) OnToolResult(ctx context.Context, result schema.ToolResult) {
	m.toolResults.Add(1)
	if result.Error != "" {
		m.toolErrors.Add(1)
	}
}

func (m *Metrics) OnError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	m.errors.Add(1)
	m.lastError.Store(err.Error())
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snapshot := MetricsSnapshot{
		NodeRuns:         m.nodeRuns.Load(),
		Routes:           m.routes.Load(),
		ModelCalls:       m.modelCalls.Load(),
		ModelErrors:      m.modelErrors.Load(),
		PromptTokens:     m.promptTokens.Load(),
		CompletionTokens: m.completionTokens.Load(),
		ToolCalls:        m.toolCalls.Load(),
		ToolResults:      m.toolResults.Load(),
		ToolErrors:       m.toolErrors.Load(),
		Errors:           m.errors.Load(),
	}
	if last, ok := m.lastError.Load().(string); ok {
		snapshot.LastError = last
	}
	return snapshot
}
