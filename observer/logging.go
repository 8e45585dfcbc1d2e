package observer

import (
	"context"
	"log"

	"github.com/tandemkit/tandem/llm"
	"github.com/tandemkit/tandem/schema"
)

// Logging writes run events to a standard logger. Intended for CLIs and
// examples, not for production telemetry.
type Logging struct {
	Noop
	logger *log.Logger
}

// NewLogging creates a logging observer. A nil logger uses the default.
func NewLogging(logger *log.Logger) *Logging {
	if logger == nil {
		logger = log.Default()
	}
	return &Logging{logger: logger}
}

func (l *Logging) OnRunStart(ctx context.Context, event schema.Event) {
	l.logger.Printf("run %s: start at %s", event.RunID, event.Node)
}

func (l *Logging) OnRunEnd(ctx context.Context, event schema.Event) {
	if event.Err != nil {
		l.logger.Printf("run %s: failed after %d steps: %v", event.RunID, event.Step, event.Err)
		return
	}
	l.logger.Printf("run %s: done in %d steps", event.RunID, event.Step)
}

func (l *Logging) OnNodeStart(ctx context.Context, event schema.Event) {
	l.logger.Printf("node %s: start (step %d)", event.Node, event.Step)
}

func (l *Logging) OnNodeEnd(ctx context.Context, event schema.Event) {
	l.logger.Printf("node %s: done (step %d)", event.Node, event.Step)
}

func (l *Logging) OnRoute(ctx context.Context, event schema.Event) {
	if data, ok := event.Data.(schema.RouteData); ok {
		l.logger.Printf("route: %s -> %s (%s)", data.From, data.To, data.Route)
	}
}

func (l *Logging) OnModelCall(ctx context.Context, agentName string, usage llm.TokenUsage, err error) {
	if err != nil {
		l.logger.Printf("model call for %s failed: %v", agentName, err)
		return
	}
	l.logger.Printf("model call for %s: %d prompt + %d completion tokens", agentName, usage.PromptTokens, usage.CompletionTokens)
}

func (l *Logging) OnToolCall(ctx context.Context, call schema.ToolCall) {
	l.logger.Printf("tool call: %s %s", call.Name, call.Args)
}

func (l *Logging) OnToolResult(ctx context.Context, result schema.ToolResult) {
	if result.Error != "" {
		l.logger.Printf("tool %s failed: %s", result.Name, result.Error)
		return
	}
	l.logger.Printf("tool %s: ok", result.Name)
}

func (l *Logging) OnError(ctx context.Context, err error) {
	l.logger.Printf("run error: %v", err)
}
