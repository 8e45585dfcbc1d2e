// Package runner executes single agent turns: it assembles the model
// request from the shared state, calls the model, and attributes the
// response to the agent. Multi-turn control flow lives in the graph.
package runner

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tandemkit/tandem/agent"
	"github.com/tandemkit/tandem/llm"
	"github.com/tandemkit/tandem/memory"
	"github.com/tandemkit/tandem/observer"
	"github.com/tandemkit/tandem/schema"
	"github.com/tandemkit/tandem/tools"
)

// DefaultRetryDelay spaces retries of rate-limited model calls.
const DefaultRetryDelay = 500 * time.Millisecond

// Config controls turn execution.
type Config struct {
	Model    llm.ChatModel
	Window   memory.Window
	Observer observer.Observer
	// MaxRetries re-issues a model call after a retryable failure
	// (rate limits, transient API errors). Zero disables retries.
	MaxRetries int
	// RetryDelay is the pause between attempts. Zero uses the default
	// when retries are enabled.
	RetryDelay time.Duration
}

// Runner executes agent turns against a model.
type Runner struct {
	config Config
}

// New creates a Runner and fills defaults.
func New(cfg Config) *Runner {
	if cfg.Window.MaxMessages == 0 && cfg.Window.MaxTokens == 0 {
		cfg.Window = memory.DefaultWindow()
	}
	if cfg.Observer == nil {
		cfg.Observer = observer.Noop{}
	}
	if cfg.MaxRetries > 0 && cfg.RetryDelay == 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	return &Runner{config: cfg}
}

// Model returns the configured model.
func (r *Runner) Model() llm.ChatModel { return r.config.Model }

// Turn runs one model call for the agent over the accumulated state and
// returns the assistant message tagged with the agent's name.
func (r *Runner) Turn(ctx context.Context, ag *agent.Agent, state *schema.State) (schema.Message, llm.TokenUsage, error) {
	if ag == nil {
		return schema.Message{}, llm.TokenUsage{}, schema.NewAgentError("", "turn", schema.ErrInvalidInput)
	}
	if r.config.Model == nil {
		return schema.Message{}, llm.TokenUsage{}, schema.NewAgentError(ag.Name(), "turn", schema.ErrModelNotSupported)
	}

	req := r.buildRequest(ag, state)
	resp, err := r.generate(ctx, ag.Name(), req)
	if err != nil {
		return schema.Message{}, llm.TokenUsage{}, schema.NewAgentError(ag.Name(), "generate", err)
	}

	message := resp.Message
	message.Sender = ag.Name()
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now()
	}
	return message, resp.Usage, nil
}

// generate issues the model call, retrying retryable failures up to the
// configured attempt count.
func (r *Runner) generate(ctx context.Context, agentName string, req *llm.Request) (*llm.Response, error) {
	var resp *llm.Response
	var err error
	for attempt := 0; ; attempt++ {
		resp, err = r.config.Model.Generate(ctx, req)
		if resp != nil {
			r.config.Observer.OnModelCall(ctx, agentName, resp.Usage, err)
		} else {
			r.config.Observer.OnModelCall(ctx, agentName, llm.TokenUsage{}, err)
		}
		if err == nil || attempt >= r.config.MaxRetries || !schema.IsRetryable(err) {
			return resp, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.config.RetryDelay):
		}
	}
}

func (r *Runner) buildRequest(ag *agent.Agent, state *schema.State) *llm.Request {
	history := r.config.Window.Trim(state.Messages)

	messages := make([]schema.Message, 0, len(history)+1)
	if sys := ag.SystemPrompt(); sys != "" {
		messages = append(messages, schema.Message{Role: schema.RoleSystem, Content: sys})
	}
	messages = append(messages, history...)

	req := &llm.Request{Messages: messages}
	if r.config.Model.SupportsTools() && len(ag.Tools()) > 0 {
		req.Tools = collectToolSpecs(ag.Tools())
		req.ToolChoice = &llm.ToolChoiceOption{Type: "auto"}
	}
	if ag.Temperature() != 0 || ag.MaxTokens() != 0 {
		req.Config = &llm.GenerationConfig{
			Temperature: ag.Temperature(),
			MaxTokens:   ag.MaxTokens(),
		}
	}
	return req
}

func collectToolSpecs(toolList []tools.Tool) []llm.ToolSpec {
	specs := make([]llm.ToolSpec, 0, len(toolList))
	for _, t := range toolList {
		if t == nil || t.Schema() == nil {
			continue
		}
		params := map[string]interface{}{"type": "object"}
		if t.Schema().Type != "" {
			params["type"] = t.Schema().Type
		}
		if len(t.Schema().Properties) > 0 {
			params["properties"] = t.Schema().Properties
		}
		if len(t.Schema().Required) > 0 {
			params["required"] = t.Schema().Required
		}
		specs = append(specs, llm.ToolSpec{Name: t.Name(), Description: t.Description(), Parameters: params})
	}
	return specs
}
