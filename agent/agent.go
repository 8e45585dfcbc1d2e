package agent

import (
	"github.com/google/uuid"

	"github.com/tandemkit/tandem/tools"
)

// Agent bundles a system prompt, bound tools and model parameters under a
// stable name. The name doubles as the graph node name and the Sender tag
// on messages the agent produces.
type Agent struct {
	id     string
	name   string
	config Config
}

// Config contains agent configuration.
type Config struct {
	Description  string
	SystemPrompt string
	Tools        []tools.Tool
	Temperature  float64
	MaxTokens    int
	Metadata     map[string]interface{}
}

// New creates an agent.
func New(name string, opts ...Option) *Agent {
	cfg := Config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Agent{
		id:     uuid.New().String(),
		name:   name,
		config: cfg,
	}
}

// ID returns the agent's unique id.
func (a *Agent) ID() string { return a.id }

// Name returns the agent's name.
func (a *Agent) Name() string { return a.name }

// Description returns the agent's description.
func (a *Agent) Description() string { return a.config.Description }

// SystemPrompt returns the composed system prompt.
func (a *Agent) SystemPrompt() string { return a.config.SystemPrompt }

// Tools returns the tools bound to the agent.
func (a *Agent) Tools() []tools.Tool { return a.config.Tools }

// Temperature returns the sampling temperature.
func (a *Agent) Temperature() float64 { return a.config.Temperature }

// MaxTokens returns the completion token cap.
func (a *Agent) MaxTokens() int { return a.config.MaxTokens }

// Metadata returns a metadata entry.
func (a *Agent) Metadata(key string) (interface{}, bool) {
	if a.config.Metadata == nil {
		return nil, false
	}
	value, exists := a.config.Metadata[key]
	return value, exists
}
