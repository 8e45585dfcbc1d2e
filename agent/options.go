package agent

import "github.com/tandemkit/tandem/tools"

// Option configures an Agent.
type Option func(*Config)

// WithDescription sets the description.
func WithDescription(description string) Option {
	return func(cfg *Config) {
		cfg.Description = description
	}
}

// WithSystemPrompt sets the system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(cfg *Config) {
		cfg.SystemPrompt = prompt
	}
}

// WithTools attaches tools to the agent.
func WithTools(toolList ...tools.Tool) Option {
	return func(cfg *Config) {
		cfg.Tools = append(cfg.Tools, toolList...)
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) Option {
	return func(cfg *Config) {
		cfg.Temperature = temperature
	}
}

// WithMaxTokens sets the completion token cap.
func WithMaxTokens(maxTokens int) Option {
	return func(cfg *Config) {
		cfg.MaxTokens = maxTokens
	}
}

// WithMetadata sets a metadata entry.
func WithMetadata(key string, value interface{}) Option {
	return func(cfg *Config) {
		if cfg.Metadata == nil {
			cfg.Metadata = make(map[string]interface{})
		}
		cfg.Metadata[key] = value
	}
}
