// Package config loads runtime configuration for the collaboration demo
// from a YAML file, with environment variable substitution for secrets.
package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the file leaves fields unset.
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 2048
	DefaultMaxSteps    = 24
)

// ModelConfig selects the provider and model.
type ModelConfig struct {
	// Provider is openai, anthropic, gemini, or empty to infer from
	// the model name.
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// AgentConfig configures one participant.
type AgentConfig struct {
	Name         string   `yaml:"name"`
	Instructions string   `yaml:"instructions"`
	Tools        []string `yaml:"tools"`
}

// ToolsConfig tunes the built-in tools.
type ToolsConfig struct {
	SearchMaxResults int    `yaml:"search_max_results"`
	PythonWorkDir    string `yaml:"python_workdir"`
}

// RunConfig bounds and persists runs.
type RunConfig struct {
	MaxSteps int `yaml:"max_steps"`
	// CheckpointPath enables SQLite checkpointing when set.
	CheckpointPath string `yaml:"checkpoint_path"`
}

// WindowConfig bounds the context sent to the model.
type WindowConfig struct {
	MaxMessages int `yaml:"max_messages"`
	MaxTokens   int `yaml:"max_tokens"`
}

// Config is the root of the YAML file.
type Config struct {
	Model   ModelConfig   `yaml:"model"`
	Agents  []AgentConfig `yaml:"agents"`
	Tools   ToolsConfig   `yaml:"tools"`
	Run     RunConfig     `yaml:"run"`
	Window  WindowConfig  `yaml:"window"`
	Verbose bool          `yaml:"verbose"`
}

// Load reads, substitutes, defaults, and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config bytes. ${VAR} references are replaced with
// environment values before decoding, so secrets stay out of the file.
func Parse(data []byte) (*Config, error) {
	expanded := expandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given: an
// OpenAI-compatible model with the API key taken from the environment
// and a researcher/chart generator pair.
func Default() *Config {
	cfg := &Config{
		Model: ModelConfig{
			Model:  DefaultModel,
			APIKey: os.Getenv("OPENAI_API_KEY"),
		},
		Agents: []AgentConfig{
			{
				Name:         "researcher",
				Instructions: "You should provide accurate data for the chart generator to use.",
				Tools:        []string{"web_search", "fetch_page"},
			},
			{
				Name:         "chart_generator",
				Instructions: "Run code to create charts from the data you are given. Any charts you produce will be shown to the user.",
				Tools:        []string{"run_python"},
			},
		},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Model.Model == "" {
		c.Model.Model = DefaultModel
	}
	if c.Model.Temperature == 0 {
		c.Model.Temperature = DefaultTemperature
	}
	if c.Model.MaxTokens == 0 {
		c.Model.MaxTokens = DefaultMaxTokens
	}
	if c.Run.MaxSteps == 0 {
		c.Run.MaxSteps = DefaultMaxSteps
	}
}

func (c *Config) validate() error {
	if len(c.Agents) != 2 {
		return fmt.Errorf("config: exactly two agents are required, got %d", len(c.Agents))
	}
	seen := make(map[string]bool)
	for i, ag := range c.Agents {
		if ag.Name == "" {
			return fmt.Errorf("config: agents[%d] has no name", i)
		}
		if seen[ag.Name] {
			return fmt.Errorf("config: duplicate agent name %q", ag.Name)
		}
		seen[ag.Name] = true
	}
	if c.Run.MaxSteps < 0 {
		return fmt.Errorf("config: run.max_steps must be positive")
	}
	return nil
}

var envRef = regexp.MustCompile(`\$\{(\w+)\}`)

// expandEnv replaces ${VAR} with the environment value. Unset variables
// expand to the empty string.
func expandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(match string) string {
		name := envRef.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}
