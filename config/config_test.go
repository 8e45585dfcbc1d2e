package config

import (
	"strings"
	"testing"
)

const sampleConfig = `
model:
  provider: anthropic
  model: claude-sonnet-4
  api_key: ${TANDEM_TEST_API_KEY}
  temperature: 0.5
agents:
  - name: researcher
    instructions: Find the data.
    tools: [web_search]
  - name: chart_generator
    instructions: Draw the chart.
    tools: [run_python]
run:
  max_steps: 10
  checkpoint_path: runs.db
window:
  max_messages: 30
`

func TestParse(t *testing.T) {
	t.Setenv("TANDEM_TEST_API_KEY", "sk-test-123")

	cfg, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Model.Provider != "anthropic" || cfg.Model.Model != "claude-sonnet-4" {
		t.Fatalf("unexpected model config: %+v", cfg.Model)
	}
	if cfg.Model.APIKey != "sk-test-123" {
		t.Fatalf("env substitution failed: %q", cfg.Model.APIKey)
	}
	if cfg.Model.Temperature != 0.5 {
		t.Fatalf("expected temperature 0.5, got %v", cfg.Model.Temperature)
	}
	if cfg.Run.MaxSteps != 10 || cfg.Run.CheckpointPath != "runs.db" {
		t.Fatalf("unexpected run config: %+v", cfg.Run)
	}
	if cfg.Window.MaxMessages != 30 {
		t.Fatalf("unexpected window config: %+v", cfg.Window)
	}
	if len(cfg.Agents) != 2 || cfg.Agents[1].Tools[0] != "run_python" {
		t.Fatalf("unexpected agents: %+v", cfg.Agents)
	}
}

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
agents:
  - name: a
  - name: b
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Model.Model != DefaultModel {
		t.Fatalf("expected default model, got %q", cfg.Model.Model)
	}
	if cfg.Model.MaxTokens != DefaultMaxTokens {
		t.Fatalf("expected default max tokens, got %d", cfg.Model.MaxTokens)
	}
	if cfg.Run.MaxSteps != DefaultMaxSteps {
		t.Fatalf("expected default step budget, got %d", cfg.Run.MaxSteps)
	}
}

func TestParseRejectsBadAgentLists(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"one agent", "agents:\n  - name: a\n", "exactly two"},
		{"unnamed agent", "agents:\n  - name: a\n  - instructions: x\n", "no name"},
		{"duplicate names", "agents:\n  - name: a\n  - name: a\n", "duplicate"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	cfg := Default()
	if cfg.Model.APIKey != "sk-env" {
		t.Fatalf("expected key from environment, got %q", cfg.Model.APIKey)
	}
	if len(cfg.Agents) != 2 {
		t.Fatalf("expected two agents, got %d", len(cfg.Agents))
	}
	if err := cfg.validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestExpandEnvUnsetVariable(t *testing.T) {
	got := expandEnv("key: ${TANDEM_DEFINITELY_UNSET_VAR}")
	if got != "key: " {
		t.Fatalf("expected empty expansion, got %q", got)
	}
}
