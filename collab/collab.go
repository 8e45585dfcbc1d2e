// Package collab wires a pair of agents into a collaborative graph. Each
// agent takes turns over a shared conversation; after every turn a
// router decides whether to execute tools, hand control to the partner,
// or stop because the team produced a final answer.
package collab

import (
	"fmt"
	"strings"

	"github.com/tandemkit/tandem/agent"
	"github.com/tandemkit/tandem/graph"
	"github.com/tandemkit/tandem/observer"
	"github.com/tandemkit/tandem/runner"
	"github.com/tandemkit/tandem/schema"
	"github.com/tandemkit/tandem/tools"
)

// FinalAnswerMarker terminates a run when it appears anywhere in an
// agent's reply. Agents are instructed to prefix their final deliverable
// with it.
const FinalAnswerMarker = "FINAL ANSWER"

// NodeCallTool is the shared tool-execution node.
const NodeCallTool = "call_tool"

// Route names returned by the turn router.
const (
	RouteCallTool = "call_tool"
	RouteContinue = "continue"
	RouteEnd      = "end"
)

// RouteAfterTurn classifies an agent turn. Tool calls win over the
// terminal marker: a reply that both requests a tool and mentions the
// marker still goes through the tool node, since the model is asking for
// more information before committing to an answer.
func RouteAfterTurn(state *schema.State) string {
	last := state.Last()
	if last == nil {
		return RouteEnd
	}
	if last.HasToolCalls() {
		return RouteCallTool
	}
	if strings.Contains(last.Content, FinalAnswerMarker) {
		return RouteEnd
	}
	return RouteContinue
}

// RouteBackToSender returns control to the agent whose turn requested
// the tools, ignoring any handoff payloads. NewDuo uses RouteAfterTools,
// which honors explicit transfers.
func RouteBackToSender(state *schema.State) string {
	return state.Sender
}

// Participant describes one member of the duo.
type Participant struct {
	// Name is the agent's graph node name. Required.
	Name string
	// Instructions is the role-specific part of the system prompt.
	Instructions string
	// Tools are the tools offered to the model on this agent's turns.
	Tools []tools.Tool
	// Temperature and MaxTokens override the model defaults when set.
	Temperature float64
	MaxTokens   int
}

// Config assembles a Duo.
type Config struct {
	First    Participant
	Second   Participant
	Runner   *runner.Runner
	Invoker  tools.Invoker
	Observer observer.Observer
	// MaxSteps bounds node executions per run. Zero uses the graph
	// default.
	MaxSteps int
	// Checkpointer, when set, persists the run after every node.
	Checkpointer graph.Checkpointer
}

// Duo is a compiled two-agent collaboration.
type Duo struct {
	graph  *graph.Graph
	first  *agent.Agent
	second *agent.Agent
}

// NewDuo builds and compiles the collaboration graph: one node per
// agent, a shared tool node, and conditional edges carrying the
// three-way routing.
func NewDuo(cfg Config) (*Duo, error) {
	if cfg.Runner == nil {
		return nil, fmt.Errorf("collab: runner is required")
	}
	if cfg.First.Name == "" || cfg.Second.Name == "" {
		return nil, fmt.Errorf("collab: both participants need names")
	}
	if cfg.First.Name == cfg.Second.Name {
		return nil, fmt.Errorf("collab: participants must have distinct names")
	}
	if cfg.First.Name == NodeCallTool || cfg.Second.Name == NodeCallTool {
		return nil, fmt.Errorf("collab: %q is reserved for the tool node", NodeCallTool)
	}
	if cfg.Observer == nil {
		cfg.Observer = observer.Noop{}
	}

	registry, err := tools.NewRegistry()
	if err != nil {
		return nil, err
	}
	for _, t := range append(append([]tools.Tool{}, cfg.First.Tools...), cfg.Second.Tools...) {
		// Both participants may carry the same tool.
		if _, ok := registry.Get(t.Name()); ok {
			continue
		}
		if err := registry.Register(t); err != nil {
			return nil, err
		}
	}

	first := buildAgent(cfg.First, cfg.Second.Name)
	second := buildAgent(cfg.Second, cfg.First.Name)

	turnPaths := func(partner string) map[string]string {
		return map[string]string{
			RouteCallTool: NodeCallTool,
			RouteContinue: partner,
			RouteEnd:      graph.End,
		}
	}

	builder := graph.NewStateGraph().
		AddNode(cfg.First.Name, graph.AgentNode(cfg.Runner, first)).
		AddNode(cfg.Second.Name, graph.AgentNode(cfg.Runner, second)).
		AddNode(NodeCallTool, graph.ToolNode(registry, cfg.Invoker, cfg.Observer)).
		AddConditionalEdges(cfg.First.Name, RouteAfterTurn, turnPaths(cfg.Second.Name)).
		AddConditionalEdges(cfg.Second.Name, RouteAfterTurn, turnPaths(cfg.First.Name)).
		AddConditionalEdges(NodeCallTool, RouteAfterTools, map[string]string{
			cfg.First.Name:  cfg.First.Name,
			cfg.Second.Name: cfg.Second.Name,
		}).
		SetEntryPoint(cfg.First.Name)

	opts := []graph.Option{graph.WithObserver(cfg.Observer)}
	if cfg.MaxSteps > 0 {
		opts = append(opts, graph.WithMaxSteps(cfg.MaxSteps))
	}
	if cfg.Checkpointer != nil {
		opts = append(opts, graph.WithCheckpointer(cfg.Checkpointer))
	}

	g, err := builder.Compile(opts...)
	if err != nil {
		return nil, err
	}
	return &Duo{graph: g, first: first, second: second}, nil
}

func buildAgent(p Participant, partner string) *agent.Agent {
	opts := []agent.Option{
		agent.WithSystemPrompt(collaborationPrompt(p, partner)),
		agent.WithTools(p.Tools...),
	}
	if p.Temperature != 0 {
		opts = append(opts, agent.WithTemperature(p.Temperature))
	}
	if p.MaxTokens != 0 {
		opts = append(opts, agent.WithMaxTokens(p.MaxTokens))
	}
	return agent.New(p.Name, opts...)
}

// collaborationPrompt composes the shared collaboration preamble with
// the participant's role instructions. The preamble names the partner
// and the available tools and spells out the stop protocol.
func collaborationPrompt(p Participant, partner string) string {
	var b strings.Builder
	b.WriteString("You are a helpful AI assistant collaborating with another assistant named ")
	b.WriteString(partner)
	b.WriteString(". Use the provided tools to progress towards answering the question. ")
	b.WriteString("If you are unable to fully answer, that is fine; the other assistant ")
	b.WriteString("will pick up where you left off. Execute what you can to make progress. ")
	b.WriteString("If you or the other assistant have the final answer or deliverable, ")
	b.WriteString("prefix your response with ")
	b.WriteString(FinalAnswerMarker)
	b.WriteString(" so the team knows to stop.")
	if names := toolNames(p.Tools); len(names) > 0 {
		b.WriteString(" You have access to the following tools: ")
		b.WriteString(strings.Join(names, ", "))
		b.WriteString(".")
	}
	if p.Instructions != "" {
		b.WriteString(" ")
		b.WriteString(p.Instructions)
	}
	return b.String()
}

func toolNames(toolList []tools.Tool) []string {
	names := make([]string, 0, len(toolList))
	for _, t := range toolList {
		names = append(names, t.Name())
	}
	return names
}

// Graph exposes the compiled graph for callers that need Run variants
// such as Resume.
func (d *Duo) Graph() *graph.Graph { return d.graph }

// First returns the agent seated at the entry point.
func (d *Duo) First() *agent.Agent { return d.first }

// Second returns the partner agent.
func (d *Duo) Second() *agent.Agent { return d.second }
