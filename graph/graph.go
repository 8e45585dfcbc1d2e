// Package graph implements a directed graph of nodes passing a shared
// conversation state. Static edges chain nodes unconditionally; a
// conditional edge consults a router after its node runs and transfers
// control to the chosen target or terminates the run.
package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tandemkit/tandem/observer"
	"github.com/tandemkit/tandem/schema"
)

// End is the terminal routing target.
const End = "__end__"

// DefaultMaxSteps bounds a run when no explicit budget is set.
const DefaultMaxSteps = 24

// NodeFunc executes one node: it reads and appends to the shared state.
type NodeFunc func(ctx context.Context, state *schema.State) error

// RouterFunc inspects the state after a node ran and names the route to
// take. The returned route is looked up in the conditional edge's path
// map.
type RouterFunc func(state *schema.State) string

type conditionalEdge struct {
	router RouterFunc
	paths  map[string]string
}

// StateGraph builds a graph. Call Compile to validate and obtain a
// runnable Graph.
type StateGraph struct {
	nodes       map[string]NodeFunc
	edges       map[string]string
	conditional map[string]conditionalEdge
	entryPoint  string
}

// NewStateGraph creates an empty graph builder.
func NewStateGraph() *StateGraph {
	return &StateGraph{
		nodes:       make(map[string]NodeFunc),
		edges:       make(map[string]string),
		conditional: make(map[string]conditionalEdge),
	}
}

// AddNode registers a named node.
func (g *StateGraph) AddNode(name string, fn NodeFunc) *StateGraph {
	g.nodes[name] = fn
	return g
}

// AddEdge adds a static edge. The target may be End.
func (g *StateGraph) AddEdge(from, to string) *StateGraph {
	g.edges[from] = to
	return g
}

// AddConditionalEdges attaches a router to a node. After the node runs,
// the router's route name is resolved through paths to the next node (or
// End).
func (g *StateGraph) AddConditionalEdges(from string, router RouterFunc, paths map[string]string) *StateGraph {
	g.conditional[from] = conditionalEdge{router: router, paths: paths}
	return g
}

// SetEntryPoint names the node a run starts at.
func (g *StateGraph) SetEntryPoint(name string) *StateGraph {
	g.entryPoint = name
	return g
}

// Compile validates the graph and returns a runnable form.
func (g *StateGraph) Compile(opts ...Option) (*Graph, error) {
	if g.entryPoint == "" {
		return nil, schema.NewGraphError("", "compile", schema.ErrGraphNoEntryPoint)
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, schema.NewGraphError(g.entryPoint, "compile", schema.ErrGraphNodeNotFound)
	}
	for from, to := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			return nil, schema.NewGraphError(from, "compile", schema.ErrGraphNodeNotFound)
		}
		if err := g.checkTarget(from, to); err != nil {
			return nil, err
		}
	}
	for from, edge := range g.conditional {
		if _, ok := g.nodes[from]; !ok {
			return nil, schema.NewGraphError(from, "compile", schema.ErrGraphNodeNotFound)
		}
		if edge.router == nil {
			return nil, schema.NewGraphError(from, "compile", fmt.Errorf("conditional edge has nil router"))
		}
		if len(edge.paths) == 0 {
			return nil, schema.NewGraphError(from, "compile", fmt.Errorf("conditional edge has empty path map"))
		}
		for route, to := range edge.paths {
			if err := g.checkTarget(from, to); err != nil {
				return nil, fmt.Errorf("route %q: %w", route, err)
			}
		}
	}
	for name := range g.nodes {
		_, hasStatic := g.edges[name]
		_, hasConditional := g.conditional[name]
		if !hasStatic && !hasConditional {
			return nil, schema.NewGraphError(name, "compile", fmt.Errorf("node is a dead end: %w", schema.ErrGraphNoRoute))
		}
		if hasStatic && hasConditional {
			return nil, schema.NewGraphError(name, "compile", fmt.Errorf("node has both static and conditional edges"))
		}
	}

	compiled := &Graph{
		nodes:       g.nodes,
		edges:       g.edges,
		conditional: g.conditional,
		entryPoint:  g.entryPoint,
		maxSteps:    DefaultMaxSteps,
		observer:    observer.Noop{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(compiled)
		}
	}
	return compiled, nil
}

func (g *StateGraph) checkTarget(from, to string) error {
	if to == End {
		return nil
	}
	if _, ok := g.nodes[to]; !ok {
		return schema.NewGraphError(from, "compile", fmt.Errorf("edge target %q: %w", to, schema.ErrGraphNodeNotFound))
	}
	return nil
}

// Option configures a compiled graph.
type Option func(*Graph)

// WithMaxSteps sets the node execution budget per run.
func WithMaxSteps(steps int) Option {
	return func(g *Graph) {
		if steps > 0 {
			g.maxSteps = steps
		}
	}
}

// WithObserver attaches an observer.
func WithObserver(obs observer.Observer) Option {
	return func(g *Graph) {
		if obs != nil {
			g.observer = obs
		}
	}
}

// WithCheckpointer persists state after every node execution.
func WithCheckpointer(cp Checkpointer) Option {
	return func(g *Graph) {
		g.checkpointer = cp
	}
}

// Graph is the compiled, runnable form.
type Graph struct {
	nodes        map[string]NodeFunc
	edges        map[string]string
	conditional  map[string]conditionalEdge
	entryPoint   string
	maxSteps     int
	observer     observer.Observer
	checkpointer Checkpointer
}

// Run executes the graph from its entry point until a route reaches End.
// The step budget caps node executions; exhausting it is an error.
func (g *Graph) Run(ctx context.Context, state *schema.State) (*schema.State, error) {
	return g.run(ctx, uuid.New().String(), g.entryPoint, 1, state)
}

// RunWithID executes like Run under a caller-chosen run id, which keys
// checkpoints.
func (g *Graph) RunWithID(ctx context.Context, runID string, state *schema.State) (*schema.State, error) {
	return g.run(ctx, runID, g.entryPoint, 1, state)
}

// Resume continues a checkpointed run from its last saved position.
func (g *Graph) Resume(ctx context.Context, runID string) (*schema.State, error) {
	if g.checkpointer == nil {
		return nil, schema.NewGraphError("", "resume", fmt.Errorf("no checkpointer configured"))
	}
	cp, err := g.checkpointer.Load(ctx, runID)
	if err != nil {
		return nil, schema.NewGraphError("", "resume", err)
	}
	if cp.Next == End {
		return cp.State, nil
	}
	return g.run(ctx, runID, cp.Next, cp.Step+1, cp.State)
}

func (g *Graph) run(ctx context.Context, runID, startNode string, startStep int, state *schema.State) (*schema.State, error) {
	if state == nil {
		state = schema.NewState()
	}
	g.observer.OnRunStart(ctx, schema.NewEvent(schema.EventRunStart, runID, startNode, startStep))

	state, lastStep, err := g.exec(ctx, runID, startNode, startStep, state)

	end := schema.NewEvent(schema.EventRunEnd, runID, "", lastStep)
	if err != nil {
		end = end.WithError(err)
	}
	g.observer.OnRunEnd(ctx, end)
	return state, err
}

func (g *Graph) exec(ctx context.Context, runID, startNode string, startStep int, state *schema.State) (*schema.State, int, error) {
	current := startNode
	for step := startStep; step <= g.maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return state, step - 1, err
		}

		fn, ok := g.nodes[current]
		if !ok {
			err := schema.NewGraphError(current, "run", schema.ErrGraphNodeNotFound)
			g.observer.OnError(ctx, err)
			return state, step - 1, err
		}

		g.observer.OnNodeStart(ctx, schema.NewEvent(schema.EventNodeStart, runID, current, step))
		if err := fn(ctx, state); err != nil {
			wrapped := schema.NewGraphError(current, "run", err)
			g.observer.OnError(ctx, wrapped)
			return state, step, wrapped
		}
		g.observer.OnNodeEnd(ctx, schema.NewEvent(schema.EventNodeEnd, runID, current, step))

		next, route, err := g.nextNode(current, state)
		if err != nil {
			g.observer.OnError(ctx, err)
			return state, step, err
		}
		g.observer.OnRoute(ctx, schema.NewEvent(schema.EventRoute, runID, current, step).
			WithData(schema.RouteData{From: current, To: next, Route: route}))

		if g.checkpointer != nil {
			cp := Checkpoint{RunID: runID, Step: step, Node: current, Next: next, State: state}
			if err := g.checkpointer.Save(ctx, cp); err != nil {
				return state, step, schema.NewGraphError(current, "checkpoint", err)
			}
		}

		if next == End {
			return state, step, nil
		}
		current = next
	}

	err := schema.NewGraphError(current, "run", schema.ErrGraphStepsExhausted)
	g.observer.OnError(ctx, err)
	return state, g.maxSteps, err
}

func (g *Graph) nextNode(current string, state *schema.State) (next, route string, err error) {
	if edge, ok := g.conditional[current]; ok {
		route = edge.router(state)
		target, ok := edge.paths[route]
		if !ok {
			return "", route, schema.NewGraphError(current, "route",
				fmt.Errorf("router returned unknown route %q: %w", route, schema.ErrGraphNoRoute))
		}
		return target, route, nil
	}
	if target, ok := g.edges[current]; ok {
		return target, "", nil
	}
	return "", "", schema.NewGraphError(current, "route", schema.ErrGraphNoRoute)
}
