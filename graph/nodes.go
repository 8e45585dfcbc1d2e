package graph

import (
	"context"
	"fmt"

	"github.com/tandemkit/tandem/agent"
	"github.com/tandemkit/tandem/observer"
	"github.com/tandemkit/tandem/runner"
	"github.com/tandemkit/tandem/schema"
	"github.com/tandemkit/tandem/tools"
)

// AgentNode wraps an agent turn as a graph node. The assistant message
// is appended to the state and the state's sender tag is set to the
// agent, so downstream routers know whose turn just happened.
func AgentNode(r *runner.Runner, ag *agent.Agent) NodeFunc {
	return func(ctx context.Context, state *schema.State) error {
		msg, _, err := r.Turn(ctx, ag, state)
		if err != nil {
			return err
		}
		state.Append(msg)
		state.Sender = ag.Name()
		return nil
	}
}

// ToolNode executes the tool calls of the most recent assistant message
// and appends one tool message per call. The sender tag is left alone,
// so routing after the tool node can return control to whoever asked.
func ToolNode(registry *tools.Registry, invoker tools.Invoker, obs observer.Observer) NodeFunc {
	if invoker == nil {
		invoker = tools.NewSerialInvoker()
	}
	if obs == nil {
		obs = observer.Noop{}
	}
	return func(ctx context.Context, state *schema.State) error {
		last := state.Last()
		if last == nil || !last.HasToolCalls() {
			return fmt.Errorf("no pending tool calls in state")
		}
		for _, call := range last.ToolCalls {
			obs.OnToolCall(ctx, call)
		}
		results, err := invoker.Invoke(ctx, registry, last.ToolCalls)
		if err != nil {
			return err
		}
		for _, result := range results {
			obs.OnToolResult(ctx, result)
			state.Append(schema.NewToolMessage(result))
		}
		return nil
	}
}
