package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tandemkit/tandem/schema"
	"github.com/tandemkit/tandem/tools"
)

// HandoffToolPrefix names explicit transfer tools. An agent given a
// handoff tool can route the next turn to a specific teammate instead of
// relying on the default alternation.
const HandoffToolPrefix = "transfer_to_"

// Handoff is the payload a transfer tool emits.
type Handoff struct {
	Target  string `json:"target"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

type handoffArgs struct {
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

type handoffResult struct {
	Handoff *Handoff `json:"handoff"`
}

// HandoffTool transfers control to a named agent when the model calls it.
type HandoffTool struct {
	*tools.BaseTool
	Target string
}

// NewHandoffTool builds a transfer tool for the given target agent.
func NewHandoffTool(target string) *HandoffTool {
	name := HandoffToolName(target)
	toolSchema := tools.CreateToolSchema(
		fmt.Sprintf("Transfer control to agent %s", target),
		map[string]interface{}{
			"reason":  tools.StringProperty("Reason for transferring to this agent"),
			"message": tools.StringProperty("Message for the target agent"),
		},
		nil,
	)
	return &HandoffTool{
		BaseTool: tools.NewBaseTool(name, "Agent handoff tool", toolSchema),
		Target:   target,
	}
}

func (t *HandoffTool) Execute(_ context.Context, input json.RawMessage) (json.RawMessage, error) {
	var args handoffArgs
	_ = json.Unmarshal(input, &args)
	return json.Marshal(handoffResult{Handoff: &Handoff{
		Target:  t.Target,
		Reason:  args.Reason,
		Message: args.Message,
	}})
}

var invalidToolChars = regexp.MustCompile(`[^a-z0-9_-]+`)

// HandoffToolName normalizes an agent name into a tool name.
func HandoffToolName(target string) string {
	normalized := strings.ToLower(strings.TrimSpace(target))
	normalized = invalidToolChars.ReplaceAllString(normalized, "_")
	normalized = strings.Trim(normalized, "_")
	if normalized == "" {
		normalized = "agent"
	}
	return HandoffToolPrefix + normalized
}

// ParseHandoff reads a transfer payload out of a tool message, if any.
func ParseHandoff(msg *schema.Message) (*Handoff, bool) {
	if msg == nil || msg.Role != schema.RoleTool {
		return nil, false
	}
	var result handoffResult
	if err := json.Unmarshal([]byte(msg.Content), &result); err != nil {
		return nil, false
	}
	if result.Handoff == nil || result.Handoff.Target == "" {
		return nil, false
	}
	return result.Handoff, true
}

// RouteAfterTools picks the agent that resumes after the tool node. An
// explicit handoff in the trailing tool messages wins; otherwise control
// returns to the agent whose turn requested the tools.
func RouteAfterTools(state *schema.State) string {
	for i := len(state.Messages) - 1; i >= 0; i-- {
		msg := &state.Messages[i]
		if msg.Role != schema.RoleTool {
			break
		}
		if h, ok := ParseHandoff(msg); ok {
			return h.Target
		}
	}
	return state.Sender
}
