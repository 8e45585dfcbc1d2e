package schema

import (
	"encoding/json"
	"time"
)

// Role defines message roles.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is a single entry in the shared conversation state.
// Sender names the agent (graph node) that produced the message; it is
// empty for user and system messages.
type Message struct {
	ID        string                 `json:"id,omitempty"`
	Role      Role                   `json:"role"`
	Sender    string                 `json:"sender,omitempty"`
	Content   string                 `json:"content"`
	ToolCalls []ToolCall             `json:"tool_calls,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp,omitempty"`
}

// ToolCall is a model-issued request to invoke a tool.
type ToolCall struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

// ToolResult is the outcome of a single tool call. Name repeats the tool
// name so agents can attribute results when several tools ran in one turn.
type ToolResult struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// NewUserMessage builds a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: time.Now()}
}

// NewAssistantMessage builds an assistant message attributed to sender.
func NewAssistantMessage(sender, content string) Message {
	return Message{Role: RoleAssistant, Sender: sender, Content: content, Timestamp: time.Now()}
}

// NewToolMessage builds a tool message from a result. Errors are folded
// into the content so the model can react to them; a tool message never
// carries a Go error.
func NewToolMessage(result ToolResult) Message {
	content := string(result.Result)
	if result.Error != "" {
		content = result.Error
	}
	msg := Message{
		ID:        result.ID,
		Role:      RoleTool,
		Sender:    result.Name,
		Content:   content,
		Timestamp: time.Now(),
	}
	if result.Error != "" {
		msg.SetMetadata("error", result.Error)
	}
	return msg
}

// HasToolCalls reports whether tool calls are present.
func (m *Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// Clone deep-copies the message.
func (m *Message) Clone() *Message {
	clone := &Message{
		ID:        m.ID,
		Role:      m.Role,
		Sender:    m.Sender,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
	if len(m.ToolCalls) > 0 {
		clone.ToolCalls = make([]ToolCall, len(m.ToolCalls))
		for i, call := range m.ToolCalls {
			clone.ToolCalls[i] = call
			if len(call.Args) > 0 {
				clone.ToolCalls[i].Args = append(json.RawMessage(nil), call.Args...)
			}
		}
	}
	if m.Metadata != nil {
		clone.Metadata = make(map[string]interface{}, len(m.Metadata))
		for k, v := range m.Metadata {
			clone.Metadata[k] = v
		}
	}
	return clone
}

// SetMetadata sets a metadata entry.
func (m *Message) SetMetadata(key string, value interface{}) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]interface{})
	}
	m.Metadata[key] = value
}

// GetMetadata retrieves a metadata entry.
func (m *Message) GetMetadata(key string) (interface{}, bool) {
	if m.Metadata == nil {
		return nil, false
	}
	value, exists := m.Metadata[key]
	return value, exists
}
