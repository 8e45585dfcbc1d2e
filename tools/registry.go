package tools

import (
	"sync"

	"github.com/tandemkit/tandem/schema"
)

// Registry stores registered tools.
type Registry struct {
	tools map[string]Tool
	mutex sync.RWMutex
}

// NewRegistry constructs a registry.
func NewRegistry(toolList ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range toolList {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a tool.
func (r *Registry) Register(tool Tool) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	name := tool.Name()
	if name == "" {
		return schema.NewValidationError("tool.name", name, "tool name cannot be empty")
	}
	if _, exists := r.tools[name]; exists {
		return schema.NewToolError(name, "register", schema.ErrToolAlreadyExists)
	}
	r.tools[name] = tool
	return nil
}

// Unregister removes a tool.
func (r *Registry) Unregister(name string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.tools[name]; !exists {
		return schema.NewToolError(name, "unregister", schema.ErrToolNotFound)
	}
	delete(r.tools, name)
	return nil
}

// Get retrieves a tool.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	tool, exists := r.tools[name]
	return tool, exists
}

// List returns all tools.
func (r *Registry) List() []Tool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		result = append(result, tool)
	}
	return result
}

// Names returns registered tool names.
func (r *Registry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// Count returns the number of tools.
func (r *Registry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.tools)
}
