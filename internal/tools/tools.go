// Package tools defines the tools available to the agent.
package tools

import (
	"context"
	"sort"
)

// Tool represents a callable capability. Run takes the raw action input
// from the model and returns observation text; a declared failure is a
// *Failure so the agent loop can branch on it rather than crash.
type Tool struct {
	Name        string
	Description string
	Run         func(ctx context.Context, input string) (string, error)
}

// Registry holds the available tools. It is populated at construction
// and read-only afterwards, so it is safe to share across sessions.
type Registry struct {
	tools map[string]*Tool
}

// NewRegistry creates a registry with the built-in tools registered.
func NewRegistry() *Registry {
	r := &Registry{tools: make(map[string]*Tool)}
	r.registerBuiltins()
	return r
}

func (r *Registry) registerBuiltins() {
	r.Register(&Tool{
		Name: "run_python",
		Description: "Execute small Python-style snippets to check code, run examples, " +
			"or inspect variable values. Bind a variable named _result to report a value.",
		Run: runCode,
	})
	r.Register(&Tool{
		Name: "web_search",
		Description: "Look up external information about Python concepts or error " +
			"messages (stubbed out in this deployment).",
		Run: webSearch,
	})
}

// Register adds a tool to the registry.
func (r *Registry) Register(t *Tool) {
	r.tools[t.Name] = t
}

// Get retrieves a tool by name, or nil if unknown.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the registered tools sorted by name, for building the
// system prompt.
func (r *Registry) List() []*Tool {
	out := make([]*Tool, 0, len(r.tools))
	for _, name := range r.Names() {
		out = append(out, r.tools[name])
	}
	return out
}
