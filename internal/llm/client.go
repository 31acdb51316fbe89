// Package llm provides LLM backend client implementations.
package llm

import "context"

// Client is the interface the agent loop depends on. The loop treats
// the backend as an opaque function from prompt text to response text;
// provider wire formats stay inside this package.
type Client interface {
	// Generate sends one prompt and returns the response text.
	Generate(ctx context.Context, prompt string) (string, error)

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}
