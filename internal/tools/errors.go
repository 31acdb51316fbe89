// Package tools provides the tool registry and execution framework.
//
// This file defines the declared failure type for tool execution.
package tools

// Failure is a declared tool failure: the tool ran and faulted in a way
// it knows how to describe. Message is the short cause; Diagnostic
// carries a truncated trace for the observation text. Failure is
// returned, not panicked, so callers handle it with a plain branch.
type Failure struct {
	Message    string
	Diagnostic string
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.Diagnostic == "" {
		return f.Message
	}
	return f.Message + "\n" + f.Diagnostic
}
