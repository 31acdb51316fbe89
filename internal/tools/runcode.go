package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	starmath "go.starlark.net/lib/math"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// resultVar is the conventional name a snippet binds to report a value.
const resultVar = "_result"

// maxExecutionSteps bounds snippet runtime so a runaway loop cannot
// hang the turn.
const maxExecutionSteps = 1_000_000

// maxDiagnosticLines caps the backtrace carried in a Failure.
const maxDiagnosticLines = 4

// fileOptions enables the Python-like dialect features learners expect:
// while loops, top-level control flow, sets, and global reassignment.
var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

// runCode executes a snippet with the Starlark interpreter. The
// environment is hermetic: no filesystem, network, or host access, and
// the only predeclared module is math. Starlark's core builtins (range,
// len, print, ...) are available as in Python.
//
// The observation reports, in order of preference: the value bound to
// _result, the set of names bound during execution, or a no-op notice.
// Captured print output is appended when present.
func runCode(ctx context.Context, code string) (string, error) {
	var printed strings.Builder
	thread := &starlark.Thread{
		Name: "run_python",
		Print: func(_ *starlark.Thread, msg string) {
			printed.WriteString(msg)
			printed.WriteByte('\n')
		},
	}
	thread.SetMaxExecutionSteps(maxExecutionSteps)

	predeclared := starlark.StringDict{
		"math": starmath.Module,
	}

	globals, err := starlark.ExecFileOptions(fileOptions, thread, "snippet", code, predeclared)
	if err != nil {
		return "", execFailure(err)
	}

	var b strings.Builder
	if result, ok := globals[resultVar]; ok {
		fmt.Fprintf(&b, "Execution success. %s = %s", resultVar, result.String())
	} else if names := globals.Keys(); len(names) > 0 {
		fmt.Fprintf(&b, "Execution success. Defined variables: %s", strings.Join(names, ", "))
	} else {
		b.WriteString("Execution success. (No variables defined.)")
	}

	if printed.Len() > 0 {
		b.WriteString("\nOutput:\n")
		b.WriteString(strings.TrimRight(printed.String(), "\n"))
	}

	return b.String(), nil
}

// execFailure wraps an interpreter error as a declared Failure with a
// truncated backtrace.
func execFailure(err error) *Failure {
	f := &Failure{
		Message: fmt.Sprintf("code execution failed: %v", err),
	}

	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		f.Message = fmt.Sprintf("code execution failed: %v", evalErr.Msg)
		f.Diagnostic = truncateLines(evalErr.Backtrace(), maxDiagnosticLines)
	}
	return f
}

// truncateLines keeps at most n lines of s, appending a marker when
// lines were dropped.
func truncateLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[:n], "\n") + "\n..."
}
