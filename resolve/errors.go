package resolve

import (
	"errors"
	"fmt"
	"strings"

	"patchconv/patch"
)

// ErrExhausted is returned by Permutations.Next when no assignment is left.
var ErrExhausted = errors.New("permutations exhausted")

// ErrNoFinalOutput means source pruning found no audio output to trace
// back from.
var ErrNoFinalOutput = errors.New("source patch has no audio output")

// Rejection records why a target module cannot stand in for a source module.
type Rejection struct {
	Target string
	Reason string
}

// UnmatchedModule is a source module without any candidate on the target.
type UnmatchedModule struct {
	Module     string
	Kind       patch.Kind
	Rejections []Rejection
}

// UnmatchableError means some source module has no structurally compatible
// target module. No assignment can ever succeed so nothing is retried.
type UnmatchableError struct {
	Modules []UnmatchedModule
}

func (e *UnmatchableError) Error() string {
	var b strings.Builder
	b.WriteString("unmatchable source modules:")
	for _, m := range e.Modules {
		fmt.Fprintf(&b, " %s (%s)", m.Module, m.Kind)
		if len(m.Rejections) == 0 {
			b.WriteString(": no target module of this kind")
			continue
		}
		for _, r := range m.Rejections {
			fmt.Fprintf(&b, "; %s: %s", r.Target, r.Reason)
		}
	}
	return b.String()
}

// NoSolutionError means every assignment was tried and none could be
// realized. LastFailures names what the last attempt could not connect.
type NoSolutionError struct {
	Trials       int
	LastFailures []string
	Truncated    bool
}

func (e *NoSolutionError) Error() string {
	what := "no assignment could be realized"
	if e.Truncated {
		what = "trial limit reached"
	}
	if len(e.LastFailures) == 0 {
		return fmt.Sprintf("%s after %d trials", what, e.Trials)
	}
	return fmt.Sprintf("%s after %d trials: %s", what, e.Trials, strings.Join(e.LastFailures, "; "))
}

// permutationFailure ends one trial. It never leaves the search loop.
type permutationFailure struct {
	reasons []string
}

func (f *permutationFailure) add(format string, args ...any) {
	f.reasons = append(f.reasons, fmt.Sprintf(format, args...))
}

func (f *permutationFailure) failed() bool { return len(f.reasons) > 0 }

// ValueOutOfRangeWarning reports a value the target parameter does not
// accept. The value is copied anyway.
type ValueOutOfRangeWarning struct {
	Module    string
	Parameter string
	Value     string
	Err       error
}

func (w *ValueOutOfRangeWarning) Error() string {
	return fmt.Sprintf("%s %s: %v", w.Module, w.Parameter, w.Err)
}

func (w *ValueOutOfRangeWarning) Unwrap() error { return w.Err }

// ParameterWarning reports a morph or link that could not be carried over
// exactly.
type ParameterWarning struct {
	Module    string
	Parameter string
	Message   string
}

func (w *ParameterWarning) Error() string {
	return fmt.Sprintf("%s %s: %s", w.Module, w.Parameter, w.Message)
}
