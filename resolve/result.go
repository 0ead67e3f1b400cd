package resolve

import "patchconv/patch"

// Result is a successful conversion. The maps key source entities to the
// target entities standing in for them.
type Result struct {
	ID     string
	Source *patch.Patch
	Target *patch.Patch

	Modules    Assignment
	Jacks      map[*patch.InputJack]*patch.InputJack
	Outputs    map[*patch.OutputJack]*patch.OutputJack
	Parameters map[*patch.Parameter]*patch.Parameter

	Trials      int
	Failures    int
	Allocations []Allocation
	Warnings    []error
}

// ModuleMapping is one line of a conversion summary.
type ModuleMapping struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// JackMapping pairs a source input jack with its target jack.
type JackMapping struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Summary is a printable view of a result, ordered like the source patch.
type Summary struct {
	ID          string          `json:"id"`
	Trials      int             `json:"trials"`
	Failures    int             `json:"failures"`
	Modules     []ModuleMapping `json:"modules"`
	Jacks       []JackMapping   `json:"jacks"`
	Allocations []Allocation    `json:"allocations,omitempty"`
	Warnings    []string        `json:"warnings,omitempty"`
}

func (r *Result) Summary() Summary {
	s := Summary{ID: r.ID, Trials: r.Trials, Failures: r.Failures, Allocations: r.Allocations}
	for _, sm := range r.Source.Modules() {
		tm, ok := r.Modules[sm]
		if !ok {
			continue
		}
		s.Modules = append(s.Modules, ModuleMapping{Source: sm.Name(), Target: tm.Name()})
		for _, ij := range sm.InputJacks() {
			if tj, ok := r.Jacks[ij]; ok {
				s.Jacks = append(s.Jacks, JackMapping{Source: jackName(ij), Target: jackName(tj)})
			}
		}
	}
	for _, w := range r.Warnings {
		s.Warnings = append(s.Warnings, w.Error())
	}
	return s
}

// TargetOf returns the target module standing in for the named source
// module, or nil.
func (r *Result) TargetOf(source string) *patch.Module {
	sm := r.Source.FindModule(source)
	if sm == nil {
		return nil
	}
	return r.Modules[sm]
}
