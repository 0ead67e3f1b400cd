package patch

import (
	"fmt"
	"strings"
)

// UsageReport lists the modules reached by a usage pass, each once, in
// visiting order.
type UsageReport struct {
	Visited []*Module
}

// Used returns the visited modules that ended up in use.
func (r *UsageReport) Used() []*Module {
	var out []*Module
	for _, m := range r.Visited {
		if m.state > Unused {
			out = append(out, m)
		}
	}
	return out
}

func (r *UsageReport) String() string {
	var b strings.Builder
	for i, m := range r.Visited {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s(%s)", m.name, m.state)
	}
	return b.String()
}

// Analyze marks what contributes to the sound arriving at final. Modules
// reached through audio inputs are required, modules reached only through
// control inputs are possible modulators, and the rest is unused.
func Analyze(p *Patch, final *InputJack) *UsageReport {
	for _, m := range p.modules {
		m.state = Unchecked
		for _, x := range m.params {
			x.used = false
		}
		for _, j := range m.inputs {
			j.used = false
		}
		for _, j := range m.outputs {
			j.used = false
		}
	}

	a := &analyzer{report: &UsageReport{}, seen: map[*Module]bool{}}
	if final != nil && final.module != nil && p.Owns(final.module) {
		final.used = true
		a.visit(final.module, Required)
	}

	for _, m := range p.modules {
		if m.state == Unchecked || m.state == Unused {
			m.state = Unused
			clearUsage(m)
		}
	}
	return a.report
}

type analyzer struct {
	report *UsageReport
	seen   map[*Module]bool
}

func (a *analyzer) visit(m *Module, want UsageState) {
	if a.seen[m] {
		// a second path may upgrade a possible modulator; states only grow
		// so this terminates on cycles
		if m.state == Unused || m.state >= want {
			return
		}
		m.state = want
		a.walkInputs(m, want)
		return
	}
	a.seen[m] = true
	a.report.Visited = append(a.report.Visited, m)

	m.state = want
	applyUsageRules(m)
	if m.state == Unused {
		return
	}
	a.walkInputs(m, want)
}

func (a *analyzer) walkInputs(m *Module, want UsageState) {
	for _, j := range m.inputs {
		src := j.Source()
		att := j.attenuator
		if src == nil || (att != nil && (!att.used || att.IsZero())) {
			j.used = false
			if att != nil {
				att.used = false
			}
			continue
		}
		j.used = true
		src.used = true
		next := want
		if j.typ == ControlInput {
			next = PossibleModulator
		}
		if src.module != nil {
			a.visit(src.module, next)
		}
	}
}

func clearUsage(m *Module) {
	for _, x := range m.params {
		x.used = false
	}
	for _, j := range m.inputs {
		j.used = false
	}
	for _, j := range m.outputs {
		j.used = false
	}
}

// Prune walks back from final over entities already marked used and
// unmarks everything the walk does not reach. It is run on a resolved
// target so the output holds only what the conversion connected.
func Prune(p *Patch, final *InputJack) *UsageReport {
	report := &UsageReport{}
	seen := map[*Module]bool{}

	var walk func(m *Module)
	walk = func(m *Module) {
		if seen[m] {
			return
		}
		seen[m] = true
		report.Visited = append(report.Visited, m)
		if m.state <= Unused {
			m.state = Required
		}
		for _, j := range m.inputs {
			src := j.Source()
			if !j.used || src == nil || !src.used || (j.attenuator != nil && !j.attenuator.used) {
				j.used = false
				continue
			}
			if src.module != nil {
				walk(src.module)
			}
		}
	}
	if final != nil && final.used && final.module != nil && p.Owns(final.module) {
		walk(final.module)
	}

	for _, m := range p.modules {
		if !seen[m] {
			m.state = Unused
			clearUsage(m)
		}
	}
	for _, m := range p.modules {
		for _, j := range m.outputs {
			if j.used && !j.ConnectedToUsed() {
				j.used = false
			}
		}
	}
	return report
}
