package resolve

import (
	"fmt"
	"strings"

	"patchconv/patch"
)

// Candidates is the list of target modules that could stand in for one
// source module, in target patch order.
type Candidates struct {
	Source   *patch.Module
	Targets  []*patch.Module
	Rejected []Rejection
}

// MatchCandidates finds, for every used source module, the structurally
// compatible target modules. A source module without any candidate makes
// the conversion impossible and is reported in an *UnmatchableError along
// with every other such module.
func MatchCandidates(source, target *patch.Patch) ([]Candidates, error) {
	pool := target.Matrix()
	var out []Candidates
	var unmatched []UnmatchedModule

	for _, sm := range source.Modules() {
		if sm.State() <= patch.Unused {
			continue
		}
		c := Candidates{Source: sm}
		for _, tm := range target.ModulesOfKind(sm.Kind()) {
			if reason := compatible(sm, tm, pool); reason != "" {
				c.Rejected = append(c.Rejected, Rejection{Target: tm.Name(), Reason: reason})
				continue
			}
			c.Targets = append(c.Targets, tm)
		}
		if len(c.Targets) == 0 {
			unmatched = append(unmatched, UnmatchedModule{Module: sm.Name(), Kind: sm.Kind(), Rejections: c.Rejected})
			continue
		}
		out = append(out, c)
	}
	if len(unmatched) > 0 {
		return nil, &UnmatchableError{Modules: unmatched}
	}
	return out, nil
}

// compatible returns "" when tm can stand in for sm, otherwise the reason
// it cannot.
func compatible(sm, tm *patch.Module, pool *patch.Pool) string {
	for _, oj := range sm.OutputJacks() {
		if !oj.Used() {
			continue
		}
		toj := tm.FindOutputJack(oj.Name())
		if toj == nil {
			return fmt.Sprintf("no output jack %q", oj.Name())
		}
		for _, c := range oj.Connections() {
			dst := c.Target()
			if !dst.Used() || dst.Module() == nil || dst.Module().State() <= patch.Unused {
				continue
			}
			if !fansOutTo(toj, dst.Module().Kind(), dst.Prefix(), pool) {
				return fmt.Sprintf("output %q cannot reach %s %q", oj.Name(), dst.Module().Kind(), dst.Prefix())
			}
		}
	}

	for _, ij := range sm.InputJacks() {
		src := ij.Source()
		if !ij.Used() || src == nil || src.Module() == nil || src.Module().State() <= patch.Unused {
			continue
		}
		if !inputReachable(ij, src, tm, pool) {
			return fmt.Sprintf("input %q cannot be fed from %s %q", ij.Name(), src.Module().Kind(), src.Prefix())
		}
	}

	for _, p := range sm.Parameters() {
		if !p.Used() || p.AttenuatedJack() != nil {
			continue
		}
		if !hasParameterPrefix(tm, p.Prefix()) {
			return fmt.Sprintf("no parameter %q", p.Name())
		}
	}
	return ""
}

// fansOutTo reports whether toj already feeds a dstKind/dstPrefix jack or
// a slot can route it there.
func fansOutTo(toj *patch.OutputJack, dstKind patch.Kind, dstPrefix string, pool *patch.Pool) bool {
	for _, c := range toj.Connections() {
		dst := c.Target()
		if dst.Module() != nil && dst.Module().Kind() == dstKind && strings.EqualFold(dst.Prefix(), dstPrefix) {
			return true
		}
	}
	return pool.CanRoute(toj.Module().Kind(), toj.Prefix(), dstKind, dstPrefix)
}

func inputReachable(ij *patch.InputJack, src *patch.OutputJack, tm *patch.Module, pool *patch.Pool) bool {
	srcKind := src.Module().Kind()
	for _, tij := range tm.InputJacks() {
		if !strings.EqualFold(tij.Prefix(), ij.Prefix()) {
			continue
		}
		if (tij.Attenuator() != nil) != (ij.Attenuator() != nil) {
			continue
		}
		if ts := tij.Source(); ts != nil {
			if ts.Module() != nil && ts.Module().Kind() == srcKind && strings.EqualFold(ts.Prefix(), src.Prefix()) {
				return true
			}
			continue
		}
		if pool.CanRouteTo(srcKind, src.Prefix(), tm, tij.Prefix()) {
			return true
		}
	}
	return pool.CanInject(srcKind, src.Prefix(), tm, ij.Prefix())
}

func hasParameterPrefix(m *patch.Module, prefix string) bool {
	for _, p := range m.Parameters() {
		if strings.EqualFold(p.Prefix(), prefix) {
			return true
		}
	}
	return false
}
