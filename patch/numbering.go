package patch

import "strconv"

// Numbering is a dense renumbering of the used part of a patch, computed
// for output without touching the patch itself.
type Numbering struct {
	modules map[*Module]int
	inputs  map[*InputJack]int
}

// CompactNumbering numbers used modules 1..N per kind and used numbered
// input jacks 1..N per prefix, both in patch order.
func (p *Patch) CompactNumbering() *Numbering {
	n := &Numbering{modules: map[*Module]int{}, inputs: map[*InputJack]int{}}
	perKind := map[Kind]int{}
	for _, m := range p.modules {
		if m.state <= Unused {
			continue
		}
		perKind[m.kind]++
		n.modules[m] = perKind[m.kind]

		perPrefix := map[string]int{}
		for _, j := range m.inputs {
			if !j.used || j.Number() == 0 {
				continue
			}
			perPrefix[j.Prefix()]++
			n.inputs[j] = perPrefix[j.Prefix()]
		}
	}
	return n
}

// ModuleNumber returns the dense number of m, or its own number if m is
// unused.
func (n *Numbering) ModuleNumber(m *Module) int {
	if v, ok := n.modules[m]; ok {
		return v
	}
	return m.number
}

// JackName returns the name j is written under.
func (n *Numbering) JackName(j *InputJack) string {
	if v, ok := n.inputs[j]; ok {
		return j.Prefix() + strconv.Itoa(v)
	}
	return j.name
}

// ParameterName returns the name p is written under; attenuators follow
// their jack.
func (n *Numbering) ParameterName(p *Parameter) string {
	if p.jack != nil && p.Number() > 0 {
		if v, ok := n.inputs[p.jack]; ok {
			return p.Prefix() + strconv.Itoa(v)
		}
	}
	return p.name
}
