package patch

// Module is a functional block of a patch: oscillator, filter, envelope...
// The slices returned by Parameters, InputJacks and OutputJacks are the
// module's own and must not be modified by callers.
type Module struct {
	name   string
	kind   Kind
	number int
	state  UsageState

	params  []*Parameter
	inputs  []*InputJack
	outputs []*OutputJack
}

func NewModule(name string, kind Kind, number int) *Module {
	return &Module{name: name, kind: kind, number: number}
}

func (m *Module) Name() string { return m.name }
func (m *Module) Kind() Kind { return m.kind }
func (m *Module) Number() int { return m.number }
func (m *Module) State() UsageState { return m.state }
func (m *Module) SetState(s UsageState) { m.state = s }
func (m *Module) Parameters() []*Parameter { return m.params }
func (m *Module) InputJacks() []*InputJack { return m.inputs }
func (m *Module) OutputJacks() []*OutputJack { return m.outputs }

// AddParameter appends p to the module.
func (m *Module) AddParameter(p *Parameter) *Parameter {
	m.params = append(m.params, p)
	p.module = m
	return p
}

// RemoveParameter detaches p; it is a no-op if p is not on the module.
func (m *Module) RemoveParameter(p *Parameter) {
	for i, x := range m.params {
		if x == p {
			m.params = append(m.params[:i], m.params[i+1:]...)
			p.module = nil
			return
		}
	}
}

// AddInputJack appends j. A non-nil attenuator becomes the jack's
// attenuator and is added to the module's parameters if needed.
func (m *Module) AddInputJack(j *InputJack, attenuator *Parameter) *InputJack {
	m.inputs = append(m.inputs, j)
	j.module = m
	if attenuator != nil {
		if attenuator.module != m {
			m.AddParameter(attenuator)
		}
		j.attenuator = attenuator
		attenuator.jack = j
	}
	return j
}

// InjectInputJack adds a jack created by a matrix slot. It takes the next
// free ordinal for its prefix and the module's jacks are renumbered.
func (m *Module) InjectInputJack(j *InputJack, attenuator *Parameter) *InputJack {
	highest := 0
	for _, x := range m.inputs {
		if sameName(x.Prefix(), j.Prefix()) && x.Number() > highest {
			highest = x.Number()
		}
	}
	j.setNumber(highest + 1)
	if attenuator != nil {
		attenuator.setNumber(highest + 1)
	}
	m.AddInputJack(j, attenuator)
	m.RenumberJacks()
	return j
}

// RemoveInputJack detaches j and, if it has one, its attenuator. The jack
// keeps its connection; callers disconnect first.
func (m *Module) RemoveInputJack(j *InputJack) {
	for i, x := range m.inputs {
		if x == j {
			m.inputs = append(m.inputs[:i], m.inputs[i+1:]...)
			j.module = nil
			if j.attenuator != nil {
				m.RemoveParameter(j.attenuator)
			}
			return
		}
	}
}

func (m *Module) AddOutputJack(j *OutputJack) *OutputJack {
	m.outputs = append(m.outputs, j)
	j.module = m
	return j
}

func (m *Module) RemoveOutputJack(j *OutputJack) {
	for i, x := range m.outputs {
		if x == j {
			m.outputs = append(m.outputs[:i], m.outputs[i+1:]...)
			j.module = nil
			return
		}
	}
}

// with few jacks and parameters a sequential search is fast enough

func (m *Module) FindInputJack(name string) *InputJack {
	for _, j := range m.inputs {
		if sameName(j.name, name) {
			return j
		}
	}
	return nil
}

func (m *Module) FindOutputJack(name string) *OutputJack {
	for _, j := range m.outputs {
		if sameName(j.name, name) {
			return j
		}
	}
	return nil
}

func (m *Module) FindParameter(name string) *Parameter {
	for _, p := range m.params {
		if sameName(p.name, name) {
			return p
		}
	}
	return nil
}

// RenumberJacks gives numbered input jacks of each prefix a dense 1..N
// numbering in first-seen order, carrying the new number to attenuators.
// A dense sequence is left untouched.
func (m *Module) RenumberJacks() {
	m.renumberJacks(func(*InputJack) bool { return true })
}

func (m *Module) renumberJacks(keep func(*InputJack) bool) {
	seen := map[string]bool{}
	for i, j := range m.inputs {
		if j.Number() == 0 || !keep(j) {
			continue
		}
		prefix := j.Prefix()
		if seen[prefix] {
			continue
		}
		seen[prefix] = true
		n := 0
		for _, k := range m.inputs[i:] {
			if k.Number() == 0 || !keep(k) || k.Prefix() != prefix {
				continue
			}
			n++
			if k.Number() != n {
				k.setNumber(n)
			}
		}
	}
}

func (m *Module) reset() {
	m.state = Unchecked
	for _, p := range m.params {
		p.reset()
	}
	for _, j := range m.inputs {
		j.used = false
	}
	for _, j := range m.outputs {
		j.used = false
	}
}
