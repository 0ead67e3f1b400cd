package patch

// GenericVersion is the generic patch format version written by this package.
const GenericVersion = "0.3"

// Patch is a generic, synth independent sound patch: modules wired by
// connections plus the pool of matrix modulation slots the synth offers.
type Patch struct {
	ID           string
	Name         string
	Number       string
	Bank         string
	Comment      string
	Version      string
	SynthVersion string

	modules []*Module
	members map[*Module]struct{}
	conns   []*Connection
	pool    *Pool
}

func New(synthVersion string) *Patch {
	p := &Patch{
		Version:      GenericVersion,
		SynthVersion: synthVersion,
		members:      map[*Module]struct{}{},
	}
	p.pool = &Pool{patch: p}
	return p
}

// AddModule appends m. Module names are unique within a patch.
func (p *Patch) AddModule(m *Module) (*Module, error) {
	if p.FindModule(m.name) != nil {
		return nil, structural("add module", m, "", ErrDuplicateModule)
	}
	p.modules = append(p.modules, m)
	p.members[m] = struct{}{}
	return m, nil
}

// RemoveModule detaches m and every connection touching it. The numbers
// of the remaining modules of its kind are compacted.
func (p *Patch) RemoveModule(m *Module) {
	if !p.Owns(m) {
		return
	}
	for _, j := range m.inputs {
		if j.conn != nil {
			p.Disconnect(j.conn)
		}
	}
	for _, j := range m.outputs {
		for _, c := range j.Connections() {
			p.Disconnect(c)
		}
	}
	for i, x := range p.modules {
		if x == m {
			p.modules = append(p.modules[:i], p.modules[i+1:]...)
			break
		}
	}
	delete(p.members, m)
	p.renumberModules(m.kind)
}

// renumberModules gives numbered modules of one kind a dense 1..N
// numbering in patch order. A dense sequence is left untouched.
func (p *Patch) renumberModules(k Kind) {
	n := 0
	for _, x := range p.modules {
		if x.kind != k || x.number == 0 {
			continue
		}
		n++
		x.number = n
	}
}

// Owns reports whether m is one of the patch's modules.
func (p *Patch) Owns(m *Module) bool {
	if m == nil {
		return false
	}
	_, ok := p.members[m]
	return ok
}

func (p *Patch) Modules() []*Module { return p.modules }

// Connections returns the connection set in creation order.
func (p *Patch) Connections() []*Connection {
	return append([]*Connection(nil), p.conns...)
}

// Matrix returns the matrix modulation slot pool.
func (p *Patch) Matrix() *Pool { return p.pool }

// Connect wires src to dst. Both jacks must sit on modules of this patch
// and dst must be free.
func (p *Patch) Connect(src *OutputJack, dst *InputJack) (*Connection, error) {
	switch {
	case src == nil:
		return nil, structural("connect", moduleOf(dst), "", ErrMissingJack)
	case dst == nil:
		return nil, structural("connect", src.module, src.name, ErrMissingJack)
	case !p.Owns(src.module):
		return nil, structural("connect", src.module, src.name, ErrForeignModule)
	case !p.Owns(dst.module):
		return nil, structural("connect", dst.module, dst.name, ErrForeignModule)
	case dst.conn != nil:
		return nil, structural("connect", dst.module, dst.name, ErrDuplicateConnection)
	}
	c := &Connection{source: src, target: dst}
	src.conns = append(src.conns, c)
	dst.conn = c
	p.conns = append(p.conns, c)
	return c, nil
}

// ConnectByName wires the named jacks together.
func (p *Patch) ConnectByName(srcModule, srcJack, dstModule, dstJack string) (*Connection, error) {
	sm := p.FindModule(srcModule)
	if sm == nil {
		return nil, &StructuralError{Op: "connect", Module: srcModule, Err: ErrForeignModule}
	}
	dm := p.FindModule(dstModule)
	if dm == nil {
		return nil, &StructuralError{Op: "connect", Module: dstModule, Err: ErrForeignModule}
	}
	src := sm.FindOutputJack(srcJack)
	if src == nil {
		return nil, structural("connect", sm, srcJack, ErrMissingJack)
	}
	dst := dm.FindInputJack(dstJack)
	if dst == nil {
		return nil, structural("connect", dm, dstJack, ErrMissingJack)
	}
	return p.Connect(src, dst)
}

// Disconnect removes c from both jacks and the patch. Removing a connection
// twice is harmless.
func (p *Patch) Disconnect(c *Connection) {
	if c == nil {
		return
	}
	if c.target.conn == c {
		c.target.conn = nil
	}
	c.source.removeConn(c)
	for i, x := range p.conns {
		if x == c {
			p.conns = append(p.conns[:i], p.conns[i+1:]...)
			return
		}
	}
}

func (p *Patch) FindModule(name string) *Module {
	for _, m := range p.modules {
		if sameName(m.name, name) {
			return m
		}
	}
	return nil
}

func (p *Patch) FindInputJack(module, jack string) *InputJack {
	if m := p.FindModule(module); m != nil {
		return m.FindInputJack(jack)
	}
	return nil
}

func (p *Patch) FindOutputJack(module, jack string) *OutputJack {
	if m := p.FindModule(module); m != nil {
		return m.FindOutputJack(jack)
	}
	return nil
}

func (p *Patch) FindParameter(module, parm string) *Parameter {
	if m := p.FindModule(module); m != nil {
		return m.FindParameter(parm)
	}
	return nil
}

// ModulesOfKind returns the modules of kind k in patch order.
func (p *Patch) ModulesOfKind(k Kind) []*Module {
	var out []*Module
	for _, m := range p.modules {
		if m.kind == k {
			out = append(out, m)
		}
	}
	return out
}

// Reset prepares a template for another conversion: the slot pool is
// released, usage flags cleared and parameters restored to their initial
// values. Hardwired connections stay.
func (p *Patch) Reset() {
	p.pool.Reset()
	for _, m := range p.modules {
		m.reset()
	}
}

// MarkAllUsed flags every module, jack and parameter as used. Source
// patches that skip the usage analyzer are treated this way.
func (p *Patch) MarkAllUsed() {
	for _, m := range p.modules {
		m.state = Required
		for _, x := range m.params {
			x.used = true
		}
		for _, j := range m.inputs {
			j.used = true
		}
		for _, j := range m.outputs {
			j.used = true
		}
	}
}

// FinalOutput returns the first input jack of the first audio output
// module, the root of usage analysis.
func FinalOutput(p *Patch) *InputJack {
	for _, m := range p.ModulesOfKind(KindAudioOut) {
		if len(m.inputs) > 0 {
			return m.inputs[0]
		}
	}
	return nil
}

func moduleOf(j *InputJack) *Module {
	if j == nil {
		return nil
	}
	return j.module
}
