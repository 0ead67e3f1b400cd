package patchdoc

import (
	"patchconv/patch"
	"patchconv/resolve"
)

// FromPatch describes every module, jack and parameter of p.
func FromPatch(p *patch.Patch) *Document {
	e := &encoder{}
	return e.document(p)
}

// FromResult describes the converted target patch. Only used entities are
// written, renumbered densely, and each module names the source module it
// stands in for.
func FromResult(res *resolve.Result) *Document {
	e := &encoder{
		usedOnly: true,
		num:      res.Target.CompactNumbering(),
		from:     map[*patch.Module]string{},
	}
	for sm, tm := range res.Modules {
		e.from[tm] = sm.Name()
	}
	d := e.document(res.Target)
	d.ID = res.ID
	d.Name = res.Source.Name
	d.Number = res.Source.Number
	d.Bank = res.Source.Bank
	d.Comment = res.Source.Comment
	return d
}

type encoder struct {
	usedOnly bool
	num      *patch.Numbering
	from     map[*patch.Module]string
}

func (e *encoder) document(p *patch.Patch) *Document {
	d := &Document{
		Version:      patch.GenericVersion,
		SynthVersion: p.SynthVersion,
		ID:           p.ID,
		Name:         p.Name,
		Number:       p.Number,
		Bank:         p.Bank,
		Comment:      p.Comment,
	}
	for _, m := range p.Modules() {
		if e.usedOnly && m.State() <= patch.Unused {
			continue
		}
		d.Modules = append(d.Modules, e.module(m))
	}
	return d
}

func (e *encoder) module(m *patch.Module) ModuleDoc {
	md := ModuleDoc{
		Name:   m.Name(),
		Type:   string(m.Kind()),
		Number: m.Number(),
		From:   e.from[m],
	}
	if e.num != nil {
		md.Number = e.num.ModuleNumber(m)
	}
	if m.State() != patch.Unchecked {
		md.Used = m.State().String()
	}

	for _, p := range m.Parameters() {
		if !e.keepParm(p) {
			continue
		}
		pd := ParmDoc{Name: e.parmName(p), Unit: p.Unit, ResponseType: p.Response, Value: p.Value()}
		if p.Morph != nil && (!e.usedOnly || p.Morph.Used) {
			pd.Morph = &MorphDoc{Max: p.Morph.Max, Source: p.Morph.Source, Control: p.Morph.Control}
		}
		if p.Link != nil && e.keepLink(p.Link.Master) {
			pd.Link = p.Link.Master.Module().Name() + "/" + e.parmName(p.Link.Master)
		}
		md.Parms = append(md.Parms, pd)
	}

	for _, j := range m.InputJacks() {
		if e.usedOnly && !j.Used() {
			continue
		}
		jd := InputJackDoc{Name: e.jackName(j), Type: string(j.Type())}
		if att := j.Attenuator(); att != nil && e.keepParm(att) {
			jd.Attenuator = e.parmName(att)
		}
		if src := j.Source(); src != nil && (!e.usedOnly || j.ConnectedToUsed()) {
			jd.SourceModule = src.Module().Name()
			jd.SourceJack = src.Name()
		}
		md.InputJacks = append(md.InputJacks, jd)
	}

	for _, j := range m.OutputJacks() {
		if e.usedOnly && !j.Used() {
			continue
		}
		md.OutputJacks = append(md.OutputJacks, OutputJackDoc{
			Name:     j.Name(),
			Type:     string(j.Type()),
			Polarity: string(j.Polarity()),
		})
	}
	return md
}

func (e *encoder) keepParm(p *patch.Parameter) bool {
	return !e.usedOnly || p.Used()
}

// keepLink drops links to masters that are not written.
func (e *encoder) keepLink(master *patch.Parameter) bool {
	m := master.Module()
	if m == nil {
		return false
	}
	return !e.usedOnly || (master.Used() && m.State() > patch.Unused)
}

func (e *encoder) parmName(p *patch.Parameter) string {
	if e.num == nil {
		return p.Name()
	}
	return e.num.ParameterName(p)
}

func (e *encoder) jackName(j *patch.InputJack) string {
	if e.num == nil {
		return j.Name()
	}
	return e.num.JackName(j)
}
