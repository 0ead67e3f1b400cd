package patchdoc

import (
	"fmt"
	"strings"

	"patchconv/patch"
)

// Patch builds the generic patch described by d. Connections and links
// may reference modules declared later in the document; a reference to a
// module, jack or parameter that does not exist is a structural error.
func (d *Document) Patch() (*patch.Patch, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	p := patch.New(d.SynthVersion)
	p.Version = d.Version
	p.ID = d.ID
	p.Name = d.Name
	p.Number = d.Number
	p.Bank = d.Bank
	p.Comment = d.Comment

	for _, md := range d.Modules {
		m, err := md.module()
		if err != nil {
			return nil, err
		}
		if _, err := p.AddModule(m); err != nil {
			return nil, err
		}
	}

	for _, md := range d.Modules {
		for _, jd := range md.InputJacks {
			if jd.SourceModule == "" {
				continue
			}
			if _, err := p.ConnectByName(jd.SourceModule, jd.SourceJack, md.Name, jd.Name); err != nil {
				return nil, fmt.Errorf("module %s: %w", md.Name, err)
			}
		}
		for _, pd := range md.Parms {
			if pd.Link == "" {
				continue
			}
			if err := link(p, md.Name, pd); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

func (md *ModuleDoc) module() (*patch.Module, error) {
	kind, err := patch.ParseKind(md.Type)
	if err != nil {
		return nil, &patch.StructuralError{Op: "read module", Module: md.Name, Err: err}
	}
	m := patch.NewModule(md.Name, kind, md.Number)
	if md.Used != "" {
		st, err := patch.ParseUsageState(md.Used)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", md.Name, err)
		}
		m.SetState(st)
	}

	for _, pd := range md.Parms {
		parm := patch.NewParameter(pd.Name, nil, pd.Value).WithUnit(pd.Unit, pd.ResponseType)
		if pd.Morph != nil {
			parm.Morph = &patch.Morph{Max: pd.Morph.Max, Source: pd.Morph.Source, Control: pd.Morph.Control, Used: pd.Morph.Max != ""}
		}
		m.AddParameter(parm)
	}

	for _, jd := range md.InputJacks {
		typ, err := patch.ParseJackType(jd.Type)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", md.Name, err)
		}
		var att *patch.Parameter
		if jd.Attenuator != "" {
			if att = m.FindParameter(jd.Attenuator); att == nil {
				return nil, &patch.StructuralError{Op: "read jack", Module: md.Name, Jack: jd.Name, Err: patch.ErrMissingParameter}
			}
		}
		m.AddInputJack(patch.NewInputJack(jd.Name, typ), att)
	}

	for _, jd := range md.OutputJacks {
		typ, err := patch.ParseJackType(jd.Type)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", md.Name, err)
		}
		pol, err := patch.ParsePolarity(jd.Polarity)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", md.Name, err)
		}
		m.AddOutputJack(patch.NewOutputJack(jd.Name, typ).WithPolarity(pol))
	}
	return m, nil
}

func link(p *patch.Patch, module string, pd ParmDoc) error {
	mod, name, ok := strings.Cut(pd.Link, "/")
	if !ok {
		return fmt.Errorf("module %s parm %s: link %q is not module/parm", module, pd.Name, pd.Link)
	}
	master := p.FindParameter(mod, name)
	if master == nil {
		return &patch.StructuralError{Op: "link", Module: mod, Jack: name, Err: patch.ErrMissingParameter}
	}
	p.FindParameter(module, pd.Name).Link = &patch.Link{Master: master}
	return nil
}
