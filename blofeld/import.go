package blofeld

import (
	"fmt"
	"strconv"

	"patchconv/patch"
)

// Import turns a sound into a Blofeld template patch that can serve as the
// source of a conversion. Selector settings and matrix entries become slot
// allocations. Wavetable shapes are read as Saw; matrix sources and
// destinations the template does not model are skipped.
func Import(s *Sound) (*patch.Patch, error) {
	p := Template()
	p.Name = s.Name
	im := &importer{p: p}

	for i, o := range s.Oscillators {
		osc := "Osc" + strconv.Itoa(i+1)
		shape := "Saw"
		if int(o.Shape) < len(waveforms) {
			shape = waveforms[o.Shape]
		}
		im.set(osc, "Waveform", shape)
		im.set(osc, "Octave", strconv.Itoa((int(o.Octave)-center)/12))
		im.signed(osc, "Semitone", o.Pitch)
		im.signed(osc, "Detune", o.Detune)
		im.unsigned(osc, "Pulse Width", o.PW)
		im.unsigned(osc, "Brilliance", o.Brilliance)
		im.unsigned(osc, pwmAmt, o.PWM)
		im.unsigned(osc, fmAmt, o.FM)
		im.signed(osc, pitchAmt, s.OscPitchAmount)
		im.selector(osc+" PWM", o.PWMSource, modSources, osc, pwmIn)
		im.selector(osc+" FM", o.FMSource, fmSources, osc, fmIn)
	}
	if src := moduleFor(p, s.OscPitchSource, modSources); src != nil {
		dsts := []*patch.Module{p.FindModule("Osc1"), p.FindModule("Osc2"), p.FindModule("Osc3")}
		if _, err := im.slot("Osc Pitch").AllocateMulti(src, controlOut, dsts, pitchIn); err != nil && im.err == nil {
			im.err = fmt.Errorf("osc pitch: %w", err)
		}
	}

	for i, level := range []byte{s.MixOsc1, s.MixOsc2, s.MixOsc3, s.MixNoise} {
		im.unsigned("Mixer", "Level"+strconv.Itoa(i+1), level)
	}
	im.signed("Noise", "Color", s.MixNoiseColor)

	for i, f := range s.Filters {
		name := "Filter" + strconv.Itoa(i+1)
		if int(f.Type) < len(filterTypes) {
			im.set(name, "Type", filterTypes[f.Type])
		}
		im.unsigned(name, "Cutoff", f.Cutoff)
		im.unsigned(name, "Resonance", f.Res)
		im.unsigned(name, "Drive", f.Drive)
		im.signed(name, "Keytrack", f.Keytrack)
		im.signed(name, envAmt, f.EnvAmt)
		im.signed(name, modAmt, f.ModAmount)
		im.unsigned(name, fmAmt, f.FMAmount)
		im.selector(name+" Mod", f.ModSource, modSources, name, modIn)
		im.selector(name+" FM", f.FMSource, fmSources, name, fmIn)
	}

	for i, env := range s.Envelopes {
		name := "Env" + strconv.Itoa(i+1)
		im.unsigned(name, "Attack", env.Attack)
		im.unsigned(name, "Decay", env.Decay)
		im.unsigned(name, "Sustain", env.Sustain)
		im.unsigned(name, "Release", env.Release)
	}

	for i, l := range s.LFOs {
		name := "LFO" + strconv.Itoa(i+1)
		if int(l.Shape) < len(lfoShapes) {
			im.set(name, "Shape", lfoShapes[l.Shape])
		}
		im.unsigned(name, "Rate", l.Speed)
		im.unsigned(name, "Delay", l.Delay)
	}

	im.unsigned("Amp", "Volume", s.AmpVolume)
	im.signed("Amp", modAmt, s.AmpModAmount)
	im.selector("Amp Mod", s.AmpModSource, modSources, "Amp", modIn)

	im.matrix(s)
	if im.err != nil {
		return nil, im.err
	}
	return p, nil
}

type importer struct {
	p   *patch.Patch
	err error
}

func (im *importer) set(module, name, value string) {
	if p := im.p.FindParameter(module, name); p != nil {
		p.SetValue(value)
	}
}

func (im *importer) unsigned(module, name string, b byte) {
	im.set(module, name, strconv.Itoa(int(b)))
}

func (im *importer) signed(module, name string, b byte) {
	im.set(module, name, strconv.Itoa(int(b)-center))
}

func (im *importer) slot(name string) *patch.Slot {
	for _, s := range im.p.Matrix().Slots() {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// selector allocates the named routing slot for a section source code.
func (im *importer) selector(slot string, code byte, list []source, module, jack string) {
	src := moduleFor(im.p, code, list)
	if src == nil {
		return
	}
	out := src.OutputJacks()[0].Name()
	if _, err := im.slot(slot).AllocateSingle(src, out, im.p.FindModule(module), jack); err != nil && im.err == nil {
		im.err = fmt.Errorf("%s: %w", slot, err)
	}
}

func (im *importer) matrix(s *Sound) {
	n := 0
	for _, entry := range s.ModMatrix {
		src := moduleFor(im.p, entry.Source, modSources)
		dest, ok := matrixDestFor(entry.Dest)
		if src == nil || !ok {
			continue
		}
		n++
		slot := im.slot(matrixSlot + strconv.Itoa(n))
		j, err := slot.AllocateSingle(src, controlOut, im.p.FindModule(dest.module), dest.jack)
		if err != nil {
			if im.err == nil {
				im.err = fmt.Errorf("%s: %w", slot.Name, err)
			}
			return
		}
		j.Attenuator().SetValue(strconv.Itoa(int(entry.Amount) - center))
	}
}

func moduleFor(p *patch.Patch, code byte, list []source) *patch.Module {
	if code == 0 {
		return nil
	}
	for _, s := range list {
		if s.code == code {
			return p.FindModule(s.module)
		}
	}
	return nil
}

func matrixDestFor(code byte) (matrixDest, bool) {
	for _, d := range matrixDests {
		if d.code == code {
			return d, true
		}
	}
	return matrixDest{}, false
}
