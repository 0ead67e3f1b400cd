package blofeld

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"patchconv/patch"
)

// Export reads a Blofeld template, usually one a conversion has just
// resolved onto, back into a sound. Modules the conversion left unused are
// silenced. Values outside the sysex range are clamped.
func Export(p *patch.Patch) (*Sound, error) {
	e := &exporter{p: p}
	s := InitSound()
	if p.Name != "" {
		s.Name = p.Name
	}

	for i := range s.Oscillators {
		osc := "Osc" + strconv.Itoa(i+1)
		o := &s.Oscillators[i]
		o.Shape = e.index(osc, "Waveform", waveforms)
		if e.silent(osc) {
			o.Shape = 0
		}
		o.Octave = clamp(center + 12*e.num(osc, "Octave"))
		o.Pitch = e.signed(osc, "Semitone")
		o.Detune = e.signed(osc, "Detune")
		o.PW = e.unsigned(osc, "Pulse Width")
		o.Brilliance = e.unsigned(osc, "Brilliance")
		o.PWMSource = e.source(osc, pwmIn, modSources)
		o.PWM = e.unsigned(osc, pwmAmt)
		o.FMSource = e.source(osc, fmIn, fmSources)
		o.FM = e.unsigned(osc, fmAmt)
	}
	// one selector drives the pitch of all three oscillators
	s.OscPitchSource = e.source("Osc1", pitchIn, modSources)
	s.OscPitchAmount = e.signed("Osc1", pitchAmt)

	s.MixOsc1 = e.level(1)
	s.MixOsc2 = e.level(2)
	s.MixOsc3 = e.level(3)
	s.MixNoise = e.level(4)
	s.MixNoiseColor = e.signed("Noise", "Color")

	for i := range s.Filters {
		name := "Filter" + strconv.Itoa(i+1)
		f := &s.Filters[i]
		f.Type = e.index(name, "Type", filterTypes)
		if e.silent(name) {
			f.Type = 0
		}
		f.Cutoff = e.unsigned(name, "Cutoff")
		f.Res = e.unsigned(name, "Resonance")
		f.Drive = e.unsigned(name, "Drive")
		f.Keytrack = e.signed(name, "Keytrack")
		f.EnvAmt = e.signed(name, envAmt)
		f.ModSource = e.source(name, modIn, modSources)
		f.ModAmount = e.signed(name, modAmt)
		f.FMSource = e.source(name, fmIn, fmSources)
		f.FMAmount = e.unsigned(name, fmAmt)
	}

	for i := range s.Envelopes {
		name := "Env" + strconv.Itoa(i+1)
		env := &s.Envelopes[i]
		env.Attack = e.unsigned(name, "Attack")
		env.Decay = e.unsigned(name, "Decay")
		env.Sustain = e.unsigned(name, "Sustain")
		env.Release = e.unsigned(name, "Release")
	}

	for i := range s.LFOs {
		name := "LFO" + strconv.Itoa(i+1)
		l := &s.LFOs[i]
		l.Shape = e.index(name, "Shape", lfoShapes)
		l.Speed = e.unsigned(name, "Rate")
		l.Delay = e.unsigned(name, "Delay")
	}

	s.AmpVolume = e.unsigned("Amp", "Volume")
	s.AmpModSource = e.source("Amp", modIn, modSources)
	s.AmpModAmount = e.signed("Amp", modAmt)

	e.matrix(s)
	if e.err != nil {
		return nil, e.err
	}
	return s, nil
}

// exporter reads template parameters. The first missing entity is kept
// in err and later reads return zero values.
type exporter struct {
	p   *patch.Patch
	err error
}

func (e *exporter) module(name string) *patch.Module {
	m := e.p.FindModule(name)
	if m == nil && e.err == nil {
		e.err = fmt.Errorf("not a Blofeld template: %w", &patch.StructuralError{Op: "export", Module: name, Err: patch.ErrForeignModule})
	}
	return m
}

func (e *exporter) parm(module, name string) *patch.Parameter {
	m := e.module(module)
	if m == nil {
		return nil
	}
	p := m.FindParameter(name)
	if p == nil && e.err == nil {
		e.err = fmt.Errorf("not a Blofeld template: %w", &patch.StructuralError{Op: "export", Module: module, Jack: name, Err: patch.ErrMissingParameter})
	}
	return p
}

func (e *exporter) num(module, name string) int {
	p := e.parm(module, name)
	if p == nil {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(p.Value()), 64)
	if err != nil {
		return 0
	}
	return int(math.Round(f))
}

func (e *exporter) unsigned(module, name string) byte {
	return clamp(e.num(module, name))
}

func (e *exporter) signed(module, name string) byte {
	return clamp(center + e.num(module, name))
}

func (e *exporter) index(module, name string, t patch.Table) byte {
	p := e.parm(module, name)
	if p == nil {
		return 0
	}
	if i := t.Index(p.Value()); i >= 0 {
		return byte(i)
	}
	return 0
}

// silent reports whether a conversion marked the module unused.
func (e *exporter) silent(module string) bool {
	m := e.module(module)
	return m != nil && m.State() == patch.Unused
}

// source returns the selector code of whatever feeds the jack, 0 (off) if
// nothing used does.
func (e *exporter) source(module, jack string, list []source) byte {
	m := e.module(module)
	if m == nil {
		return 0
	}
	j := m.FindInputJack(jack)
	if j == nil || j.Source() == nil || (m.State() != patch.Unchecked && !j.Used()) {
		return 0
	}
	return sourceCode(j.Source().Module(), list)
}

func sourceCode(m *patch.Module, list []source) byte {
	for _, s := range list {
		if strings.EqualFold(s.module, m.Name()) {
			return s.code
		}
	}
	return 0
}

// level is a mixer input level, 0 for inputs the conversion did not use.
func (e *exporter) level(n int) byte {
	m := e.module("Mixer")
	if m == nil {
		return 0
	}
	j := m.FindInputJack(audioIn + strconv.Itoa(n))
	if j == nil || (m.State() != patch.Unchecked && !j.Used()) {
		return 0
	}
	return e.unsigned("Mixer", "Level"+strconv.Itoa(n))
}

// matrix fills the modulation matrix from the allocated matrix slots, in
// slot order.
func (e *exporter) matrix(s *Sound) {
	i := 0
	for _, slot := range e.p.Matrix().Slots() {
		if !slot.Injecting() || !slot.Allocated() || i >= len(s.ModMatrix) {
			continue
		}
		conns := slot.Connections()
		if len(conns) == 0 {
			continue
		}
		target := conns[0].Target()
		dest, ok := destCode(target)
		if !ok {
			continue
		}
		entry := MatrixEntry{
			Source: sourceCode(slot.Source().Module(), modSources),
			Dest:   dest,
			Amount: center,
		}
		if att := target.Attenuator(); att != nil {
			if f, err := strconv.ParseFloat(att.Value(), 64); err == nil {
				entry.Amount = clamp(center + int(math.Round(f)))
			}
		}
		s.ModMatrix[i] = entry
		i++
	}
}

func destCode(j *patch.InputJack) (byte, bool) {
	for _, d := range matrixDests {
		if strings.EqualFold(d.module, j.Module().Name()) && strings.EqualFold(d.jack, j.Prefix()) {
			return d.code, true
		}
	}
	return 0, false
}

func clamp(v int) byte {
	switch {
	case v < 0:
		return 0
	case v > 127:
		return 127
	}
	return byte(v)
}
