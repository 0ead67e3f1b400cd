package resolve

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"patchconv/patch"
)

func osc(name string, n int) *patch.Module {
	m := patch.NewModule(name, patch.KindOscillator, n)
	m.AddParameter(patch.NewParameter("Waveform", patch.Table{"Saw", "Pulse", "Sine"}, "Saw"))
	m.AddParameter(patch.NewParameter("Pulse Width", patch.Range{Low: 0, High: 100}, "50"))
	m.AddInputJack(patch.NewInputJack("PWM In", patch.ControlInput),
		patch.NewParameter("PWM Amt", patch.Range{Low: -100, High: 100}, "0"))
	m.AddOutputJack(patch.NewOutputJack("Audio Out", patch.AudioOutput))
	return m
}

func lfo(name string, n int) *patch.Module {
	m := patch.NewModule(name, patch.KindLFO, n)
	m.AddParameter(patch.NewParameter("Rate", patch.Range{Low: 0, High: 127}, "64"))
	m.AddOutputJack(patch.NewOutputJack("Control Out", patch.ControlOutput))
	return m
}

func noise(name string) *patch.Module {
	m := patch.NewModule(name, patch.KindNoise, 1)
	m.AddOutputJack(patch.NewOutputJack("Audio Out", patch.AudioOutput))
	return m
}

func mixer(name string, inputs int) *patch.Module {
	m := patch.NewModule(name, patch.KindMixer, 1)
	for i := 1; i <= inputs; i++ {
		n := strconv.Itoa(i)
		m.AddInputJack(patch.NewInputJack("Audio In"+n, patch.AudioInput),
			patch.NewParameter("Level"+n, patch.Range{Low: 0, High: 100}, "100"))
	}
	m.AddOutputJack(patch.NewOutputJack("Audio Out", patch.AudioOutput))
	return m
}

func audioOut() *patch.Module {
	m := patch.NewModule("Out", patch.KindAudioOut, 1)
	m.AddInputJack(patch.NewInputJack("Audio In", patch.AudioInput), nil)
	return m
}

func build(t *testing.T, mods ...*patch.Module) *patch.Patch {
	t.Helper()
	p := patch.New("test")
	for _, m := range mods {
		_, err := p.AddModule(m)
		require.NoError(t, err)
	}
	return p
}

func wire(t *testing.T, p *patch.Patch, sm, sj, dm, dj string) {
	t.Helper()
	_, err := p.ConnectByName(sm, sj, dm, dj)
	require.NoError(t, err)
}

// twoOscPatch is two oscillators into a two input mixer into the output.
func twoOscPatch(t *testing.T, extra ...*patch.Module) *patch.Patch {
	t.Helper()
	mods := append([]*patch.Module{osc("Osc1", 1), osc("Osc2", 2), mixer("Mixer", 2), audioOut()}, extra...)
	p := build(t, mods...)
	wire(t, p, "Osc1", "Audio Out", "Mixer", "Audio In1")
	wire(t, p, "Osc2", "Audio Out", "Mixer", "Audio In2")
	wire(t, p, "Mixer", "Audio Out", "Out", "Audio In")
	return p
}

// pwmSource is twoOscPatch with LFO1 modulating both pulse widths.
func pwmSource(t *testing.T) *patch.Patch {
	t.Helper()
	p := twoOscPatch(t, lfo("LFO1", 1))
	for _, name := range []string{"Osc1", "Osc2"} {
		p.FindParameter(name, "Waveform").SetValue("Pulse")
		wire(t, p, "LFO1", "Control Out", name, "PWM In")
	}
	p.FindParameter("Osc1", "PWM Amt").SetValue("40")
	p.FindParameter("Osc2", "PWM Amt").SetValue("30")
	return p
}

// pwmTarget is a two oscillator template without hardwired pulse width
// modulation. Single slots come first in the pool.
func pwmTarget(t *testing.T, multiSources ...string) *patch.Patch {
	t.Helper()
	p := twoOscPatch(t, lfo("LFO1", 1), lfo("LFO2", 2))
	outs := []*patch.OutputJack{
		p.FindOutputJack("LFO1", "Control Out"),
		p.FindOutputJack("LFO2", "Control Out"),
	}
	osc1, osc2 := p.FindModule("Osc1"), p.FindModule("Osc2")
	pool := p.Matrix()
	pool.AddSlot(patch.NewRoutingSlot("PWM1", outs, patch.Route{{Module: osc1, Jack: "PWM In"}}))
	pool.AddSlot(patch.NewRoutingSlot("PWM2", outs, patch.Route{{Module: osc2, Jack: "PWM In"}}))
	if len(multiSources) > 0 {
		var srcs []*patch.OutputJack
		for _, name := range multiSources {
			srcs = append(srcs, p.FindOutputJack(name, "Control Out"))
		}
		pool.AddSlot(patch.NewRoutingSlot("PWM Both", srcs,
			patch.Route{{Module: osc1, Jack: "PWM In"}, {Module: osc2, Jack: "PWM In"}}))
	}
	return p
}

func identity(t *testing.T, source, target *patch.Patch) Assignment {
	t.Helper()
	a := Assignment{}
	for _, sm := range source.Modules() {
		tm := target.FindModule(sm.Name())
		require.NotNil(t, tm, sm.Name())
		a[sm] = tm
	}
	return a
}
