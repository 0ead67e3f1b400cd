package patch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOsc(name string, number int) *Module {
	m := NewModule(name, KindOscillator, number)
	m.AddParameter(NewParameter("Waveform", Table{"Saw", "Pulse", "Sine"}, "Saw"))
	m.AddParameter(NewParameter("Pulse Width", Range{Low: 0, High: 100}, "50"))
	m.AddInputJack(NewInputJack("PWM In", ControlInput), NewParameter("PWM Amt", Range{Low: -100, High: 100}, "0"))
	m.AddInputJack(NewInputJack("FM In", ControlInput), NewParameter("FM Amt", Range{Low: -100, High: 100}, "0"))
	m.AddOutputJack(NewOutputJack("Audio Out", AudioOutput))
	return m
}

func newLFO(name string, number int) *Module {
	m := NewModule(name, KindLFO, number)
	m.AddParameter(NewParameter("Rate", Range{Low: 0, High: 127}, "64"))
	m.AddOutputJack(NewOutputJack("Control Out", ControlOutput))
	return m
}

func newMixer(name string, inputs int) *Module {
	m := NewModule(name, KindMixer, 1)
	for i := 1; i <= inputs; i++ {
		m.AddInputJack(
			NewInputJack(withNumber("Audio In", i), AudioInput),
			NewParameter(withNumber("Level", i), Range{Low: 0, High: 100}, "100"))
	}
	m.AddOutputJack(NewOutputJack("Audio Out", AudioOutput))
	return m
}

func newOut() *Module {
	m := NewModule("Out", KindAudioOut, 1)
	m.AddInputJack(NewInputJack("Audio In", AudioInput), nil)
	return m
}

func mustAdd(t *testing.T, p *Patch, mods ...*Module) {
	t.Helper()
	for _, m := range mods {
		_, err := p.AddModule(m)
		require.NoError(t, err)
	}
}

func mustConnect(t *testing.T, p *Patch, sm, sj, dm, dj string) *Connection {
	t.Helper()
	c, err := p.ConnectByName(sm, sj, dm, dj)
	require.NoError(t, err)
	return c
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in     string
		prefix string
		number int
	}{
		{"Audio In12", "Audio In", 12},
		{"Audio In", "Audio In", 0},
		{"Level3", "Level", 3},
		{"42", "42", 0},
		{"", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, n := splitName(tt.in)
			assert.Equal(t, tt.prefix, p)
			assert.Equal(t, tt.number, n)
		})
	}
}

func TestRenumberJacksDenseIsNoop(t *testing.T) {
	m := newMixer("Mixer", 3)
	before := []string{}
	for _, j := range m.InputJacks() {
		before = append(before, j.Name(), j.Attenuator().Name())
	}

	m.RenumberJacks()
	m.RenumberJacks()

	after := []string{}
	for _, j := range m.InputJacks() {
		after = append(after, j.Name(), j.Attenuator().Name())
	}
	assert.Equal(t, before, after)
}

func TestRenumberJacksCompactsGaps(t *testing.T) {
	m := NewModule("Mixer", KindMixer, 1)
	for _, n := range []int{2, 5, 7} {
		m.AddInputJack(
			NewInputJack(withNumber("Audio In", n), AudioInput),
			NewParameter(withNumber("Level", n), nil, "0"))
	}
	m.AddInputJack(NewInputJack("Gain In", ControlInput), nil)

	m.RenumberJacks()

	var names, atts []string
	for _, j := range m.InputJacks() {
		names = append(names, j.Name())
		if j.Attenuator() != nil {
			atts = append(atts, j.Attenuator().Name())
		}
	}
	assert.Equal(t, []string{"Audio In1", "Audio In2", "Audio In3", "Gain In"}, names)
	assert.Equal(t, []string{"Level1", "Level2", "Level3"}, atts)
}

func TestInjectInputJack(t *testing.T) {
	m := NewModule("Filter1", KindFilter, 1)
	m.AddInputJack(NewInputJack("Mod In1", ControlInput), NewParameter("Mod Amt1", nil, "0"))

	j := m.InjectInputJack(NewInputJack("Mod In", ControlInput), NewParameter("Mod Amt", nil, "0"))

	assert.Equal(t, "Mod In2", j.Name())
	require.NotNil(t, j.Attenuator())
	assert.Equal(t, "Mod Amt2", j.Attenuator().Name())
	assert.Same(t, m, j.Module())
	assert.Same(t, j, m.FindInputJack("mod in2"))
	assert.NotNil(t, m.FindParameter("Mod Amt2"))
}

func TestConnect(t *testing.T) {
	p := New("test")
	mustAdd(t, p, newOsc("Osc1", 1), newOsc("Osc2", 2), newMixer("Mixer", 2))

	c := mustConnect(t, p, "Osc1", "Audio Out", "Mixer", "Audio In1")
	assert.Same(t, c, p.FindInputJack("Mixer", "Audio In1").Connection())
	assert.Equal(t, []*Connection{c}, p.FindOutputJack("Osc1", "Audio Out").Connections())
	assert.Equal(t, "Osc1/Audio Out -> Mixer/Audio In1", c.String())

	t.Run("duplicate", func(t *testing.T) {
		_, err := p.ConnectByName("Osc2", "Audio Out", "Mixer", "Audio In1")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDuplicateConnection))
		var se *StructuralError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "Mixer", se.Module)
		assert.Equal(t, "Audio In1", se.Jack)
	})

	t.Run("missing jack", func(t *testing.T) {
		_, err := p.ConnectByName("Osc2", "Audio Out", "Mixer", "Audio In9")
		assert.ErrorIs(t, err, ErrMissingJack)
	})

	t.Run("foreign module", func(t *testing.T) {
		stray := newOsc("Stray", 9)
		_, err := p.Connect(stray.FindOutputJack("Audio Out"), p.FindInputJack("Mixer", "Audio In2"))
		assert.ErrorIs(t, err, ErrForeignModule)
		assert.False(t, p.FindInputJack("Mixer", "Audio In2").Connected())
	})

	t.Run("duplicate module", func(t *testing.T) {
		_, err := p.AddModule(newOsc("osc1", 3))
		assert.ErrorIs(t, err, ErrDuplicateModule)
	})
}

func TestDisconnectIsIdempotent(t *testing.T) {
	p := New("test")
	mustAdd(t, p, newOsc("Osc1", 1), newMixer("Mixer", 1))
	c := mustConnect(t, p, "Osc1", "Audio Out", "Mixer", "Audio In1")

	p.Disconnect(c)
	p.Disconnect(c)

	assert.Empty(t, p.Connections())
	assert.False(t, p.FindInputJack("Mixer", "Audio In1").Connected())
	assert.Empty(t, p.FindOutputJack("Osc1", "Audio Out").Connections())
}

func TestRemoveModuleDetachesConnections(t *testing.T) {
	p := New("test")
	osc := newOsc("Osc1", 1)
	mustAdd(t, p, osc, newMixer("Mixer", 1), newOut(), newLFO("LFO1", 1))
	mustConnect(t, p, "Osc1", "Audio Out", "Mixer", "Audio In1")
	mustConnect(t, p, "LFO1", "Control Out", "Osc1", "PWM In")
	mustConnect(t, p, "Mixer", "Audio Out", "Out", "Audio In")

	p.RemoveModule(osc)

	assert.False(t, p.Owns(osc))
	assert.Nil(t, p.FindModule("Osc1"))
	assert.Len(t, p.Connections(), 1)
	assert.False(t, p.FindInputJack("Mixer", "Audio In1").Connected())
	assert.Empty(t, p.FindOutputJack("LFO1", "Control Out").Connections())
}

func TestRemoveModuleRenumbersKind(t *testing.T) {
	p := New("test")
	osc1, osc2, osc3 := newOsc("Osc1", 1), newOsc("Osc2", 2), newOsc("Osc3", 3)
	lfo := newLFO("LFO2", 2)
	mustAdd(t, p, osc1, osc2, osc3, lfo)

	p.RemoveModule(osc2)
	assert.Equal(t, 1, osc1.Number())
	assert.Equal(t, 2, osc3.Number())
	assert.Equal(t, "Osc3", osc3.Name(), "names are identifiers and stay")
	assert.Equal(t, 2, lfo.Number(), "other kinds keep their numbers")

	p.RemoveModule(osc3)
	assert.Equal(t, 1, osc1.Number())
}

func TestResetRestoresTemplate(t *testing.T) {
	p := New("test")
	osc := newOsc("Osc1", 1)
	mustAdd(t, p, osc)
	p.MarkAllUsed()
	osc.FindParameter("Pulse Width").SetValue("10")

	p.Reset()

	assert.Equal(t, Unchecked, osc.State())
	assert.Equal(t, "50", osc.FindParameter("Pulse Width").Value())
	assert.False(t, osc.FindParameter("Pulse Width").Used())
	assert.False(t, osc.FindOutputJack("Audio Out").Used())
}

func TestParameterValidators(t *testing.T) {
	r := Range{Low: 0, High: 127}
	assert.NoError(t, r.Validate("127"))
	assert.Error(t, r.Validate("128"))
	assert.Error(t, r.Validate("loud"))

	tab := Table{"Off", "On"}
	assert.NoError(t, tab.Validate("on"))
	assert.Error(t, tab.Validate("maybe"))
	assert.Equal(t, 1, tab.Index("ON"))
}

func TestParameterIsZero(t *testing.T) {
	p := NewParameter("PWM Amt", nil, "0")
	assert.True(t, p.IsZero())

	p.WithMorph("velocity", "amount")
	assert.True(t, p.IsZero())
	p.Morph.Max = "20"
	assert.False(t, p.IsZero())

	p = NewParameter("PWM Amt", nil, "0.5")
	assert.False(t, p.IsZero())
}

func TestCompactNumbering(t *testing.T) {
	p := New("test")
	o3, o5 := newOsc("Osc3", 3), newOsc("Osc5", 5)
	mix := newMixer("Mixer", 3)
	mustAdd(t, p, o3, o5, mix)
	p.MarkAllUsed()
	mix.FindInputJack("Audio In2").SetUsed(false)

	n := p.CompactNumbering()

	assert.Equal(t, 1, n.ModuleNumber(o3))
	assert.Equal(t, 2, n.ModuleNumber(o5))
	assert.Equal(t, "Audio In1", n.JackName(mix.FindInputJack("Audio In1")))
	assert.Equal(t, "Audio In2", n.JackName(mix.FindInputJack("Audio In3")))
	assert.Equal(t, "Level2", n.ParameterName(mix.FindParameter("Level3")))
	assert.Equal(t, "Audio In3", mix.InputJacks()[2].Name(), "patch itself is untouched")
}
