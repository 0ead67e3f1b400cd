package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type matrixFixture struct {
	p                  *Patch
	osc1, osc2, filter *Module
	lfo1, lfo2         *Module
}

func newMatrixFixture(t *testing.T) *matrixFixture {
	t.Helper()
	f := &matrixFixture{
		p:      New("test"),
		osc1:   newOsc("Osc1", 1),
		osc2:   newOsc("Osc2", 2),
		filter: NewModule("Filter1", KindFilter, 1),
		lfo1:   newLFO("LFO1", 1),
		lfo2:   newLFO("LFO2", 2),
	}
	f.filter.AddInputJack(NewInputJack("Audio In1", AudioInput), nil)
	f.filter.AddOutputJack(NewOutputJack("Audio Out", AudioOutput))
	mustAdd(t, f.p, f.osc1, f.osc2, f.filter, f.lfo1, f.lfo2)
	return f
}

func (f *matrixFixture) lfoOuts() []*OutputJack {
	return []*OutputJack{f.lfo1.FindOutputJack("Control Out"), f.lfo2.FindOutputJack("Control Out")}
}

func (f *matrixFixture) pwmSlot(name string) *Slot {
	return NewRoutingSlot(name, f.lfoOuts(),
		Route{{Module: f.osc1, Jack: "PWM In"}},
		Route{{Module: f.osc2, Jack: "PWM In"}})
}

func (f *matrixFixture) modSlot(name string) *Slot {
	return NewInjectingSlot(name, f.lfoOuts(),
		Route{{Module: f.filter, Jack: "Mod In", Attenuator: "Mod Amt", Validator: Range{Low: -64, High: 63}}})
}

func TestRoutingSlotAllocate(t *testing.T) {
	f := newMatrixFixture(t)
	s := f.p.Matrix().AddSlot(f.pwmSlot("PWM Source"))

	j, err := s.AllocateSingle(f.lfo2, "Control Out", f.osc2, "PWM In")
	require.NoError(t, err)
	assert.Same(t, f.osc2.FindInputJack("PWM In"), j)
	assert.Same(t, f.lfo2, j.Source().Module())
	assert.True(t, s.Allocated())
	assert.Equal(t, 1, s.SourceIndex())
	assert.Equal(t, 1, s.RouteIndex())

	_, err = s.AllocateSingle(f.lfo1, "Control Out", f.osc1, "PWM In")
	assert.ErrorIs(t, err, ErrNoRoute, "an allocated slot is busy")

	s.Release()
	s.Release()
	assert.False(t, s.Allocated())
	assert.False(t, j.Connected())
	assert.Empty(t, f.p.Connections())
}

func TestRoutingSlotRejects(t *testing.T) {
	f := newMatrixFixture(t)
	s := f.p.Matrix().AddSlot(f.pwmSlot("PWM Source"))

	_, err := s.AllocateSingle(f.osc1, "Audio Out", f.osc2, "PWM In")
	assert.ErrorIs(t, err, ErrNoRoute, "unlisted source")

	_, err = s.AllocateSingle(f.lfo1, "Control Out", f.filter, "PWM In")
	assert.ErrorIs(t, err, ErrNoRoute, "unlisted destination")

	mustConnect(t, f.p, "LFO2", "Control Out", "Osc1", "PWM In")
	_, err = s.AllocateSingle(f.lfo1, "Control Out", f.osc1, "PWM In")
	assert.ErrorIs(t, err, ErrNoRoute, "destination already wired")
	assert.False(t, s.Allocated())
}

func TestAllocateMultiIsAtomic(t *testing.T) {
	f := newMatrixFixture(t)
	s := f.p.Matrix().AddSlot(NewRoutingSlot("Osc Pitch", f.lfoOuts(),
		Route{{Module: f.osc1, Jack: "FM In"}, {Module: f.osc2, Jack: "FM In"}}))
	require.True(t, s.Multi())

	mustConnect(t, f.p, "LFO2", "Control Out", "Osc2", "FM In")
	_, err := s.AllocateMulti(f.lfo1, "Control Out", []*Module{f.osc1, f.osc2}, "FM In")
	assert.ErrorIs(t, err, ErrNoRoute)
	assert.False(t, f.osc1.FindInputJack("FM In").Connected(), "partial connection rolled back")
	assert.False(t, s.Allocated())

	f.p.Disconnect(f.osc2.FindInputJack("FM In").Connection())
	jacks, err := s.AllocateMulti(f.lfo1, "Control Out", []*Module{f.osc2, f.osc1}, "FM In")
	require.NoError(t, err)
	require.Len(t, jacks, 2)
	assert.Same(t, f.osc2, jacks[0].Module())
	assert.Same(t, f.osc1, jacks[1].Module())
	assert.Len(t, f.lfo1.FindOutputJack("Control Out").Connections(), 2)

	_, err = s.AllocateMulti(f.lfo1, "Control Out", []*Module{f.osc1}, "FM In")
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestInjectingSlot(t *testing.T) {
	f := newMatrixFixture(t)
	pool := f.p.Matrix()
	a := pool.AddSlot(f.modSlot("Mod1"))
	b := pool.AddSlot(f.modSlot("Mod2"))

	ja, err := a.AllocateSingle(f.lfo1, "Control Out", f.filter, "Mod In")
	require.NoError(t, err)
	jb, err := b.AllocateSingle(f.lfo2, "Control Out", f.filter, "Mod In")
	require.NoError(t, err)

	assert.Equal(t, "Mod In1", ja.Name())
	assert.Equal(t, "Mod In2", jb.Name())
	assert.Equal(t, "Mod Amt2", jb.Attenuator().Name())
	assert.Error(t, jb.Attenuator().Validate("100"))

	a.Release()
	assert.Nil(t, ja.Module())
	assert.Nil(t, f.filter.FindParameter("Mod Amt2"))
	assert.Equal(t, "Mod In1", jb.Name(), "remaining jack renumbered")
	assert.Equal(t, "Mod Amt1", jb.Attenuator().Name())

	b.Release()
	assert.Len(t, f.filter.InputJacks(), 1)
	assert.Empty(t, f.p.Connections())
}

func TestSourceGroup(t *testing.T) {
	f := newMatrixFixture(t)
	pool := f.p.Matrix()
	a := pool.AddSlot(f.pwmSlot("PWM A").InGroup("pwm"))
	b := pool.AddSlot(f.pwmSlot("PWM B").InGroup("pwm"))

	_, err := a.AllocateSingle(f.lfo1, "Control Out", f.osc1, "PWM In")
	require.NoError(t, err)
	assert.Same(t, f.lfo1.FindOutputJack("Control Out"), pool.GroupSource("pwm"))

	_, err = b.AllocateSingle(f.lfo2, "Control Out", f.osc2, "PWM In")
	assert.ErrorIs(t, err, ErrNoRoute, "group members share one source")

	_, err = b.AllocateSingle(f.lfo1, "Control Out", f.osc2, "PWM In")
	require.NoError(t, err)

	a.Release()
	assert.Same(t, f.lfo1.FindOutputJack("Control Out"), pool.GroupSource("pwm"))
	b.Release()
	assert.Nil(t, pool.GroupSource("pwm"))

	_, err = b.AllocateSingle(f.lfo2, "Control Out", f.osc2, "PWM In")
	assert.NoError(t, err)
}

func TestPoolResetRestoresSnapshot(t *testing.T) {
	f := newMatrixFixture(t)
	pool := f.p.Matrix()
	pwm := pool.AddSlot(f.pwmSlot("PWM Source"))
	mod := pool.AddSlot(f.modSlot("Mod1"))
	mustConnect(t, f.p, "Osc1", "Audio Out", "Filter1", "Audio In1")

	before := pool.Snapshot()
	conns := f.p.Connections()
	jacks := len(f.filter.InputJacks())

	_, err := pwm.AllocateSingle(f.lfo1, "Control Out", f.osc1, "PWM In")
	require.NoError(t, err)
	_, err = mod.AllocateSingle(f.lfo2, "Control Out", f.filter, "Mod In")
	require.NoError(t, err)
	assert.Len(t, pool.Allocated(), 2)

	pool.Reset()

	assert.Equal(t, before, pool.Snapshot())
	assert.Equal(t, conns, f.p.Connections())
	assert.Len(t, f.filter.InputJacks(), jacks)
	assert.Empty(t, pool.Allocated())
}

func TestPoolCapabilities(t *testing.T) {
	f := newMatrixFixture(t)
	pool := f.p.Matrix()
	pool.AddSlot(f.pwmSlot("PWM Source"))
	pool.AddSlot(f.modSlot("Mod1"))

	assert.True(t, pool.CanRoute(KindLFO, "Control Out", KindOscillator, "PWM In"))
	assert.False(t, pool.CanRoute(KindOscillator, "Audio Out", KindOscillator, "PWM In"))
	assert.True(t, pool.CanRoute(KindLFO, "Control Out", KindFilter, "Mod In"))

	assert.True(t, pool.CanRouteTo(KindLFO, "Control Out", f.osc2, "PWM In"))
	assert.False(t, pool.CanRouteTo(KindLFO, "Control Out", f.filter, "Mod In"), "injecting slots do not route to existing jacks")

	assert.True(t, pool.CanInject(KindLFO, "Control Out", f.filter, "Mod In"))
	assert.False(t, pool.CanInject(KindLFO, "Control Out", f.osc1, "PWM In"), "routing slots do not inject")
}
