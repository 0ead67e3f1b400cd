package resolve

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patchconv/patch"
)

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestConvertTwoOscillators(t *testing.T) {
	source := twoOscPatch(t)
	target := twoOscPatch(t)

	res, err := New(quiet()).Convert(source, target)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Trials)
	assert.Zero(t, res.Failures)
	assert.Empty(t, res.Allocations)
	assert.Empty(t, target.Matrix().Allocated())
	assert.NotEmpty(t, res.ID)
	assert.Same(t, target.FindModule("Osc1"), res.TargetOf("Osc1"))
	assert.Same(t, target.FindModule("Osc2"), res.TargetOf("Osc2"))
	assertInjective(t, res.Modules)

	for _, m := range target.Modules() {
		assert.Equal(t, patch.Required, m.State(), m.Name())
	}
	assert.True(t, target.FindParameter("Mixer", "Level2").Used())
}

func TestConvertIdenticalTemplateUsesHardwiresOnly(t *testing.T) {
	withLFO := func() *patch.Patch {
		p := twoOscPatch(t, lfo("LFO1", 1))
		wire(t, p, "LFO1", "Control Out", "Osc2", "PWM In")
		p.FindParameter("Osc2", "Waveform").SetValue("Pulse")
		p.FindParameter("Osc2", "PWM Amt").SetValue("25")
		return p
	}
	source, target := withLFO(), withLFO()

	res, err := New(quiet(), WithSourcePruning(true)).Convert(source, target)
	require.NoError(t, err)

	assert.Empty(t, res.Allocations)
	assert.Zero(t, res.Failures)
	assert.Equal(t, "25", target.FindParameter("Osc2", "PWM Amt").Value())
	assert.Equal(t, patch.PossibleModulator, target.FindModule("LFO1").State())
	assert.Same(t, target.FindInputJack("Osc2", "PWM In"),
		res.Jacks[source.FindInputJack("Osc2", "PWM In")])
}

func TestConvertPrefersMultiDestinationSlot(t *testing.T) {
	source := pwmSource(t)
	target := pwmTarget(t, "LFO1", "LFO2")

	res, err := New(quiet()).Convert(source, target)
	require.NoError(t, err)

	require.Len(t, res.Allocations, 1)
	assert.Equal(t, "PWM Both", res.Allocations[0].Slot)
	assert.Equal(t, "LFO1/Control Out", res.Allocations[0].Source)
	assert.ElementsMatch(t, []string{"Osc1/PWM In", "Osc2/PWM In"}, res.Allocations[0].Targets)
	assert.Zero(t, res.Failures)
	assert.Equal(t, "40", target.FindParameter("Osc1", "PWM Amt").Value())
	assert.Equal(t, "30", target.FindParameter("Osc2", "PWM Amt").Value())
	assert.Equal(t, patch.Unused, target.FindModule("LFO2").State())
}

func TestConvertWithoutMultiSlot(t *testing.T) {
	t.Run("strict", func(t *testing.T) {
		target := pwmTarget(t)
		_, err := New(quiet()).Convert(pwmSource(t), target)

		var ns *NoSolutionError
		require.ErrorAs(t, err, &ns)
		assert.False(t, ns.Truncated)
		assert.GreaterOrEqual(t, ns.Trials, 2)
		require.NotEmpty(t, ns.LastFailures)
		assert.Contains(t, ns.LastFailures[0], "multi destination")
		assert.Empty(t, target.Matrix().Allocated())
	})

	t.Run("fallback", func(t *testing.T) {
		res, err := New(quiet(), WithMultiDestFallback(true)).Convert(pwmSource(t), pwmTarget(t))
		require.NoError(t, err)

		assert.Zero(t, res.Failures)
		require.Len(t, res.Allocations, 2)
		assert.Equal(t, "PWM1", res.Allocations[0].Slot)
		assert.Equal(t, "PWM2", res.Allocations[1].Slot)
	})
}

func TestConvertMultiDestinationFailure(t *testing.T) {
	// the multi slot only takes LFO2, so the first assignment fails
	t.Run("backtracks", func(t *testing.T) {
		target := pwmTarget(t, "LFO2")
		res, err := New(quiet()).Convert(pwmSource(t), target)
		require.NoError(t, err)

		assert.Equal(t, 2, res.Trials)
		assert.Equal(t, 1, res.Failures)
		assert.Same(t, target.FindModule("LFO2"), res.TargetOf("LFO1"))
		require.Len(t, res.Allocations, 1)
		assert.Equal(t, "PWM Both", res.Allocations[0].Slot)
	})

	t.Run("fallback", func(t *testing.T) {
		res, err := New(quiet(), WithMultiDestFallback(true)).Convert(pwmSource(t), pwmTarget(t, "LFO2"))
		require.NoError(t, err)

		assert.Equal(t, 1, res.Trials)
		assert.Len(t, res.Allocations, 2)
	})

	t.Run("trial limit", func(t *testing.T) {
		_, err := New(quiet(), WithMaxTrials(1)).Convert(pwmSource(t), pwmTarget(t, "LFO2"))
		var ns *NoSolutionError
		require.ErrorAs(t, err, &ns)
		assert.True(t, ns.Truncated)
		assert.Equal(t, 1, ns.Trials)
		require.NotEmpty(t, ns.LastFailures)
		assert.Contains(t, ns.LastFailures[0], "multi destination")
	})
}

func TestConvertUnmatchableModule(t *testing.T) {
	source := twoOscPatch(t, noise("Noise"))
	target := pwmTarget(t, "LFO1")

	_, err := New(quiet()).Convert(source, target)

	var ue *UnmatchableError
	require.ErrorAs(t, err, &ue)
	require.Len(t, ue.Modules, 1)
	assert.Equal(t, "Noise", ue.Modules[0].Module)
	assert.Equal(t, patch.KindNoise, ue.Modules[0].Kind)
	assert.Contains(t, err.Error(), "Noise")
	assert.Empty(t, target.Matrix().Allocated())

	var ns *NoSolutionError
	assert.False(t, errors.As(err, &ns), "no search is attempted")
}

func TestConvertUnmatchableParameter(t *testing.T) {
	source := twoOscPatch(t)
	source.FindModule("Osc1").AddParameter(patch.NewParameter("Depth", patch.Range{Low: 0, High: 100}, "10"))

	// the only slot creates a Depth attenuator, but on the mixer
	target := twoOscPatch(t, lfo("LFO1", 1))
	target.Matrix().AddSlot(patch.NewInjectingSlot("Mix Mod",
		[]*patch.OutputJack{target.FindOutputJack("LFO1", "Control Out")},
		patch.Route{{Module: target.FindModule("Mixer"), Jack: "Mod In", Attenuator: "Depth", Validator: patch.Range{Low: 0, High: 100}}}))

	_, err := New(quiet()).Convert(source, target)

	var ue *UnmatchableError
	require.ErrorAs(t, err, &ue)
	require.Len(t, ue.Modules, 1)
	assert.Equal(t, "Osc1", ue.Modules[0].Module)
	require.Len(t, ue.Modules[0].Rejections, 2)
	assert.Contains(t, ue.Modules[0].Rejections[0].Reason, `no parameter "Depth"`)

	var ns *NoSolutionError
	assert.False(t, errors.As(err, &ns), "no search is attempted")
}

func TestConvertPruningWithoutOutput(t *testing.T) {
	source := build(t, osc("Osc1", 1), mixer("Mixer", 1))
	wire(t, source, "Osc1", "Audio Out", "Mixer", "Audio In1")

	_, err := New(quiet(), WithSourcePruning(true)).Convert(source, twoOscPatch(t))
	assert.ErrorIs(t, err, ErrNoFinalOutput)

	_, err = New(quiet()).Convert(source, twoOscPatch(t))
	assert.NotErrorIs(t, err, ErrNoFinalOutput)
}

func TestConvertSourcePruningDropsSilentModules(t *testing.T) {
	source := twoOscPatch(t, noise("Noise"))

	_, err := New(quiet(), WithSourcePruning(true)).Convert(source, twoOscPatch(t))
	require.NoError(t, err)
}

func TestConvertWithoutRouting(t *testing.T) {
	source := pwmSource(t)
	target := twoOscPatch(t, lfo("LFO1", 1))

	_, err := New(quiet()).Convert(source, target)

	var ue *UnmatchableError
	require.ErrorAs(t, err, &ue, "no slot advertises the pulse width routing")
}

func TestConvertWarnings(t *testing.T) {
	source := twoOscPatch(t)
	pw := source.FindParameter("Osc1", "Pulse Width")
	pw.SetValue("150")
	pw.WithMorph("velocity", "amount")
	pw.Morph.Max = "80"
	pw.Morph.Used = true
	source.FindParameter("Osc2", "Pulse Width").SetValue("20")

	target := twoOscPatch(t)
	master := target.FindParameter("Osc1", "Pulse Width")
	target.FindParameter("Osc2", "Pulse Width").Link = &patch.Link{Master: master}

	res, err := New(quiet()).Convert(source, target)
	require.NoError(t, err)

	var rng *ValueOutOfRangeWarning
	var pws []*ParameterWarning
	for _, w := range res.Warnings {
		var warn *ParameterWarning
		if errors.As(w, &warn) {
			pws = append(pws, warn)
		}
		if rng == nil {
			errors.As(w, &rng)
		}
	}
	require.NotNil(t, rng)
	assert.Equal(t, "Pulse Width", rng.Parameter)
	assert.Equal(t, "150", master.Value(), "out of range values are copied")

	require.Len(t, pws, 2)
	assert.Contains(t, pws[0].Message, "morph")
	assert.Contains(t, pws[1].Message, "linked")
	assert.Equal(t, "150", target.FindParameter("Osc2", "Pulse Width").Value())
	assert.Len(t, res.Summary().Warnings, 3)
}

func TestConvertReusesTemplate(t *testing.T) {
	target := pwmTarget(t, "LFO1")
	conv := New(quiet())

	first, err := conv.Convert(pwmSource(t), target)
	require.NoError(t, err)
	require.Len(t, first.Allocations, 1)

	second, err := conv.Convert(twoOscPatch(t), target)
	require.NoError(t, err)
	assert.Empty(t, second.Allocations)
	assert.False(t, target.FindInputJack("Osc1", "PWM In").Connected())
	assert.Equal(t, "0", target.FindParameter("Osc1", "PWM Amt").Value())
	assert.Equal(t, patch.Unused, target.FindModule("LFO1").State())
	assert.NotEqual(t, first.ID, second.ID)
}

func TestTrialRollback(t *testing.T) {
	source := pwmSource(t)
	source.MarkAllUsed()
	target := pwmTarget(t)
	// Osc2's modulation input is already taken, so the trial fails after
	// PWM1 has been allocated for Osc1
	_, err := target.ConnectByName("LFO2", "Control Out", "Osc2", "PWM In")
	require.NoError(t, err)

	before := target.Matrix().Snapshot()
	conns := target.Connections()

	tr := newTrial(source, target, identity(t, source, target), true)
	require.NoError(t, tr.run())

	assert.True(t, tr.fail.failed())
	assert.Equal(t, before, target.Matrix().Snapshot())
	assert.Equal(t, conns, target.Connections())
	assert.False(t, target.FindInputJack("Osc1", "PWM In").Connected())
}
