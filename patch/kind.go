package patch

import (
	"fmt"
	"strings"
)

// Kind is the closed set of module types a generic patch may contain.
type Kind string

const (
	KindOscillator Kind = "osc"
	KindFilter     Kind = "filter"
	KindEnvADSR    Kind = "env_adsr"
	KindEnvAR      Kind = "env_ar"
	KindLFO        Kind = "lfo"
	KindMixer      Kind = "mixer"
	KindVCA        Kind = "vca"
	KindModVCA     Kind = "mod_vca"
	KindNoise      Kind = "noise"
	KindAudioOut   Kind = "audio_out"
	KindConstant   Kind = "constant"
	KindVoice      Kind = "voice_parms"
	KindPatch      Kind = "patch_parms"
	KindPortamento Kind = "portamento"
)

var kinds = []Kind{
	KindOscillator, KindFilter, KindEnvADSR, KindEnvAR, KindLFO, KindMixer,
	KindVCA, KindModVCA, KindNoise, KindAudioOut, KindConstant, KindVoice,
	KindPatch, KindPortamento,
}

// ParseKind maps a document type tag onto a Kind, ignoring case.
func ParseKind(s string) (Kind, error) {
	for _, k := range kinds {
		if strings.EqualFold(string(k), s) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// UsageState records what the usage analyzer decided about a module.
type UsageState int

const (
	Unchecked UsageState = iota
	Unused
	PossibleModulator
	Required
)

var usageNames = []string{"not_checked", "unused", "possible_modulator", "required"}

func (u UsageState) String() string {
	if u < 0 || int(u) >= len(usageNames) {
		return fmt.Sprintf("UsageState(%d)", int(u))
	}
	return usageNames[u]
}

// ParseUsageState accepts the document spelling of a usage state.
func ParseUsageState(s string) (UsageState, error) {
	for i, n := range usageNames {
		if strings.EqualFold(n, s) {
			return UsageState(i), nil
		}
	}
	return Unchecked, fmt.Errorf("unknown usage state %q", s)
}

// JackType is the signal class of a jack.
type JackType string

const (
	ControlInput  JackType = "control_input"
	ControlOutput JackType = "control_output"
	AudioInput    JackType = "audio_input"
	AudioOutput   JackType = "audio_output"
)

// ParseJackType accepts the document spelling of a jack type.
func ParseJackType(s string) (JackType, error) {
	for _, t := range []JackType{ControlInput, ControlOutput, AudioInput, AudioOutput} {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown jack type %q", s)
}

// Polarity describes the range of an output signal.
type Polarity string

const (
	Bipolar  Polarity = "bipolar"
	Positive Polarity = "positive"
	Negative Polarity = "negative"
)

// ParsePolarity defaults to Bipolar for an empty string.
func ParsePolarity(s string) (Polarity, error) {
	if s == "" {
		return Bipolar, nil
	}
	for _, p := range []Polarity{Bipolar, Positive, Negative} {
		if strings.EqualFold(string(p), s) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown polarity %q", s)
}

// usageRule adjusts parameter usage (and possibly the module state) once a
// module has been reached by the analyzer.
type usageRule func(m *Module)

var usageRules = map[Kind]usageRule{
	KindOscillator: oscillatorUsage,
	KindMixer:      mixerUsage,
}

func applyUsageRules(m *Module) {
	baseParamUsage(m)
	if rule, ok := usageRules[m.kind]; ok {
		rule(m)
	}
}

// baseParamUsage marks every parameter used except attenuators that
// are zero with no morph away from zero.
func baseParamUsage(m *Module) {
	for _, p := range m.params {
		p.used = !(p.jack != nil && p.IsZero())
	}
}

// Pulse width only matters when the oscillator produces a pulse wave.
func oscillatorUsage(m *Module) {
	wf := m.FindParameter("Waveform")
	if wf == nil || strings.EqualFold(wf.Value(), "Pulse") {
		return
	}
	for _, p := range m.params {
		n := strings.ToLower(p.name)
		if strings.Contains(n, "pwm") || n == "pulse width" || n == "pulse width range" {
			p.used = false
		}
	}
}

// A mixer with every level at zero passes nothing.
func mixerUsage(m *Module) {
	if len(m.params) == 0 {
		return
	}
	for _, p := range m.params {
		if p.used {
			return
		}
	}
	m.state = Unused
}
