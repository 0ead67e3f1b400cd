package blofeld

import (
	"fmt"
	"strconv"

	"patchconv/patch"
)

// SynthVersion is the generic version of the Blofeld template.
const SynthVersion = "1.0"

// Jack and parameter names of the template. Source patches use the same
// vocabulary.
const (
	audioOut   = "Wave Out"
	controlOut = "Control Out"

	pwmIn      = "PWM In"
	pwmAmt     = "PWM Amt"
	fmIn       = "FM In"
	fmAmt      = "FM Amt"
	pitchIn    = "Pitch Mod In"
	pitchAmt   = "Pitch Mod Amt"
	audioIn    = "Audio In"
	envIn      = "Env In"
	envAmt     = "Env Amt"
	modIn      = "Mod In"
	modAmt     = "Mod Amt"
	cutoffIn   = "Cutoff Mod In"
	cutoffAmt  = "Cutoff Mod Amt"
	resIn      = "Resonance Mod In"
	resAmt     = "Resonance Mod Amt"
	volumeIn   = "Volume Mod In"
	volumeAmt  = "Volume Mod Amt"
	rateIn     = "Rate Mod In"
	rateAmt    = "Rate Mod Amt"
	matrixSlot = "Matrix"
)

var (
	waveforms   = patch.Table{"Off", "Pulse", "Saw", "Triangle", "Sine"}
	filterTypes = patch.Table{
		"Bypass", "LP 24dB", "LP 12dB", "BP 24dB", "BP 12dB", "HP 24dB",
		"HP 12dB", "Notch 24dB", "Notch 12dB", "Comb+", "Comb-", "PPG LP",
	}
	lfoShapes = patch.Table{"Sine", "Triangle", "Square", "Saw", "Random", "S&H"}

	unipolar = patch.Range{Low: 0, High: 127}
	bipolar  = patch.Range{Low: -64, High: 63}
)

// source is a module output selectable by a slot, with its sysex code.
type source struct {
	module string
	code   byte
}

// modSources are the sources of the modulation matrix and of the
// per section modulation selectors.
var modSources = []source{
	{"LFO1", 1}, {"LFO2", 3}, {"LFO3", 5}, {"Env1", 6}, {"Env2", 7}, {"Env3", 8},
}

// fmSources are the sources of the oscillator and filter FM selectors.
var fmSources = []source{
	{"Osc1", 1}, {"Osc2", 2}, {"Osc3", 3}, {"Noise", 4},
	{"LFO1", 5}, {"LFO2", 6}, {"LFO3", 7}, {"Env1", 8}, {"Env2", 9}, {"Env3", 10},
}

// matrixDest is a modulation matrix destination: the jack a matrix slot
// injects on a module, and its sysex code.
type matrixDest struct {
	module string
	jack   string
	att    string
	code   byte
}

var matrixDests = []matrixDest{
	{"Osc1", pitchIn, pitchAmt, 1}, {"Osc1", fmIn, fmAmt, 2}, {"Osc1", pwmIn, pwmAmt, 3},
	{"Osc2", pitchIn, pitchAmt, 4}, {"Osc2", fmIn, fmAmt, 5}, {"Osc2", pwmIn, pwmAmt, 6},
	{"Osc3", pitchIn, pitchAmt, 7}, {"Osc3", fmIn, fmAmt, 8}, {"Osc3", pwmIn, pwmAmt, 9},
	{"Filter1", cutoffIn, cutoffAmt, 20}, {"Filter1", resIn, resAmt, 21}, {"Filter1", fmIn, fmAmt, 22},
	{"Filter2", cutoffIn, cutoffAmt, 25}, {"Filter2", resIn, resAmt, 26}, {"Filter2", fmIn, fmAmt, 27},
	{"Amp", volumeIn, volumeAmt, 30},
	{"LFO1", rateIn, rateAmt, 31}, {"LFO2", rateIn, rateAmt, 32}, {"LFO3", rateIn, rateAmt, 33},
}

// MatrixSlots is the size of the modulation matrix.
const MatrixSlots = 16

// Template builds the generic form of the Blofeld voice: three
// oscillators and noise into a mixer, two parallel filters summed into
// the amplifier. Section source selectors are routing slots; the
// modulation matrix is a bank of injecting slots. Every call returns a
// fresh template.
func Template() *patch.Patch {
	t := &builder{p: patch.New(SynthVersion)}

	for i := 1; i <= 3; i++ {
		m := t.module("Osc"+strconv.Itoa(i), patch.KindOscillator, i)
		m.AddParameter(patch.NewParameter("Waveform", waveforms, "Saw"))
		m.AddParameter(patch.NewParameter("Octave", patch.Range{Low: -4, High: 4}, "0").WithUnit("octave", "linear"))
		m.AddParameter(patch.NewParameter("Semitone", patch.Range{Low: -12, High: 12}, "0").WithUnit("semitones", "linear"))
		m.AddParameter(patch.NewParameter("Detune", bipolar, "0").WithUnit("cents", "linear"))
		m.AddParameter(patch.NewParameter("Pulse Width", unipolar, "0"))
		m.AddParameter(patch.NewParameter("Brilliance", unipolar, "0"))
		m.AddInputJack(patch.NewInputJack(pwmIn, patch.ControlInput), patch.NewParameter(pwmAmt, unipolar, "0"))
		m.AddInputJack(patch.NewInputJack(fmIn, patch.ControlInput), patch.NewParameter(fmAmt, unipolar, "0"))
		m.AddInputJack(patch.NewInputJack(pitchIn, patch.ControlInput), patch.NewParameter(pitchAmt, bipolar, "0"))
		m.AddOutputJack(patch.NewOutputJack(audioOut, patch.AudioOutput))
	}

	noise := t.module("Noise", patch.KindNoise, 1)
	noise.AddParameter(patch.NewParameter("Color", bipolar, "0"))
	noise.AddOutputJack(patch.NewOutputJack(audioOut, patch.AudioOutput))

	mixer := t.module("Mixer", patch.KindMixer, 1)
	for i := 1; i <= 4; i++ {
		n := strconv.Itoa(i)
		mixer.AddInputJack(patch.NewInputJack(audioIn+n, patch.AudioInput), patch.NewParameter("Level"+n, unipolar, "0"))
	}
	mixer.AddOutputJack(patch.NewOutputJack(audioOut, patch.AudioOutput))

	for i := 1; i <= 2; i++ {
		m := t.module("Filter"+strconv.Itoa(i), patch.KindFilter, i)
		m.AddParameter(patch.NewParameter("Type", filterTypes, "LP 24dB"))
		m.AddParameter(patch.NewParameter("Cutoff", unipolar, "127"))
		m.AddParameter(patch.NewParameter("Resonance", unipolar, "0"))
		m.AddParameter(patch.NewParameter("Drive", unipolar, "0"))
		m.AddParameter(patch.NewParameter("Keytrack", bipolar, "0").WithUnit("percent", "linear"))
		m.AddInputJack(patch.NewInputJack(audioIn, patch.AudioInput), nil)
		m.AddInputJack(patch.NewInputJack(envIn, patch.ControlInput), patch.NewParameter(envAmt, bipolar, "0"))
		m.AddInputJack(patch.NewInputJack(modIn, patch.ControlInput), patch.NewParameter(modAmt, bipolar, "0"))
		m.AddInputJack(patch.NewInputJack(fmIn, patch.ControlInput), patch.NewParameter(fmAmt, unipolar, "0"))
		m.AddOutputJack(patch.NewOutputJack(audioOut, patch.AudioOutput))
	}

	for i := 1; i <= 3; i++ {
		m := t.module("Env"+strconv.Itoa(i), patch.KindEnvADSR, i)
		m.AddParameter(patch.NewParameter("Attack", unipolar, "0"))
		m.AddParameter(patch.NewParameter("Decay", unipolar, "0"))
		m.AddParameter(patch.NewParameter("Sustain", unipolar, "127"))
		m.AddParameter(patch.NewParameter("Release", unipolar, "0"))
		m.AddOutputJack(patch.NewOutputJack(controlOut, patch.ControlOutput).WithPolarity(patch.Positive))
	}

	for i := 1; i <= 3; i++ {
		m := t.module("LFO"+strconv.Itoa(i), patch.KindLFO, i)
		m.AddParameter(patch.NewParameter("Shape", lfoShapes, "Sine"))
		m.AddParameter(patch.NewParameter("Rate", unipolar, "40"))
		m.AddParameter(patch.NewParameter("Delay", unipolar, "0"))
		m.AddOutputJack(patch.NewOutputJack(controlOut, patch.ControlOutput))
	}

	amp := t.module("Amp", patch.KindVCA, 1)
	amp.AddParameter(patch.NewParameter("Volume", unipolar, "127"))
	amp.AddInputJack(patch.NewInputJack(audioIn+"1", patch.AudioInput), nil)
	amp.AddInputJack(patch.NewInputJack(audioIn+"2", patch.AudioInput), nil)
	amp.AddInputJack(patch.NewInputJack(envIn, patch.ControlInput), nil)
	amp.AddInputJack(patch.NewInputJack(modIn, patch.ControlInput), patch.NewParameter(modAmt, bipolar, "0"))
	amp.AddOutputJack(patch.NewOutputJack(audioOut, patch.AudioOutput))

	out := t.module("Out", patch.KindAudioOut, 1)
	out.AddInputJack(patch.NewInputJack(audioIn, patch.AudioInput), nil)

	t.wire("Osc1", audioOut, "Mixer", audioIn+"1")
	t.wire("Osc2", audioOut, "Mixer", audioIn+"2")
	t.wire("Osc3", audioOut, "Mixer", audioIn+"3")
	t.wire("Noise", audioOut, "Mixer", audioIn+"4")
	t.wire("Mixer", audioOut, "Filter1", audioIn)
	t.wire("Mixer", audioOut, "Filter2", audioIn)
	t.wire("Env1", controlOut, "Filter1", envIn)
	t.wire("Env1", controlOut, "Filter2", envIn)
	t.wire("Filter1", audioOut, "Amp", audioIn+"1")
	t.wire("Filter2", audioOut, "Amp", audioIn+"2")
	t.wire("Env2", controlOut, "Amp", envIn)
	t.wire("Amp", audioOut, "Out", audioIn)

	t.slots()
	return t.p
}

type builder struct {
	p *patch.Patch
}

// The template is static, so construction errors are programming errors.
func (t *builder) module(name string, kind patch.Kind, n int) *patch.Module {
	m, err := t.p.AddModule(patch.NewModule(name, kind, n))
	if err != nil {
		panic(err)
	}
	return m
}

func (t *builder) wire(sm, sj, dm, dj string) {
	if _, err := t.p.ConnectByName(sm, sj, dm, dj); err != nil {
		panic(fmt.Sprintf("blofeld template: %v", err))
	}
}

func (t *builder) outputs(sources []source) []*patch.OutputJack {
	var out []*patch.OutputJack
	for _, s := range sources {
		m := t.p.FindModule(s.module)
		out = append(out, m.OutputJacks()[0])
	}
	return out
}

func (t *builder) to(module, jack string) patch.Route {
	return patch.Route{{Module: t.p.FindModule(module), Jack: jack}}
}

// slots adds the selectors first so the resolver prefers them over the
// matrix.
func (t *builder) slots() {
	pool := t.p.Matrix()
	mods := t.outputs(modSources)
	fms := t.outputs(fmSources)

	for i := 1; i <= 3; i++ {
		osc := "Osc" + strconv.Itoa(i)
		pool.AddSlot(patch.NewRoutingSlot(osc+" PWM", mods, t.to(osc, pwmIn)))
		pool.AddSlot(patch.NewRoutingSlot(osc+" FM", fms, t.to(osc, fmIn)))
	}
	var pitch patch.Route
	for i := 1; i <= 3; i++ {
		pitch = append(pitch, patch.Target{Module: t.p.FindModule("Osc" + strconv.Itoa(i)), Jack: pitchIn})
	}
	pool.AddSlot(patch.NewRoutingSlot("Osc Pitch", mods, pitch))

	for i := 1; i <= 2; i++ {
		f := "Filter" + strconv.Itoa(i)
		pool.AddSlot(patch.NewRoutingSlot(f+" Mod", mods, t.to(f, modIn)))
		pool.AddSlot(patch.NewRoutingSlot(f+" FM", fms, t.to(f, fmIn)))
	}
	pool.AddSlot(patch.NewRoutingSlot("Amp Mod", mods, t.to("Amp", modIn)))

	var routes []patch.Route
	for _, d := range matrixDests {
		routes = append(routes, patch.Route{{
			Module:     t.p.FindModule(d.module),
			Jack:       d.jack,
			Attenuator: d.att,
			Type:       patch.ControlInput,
			Validator:  bipolar,
		}})
	}
	for i := 1; i <= MatrixSlots; i++ {
		pool.AddSlot(patch.NewInjectingSlot(matrixSlot+strconv.Itoa(i), mods, routes...))
	}
}
