// Package blofeld describes the Waldorf Blofeld as a conversion target: its
// single sound sysex format, and a generic patch template of its voice
// architecture and modulation routing.
package blofeld

type Oscillator struct {
	Octave     byte `json:"octave"`
	Pitch      byte `json:"pitch"` // semitone
	Detune     byte `json:"detune"`
	BendRange  byte `json:"bend_range"`
	Keytrack   byte `json:"keytrack"`
	FMSource   byte `json:"fm_source"`
	FM         byte `json:"fm"`
	Shape      byte `json:"shape"`
	PW         byte `json:"pw"`
	PWMSource  byte `json:"pwm_source"`
	PWM        byte `json:"pwm"`
	LimitWT    byte `json:"limit_wt"`
	Brilliance byte `json:"brilliance"`
}

type Filter struct {
	Type       byte `json:"type"`
	Cutoff     byte `json:"cutoff"`
	Res        byte `json:"res"`
	Drive      byte `json:"drive"`
	DriveCurve byte `json:"drive_curve"`
	Keytrack   byte `json:"keytrack"`
	EnvAmt     byte `json:"env_amt"`
	EnvVel     byte `json:"env_vel"`
	ModSource  byte `json:"mod_source"`
	ModAmount  byte `json:"mod_amount"`
	FMSource   byte `json:"fm_source"`
	FMAmount   byte `json:"fm_amount"`
	Pan        byte `json:"pan"`
	PanSource  byte `json:"pan_source"`
	PanAmount  byte `json:"pan_amount"`
}

type Envelope struct {
	Mode        byte `json:"mode"`
	Attack      byte `json:"attack"`
	AttackLevel byte `json:"attack_level"`
	Decay       byte `json:"decay"`
	Sustain     byte `json:"sustain"`
	Decay2      byte `json:"decay2"`
	Sustain2    byte `json:"sustain2"`
	Release     byte `json:"release"`
}

type LFO struct {
	Shape      byte `json:"shape"`
	Speed      byte `json:"speed"`
	Sync       byte `json:"sync"`
	Clocked    byte `json:"clocked"`
	StartPhase byte `json:"start_phase"`
	Delay      byte `json:"delay"`
	Fade       byte `json:"fade"`
	Keytrack   byte `json:"keytrack"`
}

type Effect struct {
	Type   byte     `json:"type"`
	Mix    byte     `json:"mix"`
	Params [14]byte `json:"params"`
}

// MatrixEntry is one of the 16 modulation matrix slots. Amount is
// bipolar around 64.
type MatrixEntry struct {
	Source byte `json:"source"`
	Dest   byte `json:"dest"`
	Amount byte `json:"amount"`
}

type Modifier struct {
	SourceA  byte `json:"source_a"`
	SourceB  byte `json:"source_b"`
	Operator byte `json:"operator"`
	Constant byte `json:"constant"`
}

type Arpeggiator struct {
	Mode          byte     `json:"mode"`
	Pattern       byte     `json:"pattern"`
	Clock         byte     `json:"clock"`
	Length        byte     `json:"length"`
	Range         byte     `json:"range"`
	Direction     byte     `json:"direction"`
	Sort          byte     `json:"sort"`
	VelocityMode  byte     `json:"velocity_mode"`
	TimingFactor  byte     `json:"timing_factor"`
	PatternReset  byte     `json:"pattern_reset"`
	PatternLength byte     `json:"pattern_length"`
	Tempo         byte     `json:"tempo"`
	Steps         [16]byte `json:"steps"`
	Timing        [16]byte `json:"timing"`
}

// Sound is one Blofeld single sound program.
type Sound struct {
	Oscillators    [3]Oscillator `json:"oscillators"`
	Osc2Sync       byte          `json:"osc2_sync"`
	OscPitchSource byte          `json:"osc_pitch_source"`
	OscPitchAmount byte          `json:"osc_pitch_amount"`

	GlideMode    byte `json:"glide_mode"`
	GlideRate    byte `json:"glide_rate"`
	Unison       byte `json:"unison"`
	UnisonDetune byte `json:"unison_detune"`

	MixOsc1         byte `json:"mix_osc1"`
	MixOsc1Balance  byte `json:"mix_osc1_balance"`
	MixOsc2         byte `json:"mix_osc2"`
	MixOsc2Balance  byte `json:"mix_osc2_balance"`
	MixOsc3         byte `json:"mix_osc3"`
	MixOsc3Balance  byte `json:"mix_osc3_balance"`
	MixNoise        byte `json:"mix_noise"`
	MixNoiseBalance byte `json:"mix_noise_balance"`
	MixNoiseColor   byte `json:"mix_noise_color"`
	MixRing         byte `json:"mix_ring"`
	MixRingBalance  byte `json:"mix_ring_balance"`

	Filters       [2]Filter `json:"filters"`
	FilterRouting byte      `json:"filter_routing"`

	AmpVolume    byte `json:"amp_volume"`
	AmpVelocity  byte `json:"amp_velocity"`
	AmpModSource byte `json:"amp_mod_source"`
	AmpModAmount byte `json:"amp_mod_amount"`

	Effects   [2]Effect   `json:"effects"`
	LFOs      [3]LFO      `json:"lfos"`
	Envelopes [3]Envelope `json:"envelopes"`

	Modifiers [4]Modifier     `json:"modifiers"`
	ModMatrix [16]MatrixEntry `json:"mod_matrix"`
	Arp       Arpeggiator     `json:"arp"`

	// Name is at most 16 ASCII characters.
	Name        string `json:"name"`
	Category    byte   `json:"category"`
	SubCategory byte   `json:"subcategory"`
}

// InitSound returns the neutral starting point exports are built on: all
// bipolar values centered, oscillator 1 audible through an open filter.
func InitSound() *Sound {
	s := &Sound{
		AmpVolume:     127,
		AmpModAmount:  64,
		MixOsc1:       127,
		MixNoiseColor: 64,
		Name:          "Init",
	}
	for i := range s.Oscillators {
		o := &s.Oscillators[i]
		o.Octave = octaveByte(0)
		o.Pitch = center
		o.Detune = center
		o.BendRange = 66
		o.Keytrack = 96
		o.Shape = 2
	}
	for i := range s.Filters {
		f := &s.Filters[i]
		f.Type = 1
		f.Cutoff = 127
		f.Keytrack = center
		f.EnvAmt = center
		f.EnvVel = center
		f.ModAmount = center
		f.Pan = center
		f.PanAmount = center
	}
	for i := range s.Envelopes {
		s.Envelopes[i].Sustain = 127
		s.Envelopes[i].AttackLevel = 127
	}
	for i := range s.LFOs {
		s.LFOs[i].Speed = 40
	}
	for i := range s.ModMatrix {
		s.ModMatrix[i].Amount = center
	}
	return s
}

// center is the zero point of bipolar values.
const center = 64

func octaveByte(oct int) byte {
	return byte(center + 12*oct)
}
