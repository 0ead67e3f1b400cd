package blofeld

import (
	"bytes"
	"fmt"
)

// SoundSize is the length of the SDATA payload of one sound.
const SoundSize = 383

const (
	nameOffset     = 363
	nameLength     = 16
	categoryOffset = 379
)

// field ties an SDATA offset to the Sound byte stored there.
type field struct {
	offset int
	ptr    *byte
}

// fields lists every byte of s that has a place in SDATA. Offsets follow
// the Blofeld sysex documentation, section 3.1.
func (s *Sound) fields() []field {
	var f []field
	add := func(offset int, ptr *byte) {
		f = append(f, field{offset, ptr})
	}

	for i := range s.Oscillators {
		o := &s.Oscillators[i]
		base := 1 + 16*i
		add(base, &o.Octave)
		add(base+1, &o.Pitch)
		add(base+2, &o.Detune)
		add(base+3, &o.BendRange)
		add(base+4, &o.Keytrack)
		add(base+5, &o.FMSource)
		add(base+6, &o.FM)
		add(base+7, &o.Shape)
		add(base+8, &o.PW)
		add(base+9, &o.PWMSource)
		add(base+10, &o.PWM)
		if i < 2 {
			add(base+13, &o.LimitWT)
		}
		add(base+15, &o.Brilliance)
	}
	add(49, &s.Osc2Sync)
	add(50, &s.OscPitchSource)
	add(51, &s.OscPitchAmount)
	add(56, &s.GlideMode)
	add(57, &s.GlideRate)
	add(58, &s.Unison)
	add(59, &s.UnisonDetune)

	add(61, &s.MixOsc1)
	add(62, &s.MixOsc1Balance)
	add(63, &s.MixOsc2)
	add(64, &s.MixOsc2Balance)
	add(65, &s.MixOsc3)
	add(66, &s.MixOsc3Balance)
	add(67, &s.MixNoise)
	add(68, &s.MixNoiseBalance)
	add(69, &s.MixNoiseColor)
	add(71, &s.MixRing)
	add(72, &s.MixRingBalance)

	for i := range s.Filters {
		x := &s.Filters[i]
		base := 77 + 20*i
		add(base, &x.Type)
		add(base+1, &x.Cutoff)
		add(base+3, &x.Res)
		add(base+4, &x.Drive)
		add(base+5, &x.DriveCurve)
		add(base+9, &x.Keytrack)
		add(base+10, &x.EnvAmt)
		add(base+11, &x.EnvVel)
		add(base+12, &x.ModSource)
		add(base+13, &x.ModAmount)
		add(base+14, &x.FMSource)
		add(base+15, &x.FMAmount)
		add(base+16, &x.Pan)
		add(base+17, &x.PanSource)
		add(base+18, &x.PanAmount)
	}
	add(117, &s.FilterRouting)

	add(121, &s.AmpVolume)
	add(122, &s.AmpVelocity)
	add(123, &s.AmpModSource)
	add(124, &s.AmpModAmount)

	for i := range s.Effects {
		e := &s.Effects[i]
		base := 128 + 16*i
		add(base, &e.Type)
		add(base+1, &e.Mix)
		for j := range e.Params {
			add(base+2+j, &e.Params[j])
		}
	}

	for i := range s.LFOs {
		l := &s.LFOs[i]
		base := 160 + 12*i
		add(base, &l.Shape)
		add(base+1, &l.Speed)
		add(base+3, &l.Sync)
		add(base+4, &l.Clocked)
		add(base+5, &l.StartPhase)
		add(base+6, &l.Delay)
		add(base+7, &l.Fade)
		add(base+10, &l.Keytrack)
	}

	for i := range s.Envelopes {
		e := &s.Envelopes[i]
		base := 196 + 12*i
		add(base, &e.Mode)
		add(base+3, &e.Attack)
		add(base+4, &e.AttackLevel)
		add(base+5, &e.Decay)
		add(base+6, &e.Sustain)
		add(base+7, &e.Decay2)
		add(base+8, &e.Sustain2)
		add(base+9, &e.Release)
	}

	for i := range s.Modifiers {
		m := &s.Modifiers[i]
		base := 245 + 4*i
		add(base, &m.SourceA)
		add(base+1, &m.SourceB)
		add(base+2, &m.Operator)
		add(base+3, &m.Constant)
	}
	for i := range s.ModMatrix {
		m := &s.ModMatrix[i]
		base := 261 + 3*i
		add(base, &m.Source)
		add(base+1, &m.Dest)
		add(base+2, &m.Amount)
	}

	a := &s.Arp
	add(311, &a.Mode)
	add(312, &a.Pattern)
	add(314, &a.Clock)
	add(315, &a.Length)
	add(316, &a.Range)
	add(317, &a.Direction)
	add(318, &a.Sort)
	add(319, &a.VelocityMode)
	add(320, &a.TimingFactor)
	add(322, &a.PatternReset)
	add(323, &a.PatternLength)
	add(326, &a.Tempo)
	for i := range a.Steps {
		add(327+i, &a.Steps[i])
		add(343+i, &a.Timing[i])
	}

	add(categoryOffset, &s.Category)
	add(categoryOffset+1, &s.SubCategory)
	return f
}

// ParseSDATA decodes a sound from its SDATA payload.
func ParseSDATA(data []byte) (*Sound, error) {
	if len(data) != SoundSize {
		return nil, fmt.Errorf("invalid SDATA length %d (want %d)", len(data), SoundSize)
	}
	s := &Sound{}
	for _, f := range s.fields() {
		*f.ptr = data[f.offset]
	}
	name := data[nameOffset : nameOffset+nameLength]
	s.Name = string(bytes.TrimRight(name, "\x00 "))
	return s, nil
}

// SDATA encodes s. Values above 127 are rejected since sysex data bytes
// are seven bit.
func (s *Sound) SDATA() ([]byte, error) {
	data := make([]byte, SoundSize)
	for _, f := range s.fields() {
		if *f.ptr > 0x7F {
			return nil, fmt.Errorf("SDATA offset %d: value %d exceeds 127", f.offset, *f.ptr)
		}
		data[f.offset] = *f.ptr
	}

	name := []byte(s.Name)
	if len(name) > nameLength {
		name = name[:nameLength]
	}
	for i, c := range name {
		if c < 0x20 || c > 0x7E {
			name[i] = '?'
		}
	}
	copy(data[nameOffset:], name)
	for i := len(name); i < nameLength; i++ {
		data[nameOffset+i] = ' '
	}
	return data, nil
}
