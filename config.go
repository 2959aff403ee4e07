package smfsynth

import (
	"github.com/cbegin/smfsynth-go/internal/osc"
	"github.com/cbegin/smfsynth-go/internal/synth"
)

// WaveForm selects the oscillator waveform.
type WaveForm int

const (
	Saw WaveForm = iota
	Sine
	Square
	Noise
)

func (w WaveForm) String() string { return osc.WaveForm(w).String() }

// ADSRConfig is the amplitude envelope: segment times in seconds, sustain
// level in [0, 1]. SustainResetSec smooths mono-legato retriggers.
type ADSRConfig struct {
	AttackSec       float64
	DecaySec        float64
	SustainLevel    float64
	SustainResetSec float64
	ReleaseSec      float64
}

// Config is a complete patch: oscillator, unison, mono behavior and
// envelope. All values are clamped when applied.
type Config struct {
	Amplitude      float64
	Wave           WaveForm
	PitchShiftSemi float64
	UnisonCount    int
	Detune         float64
	Spread         float64
	Mono           bool
	Legato         bool
	Glide          bool
	GlideTimeSec   float64
	ADSR           ADSRConfig
}

// DefaultConfig is a single-oscillator saw patch.
func DefaultConfig() Config {
	adsr := synth.DefaultADSR()
	return Config{
		Amplitude:   0.1,
		Wave:        Saw,
		UnisonCount: 1,
		Spread:      1.0,
		ADSR: ADSRConfig{
			AttackSec:       adsr.AttackSec,
			DecaySec:        adsr.DecaySec,
			SustainLevel:    adsr.SustainLevel,
			SustainResetSec: adsr.SustainResetSec,
			ReleaseSec:      adsr.ReleaseSec,
		},
	}
}

func (c Config) apply(s *synth.Synthesizer) {
	s.SetAmplitude(c.Amplitude)
	s.SetWaveForm(osc.WaveForm(c.Wave))
	s.SetPitchShift(c.PitchShiftSemi)
	s.SetUnisonCount(c.UnisonCount)
	s.SetDetune(c.Detune)
	s.SetSpread(c.Spread)
	s.SetMono(c.Mono)
	s.SetLegato(c.Legato)
	s.SetGlide(c.Glide)
	s.SetGlideTime(c.GlideTimeSec)
	s.SetADSR(synth.ADSR{
		AttackSec:       c.ADSR.AttackSec,
		DecaySec:        c.ADSR.DecaySec,
		SustainLevel:    c.ADSR.SustainLevel,
		SustainResetSec: c.ADSR.SustainResetSec,
		ReleaseSec:      c.ADSR.ReleaseSec,
	})
}
