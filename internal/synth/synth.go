package synth

import (
	"math"
	"sync/atomic"

	"github.com/cbegin/smfsynth-go/internal/osc"
)

const twoPi = math.Pi * 2

// semitone is the pitch ratio offset of one equal-temperament semitone.
var semitone = math.Pow(2, 1.0/12.0) - 1.0

// unisonParam is the detune/pan table derived from the unison settings. It
// is rebuilt whenever count, detune or spread change and swapped in behind
// an atomic pointer so the render thread picks it up between samples.
type unisonParam struct {
	count  int
	detune float64
	spread float64

	detunePitch [MaxUnison]float64
	pan         [MaxUnison][2]float64
}

func newUnisonParam(count int, detune, spread float64) *unisonParam {
	up := &unisonParam{count: count, detune: detune, spread: spread}
	if count == 1 {
		up.detunePitch[0] = 1
		// Centre pan regardless of spread: equal power on both channels.
		up.pan[0] = [2]float64{math.Sqrt2 / 2, math.Sqrt2 / 2}
		return up
	}
	for d := 0; d < count; d++ {
		pos := lerp(-1, 1, float64(d)/float64(count-1))
		up.detunePitch[d] = 1.0 + semitone*detune*pos
		angle := math.Pi / 4 * (1.0 + pos*spread)
		up.pan[d] = [2]float64{math.Cos(angle), math.Sin(angle)}
	}
	return up
}

// Synthesizer maps note events onto voices and mixes their per-sample
// output. Voice bookkeeping happens only on the render thread; patch
// parameters may be written from a control thread at any time and are
// re-read every sample.
type Synthesizer struct {
	sampleRate float64
	bank       *osc.Bank

	// render-thread state
	voices      []*Voice
	currentFreq float64
	glideScale  float64

	// control-thread parameters
	amplitude  atomic.Uint64 // float64 bits
	pitchShift atomic.Uint64 // float64 bits
	glideTime  atomic.Uint64 // float64 bits
	oscIndex   atomic.Int32
	mono       atomic.Bool
	legato     atomic.Bool
	glide      atomic.Bool
	adsr       atomic.Pointer[ADSR]
	unison     atomic.Pointer[unisonParam]
	clearReq   atomic.Bool
}

// New creates a synthesizer rendering at the given sample rate, using the
// shared wavetable bank for that rate.
func New(sampleRate int) *Synthesizer {
	s := &Synthesizer{
		sampleRate:  float64(sampleRate),
		bank:        osc.Shared(sampleRate),
		currentFreq: 440,
	}
	storeFloat(&s.amplitude, 0.1)
	storeFloat(&s.pitchShift, 0)
	storeFloat(&s.glideTime, 0)
	adsr := DefaultADSR()
	s.adsr.Store(&adsr)
	s.unison.Store(newUnisonParam(1, 0, 1))
	return s
}

func storeFloat(a *atomic.Uint64, v float64) {
	a.Store(math.Float64bits(v))
}

func loadFloat(a *atomic.Uint64) float64 {
	return math.Float64frombits(a.Load())
}

// SetAmplitude sets the master amplitude, clamped to [0, 1].
func (s *Synthesizer) SetAmplitude(v float64) {
	storeFloat(&s.amplitude, clamp(v, 0, 1))
}

func (s *Synthesizer) Amplitude() float64 { return loadFloat(&s.amplitude) }

// SetPitchShift sets the master pitch shift in semitones, clamped to ±24.
func (s *Synthesizer) SetPitchShift(semis float64) {
	storeFloat(&s.pitchShift, clamp(semis, -24, 24))
}

func (s *Synthesizer) PitchShift() float64 { return loadFloat(&s.pitchShift) }

// SetWaveForm selects the oscillator bank.
func (s *Synthesizer) SetWaveForm(w osc.WaveForm) {
	if w < osc.Saw || w > osc.Noise {
		w = osc.Saw
	}
	s.oscIndex.Store(int32(w))
}

func (s *Synthesizer) WaveForm() osc.WaveForm { return osc.WaveForm(s.oscIndex.Load()) }

// SetUnisonCount sets the number of detuned copies per voice, clamped to
// [1, MaxUnison].
func (s *Synthesizer) SetUnisonCount(count int) {
	if count < 1 {
		count = 1
	}
	if count > MaxUnison {
		count = MaxUnison
	}
	up := s.unison.Load()
	s.unison.Store(newUnisonParam(count, up.detune, up.spread))
}

func (s *Synthesizer) UnisonCount() int { return s.unison.Load().count }

// SetDetune sets the unison detune amount in [0, 1] of a semitone.
func (s *Synthesizer) SetDetune(detune float64) {
	detune = clamp(detune, 0, 1)
	up := s.unison.Load()
	s.unison.Store(newUnisonParam(up.count, detune, up.spread))
}

func (s *Synthesizer) Detune() float64 { return s.unison.Load().detune }

// SetSpread sets the unison stereo spread in [0, 1].
func (s *Synthesizer) SetSpread(spread float64) {
	spread = clamp(spread, 0, 1)
	up := s.unison.Load()
	s.unison.Store(newUnisonParam(up.count, up.detune, spread))
}

func (s *Synthesizer) Spread() float64 { return s.unison.Load().spread }

func (s *Synthesizer) SetMono(on bool)   { s.mono.Store(on) }
func (s *Synthesizer) Mono() bool        { return s.mono.Load() }
func (s *Synthesizer) SetLegato(on bool) { s.legato.Store(on) }
func (s *Synthesizer) Legato() bool      { return s.legato.Load() }
func (s *Synthesizer) SetGlide(on bool)  { s.glide.Store(on) }
func (s *Synthesizer) Glide() bool       { return s.glide.Load() }

// SetGlideTime sets the mono glide duration in seconds, clamped at 0.
func (s *Synthesizer) SetGlideTime(sec float64) {
	if sec < 0 {
		sec = 0
	}
	storeFloat(&s.glideTime, sec)
}

func (s *Synthesizer) GlideTime() float64 { return loadFloat(&s.glideTime) }

// SetADSR swaps in a new envelope configuration, applied to every live
// voice from the next sample.
func (s *Synthesizer) SetADSR(adsr ADSR) {
	adsr = adsr.clamped()
	s.adsr.Store(&adsr)
}

func (s *Synthesizer) ADSR() ADSR { return *s.adsr.Load() }

// NoteOn starts a voice. In polyphonic mode a fresh voice is stacked even
// if the note is already sounding. In mono mode the live voice is replaced
// by one that inherits its phase accumulators; legato resumes the envelope
// at Sustain, otherwise it restarts the Attack.
func (s *Synthesizer) NoteOn(note, velocity uint8) {
	if note > 127 {
		note = 127
	}
	if velocity > 127 {
		velocity = 127
	}

	if !s.mono.Load() || len(s.voices) == 0 {
		s.voices = append(s.voices, newVoice(note, velocity))
	} else {
		old := s.voices[0]
		s.voices = s.voices[:0]

		v := newVoice(note, velocity)
		v.phase = old.phase
		v.envelope = old.envelope
		if s.legato.Load() {
			v.envelope.Reset(StateSustain)
		} else {
			v.envelope.Reset(StateAttack)
		}
		s.voices = append(s.voices, v)
	}

	if s.mono.Load() && s.glide.Load() {
		targetFreq := NoteToHz(int(note))
		glideSamples := s.sampleRate * loadFloat(&s.glideTime)
		if glideSamples <= 0 {
			s.currentFreq = targetFreq
			s.glideScale = 1
		} else {
			s.glideScale = math.Pow(targetFreq/s.currentFreq, 1.0/glideSamples)
		}
	}
}

// NoteOff releases the oldest non-released voice playing the note.
func (s *Synthesizer) NoteOff(note uint8) {
	for _, v := range s.voices {
		if v.note == note && v.envelope.State() != StateRelease {
			v.envelope.NoteOff()
			break
		}
	}
}

// Clear retires every voice. Voice bookkeeping belongs to the render
// thread, so the request is honored at the top of the next RenderSample
// rather than mutating the collection from the caller's thread.
func (s *Synthesizer) Clear() {
	s.clearReq.Store(true)
}

// ActiveVoiceCount returns the number of voices still sounding, release
// tails included.
func (s *Synthesizer) ActiveVoiceCount() int {
	return len(s.voices)
}

// RenderSample advances every voice by one sample and returns the mixed
// stereo pair, scaled by amplitude/√unisonCount so unison stays
// perceptually level.
func (s *Synthesizer) RenderSample() (float32, float32) {
	if s.clearReq.CompareAndSwap(true, false) {
		s.voices = s.voices[:0]
	}

	deltaT := 1.0 / s.sampleRate
	adsr := *s.adsr.Load()

	for _, v := range s.voices {
		v.envelope.Update(adsr, deltaT)
	}

	// Retire voices whose release has finished.
	live := s.voices[:0]
	for _, v := range s.voices {
		if !v.envelope.IsReleased(adsr) {
			live = append(live, v)
		}
	}
	s.voices = live

	pitch := math.Pow(2, loadFloat(&s.pitchShift)/12.0)
	up := s.unison.Load()
	wave := osc.WaveForm(s.oscIndex.Load())
	monoGlide := s.mono.Load() && s.glide.Load()

	var left, right float64
	for _, v := range s.voices {
		targetFreq := NoteToHz(int(v.note))

		if monoGlide {
			prevFreq := s.currentFreq
			nextFreq := s.currentFreq * s.glideScale
			// Step toward the target but never overshoot it.
			if math.Abs(targetFreq-nextFreq) < math.Abs(targetFreq-prevFreq) {
				s.currentFreq = nextFreq
			} else {
				s.currentFreq = targetFreq
			}
		} else {
			s.currentFreq = targetFreq
		}

		envLevel := v.envelope.CurrentLevel() * v.velocity
		frequency := s.currentFreq * pitch

		for d := 0; d < up.count; d++ {
			detuneFrequency := frequency * up.detunePitch[d]
			oscSample := s.bank.Get(wave, v.phase[d], detuneFrequency)

			v.phase[d] += deltaT * detuneFrequency * twoPi
			for v.phase[d] >= twoPi {
				v.phase[d] -= twoPi
			}

			w := oscSample * envLevel
			left += w * up.pan[d][0]
			right += w * up.pan[d][1]
		}
	}

	gain := loadFloat(&s.amplitude) / math.Sqrt(float64(up.count))
	return float32(left * gain), float32(right * gain)
}

// CurrentFreq is the effective oscillator frequency before pitch shift;
// under mono glide it trails the target note.
func (s *Synthesizer) CurrentFreq() float64 { return s.currentFreq }
