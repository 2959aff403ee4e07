package synth

// ADSR is the amplitude envelope configuration. SustainResetSec smooths the
// level back toward SustainLevel after a mono-legato retrigger; zero holds
// the sustain level immediately.
type ADSR struct {
	AttackSec       float64
	DecaySec        float64
	SustainLevel    float64
	SustainResetSec float64
	ReleaseSec      float64
}

// DefaultADSR matches a short pluck-free keyboard patch.
func DefaultADSR() ADSR {
	return ADSR{
		AttackSec:       0.01,
		DecaySec:        0.01,
		SustainLevel:    0.6,
		SustainResetSec: 0.05,
		ReleaseSec:      0.4,
	}
}

func (a ADSR) clamped() ADSR {
	if a.AttackSec < 0 {
		a.AttackSec = 0
	}
	if a.DecaySec < 0 {
		a.DecaySec = 0
	}
	a.SustainLevel = clamp(a.SustainLevel, 0, 1)
	if a.SustainResetSec < 0 {
		a.SustainResetSec = 0
	}
	if a.ReleaseSec < 0 {
		a.ReleaseSec = 0
	}
	return a
}

type EnvelopeState int

const (
	StateAttack EnvelopeState = iota
	StateDecay
	StateSustain
	StateRelease
)

// Envelope is a per-voice ADSR state machine. A fresh envelope starts in
// Attack at level 0.
type Envelope struct {
	state          EnvelopeState
	elapsed        float64 // seconds since the last state transition
	currentLevel   float64
	prevStateLevel float64 // level captured at the last transition
}

// NoteOff moves the envelope to Release, capturing the current level as the
// release starting point. Calling it on a released envelope does nothing.
func (e *Envelope) NoteOff() {
	if e.state != StateRelease {
		e.prevStateLevel = e.currentLevel
		e.elapsed = 0
		e.state = StateRelease
	}
}

// Reset restarts the envelope in the given state from the current level.
// Mono retrigger resets to Sustain under legato, Attack otherwise.
func (e *Envelope) Reset(state EnvelopeState) {
	e.prevStateLevel = e.currentLevel
	e.elapsed = 0
	e.state = state
}

// Update advances the envelope by dt seconds. A state whose segment time has
// elapsed captures its level, subtracts the segment time, and falls through
// to the next state within the same call, so zero-length segments transition
// instantly without dividing by zero.
func (e *Envelope) Update(adsr ADSR, dt float64) {
	switch e.state {
	case StateAttack:
		if e.elapsed < adsr.AttackSec {
			e.currentLevel = lerp(e.prevStateLevel, 1.0, e.elapsed/adsr.AttackSec)
			break
		}
		e.prevStateLevel = e.currentLevel
		e.elapsed -= adsr.AttackSec
		e.state = StateDecay
		fallthrough

	case StateDecay:
		if e.elapsed < adsr.DecaySec {
			e.currentLevel = lerp(e.prevStateLevel, adsr.SustainLevel, e.elapsed/adsr.DecaySec)
			break
		}
		e.prevStateLevel = e.currentLevel
		e.elapsed -= adsr.DecaySec
		e.state = StateSustain
		fallthrough

	case StateSustain:
		if e.elapsed < adsr.SustainResetSec {
			e.currentLevel = lerp(e.prevStateLevel, adsr.SustainLevel, e.elapsed/adsr.SustainResetSec)
		} else {
			e.currentLevel = adsr.SustainLevel
		}

	case StateRelease:
		if e.elapsed < adsr.ReleaseSec {
			e.currentLevel = lerp(e.prevStateLevel, 0.0, e.elapsed/adsr.ReleaseSec)
		} else {
			e.currentLevel = 0
		}
	}

	e.elapsed += dt
}

// IsReleased reports whether the release segment has fully elapsed; the
// owning voice is retired once this returns true.
func (e *Envelope) IsReleased(adsr ADSR) bool {
	return e.state == StateRelease && adsr.ReleaseSec <= e.elapsed
}

func (e *Envelope) CurrentLevel() float64 { return e.currentLevel }

func (e *Envelope) State() EnvelopeState { return e.state }

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
