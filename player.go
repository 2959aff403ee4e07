package smfsynth

import (
	"errors"
	"sync"
	"time"

	intaudio "github.com/cbegin/smfsynth-go/internal/audio"
	"github.com/cbegin/smfsynth-go/internal/osc"
	intseq "github.com/cbegin/smfsynth-go/internal/sequencer"
	intsmf "github.com/cbegin/smfsynth-go/internal/smf"
	"github.com/cbegin/smfsynth-go/internal/synth"
)

// LoadMidiFile reads and decodes a Standard MIDI File (format 0 or 1).
func LoadMidiFile(path string) (*intsmf.MidiData, error) {
	return intsmf.Load(path)
}

// DecodeMidi decodes SMF bytes already in memory.
func DecodeMidi(data []byte) (*intsmf.MidiData, error) {
	return intsmf.Decode(data)
}

// Backend selects the audio output device layer.
type Backend string

const (
	BackendEbiten    Backend = "ebiten"
	BackendPortAudio Backend = "portaudio"
)

type PlayerOption func(*playerConfig)

type playerConfig struct {
	backend      Backend
	bufferFrames int
}

func defaultPlayerConfig(sampleRate int) playerConfig {
	return playerConfig{
		backend:      BackendEbiten,
		bufferFrames: sampleRate / 10,
	}
}

func WithBackend(backend Backend) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.backend = backend
	}
}

// WithBufferFrames sets the ring buffer capacity in frames. The default is
// 100 ms of audio.
func WithBufferFrames(frames int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.bufferFrames = frames
	}
}

type audioOutput interface {
	Play()
	Pause()
	IsPlaying() bool
	Position() time.Duration
	Stop() error
}

// Player renders a decoded SMF through the synthesizer in real time. The
// patch setters are safe to call from a GUI thread during playback.
type Player struct {
	mu           sync.Mutex
	sampleRate   int
	backend      Backend
	bufferFrames int
	synth        *synth.Synthesizer
	renderer     *intaudio.Renderer
	out          audioOutput
}

func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultPlayerConfig(sampleRate)
	for _, opt := range opts {
		opt(&cfg)
	}
	switch cfg.backend {
	case BackendEbiten, BackendPortAudio:
	default:
		return nil, errors.New("unknown audio backend")
	}
	return &Player{
		sampleRate:   sampleRate,
		backend:      cfg.backend,
		bufferFrames: cfg.bufferFrames,
		synth:        synth.New(sampleRate),
	}, nil
}

// PlayFile loads an SMF from disk and plays it.
func (p *Player) PlayFile(path string) error {
	md, err := LoadMidiFile(path)
	if err != nil {
		return err
	}
	return p.Play(md)
}

// Play starts playback of a decoded file, replacing any playback already
// in progress. The current patch settings carry over.
func (p *Player) Play(md *intsmf.MidiData) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	p.synth.Clear()
	seq := intseq.New(md, p.synth, p.sampleRate)
	ring := intaudio.NewRing(p.bufferFrames)
	p.renderer = intaudio.NewRenderer(ring, seq)
	p.renderer.Start()

	var out audioOutput
	var err error
	switch p.backend {
	case BackendPortAudio:
		out, err = intaudio.NewPortAudioPlayer(p.sampleRate, ring, p.renderer)
	default:
		out, err = intaudio.NewPlayer(p.sampleRate, ring, p.renderer)
	}
	if err != nil {
		p.renderer.Stop()
		p.renderer = nil
		return err
	}
	p.out = out
	p.out.Play()
	return nil
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out != nil {
		p.out.Pause()
	}
}

func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out != nil {
		p.out.Play()
	}
}

func (p *Player) stopLocked() {
	if p.renderer != nil {
		p.renderer.Stop()
		p.renderer = nil
	}
	if p.out != nil {
		_ = p.out.Stop()
		p.out = nil
	}
}

// Stop halts the renderer and the output device. Join order matters: the
// renderer is stopped first so nothing writes the ring while the device
// shuts down.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out != nil && p.out.IsPlaying()
}

// Position returns the device-side playback position, or 0 when idle.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	out := p.out
	p.mu.Unlock()
	if out == nil {
		return 0
	}
	return out.Position()
}

// Wait blocks until the piece has rendered to completion and the device
// has drained it, or until Stop is called.
func (p *Player) Wait() {
	for {
		p.mu.Lock()
		renderer := p.renderer
		p.mu.Unlock()
		if renderer == nil || renderer.Drained() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Patch surface. Each setter clamps out-of-range values silently and takes
// effect on the next rendered sample.

func (p *Player) SetAmplitude(v float64)      { p.synth.SetAmplitude(v) }
func (p *Player) SetWaveForm(w WaveForm)      { p.synth.SetWaveForm(osc.WaveForm(w)) }
func (p *Player) SetPitchShift(semis float64) { p.synth.SetPitchShift(semis) }
func (p *Player) SetUnisonCount(count int)    { p.synth.SetUnisonCount(count) }
func (p *Player) SetDetune(v float64)         { p.synth.SetDetune(v) }
func (p *Player) SetSpread(v float64)         { p.synth.SetSpread(v) }
func (p *Player) SetMono(on bool)             { p.synth.SetMono(on) }
func (p *Player) SetLegato(on bool)           { p.synth.SetLegato(on) }
func (p *Player) SetGlide(on bool)            { p.synth.SetGlide(on) }
func (p *Player) SetGlideTime(sec float64)    { p.synth.SetGlideTime(sec) }

func (p *Player) SetADSR(adsr ADSRConfig) {
	p.synth.SetADSR(synth.ADSR{
		AttackSec:       adsr.AttackSec,
		DecaySec:        adsr.DecaySec,
		SustainLevel:    adsr.SustainLevel,
		SustainResetSec: adsr.SustainResetSec,
		ReleaseSec:      adsr.ReleaseSec,
	})
}

// ApplyConfig applies a whole patch at once.
func (p *Player) ApplyConfig(cfg Config) { cfg.apply(p.synth) }

// Clear drops all sounding voices (used on patch reload).
func (p *Player) Clear() { p.synth.Clear() }
