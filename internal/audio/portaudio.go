package audio

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"
)

var (
	paInitOnce sync.Once
	paInitErr  error
)

// PortAudioPlayer is the alternative sink: a portaudio callback stream
// draining the same ring the ebiten backend would. Useful where no ebiten
// audio context is wanted (plain CLI playback).
type PortAudioPlayer struct {
	stream   *portaudio.Stream
	ring     *Ring
	renderer *Renderer

	mu      sync.Mutex
	playing bool
	frames  atomic.Int64
	rate    float64
}

func NewPortAudioPlayer(sampleRate int, ring *Ring, renderer *Renderer) (*PortAudioPlayer, error) {
	paInitOnce.Do(func() { paInitErr = portaudio.Initialize() })
	if paInitErr != nil {
		return nil, paInitErr
	}

	p := &PortAudioPlayer{ring: ring, renderer: renderer, rate: float64(sampleRate)}
	stream, err := portaudio.OpenDefaultStream(0, 2, float64(sampleRate), portaudio.FramesPerBufferUnspecified, p.callback)
	if err != nil {
		return nil, err
	}
	p.stream = stream
	return p, nil
}

// callback runs on the device thread. It must not block or allocate; it
// only copies frames out of the ring.
func (p *PortAudioPlayer) callback(out [][]float32) {
	p.ring.ReadInto(out[0], out[1])
	p.frames.Add(int64(len(out[0])))
}

func (p *PortAudioPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		if err := p.stream.Start(); err == nil {
			p.playing = true
		}
	}
}

func (p *PortAudioPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		_ = p.stream.Stop()
		p.playing = false
	}
}

func (p *PortAudioPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Position returns the playback position derived from frames delivered to
// the device.
func (p *PortAudioPlayer) Position() time.Duration {
	return time.Duration(float64(p.frames.Load()) / p.rate * float64(time.Second))
}

func (p *PortAudioPlayer) Stop() error {
	p.Pause()
	return p.stream.Close()
}
