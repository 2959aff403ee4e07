package audio

import (
	"sync/atomic"
	"time"
)

// SampleSource produces one stereo frame per call. The sequencer implements
// this; tests substitute counters.
type SampleSource interface {
	RenderSample() (float32, float32)
}

// FinishingSource is a SampleSource with a defined end. The renderer stops
// producing once Done reports true.
type FinishingSource interface {
	SampleSource
	Done() bool
}

// Renderer is the producer thread: it keeps the ring filled ahead of the
// audio callback, sleeping briefly whenever the ring reports full.
type Renderer struct {
	ring     *Ring
	source   SampleSource
	running  atomic.Bool
	finished atomic.Bool
	done     chan struct{}
}

func NewRenderer(ring *Ring, source SampleSource) *Renderer {
	return &Renderer{ring: ring, source: source}
}

// Start launches the render goroutine. It fills the ring until full, sleeps
// ~1 ms, and repeats until Stop is called or the source finishes.
func (r *Renderer) Start() {
	if !r.running.CompareAndSwap(false, true) {
		return
	}
	r.done = make(chan struct{})
	go r.loop()
}

func (r *Renderer) loop() {
	defer close(r.done)
	fin, _ := r.source.(FinishingSource)
	for r.running.Load() {
		for !r.ring.Full() && r.running.Load() {
			if fin != nil && fin.Done() {
				r.finished.Store(true)
				return
			}
			l, right := r.source.RenderSample()
			r.ring.Push(l, right)
		}
		time.Sleep(time.Millisecond)
	}
}

// Stop asks the goroutine to exit and joins it. Safe to call repeatedly.
func (r *Renderer) Stop() {
	if !r.running.CompareAndSwap(true, false) {
		return
	}
	<-r.done
}

// Finished reports whether the source ran to completion (as opposed to
// being stopped).
func (r *Renderer) Finished() bool { return r.finished.Load() }

// Drained reports whether playback is over: the source finished and the
// consumer has read everything that was produced.
func (r *Renderer) Drained() bool {
	return r.finished.Load() && r.ring.Buffered() == 0
}
