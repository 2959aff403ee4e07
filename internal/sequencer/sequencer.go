package sequencer

import (
	"github.com/cbegin/smfsynth-go/internal/smf"
)

// VoiceEngine is the synthesizer surface the sequencer drives. The real
// implementation is synth.Synthesizer; tests substitute recorders.
type VoiceEngine interface {
	NoteOn(note, velocity uint8)
	NoteOff(note uint8)
	RenderSample() (float32, float32)
	ActiveVoiceCount() int
}

// Sequencer advances a decoded SMF one sample at a time, dispatching note
// events into the synthesizer as the playhead crosses their ticks.
type Sequencer struct {
	midi       *smf.MidiData
	synth      VoiceEngine
	sampleRate int

	playhead  int64
	endSample int64
}

// New creates a sequencer over a decoded file. The synthesizer is owned by
// the caller so patch parameters can be adjusted during playback.
func New(midi *smf.MidiData, s VoiceEngine, sampleRate int) *Sequencer {
	return &Sequencer{
		midi:       midi,
		synth:      s,
		sampleRate: sampleRate,
		endSample:  midi.LengthSample(sampleRate),
	}
}

// RenderSample dispatches the events falling inside the next sample's tick
// window and renders one stereo frame. Note-offs go out before note-ons so
// a retriggered note ends cleanly before its new voice starts.
func (q *Sequencer) RenderSample() (float32, float32) {
	currentTime := float64(q.playhead) / float64(q.sampleRate)
	nextTime := float64(q.playhead+1) / float64(q.sampleRate)

	currentTick := q.midi.SecondsToTicks(currentTime)
	nextTick := q.midi.SecondsToTicks(nextTime)

	if currentTick != nextTick {
		for ti := range q.midi.Tracks {
			track := &q.midi.Tracks[ti]
			if track.IsPercussion() {
				continue
			}
			for _, off := range track.NoteOffsIn(currentTick, nextTick) {
				q.synth.NoteOff(off.Event.Note)
			}
			for _, on := range track.NoteOnsIn(currentTick, nextTick) {
				q.synth.NoteOn(on.Event.Note, on.Event.Velocity)
			}
		}
	}

	q.playhead++
	return q.synth.RenderSample()
}

// Process fills an interleaved stereo buffer.
func (q *Sequencer) Process(dst []float32) {
	for i := 0; i+1 < len(dst); i += 2 {
		dst[i], dst[i+1] = q.RenderSample()
	}
}

// Playhead is the number of samples rendered so far.
func (q *Sequencer) Playhead() int64 { return q.playhead }

// Seconds is the playhead position in seconds.
func (q *Sequencer) Seconds() float64 {
	return float64(q.playhead) / float64(q.sampleRate)
}

// Done reports whether the playhead has passed the last event and every
// release tail has finished.
func (q *Sequencer) Done() bool {
	return q.playhead >= q.endSample && q.synth.ActiveVoiceCount() == 0
}
