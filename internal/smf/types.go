package smf

import "sort"

// Event is one decoded SMF track event payload. Concrete types are the
// channel-voice events below plus MetaEvent and SysExEvent.
type Event interface {
	event()
}

type NoteOnEvent struct {
	Channel  uint8
	Note     uint8
	Velocity uint8
}

type NoteOffEvent struct {
	Channel uint8
	Note    uint8
}

type PolyKeyPressureEvent struct {
	Channel  uint8
	Note     uint8
	Pressure uint8
}

type ControlChangeEvent struct {
	Channel    uint8
	Controller uint8
	Value      uint8
}

type ProgramChangeEvent struct {
	Channel uint8
	Program uint8
}

type ChannelPressureEvent struct {
	Channel  uint8
	Pressure uint8
}

// PitchBendEvent carries the raw 14-bit bend value (8192 = center).
type PitchBendEvent struct {
	Channel uint8
	Value   uint16
}

// SysExEvent holds the raw payload between 0xF0 and the terminating 0xF7.
type SysExEvent struct {
	Data []byte
}

type MetaKind int

const (
	MetaTrackName MetaKind = iota + 1
	MetaTempo
	MetaTimeSignature
	MetaEndOfTrack
	MetaOther
)

type MetaEvent struct {
	Kind MetaKind
	BPM  float64 // MetaTempo
	Num  int     // MetaTimeSignature numerator
	Den  int     // MetaTimeSignature denominator (already 2^exp)
	Text string  // MetaTrackName
}

func (NoteOnEvent) event()          {}
func (NoteOffEvent) event()         {}
func (PolyKeyPressureEvent) event() {}
func (ControlChangeEvent) event()   {}
func (ProgramChangeEvent) event()   {}
func (ChannelPressureEvent) event() {}
func (PitchBendEvent) event()       {}
func (SysExEvent) event()           {}
func (MetaEvent) event()            {}

// TrackEvent is a tick-stamped event. Ticks are non-decreasing within a track.
type TrackEvent struct {
	Tick  int64
	Event Event
}

// Timed pairs an event of one kind with its absolute tick, for the per-kind
// indices kept by Track.
type Timed[T any] struct {
	Tick  int64
	Event T
}

// rangeOf returns the subslice of events with lo <= tick < hi. The input is
// sorted by tick, so both bounds are found by binary search.
func rangeOf[T any](events []Timed[T], lo, hi int64) []Timed[T] {
	begin := sort.Search(len(events), func(i int) bool { return events[i].Tick >= lo })
	end := sort.Search(len(events), func(i int) bool { return events[i].Tick >= hi })
	return events[begin:end]
}

// Track is one MTrk chunk: the full event sequence plus per-kind sorted
// indices for range queries over tick windows.
type Track struct {
	Events []TrackEvent

	name    string
	channel uint8
	program uint8

	noteOns     []Timed[NoteOnEvent]
	noteOffs    []Timed[NoteOffEvent]
	keyPressure []Timed[PolyKeyPressureEvent]
	controls    []Timed[ControlChangeEvent]
	programs    []Timed[ProgramChangeEvent]
	pitchBends  []Timed[PitchBendEvent]
}

func newTrack(events []TrackEvent) Track {
	tr := Track{Events: events}
	for _, te := range events {
		switch ev := te.Event.(type) {
		case NoteOnEvent:
			tr.noteOns = append(tr.noteOns, Timed[NoteOnEvent]{te.Tick, ev})
			tr.channel = ev.Channel
		case NoteOffEvent:
			tr.noteOffs = append(tr.noteOffs, Timed[NoteOffEvent]{te.Tick, ev})
			tr.channel = ev.Channel
		case PolyKeyPressureEvent:
			tr.keyPressure = append(tr.keyPressure, Timed[PolyKeyPressureEvent]{te.Tick, ev})
			tr.channel = ev.Channel
		case ControlChangeEvent:
			tr.controls = append(tr.controls, Timed[ControlChangeEvent]{te.Tick, ev})
			tr.channel = ev.Channel
		case ChannelPressureEvent:
			tr.channel = ev.Channel
		case ProgramChangeEvent:
			tr.programs = append(tr.programs, Timed[ProgramChangeEvent]{te.Tick, ev})
			tr.channel = ev.Channel
			tr.program = ev.Program
		case PitchBendEvent:
			tr.pitchBends = append(tr.pitchBends, Timed[PitchBendEvent]{te.Tick, ev})
			tr.channel = ev.Channel
		case MetaEvent:
			if ev.Kind == MetaTrackName {
				tr.name = ev.Text
			}
		}
	}
	return tr
}

func (t *Track) Name() string { return t.name }

// Channel is the last channel observed on the track's channel-voice events.
func (t *Track) Channel() uint8 { return t.channel }

// Program is the program number from the track's last ProgramChange.
func (t *Track) Program() uint8 { return t.program }

// IsPercussion reports whether the track plays on the GM percussion channel.
// Percussion tracks are skipped by the synthesizer.
func (t *Track) IsPercussion() bool { return t.channel == 9 }

// NoteOnsIn returns the note-on events with lo <= tick < hi.
func (t *Track) NoteOnsIn(lo, hi int64) []Timed[NoteOnEvent] {
	return rangeOf(t.noteOns, lo, hi)
}

// NoteOffsIn returns the note-off events with lo <= tick < hi.
func (t *Track) NoteOffsIn(lo, hi int64) []Timed[NoteOffEvent] {
	return rangeOf(t.noteOffs, lo, hi)
}

func (t *Track) KeyPressuresIn(lo, hi int64) []Timed[PolyKeyPressureEvent] {
	return rangeOf(t.keyPressure, lo, hi)
}

func (t *Track) ControlChangesIn(lo, hi int64) []Timed[ControlChangeEvent] {
	return rangeOf(t.controls, lo, hi)
}

func (t *Track) ProgramChangesIn(lo, hi int64) []Timed[ProgramChangeEvent] {
	return rangeOf(t.programs, lo, hi)
}

func (t *Track) PitchBendsIn(lo, hi int64) []Timed[PitchBendEvent] {
	return rangeOf(t.pitchBends, lo, hi)
}

func (t *Track) endTick() int64 {
	if len(t.Events) == 0 {
		return 0
	}
	return t.Events[len(t.Events)-1].Tick
}

type tempoChange struct {
	tick int64
	bpm  float64
}

type timeSigChange struct {
	tick int64
	num  int
	den  int
}

// MidiData is a fully decoded SMF: tracks plus the derived tempo map and
// time signature list. Resolution is in ticks per quarter note.
type MidiData struct {
	Format     uint16
	Resolution uint16
	Tracks     []Track

	tempi    []tempoChange
	timeSigs []timeSigChange
	endTick  int64
}

func newMidiData(format, resolution uint16, tracks []Track) *MidiData {
	md := &MidiData{Format: format, Resolution: resolution, Tracks: tracks}
	for ti := range tracks {
		tr := &tracks[ti]
		for _, te := range tr.Events {
			meta, ok := te.Event.(MetaEvent)
			if !ok {
				continue
			}
			switch meta.Kind {
			case MetaTempo:
				md.tempi = append(md.tempi, tempoChange{te.Tick, meta.BPM})
			case MetaTimeSignature:
				md.timeSigs = append(md.timeSigs, timeSigChange{te.Tick, meta.Num, meta.Den})
			}
		}
		if end := tr.endTick(); end > md.endTick {
			md.endTick = end
		}
	}
	sort.SliceStable(md.tempi, func(i, j int) bool { return md.tempi[i].tick < md.tempi[j].tick })
	sort.SliceStable(md.timeSigs, func(i, j int) bool { return md.timeSigs[i].tick < md.timeSigs[j].tick })
	return md
}

// EndTick is the largest event tick across all tracks.
func (md *MidiData) EndTick() int64 { return md.endTick }

// BPM returns the first tempo found, or 120 if the file sets none.
func (md *MidiData) BPM() float64 {
	if len(md.tempi) > 0 {
		return md.tempi[0].bpm
	}
	return defaultBPM
}

// Beat is one beat inside a measure, as a tick offset from the measure start.
type Beat struct {
	LocalTick int64
}

// Measure is one bar of the piece under the time signature active at its
// start tick.
type Measure struct {
	GlobalTick int64
	Index      int
	BeatStep   int64
	Beats      []Beat
}

// WidthOfTicks is the measure length: ticks per beat times the beat count.
func (m Measure) WidthOfTicks() int64 {
	return int64(len(m.Beats)) * m.BeatStep
}

// Measures lays out the bar grid from the time signature events. A signature
// change is assumed to fall on a measure boundary.
func (md *MidiData) Measures() []Measure {
	var result []Measure

	prevEventTick := int64(0)
	num, den := 4, 4

	addMeasures := func(nextTick int64) {
		width := int64(md.Resolution) * 4 * int64(num) / int64(den)
		if width <= 0 {
			return
		}
		for tick := prevEventTick; tick < nextTick; tick += width {
			m := Measure{
				GlobalTick: tick,
				Index:      len(result),
				BeatStep:   width / int64(num),
			}
			for b := 0; b < num; b++ {
				m.Beats = append(m.Beats, Beat{LocalTick: width * int64(b) / int64(num)})
			}
			result = append(result, m)
		}
	}

	for _, ts := range md.timeSigs {
		addMeasures(ts.tick)
		num, den = ts.num, ts.den
		prevEventTick = ts.tick
	}
	addMeasures(md.endTick)

	return result
}
