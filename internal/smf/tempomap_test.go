package smf

import (
	"math"
	"math/rand"
	"testing"
)

// tempoFixture builds a file with the given tempo events (tick → bpm).
func tempoFixture(t *testing.T, resolution uint16, tempi []tempoChange, endTick int64) *MidiData {
	t.Helper()
	var body []byte
	lastTick := int64(0)
	writeDelta := func(delta int64) {
		var vlq []byte
		v := uint64(delta)
		vlq = append(vlq, byte(v&0x7F))
		for v >>= 7; v > 0; v >>= 7 {
			vlq = append([]byte{byte(v&0x7F | 0x80)}, vlq...)
		}
		body = append(body, vlq...)
	}
	for _, tc := range tempi {
		writeDelta(tc.tick - lastTick)
		lastTick = tc.tick
		us := uint32(math.Round(60e6 / tc.bpm))
		body = append(body, 0xFF, 0x51, 0x03, byte(us>>16), byte(us>>8), byte(us))
	}
	// A final note-off pins the end tick.
	writeDelta(endTick - lastTick)
	body = append(body, 0x80, 60, 0)
	body = append(body, endOfTrack...)

	md, err := Decode(buildFile(0, resolution, body))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return md
}

func TestTicksToSecondsAcrossTempoChange(t *testing.T) {
	// 120 bpm for four quarters, then 60 bpm: tick res*8 lands at
	// 4*(60/120) + 4*(60/60) = 6 seconds.
	const res = 480
	md := tempoFixture(t, res, []tempoChange{
		{0, 120},
		{res * 4, 60},
	}, res*8)

	if got := md.TicksToSeconds(res * 8); math.Abs(got-6.0) > 1e-9 {
		t.Fatalf("TicksToSeconds(res*8): got %v, want 6.0", got)
	}
	if got := md.TicksToSeconds(res * 4); math.Abs(got-2.0) > 1e-9 {
		t.Fatalf("TicksToSeconds(res*4): got %v, want 2.0", got)
	}
}

func TestImplicitDefaultTempo(t *testing.T) {
	md := tempoFixture(t, 480, nil, 480*4)
	if got := md.TicksToSeconds(480); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("expected 120 bpm default, TicksToSeconds(480) = %v", got)
	}
	if got := md.BPM(); got != 120 {
		t.Fatalf("BPM: got %v", got)
	}
}

func TestTempoBeforeFirstEntry(t *testing.T) {
	// Tempo set mid-piece: the virtual 120 bpm applies before it.
	const res = 960
	md := tempoFixture(t, res, []tempoChange{{res * 2, 240}}, res*4)
	want := 2*0.5 + 2*0.25
	if got := md.TicksToSeconds(res * 4); math.Abs(got-want) > 1e-9 {
		t.Fatalf("TicksToSeconds: got %v, want %v", got, want)
	}
}

func TestSecondsToTicksRoundTrip(t *testing.T) {
	const res = 480
	md := tempoFixture(t, res, []tempoChange{
		{0, 132},
		{res * 3, 60},
		{res * 7, 181},
	}, res*16)

	length := md.LengthOfTime()
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		s := rng.Float64() * length
		// Fractional variant: the round trip is exact up to float error.
		tick := md.SecondsToTicksF(s)
		if got := md.TicksToSeconds(int64(math.Round(tick))); math.Abs(got-s) > 0.5*60.0/(res*60.0) {
			t.Fatalf("rounded trip error too large at s=%v: got %v", s, got)
		}
		back := md.TicksToSecondsF(tick)
		if math.Abs(back-s) > 1e-9 {
			t.Fatalf("fractional round trip at s=%v: got %v", s, back)
		}
	}
}

func TestSecondsToTicksMonotone(t *testing.T) {
	const res = 480
	md := tempoFixture(t, res, []tempoChange{
		{0, 90},
		{res * 2, 200},
		{res * 5, 45},
	}, res*12)

	length := md.LengthOfTime()
	prev := int64(-1)
	prevF := -1.0
	for i := 0; i <= 5000; i++ {
		s := length * float64(i) / 5000
		tick := md.SecondsToTicks(s)
		if tick < prev {
			t.Fatalf("SecondsToTicks not monotone at s=%v: %d < %d", s, tick, prev)
		}
		prev = tick
		tickF := md.SecondsToTicksF(s)
		if tickF < prevF {
			t.Fatalf("SecondsToTicksF not monotone at s=%v: %v < %v", s, tickF, prevF)
		}
		prevF = tickF
	}
}

func TestLengthHelpers(t *testing.T) {
	const res = 480
	md := tempoFixture(t, res, []tempoChange{{0, 120}}, res*8)
	if got := md.LengthOfTime(); math.Abs(got-4.0) > 1e-9 {
		t.Fatalf("LengthOfTime: got %v", got)
	}
	if got := md.LengthSample(44100); got != 4*44100 {
		t.Fatalf("LengthSample: got %d", got)
	}
}

func TestMeasuresFollowTimeSignatures(t *testing.T) {
	const res = 480
	// 4/4 for two measures, then 3/4.
	body := []byte{
		0x00, 0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08, // 4/4 at 0
	}
	writeDelta := func(delta int64) {
		var vlq []byte
		v := uint64(delta)
		vlq = append(vlq, byte(v&0x7F))
		for v >>= 7; v > 0; v >>= 7 {
			vlq = append([]byte{byte(v&0x7F | 0x80)}, vlq...)
		}
		body = append(body, vlq...)
	}
	writeDelta(res * 8)
	body = append(body, 0xFF, 0x58, 0x04, 0x03, 0x02, 0x18, 0x08)
	writeDelta(res * 6) // two 3/4 measures
	body = append(body, 0x80, 60, 0)
	body = append(body, endOfTrack...)

	md, err := Decode(buildFile(0, res, body))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	measures := md.Measures()
	if len(measures) != 4 {
		t.Fatalf("expected 4 measures, got %d", len(measures))
	}
	if measures[0].WidthOfTicks() != res*4 || len(measures[0].Beats) != 4 {
		t.Fatalf("first measure: %#v", measures[0])
	}
	if measures[2].GlobalTick != res*8 || len(measures[2].Beats) != 3 || measures[2].WidthOfTicks() != res*3 {
		t.Fatalf("third measure: %#v", measures[2])
	}
}
