package smf

import "math"

const defaultBPM = 120.0

// TicksToSeconds converts an absolute tick into wall-clock seconds,
// accumulating each constant-BPM segment up to the tick. 120 BPM applies
// before the first tempo event.
func (md *MidiData) TicksToSeconds(tick int64) float64 {
	resolution := float64(md.Resolution)
	sumOfTime := 0.0
	lastTempoTick := int64(0)
	lastTickToSec := 60.0 / (resolution * defaultBPM)
	for _, tc := range md.tempi {
		if tick <= tc.tick {
			return sumOfTime + lastTickToSec*float64(tick-lastTempoTick)
		}
		sumOfTime += lastTickToSec * float64(tc.tick-lastTempoTick)
		lastTempoTick = tc.tick
		lastTickToSec = 60.0 / (resolution * tc.bpm)
	}
	return sumOfTime + lastTickToSec*float64(tick-lastTempoTick)
}

// TicksToSecondsF is TicksToSeconds for a fractional tick position.
func (md *MidiData) TicksToSecondsF(tick float64) float64 {
	whole := math.Floor(tick)
	base := md.TicksToSeconds(int64(whole))
	next := md.TicksToSeconds(int64(whole) + 1)
	return base + (next-base)*(tick-whole)
}

// SecondsToTicks converts seconds into the nearest whole tick. This is the
// variant the sequencer playhead uses.
func (md *MidiData) SecondsToTicks(seconds float64) int64 {
	tick, frac := md.secondsToTicks(seconds)
	return tick + int64(math.Round(frac))
}

// SecondsToTicksF is the fractional variant of SecondsToTicks.
func (md *MidiData) SecondsToTicksF(seconds float64) float64 {
	tick, frac := md.secondsToTicks(seconds)
	return float64(tick) + frac
}

func (md *MidiData) secondsToTicks(seconds float64) (int64, float64) {
	resolution := float64(md.Resolution)
	sumOfTime := 0.0
	lastTempoTick := int64(0)
	lastBPM := defaultBPM
	for _, tc := range md.tempi {
		nextSumOfTime := sumOfTime + (60.0/(resolution*lastBPM))*float64(tc.tick-lastTempoTick)
		if sumOfTime <= seconds && seconds < nextSumOfTime {
			secToTicks := (resolution * lastBPM) / 60.0
			return lastTempoTick, (seconds - sumOfTime) * secToTicks
		}
		sumOfTime = nextSumOfTime
		lastTempoTick = tc.tick
		lastBPM = tc.bpm
	}
	secToTicks := (resolution * lastBPM) / 60.0
	return lastTempoTick, (seconds - sumOfTime) * secToTicks
}

// LengthOfTime is the wall-clock duration up to the last event tick.
func (md *MidiData) LengthOfTime() float64 {
	return md.TicksToSeconds(md.endTick)
}

// LengthSample is the piece length in samples at the given rate.
func (md *MidiData) LengthSample(sampleRate int) int64 {
	return int64(md.LengthOfTime() * float64(sampleRate))
}
