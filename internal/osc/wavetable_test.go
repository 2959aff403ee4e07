package osc

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/mjibson/go-dsp/fft"
)

const testRate = 44100

func TestSineLookupMatchesSin(t *testing.T) {
	b := Shared(testRate)
	for i := 0; i < 1000; i++ {
		x := twoPi * float64(i) / 1000
		got := b.Get(Sine, x, 440)
		want := math.Sin(x)
		if math.Abs(got-want) > 1e-4 {
			t.Fatalf("sine lookup at %v: got %v, want %v", x, got, want)
		}
	}
}

func TestLookupHandlesPhaseBoundary(t *testing.T) {
	b := Shared(testRate)
	for _, w := range []WaveForm{Saw, Sine, Square, Noise} {
		for _, x := range []float64{0, twoPi - 1e-12, math.Nextafter(twoPi, 0)} {
			v := b.Get(w, x, 440)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("%v at phase %v: got %v", w, x, v)
			}
		}
	}
}

func TestTableFreqsAscendLogSpaced(t *testing.T) {
	b := Shared(testRate)
	saw := b.forms[Saw]
	if len(saw.tables) != sawTableCount {
		t.Fatalf("expected %d saw tables, got %d", sawTableCount, len(saw.tables))
	}
	for i := 1; i < len(saw.tableFreqs); i++ {
		if saw.tableFreqs[i] <= saw.tableFreqs[i-1] {
			t.Fatalf("table freqs not ascending at %d", i)
		}
	}
	if math.Abs(saw.tableFreqs[0]-MinFreq) > 1e-9 {
		t.Fatalf("first table freq: got %v", saw.tableFreqs[0])
	}
	if saw.tableFreqs[len(saw.tableFreqs)-1] >= float64(testRate)/2 {
		t.Fatalf("last table freq should stay below nyquist, got %v", saw.tableFreqs[len(saw.tableFreqs)-1])
	}
}

func TestFrequencyIndexSelectsBracketingTables(t *testing.T) {
	b := Shared(testRate)
	saw := b.forms[Saw]
	// Below the lowest table the first table is used verbatim.
	lo := b.Get(Saw, 1.0, 5)
	if lo != saw.tables[0].Get(1.0) {
		t.Fatalf("below-range lookup should use first table")
	}
	// Above the highest table the last table is used verbatim.
	hi := b.Get(Saw, 1.0, float64(testRate)/2-1)
	if hi != saw.tables[len(saw.tables)-1].Get(1.0) {
		t.Fatalf("above-range lookup should use last table")
	}
	// In between, the result lies between the two bracketing tables. Use a
	// high frequency where table spacing dwarfs the freq-index quantization.
	const freq = 10000.0
	next := 0
	for next < len(saw.tableFreqs) && saw.tableFreqs[next] <= freq {
		next++
	}
	v := b.Get(Saw, 1.0, freq)
	a := saw.tables[next-1].Get(1.0)
	c := saw.tables[next].Get(1.0)
	loV, hiV := math.Min(a, c), math.Max(a, c)
	if v < loV-1e-12 || v > hiV+1e-12 {
		t.Fatalf("interpolated value %v outside [%v, %v]", v, loV, hiV)
	}
}

// spectrum returns FFT magnitudes of one wavetable.
func spectrum(tb *Table) []float64 {
	x := make([]float64, len(tb.samples))
	for i, s := range tb.samples {
		x[i] = float64(s)
	}
	bins := fft.FFTReal(x)
	mags := make([]float64, len(bins)/2)
	for i := range mags {
		mags[i] = cmplx.Abs(bins[i])
	}
	return mags
}

func TestSawTablesAreBandLimited(t *testing.T) {
	b := Shared(testRate)
	saw := b.forms[Saw]
	maxFreq := float64(testRate) / 2
	for _, k := range []int{0, 20, 40, 60, sawTableCount - 1} {
		f := saw.tableFreqs[k]
		maxHarmonic := int(maxFreq / f)
		mags := spectrum(&saw.tables[k])

		peak := 0.0
		for _, m := range mags {
			if m > peak {
				peak = m
			}
		}
		if peak == 0 {
			t.Fatalf("table %d has no energy", k)
		}
		for n := maxHarmonic + 1; n < len(mags); n++ {
			if mags[n] > peak*1e-6 {
				t.Fatalf("table %d (f=%.1f): harmonic %d above band limit (%.3g of peak)",
					k, f, n, mags[n]/peak)
			}
		}
	}
}

func TestSquareTablesAreBandLimitedAndOddOnly(t *testing.T) {
	b := Shared(testRate)
	sq := b.forms[Square]
	maxFreq := float64(testRate) / 2
	for _, k := range []int{0, 30, squareTableCount - 1} {
		f := sq.tableFreqs[k]
		mSquare := int((maxFreq + f) / (f * 2.0))
		highest := 2*mSquare - 1
		mags := spectrum(&sq.tables[k])

		peak := 0.0
		for _, m := range mags {
			if m > peak {
				peak = m
			}
		}
		for n := highest + 1; n < len(mags); n++ {
			if mags[n] > peak*1e-6 {
				t.Fatalf("table %d (f=%.1f): harmonic %d above band limit", k, f, n)
			}
		}
		// Even harmonics are absent from a square wave.
		for n := 2; n <= highest && n < len(mags); n += 2 {
			if mags[n] > peak*1e-6 {
				t.Fatalf("table %d: unexpected even harmonic %d", k, n)
			}
		}
	}
}

func TestSineAndNoiseSingleTable(t *testing.T) {
	b := Shared(testRate)
	if n := len(b.forms[Sine].tables); n != 1 {
		t.Fatalf("sine tables: got %d", n)
	}
	if n := len(b.forms[Noise].tables); n != 1 {
		t.Fatalf("noise tables: got %d", n)
	}
	noise := &b.forms[Noise].tables[0]
	if len(noise.samples) != testRate {
		t.Fatalf("noise table length: got %d, want %d", len(noise.samples), testRate)
	}
	for i, s := range noise.samples {
		if s < -1 || s > 1 {
			t.Fatalf("noise sample %d out of range: %v", i, s)
		}
	}
}

func TestSharedBankIsCachedPerRate(t *testing.T) {
	a := Shared(22050)
	b := Shared(22050)
	if a != b {
		t.Fatalf("expected the same bank instance")
	}
	if a.SampleRate() != 22050 {
		t.Fatalf("sample rate: got %d", a.SampleRate())
	}
}
