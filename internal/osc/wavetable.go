package osc

import (
	"math"
	"math/rand"
	"sync"
)

const twoPi = math.Pi * 2

// MinFreq is the fundamental of the lowest band-limited table.
const MinFreq = 20.0

// WaveForm selects one of the oscillator banks.
type WaveForm int

const (
	Saw WaveForm = iota
	Sine
	Square
	Noise
	waveFormCount
)

func (w WaveForm) String() string {
	switch w {
	case Saw:
		return "saw"
	case Sine:
		return "sine"
	case Square:
		return "square"
	case Noise:
		return "noise"
	default:
		return "unknown"
	}
}

func waveSaw(t float64, n int) float64 {
	sum := 0.0
	for k := 1; k <= n; k++ {
		a := 1.0 / float64(k)
		if k%2 != 0 {
			a = -a
		}
		sum += a * math.Sin(float64(k)*t)
	}
	return -2.0 * sum / math.Pi
}

func waveSquare(t float64, n int) float64 {
	sum := 0.0
	for k := 1; k <= n; k++ {
		a := 2.0*float64(k) - 1.0
		sum += math.Sin(a*t) / a
	}
	return 4.0 * sum / math.Pi
}

// Table is a single-cycle wavetable sampled uniformly over [0, 2π).
type Table struct {
	samples  []float32
	xToIndex float64
}

// newTable synthesizes one table. For Saw and Square the additive series is
// truncated at the highest harmonic that stays below maxFreq at the table's
// design fundamental.
func newTable(resolution int, frequency, maxFreq float64, wave WaveForm) Table {
	t := Table{
		samples:  make([]float32, resolution),
		xToIndex: float64(resolution) / twoPi,
	}

	mSaw := int(maxFreq / frequency)
	mSquare := int((maxFreq + frequency) / (frequency * 2.0))

	for i := 0; i < resolution; i++ {
		angle := twoPi * float64(i) / float64(resolution)
		switch wave {
		case Saw:
			t.samples[i] = float32(waveSaw(angle, mSaw))
		case Sine:
			t.samples[i] = float32(math.Sin(angle))
		case Square:
			t.samples[i] = float32(waveSquare(angle, mSquare))
		case Noise:
			t.samples[i] = float32(rand.Float64()*2 - 1)
		}
	}
	return t
}

// Get looks up the table at phase x in [0, 2π), interpolating linearly
// between the two neighbouring samples.
func (t *Table) Get(x float64) float64 {
	indexFloat := x * t.xToIndex
	prevIndex := int(indexFloat)
	if prevIndex >= len(t.samples) {
		prevIndex -= len(t.samples)
		indexFloat -= float64(len(t.samples))
	}
	nextIndex := prevIndex + 1
	if nextIndex == len(t.samples) {
		nextIndex = 0
	}
	x01 := indexFloat - float64(prevIndex)
	a := float64(t.samples[prevIndex])
	b := float64(t.samples[nextIndex])
	return a + (b-a)*x01
}

// BandLimited is an ordered set of wavetables at log-spaced fundamentals,
// with a precomputed freq→table index for O(1) selection.
type BandLimited struct {
	tables     []Table
	tableFreqs []float64

	indices     []uint32
	freqToIndex float64
	maxFreq     float64
}

const freqIndexResolution = 2048

// newBandLimited builds tableCount tables spanning [MinFreq, maxFreq)
// log-uniformly; the last table sits one step below maxFreq. maxFreq is the
// Nyquist frequency of the target rate.
func newBandLimited(tableCount, resolution int, wave WaveForm, maxFreq float64) *BandLimited {
	b := &BandLimited{
		tables:     make([]Table, 0, tableCount),
		tableFreqs: make([]float64, 0, tableCount),
		maxFreq:    maxFreq,
	}

	minFreqLog := math.Log2(MinFreq)
	maxFreqLog := math.Log2(maxFreq)

	for i := 0; i < tableCount; i++ {
		rate := float64(i) / float64(tableCount)
		freq := math.Pow(2, minFreqLog+(maxFreqLog-minFreqLog)*rate)
		b.tables = append(b.tables, newTable(resolution, freq, maxFreq, wave))
		b.tableFreqs = append(b.tableFreqs, freq)
	}

	b.indices = make([]uint32, freqIndexResolution)
	b.freqToIndex = float64(len(b.indices)) / maxFreq
	for i := range b.indices {
		freq := float64(i) / b.freqToIndex
		// Index of the first table whose design fundamental exceeds freq.
		next := len(b.tableFreqs)
		for k, tf := range b.tableFreqs {
			if tf > freq {
				next = k
				break
			}
		}
		b.indices[i] = uint32(next)
	}
	return b
}

// Get returns the band-limited sample at phase x for a target frequency,
// interpolating between the two tables bracketing the frequency.
func (b *BandLimited) Get(x, freq float64) float64 {
	slot := int(freq * b.freqToIndex)
	if slot < 0 {
		slot = 0
	}
	if slot >= len(b.indices) {
		slot = len(b.indices) - 1
	}
	nextIndex := int(b.indices[slot])
	if nextIndex == 0 {
		return b.tables[0].Get(x)
	}
	if nextIndex == len(b.tables) {
		return b.tables[len(b.tables)-1].Get(x)
	}
	prevIndex := nextIndex - 1
	rate := (freq - b.tableFreqs[prevIndex]) / (b.tableFreqs[nextIndex] - b.tableFreqs[prevIndex])
	a := b.tables[prevIndex].Get(x)
	c := b.tables[nextIndex].Get(x)
	return a + (c-a)*rate
}

// Bank holds the per-waveform band-limited tables for one sample rate.
type Bank struct {
	sampleRate int
	forms      [waveFormCount]*BandLimited
}

const (
	sawTableCount    = 80
	squareTableCount = 80
	tableResolution  = 2048
)

// NewBank constructs all four waveform banks for the given rate. Saw and
// Square get 80 tables each; Sine needs one; Noise is a single table of
// sampleRate samples so it never audibly repeats.
func NewBank(sampleRate int) *Bank {
	maxFreq := float64(sampleRate) / 2
	b := &Bank{sampleRate: sampleRate}
	b.forms[Saw] = newBandLimited(sawTableCount, tableResolution, Saw, maxFreq)
	b.forms[Sine] = newBandLimited(1, tableResolution, Sine, maxFreq)
	b.forms[Square] = newBandLimited(squareTableCount, tableResolution, Square, maxFreq)
	b.forms[Noise] = newBandLimited(1, sampleRate, Noise, maxFreq)
	return b
}

func (b *Bank) SampleRate() int { return b.sampleRate }

// Get looks up waveform w at phase x for the target frequency.
func (b *Bank) Get(w WaveForm, x, freq float64) float64 {
	if w < 0 || w >= waveFormCount {
		w = Saw
	}
	return b.forms[w].Get(x, freq)
}

var (
	sharedMu    sync.Mutex
	sharedBanks = map[int]*Bank{}
)

// Shared returns the process-wide bank for a sample rate, building it on
// first use. Construction is expensive (80 tables × 2048 samples × additive
// series), so banks are cached and shared read-only between voices.
func Shared(sampleRate int) *Bank {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if b, ok := sharedBanks[sampleRate]; ok {
		return b
	}
	b := NewBank(sampleRate)
	sharedBanks[sampleRate] = b
	return b
}
