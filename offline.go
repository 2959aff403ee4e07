package smfsynth

import (
	"encoding/binary"
	"math"

	intseq "github.com/cbegin/smfsynth-go/internal/sequencer"
	intsmf "github.com/cbegin/smfsynth-go/internal/smf"
	"github.com/cbegin/smfsynth-go/internal/synth"
)

// RenderSamples renders the first `seconds` of the piece offline with the
// given patch and returns interleaved stereo float32 samples.
func RenderSamples(md *intsmf.MidiData, sampleRate int, seconds float64, cfg Config) []float32 {
	s := synth.New(sampleRate)
	cfg.apply(s)
	seq := intseq.New(md, s, sampleRate)
	frames := int(float64(sampleRate) * seconds)
	out := make([]float32, frames*2)
	seq.Process(out)
	return out
}

// RenderAll renders the whole piece plus the envelope's release tail.
func RenderAll(md *intsmf.MidiData, sampleRate int, cfg Config) []float32 {
	seconds := md.LengthOfTime() + cfg.ADSR.ReleaseSec + 0.1
	return RenderSamples(md, sampleRate, seconds, cfg)
}

// EncodeWAVFloat32LE wraps interleaved float32 samples in a RIFF/WAVE
// container (format 3, IEEE float).
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
