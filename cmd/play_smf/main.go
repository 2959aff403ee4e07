package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	smfsynth "github.com/cbegin/smfsynth-go"
)

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 44100, "output sample rate")
		backend    = flag.String("backend", "ebiten", "audio backend: ebiten|portaudio")
		file       = flag.String("file", "", "path to a Standard MIDI File (.mid)")
		info       = flag.Bool("info", false, "print file info before playing")

		wave      = flag.String("wave", "saw", "oscillator: saw|sine|square|noise")
		amplitude = flag.Float64("amp", 0.2, "master amplitude (0-1)")
		pitch     = flag.Float64("pitch", 0, "pitch shift in semitones (-24..24)")
		unison    = flag.Int("unison", 1, "unison voices per note (1-16)")
		detune    = flag.Float64("detune", 0, "unison detune (0-1)")
		spread    = flag.Float64("spread", 1, "unison stereo spread (0-1)")
		mono      = flag.Bool("mono", false, "monophonic mode")
		legato    = flag.Bool("legato", false, "legato retrigger (mono)")
		glide     = flag.Bool("glide", false, "glide between notes (mono)")
		glideTime = flag.Float64("glide-time", 0.1, "glide time in seconds")

		attack  = flag.Float64("attack", 0.01, "envelope attack seconds")
		decay   = flag.Float64("decay", 0.01, "envelope decay seconds")
		sustain = flag.Float64("sustain", 0.6, "envelope sustain level (0-1)")
		release = flag.Float64("release", 0.4, "envelope release seconds")
	)
	flag.Parse()

	if *file == "" {
		log.Fatal("usage: play_smf -file song.mid")
	}

	md, err := smfsynth.LoadMidiFile(*file)
	if err != nil {
		log.Fatal(err)
	}
	if *info {
		fmt.Printf("format %d, %d tracks, %d ticks/quarter, %.1f bpm, %d measures, %.1f s\n",
			md.Format, len(md.Tracks), md.Resolution, md.BPM(), len(md.Measures()), md.LengthOfTime())
		for i := range md.Tracks {
			tr := &md.Tracks[i]
			kind := ""
			if tr.IsPercussion() {
				kind = " (percussion, skipped)"
			}
			fmt.Printf("  track %d: %q ch %d program %d%s\n", i, tr.Name(), tr.Channel(), tr.Program(), kind)
		}
	}

	waveForm, err := parseWaveForm(*wave)
	if err != nil {
		log.Fatal(err)
	}

	pl, err := smfsynth.NewPlayer(*sampleRate, smfsynth.WithBackend(smfsynth.Backend(*backend)))
	if err != nil {
		log.Fatal(err)
	}
	pl.ApplyConfig(smfsynth.Config{
		Amplitude:      *amplitude,
		Wave:           waveForm,
		PitchShiftSemi: *pitch,
		UnisonCount:    *unison,
		Detune:         *detune,
		Spread:         *spread,
		Mono:           *mono,
		Legato:         *legato,
		Glide:          *glide,
		GlideTimeSec:   *glideTime,
		ADSR: smfsynth.ADSRConfig{
			AttackSec:       *attack,
			DecaySec:        *decay,
			SustainLevel:    *sustain,
			SustainResetSec: 0.05,
			ReleaseSec:      *release,
		},
	})

	if err := pl.Play(md); err != nil {
		log.Fatal(err)
	}
	pl.Wait()
	pl.Stop()
	fmt.Println("playback completed")
}

func parseWaveForm(name string) (smfsynth.WaveForm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "saw":
		return smfsynth.Saw, nil
	case "sine", "sin":
		return smfsynth.Sine, nil
	case "square":
		return smfsynth.Square, nil
	case "noise":
		return smfsynth.Noise, nil
	default:
		return 0, fmt.Errorf("invalid -wave %q (expected saw|sine|square|noise)", name)
	}
}
