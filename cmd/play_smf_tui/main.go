package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	smfsynth "github.com/cbegin/smfsynth-go"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#fff"))
	cursorStyle = lipgloss.NewStyle().Background(lipgloss.Color("#444"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888"))
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type model struct {
	pl       *smfsynth.Player
	cfg      smfsynth.Config
	length   float64
	file     string
	cursor   int
	paused   bool
	quitting bool
}

type param struct {
	name   string
	value  func(m *model) string
	adjust func(m *model, dir int)
}

var waveNames = []string{"saw", "sine", "square", "noise"}

func adjustFloat(v *float64, dir int, step, lo, hi float64) float64 {
	*v += float64(dir) * step
	if *v < lo {
		*v = lo
	}
	if *v > hi {
		*v = hi
	}
	return *v
}

var params = []param{
	{"wave", func(m *model) string { return waveNames[m.cfg.Wave] },
		func(m *model, dir int) {
			m.cfg.Wave = smfsynth.WaveForm((int(m.cfg.Wave) + dir + len(waveNames)) % len(waveNames))
			m.pl.SetWaveForm(m.cfg.Wave)
		}},
	{"amplitude", func(m *model) string { return fmt.Sprintf("%.2f", m.cfg.Amplitude) },
		func(m *model, dir int) { m.pl.SetAmplitude(adjustFloat(&m.cfg.Amplitude, dir, 0.05, 0, 1)) }},
	{"pitch", func(m *model) string { return fmt.Sprintf("%+.0f st", m.cfg.PitchShiftSemi) },
		func(m *model, dir int) { m.pl.SetPitchShift(adjustFloat(&m.cfg.PitchShiftSemi, dir, 1, -24, 24)) }},
	{"unison", func(m *model) string { return fmt.Sprintf("%d", m.cfg.UnisonCount) },
		func(m *model, dir int) {
			m.cfg.UnisonCount += dir
			if m.cfg.UnisonCount < 1 {
				m.cfg.UnisonCount = 1
			}
			if m.cfg.UnisonCount > 16 {
				m.cfg.UnisonCount = 16
			}
			m.pl.SetUnisonCount(m.cfg.UnisonCount)
		}},
	{"detune", func(m *model) string { return fmt.Sprintf("%.2f", m.cfg.Detune) },
		func(m *model, dir int) { m.pl.SetDetune(adjustFloat(&m.cfg.Detune, dir, 0.05, 0, 1)) }},
	{"spread", func(m *model) string { return fmt.Sprintf("%.2f", m.cfg.Spread) },
		func(m *model, dir int) { m.pl.SetSpread(adjustFloat(&m.cfg.Spread, dir, 0.05, 0, 1)) }},
	{"mono", func(m *model) string { return onOff(m.cfg.Mono) },
		func(m *model, dir int) { m.cfg.Mono = !m.cfg.Mono; m.pl.SetMono(m.cfg.Mono) }},
	{"legato", func(m *model) string { return onOff(m.cfg.Legato) },
		func(m *model, dir int) { m.cfg.Legato = !m.cfg.Legato; m.pl.SetLegato(m.cfg.Legato) }},
	{"glide", func(m *model) string { return onOff(m.cfg.Glide) },
		func(m *model, dir int) { m.cfg.Glide = !m.cfg.Glide; m.pl.SetGlide(m.cfg.Glide) }},
	{"glide time", func(m *model) string { return fmt.Sprintf("%.2f s", m.cfg.GlideTimeSec) },
		func(m *model, dir int) { m.pl.SetGlideTime(adjustFloat(&m.cfg.GlideTimeSec, dir, 0.01, 0, 0.5)) }},
	{"attack", func(m *model) string { return fmt.Sprintf("%.2f s", m.cfg.ADSR.AttackSec) },
		func(m *model, dir int) {
			adjustFloat(&m.cfg.ADSR.AttackSec, dir, 0.01, 0, 0.5)
			m.pl.SetADSR(m.cfg.ADSR)
		}},
	{"decay", func(m *model) string { return fmt.Sprintf("%.2f s", m.cfg.ADSR.DecaySec) },
		func(m *model, dir int) { adjustFloat(&m.cfg.ADSR.DecaySec, dir, 0.01, 0, 1); m.pl.SetADSR(m.cfg.ADSR) }},
	{"sustain", func(m *model) string { return fmt.Sprintf("%.2f", m.cfg.ADSR.SustainLevel) },
		func(m *model, dir int) {
			adjustFloat(&m.cfg.ADSR.SustainLevel, dir, 0.05, 0, 1)
			m.pl.SetADSR(m.cfg.ADSR)
		}},
	{"release", func(m *model) string { return fmt.Sprintf("%.2f s", m.cfg.ADSR.ReleaseSec) },
		func(m *model, dir int) {
			adjustFloat(&m.cfg.ADSR.ReleaseSec, dir, 0.05, 0, 1)
			m.pl.SetADSR(m.cfg.ADSR)
		}},
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (m model) Init() tea.Cmd {
	return tick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.pl.Stop()
			m.quitting = true
			return m, tea.Quit

		case "j", "down":
			if m.cursor < len(params)-1 {
				m.cursor++
			}

		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}

		case "h", "left":
			params[m.cursor].adjust(&m, -1)

		case "l", "right":
			params[m.cursor].adjust(&m, 1)

		case " ":
			if m.paused {
				m.pl.Resume()
			} else {
				m.pl.Pause()
			}
			m.paused = !m.paused
		}

	case tickMsg:
		return m, tick()
	}
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("play_smf " + m.file))
	b.WriteString("\n")

	pos := m.pl.Position().Seconds()
	if pos > m.length {
		pos = m.length
	}
	const barWidth = 40
	filled := 0
	if m.length > 0 {
		filled = int(pos / m.length * barWidth)
	}
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	state := "playing"
	if m.paused {
		state = "paused"
	}
	b.WriteString(statusStyle.Render(fmt.Sprintf("%s %6.1f / %.1f s  %s", bar, pos, m.length, state)))
	b.WriteString("\n\n")

	for i, p := range params {
		line := fmt.Sprintf("  %-11s %s", p.name, p.value(&m))
		if i == m.cursor {
			line = cursorStyle.Render(activeStyle.Render(line))
		} else {
			line = activeStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  j/k select · h/l adjust · space pause · q quit"))
	b.WriteString("\n")
	return b.String()
}

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 44100, "output sample rate")
		backend    = flag.String("backend", "ebiten", "audio backend: ebiten|portaudio")
		file       = flag.String("file", "", "path to a Standard MIDI File (.mid)")
	)
	flag.Parse()

	if *file == "" {
		log.Fatal("usage: play_smf_tui -file song.mid")
	}

	md, err := smfsynth.LoadMidiFile(*file)
	if err != nil {
		log.Fatal(err)
	}

	pl, err := smfsynth.NewPlayer(*sampleRate, smfsynth.WithBackend(smfsynth.Backend(*backend)))
	if err != nil {
		log.Fatal(err)
	}
	cfg := smfsynth.DefaultConfig()
	cfg.Amplitude = 0.2
	pl.ApplyConfig(cfg)

	if err := pl.Play(md); err != nil {
		log.Fatal(err)
	}

	m := model{
		pl:     pl,
		cfg:    cfg,
		length: md.LengthOfTime(),
		file:   *file,
	}
	if _, err := tea.NewProgram(m).Run(); err != nil {
		pl.Stop()
		log.Fatal(err)
	}
}
