package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/gruntwork-io/go-commons/errors"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/robmorgan/metronome/audio"
	"github.com/robmorgan/metronome/rhythm"
)

const appName = "metronome"

// MetronomeConfig represents options that configure the global behavior of the program
type MetronomeConfig struct {
	LogLevel string `koanf:"log_level"`
	LogFile  string `koanf:"log_file"` // empty means the XDG state dir

	// Tempo at startup in BPM, clamped to 40..200
	Tempo int `koanf:"tempo"`

	Measure MeasureConfig          `koanf:"measure"`
	Voices  map[string]VoiceConfig `koanf:"voices"`
	Audio   AudioConfig            `koanf:"audio"`
	DMX     DMXConfig              `koanf:"dmx"`
}

// MeasureConfig describes the beat slots. Sounds, when set, lists one sound per slot and
// overrides Beats/AccentSound/BeatSound.
type MeasureConfig struct {
	Beats       int      `koanf:"beats"`
	AccentSound string   `koanf:"accent_sound"`
	BeatSound   string   `koanf:"beat_sound"`
	Sounds      []string `koanf:"sounds"`
}

// VoiceConfig defines a synthesized click.
type VoiceConfig struct {
	Frequency      float64 `koanf:"frequency"`   // Hz
	DurationMillis int     `koanf:"duration_ms"` // click length
	Decay          float64 `koanf:"decay"`       // envelope falloff per second
	Volume         float64 `koanf:"volume"`      // 0..1
}

// AudioConfig holds the output settings.
type AudioConfig struct {
	Disabled     bool    `koanf:"disabled"`
	SampleRate   int     `koanf:"sample_rate"` // default: 44100
	BufferMillis int     `koanf:"buffer_ms"`   // device buffer, default: 10
	QueueSize    int     `koanf:"queue_size"`  // pending clicks, default: 8
	MaxVoices    int     `koanf:"max_voices"`  // overlapping clicks, default: 4
	Volume       float64 `koanf:"volume"`      // master gain, exponential base 2, default: 0
}

// NewMetronomeConfig creates a new MetronomeConfig object with reasonable defaults for real usage
func NewMetronomeConfig() MetronomeConfig {
	return MetronomeConfig{
		LogLevel: "info",
		Tempo:    int(rhythm.DefaultTempo),
		Measure: MeasureConfig{
			Beats:       rhythm.DefaultBeats,
			AccentSound: string(rhythm.DefaultAccentSound),
			BeatSound:   string(rhythm.DefaultBeatSound),
		},
		Voices: map[string]VoiceConfig{
			string(rhythm.DefaultAccentSound): voiceConfig(audio.AccentVoice),
			string(rhythm.DefaultBeatSound):   voiceConfig(audio.BeatVoice),
		},
	}
}

// Load reads the given TOML files over the defaults, later files winning. Missing files are
// skipped. With no paths, DefaultPaths is used.
func Load(paths ...string) (MetronomeConfig, error) {
	if len(paths) == 0 {
		paths = DefaultPaths()
	}

	k := koanf.New(".")
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return MetronomeConfig{}, errors.WithStackTrace(err)
		}
	}

	cfg := NewMetronomeConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return MetronomeConfig{}, errors.WithStackTrace(err)
	}

	cfg.LogFile = expandPath(cfg.LogFile)
	return cfg, nil
}

// DefaultPaths lists the config files in priority order: the XDG config dir, then ./metronome.toml.
func DefaultPaths() []string {
	return []string{
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		appName + ".toml",
	}
}

// GetTempo returns the startup tempo, clamped.
func (c *MetronomeConfig) GetTempo() rhythm.Tempo {
	return rhythm.ClampTempo(c.Tempo)
}

// GetMeasure builds the measure from the config.
func (c *MetronomeConfig) GetMeasure() (rhythm.Measure, error) {
	if len(c.Measure.Sounds) > 0 {
		sounds := make([]rhythm.SoundID, len(c.Measure.Sounds))
		for i, s := range c.Measure.Sounds {
			sounds[i] = rhythm.SoundID(s)
		}
		return rhythm.NewMeasureFromSounds(sounds)
	}

	accent, beat := c.Measure.AccentSound, c.Measure.BeatSound
	if accent == "" {
		accent = string(rhythm.DefaultAccentSound)
	}
	if beat == "" {
		beat = string(rhythm.DefaultBeatSound)
	}
	return rhythm.NewMeasure(c.Measure.Beats, rhythm.SoundID(accent), rhythm.SoundID(beat))
}

// GetVoices returns the synthesized voices keyed by sound. Every sound the measure plays gets a
// voice: ones without a [voices] entry fall back to AccentVoice on the downbeat slot and
// BeatVoice elsewhere.
func (c *MetronomeConfig) GetVoices() map[rhythm.SoundID]audio.Voice {
	out := make(map[rhythm.SoundID]audio.Voice, len(c.Voices))
	for id, v := range c.Voices {
		voice := audio.Voice{
			Frequency: v.Frequency,
			Duration:  time.Duration(v.DurationMillis) * time.Millisecond,
			Decay:     v.Decay,
			Volume:    v.Volume,
		}
		if voice.Frequency <= 0 {
			voice.Frequency = audio.BeatVoice.Frequency
		}
		if voice.Duration <= 0 {
			voice.Duration = audio.BeatVoice.Duration
		}
		if voice.Volume <= 0 || voice.Volume > 1 {
			voice.Volume = audio.BeatVoice.Volume
		}
		if voice.Decay < 0 {
			voice.Decay = 0
		}
		out[rhythm.SoundID(id)] = voice
	}

	m, err := c.GetMeasure()
	if err != nil {
		return out
	}
	for _, slot := range m.Slots() {
		if _, ok := out[slot.Sound]; ok {
			continue
		}
		if slot.Accented {
			out[slot.Sound] = audio.AccentVoice
		} else {
			out[slot.Sound] = audio.BeatVoice
		}
	}
	return out
}

// GetAudioConfig returns the audio configuration with defaults applied.
func (c *MetronomeConfig) GetAudioConfig() AudioConfig {
	cfg := c.Audio

	if cfg.SampleRate < 8000 || cfg.SampleRate > 192000 {
		cfg.SampleRate = 44100
	}
	if cfg.BufferMillis <= 0 {
		cfg.BufferMillis = 10
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = audio.DefaultQueueSize
	}
	if cfg.MaxVoices <= 0 {
		cfg.MaxVoices = audio.DefaultMaxVoices
	}

	return cfg
}

// Buffer returns the device buffer length.
func (a AudioConfig) Buffer() time.Duration {
	return time.Duration(a.BufferMillis) * time.Millisecond
}

// GetLogFile returns where logs go while the TUI owns the terminal.
func (c *MetronomeConfig) GetLogFile() (string, error) {
	if c.LogFile != "" {
		return c.LogFile, nil
	}
	path, err := xdg.StateFile(filepath.Join(appName, appName+".log"))
	if err != nil {
		return "", errors.WithStackTrace(err)
	}
	return path, nil
}

func voiceConfig(v audio.Voice) VoiceConfig {
	return VoiceConfig{
		Frequency:      v.Frequency,
		DurationMillis: int(v.Duration / time.Millisecond),
		Decay:          v.Decay,
		Volume:         v.Volume,
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
