package config

import "time"

// DMXConfig patches the beat light: a single dimmer channel on an OLA universe that flashes
// on every beat.
type DMXConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Address  string `koanf:"address"`  // OLA RPC address, e.g. "localhost:9010"
	Universe int    `koanf:"universe"` // DMX universe, 1-based
	Channel  int    `koanf:"channel"`  // dimmer channel, 1..512

	AccentLevel int `koanf:"accent_level"` // 0..255, level on the downbeat
	BeatLevel   int `koanf:"beat_level"`   // 0..255, level on the other beats
	FadeMillis  int `koanf:"fade_ms"`      // time for a flash to fade out
	RefreshMs   int `koanf:"refresh_ms"`   // how often frames are sent to OLA
}

// GetDMXConfig returns the beat light configuration with defaults applied.
func (c *MetronomeConfig) GetDMXConfig() DMXConfig {
	cfg := c.DMX

	if cfg.Address == "" {
		cfg.Address = "localhost:9010"
	}
	if cfg.Universe <= 0 {
		cfg.Universe = 1
	}
	if cfg.Channel <= 0 || cfg.Channel > 512 {
		cfg.Channel = 1
	}
	if cfg.AccentLevel <= 0 || cfg.AccentLevel > 255 {
		cfg.AccentLevel = 255
	}
	if cfg.BeatLevel <= 0 || cfg.BeatLevel > 255 {
		cfg.BeatLevel = 128
	}
	if cfg.FadeMillis <= 0 {
		cfg.FadeMillis = 150
	}
	if cfg.RefreshMs <= 0 {
		cfg.RefreshMs = 25
	}

	return cfg
}

// Fade returns the flash fade time.
func (d DMXConfig) Fade() time.Duration {
	return time.Duration(d.FadeMillis) * time.Millisecond
}

// Refresh returns the frame interval.
func (d DMXConfig) Refresh() time.Duration {
	return time.Duration(d.RefreshMs) * time.Millisecond
}
