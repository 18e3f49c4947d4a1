package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"

	"github.com/petems/micwindow/internal/window"
)

type Config struct {
	Audio    AudioConfig  `json:"audio"`
	Window   WindowConfig `json:"window"`
	Gain     float32      `json:"gain"`
	LogLevel string       `json:"log_level"`
}

type AudioConfig struct {
	DeviceID   string `json:"device_id"`
	SampleRate int    `json:"sample_rate"`
}

type WindowConfig struct {
	ChunkWidth   int     `json:"chunk_width"`
	OverlapRatio float64 `json:"overlap_ratio"`
}

// Load reads the config from disk or returns defaults
func Load() (*Config, error) {
	path := configPath()

	// Default config
	cfg := &Config{
		Audio: AudioConfig{
			DeviceID:   "",
			SampleRate: 16000,
		},
		Window: WindowConfig{
			ChunkWidth:   512,
			OverlapRatio: 0.0,
		},
		Gain:     1.0,
		LogLevel: "info",
	}

	// Load existing config if it exists
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path := configPath()

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// WindowerConfig converts the file representation into the immutable
// per-session windowing configuration.
func (c *Config) WindowerConfig() window.Config {
	return window.Config{
		ChunkWidth:   c.Window.ChunkWidth,
		OverlapRatio: c.Window.OverlapRatio,
		SampleRate:   c.Audio.SampleRate,
	}
}

// Validate rejects impossible configurations before a session starts.
func (c *Config) Validate() error {
	return c.WindowerConfig().Validate()
}

// configPath returns the platform-specific config file path
func configPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "micwindow", "config.json")
}
