package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"localboard/internal/geom"
	"localboard/internal/layer"
)

// Network settings for hosting and joining.
type Network struct {
	Port      int  `json:"port"`
	Advertise bool `json:"advertise"` // announce the board over mDNS
}

// Canvas settings for the editing engine.
type Canvas struct {
	MaxLayers        int                `json:"maxLayers"`
	MinPointDistance float64            `json:"minPointDistance"` // pencil sample spacing
	Stroke           geom.StrokeOptions `json:"stroke"`
}

// Export settings.
type Export struct {
	Directory string   `json:"directory"`
	Padding   float64  `json:"padding"`
	Settle    Duration `json:"settle"` // wait before measuring the scene
	MaxPixels int      `json:"maxPixels"` // largest image area an export may allocate
}

// Config is the whole configuration file.
type Config struct {
	Title    string  `json:"title"`
	LogLevel string  `json:"logLevel"`
	Network  Network `json:"network"`
	Canvas   Canvas  `json:"canvas"`
	Export   Export  `json:"export"`
}

// Duration is a time.Duration written as a string such as "50ms".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Title:    "",
		LogLevel: "info",
		Network: Network{
			Port:      8888,
			Advertise: true,
		},
		Canvas: Canvas{
			MaxLayers:        layer.MaxLayers,
			MinPointDistance: 2,
			Stroke:           geom.DefaultStrokeOptions(),
		},
		Export: Export{
			Directory: home,
			Padding:   50,
			Settle:    Duration(50 * time.Millisecond),
			MaxPixels: 64 << 20,
		},
	}
}

// Path returns the config file location under the user config directory.
func Path() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "localboard", "config.json")
}

// Load reads the config at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return DefaultConfig(), err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Validate()
	return cfg, nil
}

// Validate replaces out-of-range values with the defaults.
func (c *Config) Validate() {
	defaults := DefaultConfig()

	if c.Network.Port <= 0 || c.Network.Port > 65535 {
		c.Network.Port = defaults.Network.Port
	}
	if c.Canvas.MaxLayers <= 0 {
		c.Canvas.MaxLayers = defaults.Canvas.MaxLayers
	}
	if c.Canvas.MinPointDistance <= 0 {
		c.Canvas.MinPointDistance = defaults.Canvas.MinPointDistance
	}
	if c.Canvas.Stroke.Size <= 0 {
		c.Canvas.Stroke = defaults.Canvas.Stroke
	}
	if c.Export.Padding < 0 {
		c.Export.Padding = defaults.Export.Padding
	}
	if c.Export.Settle < 0 {
		c.Export.Settle = defaults.Export.Settle
	}
	if c.Export.MaxPixels <= 0 {
		c.Export.MaxPixels = defaults.Export.MaxPixels
	}
	if c.Export.Directory == "" {
		c.Export.Directory = defaults.Export.Directory
	}
	if _, ok := levels[strings.ToLower(c.LogLevel)]; !ok {
		c.LogLevel = defaults.LogLevel
	}
}

// Save writes the config to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() slog.Level {
	if l, ok := levels[strings.ToLower(c.LogLevel)]; ok {
		return l
	}
	return slog.LevelInfo
}

// BoardTitle is the title used in export file names.
func (c *Config) BoardTitle() string {
	if t := strings.TrimSpace(c.Title); t != "" {
		return t
	}
	return "whiteboard"
}
