package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
	require.Equal(t, 8888, cfg.Network.Port)
	require.Equal(t, 100, cfg.Canvas.MaxLayers)
	require.Equal(t, 50.0, cfg.Export.Padding)
	require.Equal(t, Duration(50*time.Millisecond), cfg.Export.Settle)
	require.Equal(t, 64<<20, cfg.Export.MaxPixels)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := DefaultConfig()
	cfg.Title = "retro"
	cfg.LogLevel = "debug"
	cfg.Export.Settle = Duration(time.Second)
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, got)
	require.Equal(t, slog.LevelDebug, got.Level())
	require.Equal(t, "retro", got.BoardTitle())
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"network":{"port":9000}}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9000, cfg.Network.Port)
	require.Equal(t, 100, cfg.Canvas.MaxLayers)
	require.Equal(t, "whiteboard", cfg.BoardTitle())
}

func TestValidateFixesBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Network.Port = -1
	cfg.Canvas.MaxLayers = 0
	cfg.Canvas.Stroke.Size = 0
	cfg.LogLevel = "loud"
	cfg.Export.MaxPixels = -5
	cfg.Validate()

	d := DefaultConfig()
	require.Equal(t, d.Network.Port, cfg.Network.Port)
	require.Equal(t, d.Canvas.MaxLayers, cfg.Canvas.MaxLayers)
	require.Equal(t, d.Canvas.Stroke, cfg.Canvas.Stroke)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, d.Export.MaxPixels, cfg.Export.MaxPixels)
}

func TestBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"export":{"settle":"soon"}}`), 0o644))
	cfg, err := Load(path)
	require.Error(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}
