package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sureshkumar/semdesk/internal/config"
)

func TestDefault(t *testing.T) {
	cfg, err := config.Default()
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Crawler.MaxScanDepth)
	require.False(t, cfg.Crawler.Watch)
	require.NotEmpty(t, cfg.DB.Dir)
	require.NotEmpty(t, cfg.Index.Location)
}

func TestLoadMissingFileFallsBackToDefault(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Crawler.MaxScanDepth)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	toml := `
[crawler]
files = ["/tmp/docs"]
max_scan_depth = 5

[db]
dir = "/tmp/semdesk-db"
`
	require.NoError(t, os.WriteFile(path, []byte(toml), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"/tmp/docs"}, cfg.Crawler.Files)
	require.Equal(t, 5, cfg.Crawler.MaxScanDepth)
	require.Equal(t, "/tmp/semdesk-db", cfg.DB.Dir)
	// Untouched sections keep their defaults.
	require.NotEmpty(t, cfg.Index.Location)
}

func TestLocalMode(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.LocalMode(dir)
	require.NoError(t, err)
	require.Equal(t, []string{dir}, cfg.Crawler.Files)
	require.Equal(t, filepath.Join(dir, ".semdesk_db"), cfg.DB.Dir)
	require.Equal(t, filepath.Join(dir, ".semdesk_index"), cfg.Index.Location)
	require.Equal(t, filepath.Join(dir, ".semdesk_scan_status.txt"), cfg.Crawler.ScanStatusFile)
}

func TestLocalModeRejectsMissingDir(t *testing.T) {
	_, err := config.LocalMode(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestSocketPathIsFixedRegardlessOfMode(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	path, err := config.SocketPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".local", "share", "semdesk.sock"), path)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "Documents"), config.ExpandHome("~/Documents"))
	require.Equal(t, "/etc/passwd", config.ExpandHome("/etc/passwd"))
}
