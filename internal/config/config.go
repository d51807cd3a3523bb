// Package config loads semdesk's TOML configuration into a single immutable
// struct that is threaded explicitly through the rest of the program — no
// package-level mutable state.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/sureshkumar/semdesk/internal/semerr"
)

// CrawlerConfig controls the directory walk performed by the Crawler worker.
type CrawlerConfig struct {
	Files          []string `toml:"files"`
	MaxScanDepth   int      `toml:"max_scan_depth"`
	ScanStatusFile string   `toml:"scan_status_file"`
	Watch          bool     `toml:"watch"`
}

// DBConfig locates the catalog's SQLite database file.
type DBConfig struct {
	Dir string `toml:"dir"`
}

// IndexConfig locates the persisted vector index file.
type IndexConfig struct {
	Location string `toml:"location"`
}

// LoggingConfig controls slog setup.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// Config is the fully resolved, immutable configuration for a semdesk
// process. Build one with Load or LocalMode and pass it down explicitly.
type Config struct {
	Crawler CrawlerConfig `toml:"crawler"`
	DB      DBConfig      `toml:"db"`
	Index   IndexConfig   `toml:"index"`
	Logging LoggingConfig `toml:"logging"`
}

// SocketPath returns the Query Processor's Unix domain socket path:
// $HOME/.local/share/semdesk.sock, a fixed, non-configurable location used
// regardless of --local mode, matching the original's get_socket_path().
func SocketPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", semerr.Wrap(semerr.CodeConfig, "resolve home directory", err)
	}
	return filepath.Join(home, ".local", "share", "semdesk.sock"), nil
}

// DefaultPath returns the TOML config file semdesk reads by default:
// $HOME/.config/semdesk/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", semerr.Wrap(semerr.CodeConfig, "resolve home directory", err)
	}
	return filepath.Join(home, ".config", "semdesk", "config.toml"), nil
}

// Default returns semdesk's built-in defaults, matching the original
// implementation's Settings::default().
func Default() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, semerr.Wrap(semerr.CodeConfig, "resolve home directory", err)
	}
	return &Config{
		Crawler: CrawlerConfig{
			Files:          []string{filepath.Join(home, "Documents")},
			MaxScanDepth:   2,
			ScanStatusFile: filepath.Join(home, ".local", "share", "semdesk", "scan_status.txt"),
			Watch:          false,
		},
		DB: DBConfig{
			Dir: filepath.Join(home, ".local", "share", "semdesk", "db"),
		},
		Index: IndexConfig{
			Location: filepath.Join(home, ".cache", "semdesk", ".index"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}, nil
}

// Load reads the TOML file at path (DefaultPath if path is empty), merging
// it over Default(). A missing config file is not an error: the defaults
// apply as-is, matching the original's "config file is optional" behavior.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, semerr.Wrap(semerr.CodeConfig, "read config file "+path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, semerr.Wrap(semerr.CodeConfig, "parse config file "+path, err)
	}

	return cfg, nil
}

// LocalMode builds a Config rooted entirely under dir, for `semdesk --local
// --dir DIR`: the crawler scans only dir, and all state lives alongside it
// rather than under the user's XDG directories.
func LocalMode(dir string) (*Config, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, semerr.Wrap(semerr.CodeConfig, "resolve local dir "+dir, err)
	}
	if fi, err := os.Stat(abs); err != nil || !fi.IsDir() {
		return nil, semerr.FileNotFound(abs)
	}

	return &Config{
		Crawler: CrawlerConfig{
			Files:          []string{abs},
			MaxScanDepth:   2,
			ScanStatusFile: filepath.Join(abs, ".semdesk_scan_status.txt"),
			Watch:          false,
		},
		DB: DBConfig{
			Dir: filepath.Join(abs, ".semdesk_db"),
		},
		Index: IndexConfig{
			Location: filepath.Join(abs, ".semdesk_index"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}, nil
}

// ExpandHome expands a leading "~" to the user's home directory, matching
// the original implementation's path handling. A bare "~" or "~/..." both
// expand; anything else passes through unchanged.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' || (len(path) > 1 && path[1] != '/') {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + path[1:]
}

// EnsureParentDir creates the parent directory of path if it does not exist.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return semerr.Wrap(semerr.CodeIO, fmt.Sprintf("create directory %s", dir), err)
	}
	return nil
}
