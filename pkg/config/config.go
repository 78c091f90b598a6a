// Package config handles loading and saving treekit configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/treekit/config.yaml
//   - State:   ~/.local/state/treekit/ (view state per node file)
package config

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/treekit/pkg/tree"
)

const appName = "treekit"

// maxRecent bounds the recently opened file list.
const maxRecent = 10

// UIConfig holds terminal viewer preferences.
type UIConfig struct {
	Theme         string        `yaml:"theme,omitempty"`          // dark, light, auto
	ShowCheckbox  bool          `yaml:"show_checkbox,omitempty"`  // Draw [x] boxes when checkable
	WatchFiles    bool          `yaml:"watch_files,omitempty"`    // Reload node files on change
	WatchDebounce time.Duration `yaml:"watch_debounce,omitempty"` // Delay before a reload
	FrameInterval time.Duration `yaml:"frame_interval,omitempty"` // Animation tick interval
}

// Config is the top-level configuration for treekit.
type Config struct {
	Tree   tree.Options `yaml:"tree"`
	UI     UIConfig     `yaml:"ui,omitempty"`
	Recent []string     `yaml:"recent,omitempty"` // Most recent first
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Tree: tree.DefaultOptions(),
		UI: UIConfig{
			Theme:         "auto",
			ShowCheckbox:  true,
			WatchFiles:    true,
			WatchDebounce: 200 * time.Millisecond,
			FrameInterval: time.Second / 30,
		},
	}
}

// ConfigDir returns the XDG config directory for treekit.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// StateDir returns the XDG state directory for treekit.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// ViewStatePath returns where the view state of a node file is kept. The
// name is derived from the absolute file path so that two files with the
// same base name do not collide.
func ViewStatePath(nodeFile string) string {
	dir := StateDir()
	if dir == "" {
		return ""
	}
	abs, err := filepath.Abs(expandHome(nodeFile))
	if err != nil {
		abs = nodeFile
	}
	sum := sha1.Sum([]byte(abs))
	base := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	return filepath.Join(dir, "views", base+"-"+hex.EncodeToString(sum[:4])+".json")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Tree.Validate(); err != nil {
		return DefaultConfig(), fmt.Errorf("invalid tree options: %w", err)
	}
	if cfg.UI.WatchDebounce < 0 {
		cfg.UI.WatchDebounce = 0
	}
	if cfg.UI.FrameInterval <= 0 {
		cfg.UI.FrameInterval = DefaultConfig().UI.FrameInterval
	}

	for i := range cfg.Recent {
		cfg.Recent[i] = expandHome(cfg.Recent[i])
	}

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// AddRecent moves path to the front of the recent list.
func (c *Config) AddRecent(path string) {
	path = expandHome(path)
	out := []string{path}
	for _, p := range c.Recent {
		if p != path && len(out) < maxRecent {
			out = append(out, p)
		}
	}
	c.Recent = out
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
