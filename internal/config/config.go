// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds resolved paths and tunables for the server.
type Config struct {
	HomeDir      string `yaml:"-"`
	MontageDir   string `yaml:"-"`
	DatabasePath string `yaml:"databasePath"`
	MediaDir     string `yaml:"mediaDir"`
	LogDir       string `yaml:"logDir"`

	// HistoryLimit bounds the per-composition snapshot log.
	HistoryLimit int `yaml:"historyLimit"`

	// BridgeRoundBudget bounds tool rounds in one AI turn.
	BridgeRoundBudget int `yaml:"bridgeRoundBudget"`

	// Port for the WebSocket server; 0 picks a free port.
	Port int `yaml:"port"`
}

// Load resolves paths under ~/.montage, applies defaults, and overlays an
// optional config.yaml in that directory.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	montageDir := filepath.Join(home, ".montage")
	cfg := &Config{
		HomeDir:           home,
		MontageDir:        montageDir,
		DatabasePath:      filepath.Join(montageDir, "montage.db"),
		MediaDir:          filepath.Join(montageDir, "media"),
		LogDir:            filepath.Join(montageDir, "logs"),
		HistoryLimit:      50,
		BridgeRoundBudget: 8,
	}

	configPath := filepath.Join(montageDir, "config.yaml")
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	}

	for _, dir := range []string{cfg.MontageDir, cfg.MediaDir, cfg.LogDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
