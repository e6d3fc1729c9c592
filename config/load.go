package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig is the full file layout consumed by hosts such as cmd/gridsim.
type AppConfig struct {
	Grid  GridConfig  `yaml:"grid"`
	Paper PaperConfig `yaml:"paper"`
	Log   LogConfig   `yaml:"log"`
}

// Default returns an AppConfig populated with every default.
func Default() *AppConfig {
	return &AppConfig{
		Grid:  DefaultGridConfig(),
		Paper: DefaultPaperConfig(),
		Log:   LogConfig{Level: "info"},
	}
}

// Load reads a YAML file over the defaults, applies .env and environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*AppConfig, error) {
	// .env is optional; a missing file is not an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Grid.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Paper.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyEnv() error {
	if v := os.Getenv("BBGRID_INSTANCE_ID"); v != "" {
		c.Grid.InstanceID = v
	}
	if v := os.Getenv("BBGRID_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("BBGRID_LEVELS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BBGRID_LEVELS: %w", err)
		}
		c.Grid.Levels = n
	}
	return nil
}
