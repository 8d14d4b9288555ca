package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix prefixes every environment variable read by Load.
	EnvPrefix = "IMGVEC"
	// EnvConfigPath names the variable holding the YAML file path.
	EnvConfigPath = "IMGVEC_CONFIG"
	// DotEnvFile is read from the working directory when present.
	DotEnvFile = ".env"
)

// Load builds the configuration. Later sources override earlier ones:
// defaults, the YAML file at path (or $IMGVEC_CONFIG), then environment
// variables. Variables from .env never override the process environment.
// The result is validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: %s: %w", DotEnvFile, err)
	}

	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvConfigPath))
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML data over cfg. Unknown keys are rejected.
func Parse(data []byte, cfg *Config) error {
	return yaml.UnmarshalWithOptions(data, cfg, yaml.Strict())
}

func applyEnv(cfg *Config) error {
	groups := []struct {
		name   string
		target any
	}{
		{"STORE", &cfg.Store},
		{"EXTRACTOR", &cfg.Extractor},
		{"SEARCH", &cfg.Search},
		{"SERVER", &cfg.Server},
		{"LOG", &cfg.Log},
		{"EVENTS", &cfg.Events},
	}
	for _, g := range groups {
		if err := envconfig.Process(EnvPrefix+"_"+g.name, g.target); err != nil {
			return fmt.Errorf("config: env %s_%s: %w", EnvPrefix, g.name, err)
		}
	}
	return nil
}
