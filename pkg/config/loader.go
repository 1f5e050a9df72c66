package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// cocktailsYAMLConfig represents the optional cocktails.yaml file structure.
// Entries override or extend the built-in cocktail definitions by name.
type cocktailsYAMLConfig struct {
	Cocktails map[string]*Cocktail `yaml:"cocktails"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Start from built-in cocktails and defaults
//  2. Overlay cocktails.yaml from configDir, if present
//  3. Overlay environment variables (server settings)
//  4. Validate all configuration
func Initialize(configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)

	cocktails := builtinCocktails()

	if configDir != "" {
		overridePath := filepath.Join(configDir, "cocktails.yaml")
		overrides, err := loadCocktailOverrides(overridePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load cocktail overrides: %w", err)
		}
		for name, c := range overrides {
			c.Name = name
			cocktails[name] = c
			log.Info("Cocktail overridden from file", "cocktail", name)
		}
	}

	cfg := &Config{
		configDir: configDir,
		Cocktails: NewCocktailRegistry(cocktails),
		Gateway:   DefaultGatewayConfig(),
		Synthesis: DefaultSynthesisConfig(),
		Server:    serverConfigFromEnv(),
	}

	if err := validate(cfg, cocktails); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("Configuration initialized", "cocktails", cfg.Stats().Cocktails)
	return cfg, nil
}

// loadCocktailOverrides parses cocktails.yaml. A missing file is not an error.
func loadCocktailOverrides(path string) (map[string]*Cocktail, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var parsed cocktailsYAMLConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidYAML, path, err)
	}
	return parsed.Cocktails, nil
}

func validate(cfg *Config, cocktails map[string]*Cocktail) error {
	for _, c := range cocktails {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	if err := cfg.Gateway.Validate(); err != nil {
		return err
	}
	if err := cfg.Synthesis.Validate(); err != nil {
		return err
	}
	return nil
}
