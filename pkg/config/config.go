package config

// Config is the umbrella configuration object returned by Initialize()
// and used throughout the application.
type Config struct {
	configDir string // Configuration directory path (for reference)

	// Cocktail definitions
	Cocktails *CocktailRegistry

	// Gateway transport budgets
	Gateway *GatewayConfig

	// R3 timeout/truncation policy
	Synthesis *SynthesisConfig

	// Server and run-store settings (env-driven)
	Server *ServerConfig
}

// Stats contains statistics about loaded configuration
type Stats struct {
	Cocktails int
}

// Stats returns configuration statistics for logging/monitoring
func (c *Config) Stats() Stats {
	s := Stats{}
	if c.Cocktails != nil {
		s.Cocktails = c.Cocktails.Len()
	}
	return s
}

// ConfigDir returns the configuration directory path
func (c *Config) ConfigDir() string {
	return c.configDir
}

// GetCocktail retrieves a cocktail by name.
// This is a convenience method that wraps Cocktails.Get().
func (c *Config) GetCocktail(name string) (*Cocktail, error) {
	return c.Cocktails.Get(name)
}
