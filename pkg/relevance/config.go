package relevance

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_terms.yaml
var defaultTerms []byte

type Weights struct {
	Concept  int `yaml:"concept"`
	Overlap  int `yaml:"overlap"`
	Symbol   int `yaml:"symbol"`
	Hardware int `yaml:"hardware"`
}

// Concept is a canonical term and the surface forms that count as a mention of it.
type Concept struct {
	Name     string   `yaml:"name"`
	Variants []string `yaml:"variants"`
}

// Config is the scoring table. Concepts are a list so that scoring walks them
// in file order.
type Config struct {
	Weights        Weights   `yaml:"weights"`
	TopK           int       `yaml:"top_k"`
	FallbackSize   int       `yaml:"fallback_size"`
	MinTokenLength int       `yaml:"min_token_length"`
	Symbols        []string  `yaml:"symbols"`
	Hardware       []string  `yaml:"hardware"`
	Concepts       []Concept `yaml:"concepts"`
}

// DefaultConfig returns the embedded scoring table.
func DefaultConfig() Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultTerms, &cfg); err != nil {
		panic(fmt.Sprintf("relevance: embedded term table is invalid: %v", err))
	}
	return cfg
}

// LoadConfig reads a YAML term table and overlays it on the defaults. Keys the
// file omits keep their default value; lists the file provides replace the
// default list entirely. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read term table %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse term table %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("term table %s: %w", path, err)
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.TopK <= 0 {
		return errors.New("top_k must be positive")
	}
	if c.FallbackSize <= 0 {
		return errors.New("fallback_size must be positive")
	}
	if c.MinTokenLength < 0 {
		return errors.New("min_token_length must not be negative")
	}
	for i, concept := range c.Concepts {
		if concept.Name == "" {
			return fmt.Errorf("concept #%d has no name", i+1)
		}
		if len(concept.Variants) == 0 {
			return fmt.Errorf("concept %q has no variants", concept.Name)
		}
	}
	return nil
}
