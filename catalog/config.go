package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultNotApplicable is the sentinel marking an expected field as excluded
// from scoring.
const DefaultNotApplicable = "N/A"

// Config describes how the catalog CSV maps onto test specs.
type Config struct {
	// QueryColumn names the header column holding the search query.
	// Empty means the first column.
	QueryColumn string `yaml:"query_column"`
	// FieldColumns lists the expected-field columns in order. Empty means
	// every non-query column, in header order.
	FieldColumns []string `yaml:"field_columns"`
	// NotApplicable is the sentinel value excluding a field from scoring.
	NotApplicable string `yaml:"not_applicable"`
}

// DefaultConfig returns the mapping used when no suite config is provided.
func DefaultConfig() *Config {
	return &Config{NotApplicable: DefaultNotApplicable}
}

// LoadConfig reads a suite config YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse suite config %s: %w", path, err)
	}
	if cfg.NotApplicable == "" {
		cfg.NotApplicable = DefaultNotApplicable
	}
	return cfg, nil
}
