package runtime

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/govm-net/actions/core"
	"github.com/govm-net/actions/journal"
)

// Config represents runtime configuration
type Config struct {
	Receiver      string         `yaml:"receiver"`       // Contract account actions are dispatched to
	JournalType   string         `yaml:"journal_type"`   // Receipt journal backend
	JournalParams map[string]any `yaml:"journal_params"` // Backend parameters, e.g. db_path
	Manifest      string         `yaml:"manifest"`       // Optional manifest the registry must match
}

// DefaultConfig returns the configuration of an in-memory tvg runtime.
func DefaultConfig() *Config {
	return &Config{
		Receiver:      "tvg",
		JournalType:   string(journal.MemoryType),
		JournalParams: map[string]any{},
	}
}

// LoadConfig reads a YAML config file. Keys missing from the file keep their
// DefaultConfig values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	if config.Receiver == "" {
		return fmt.Errorf("receiver is empty")
	}
	if _, err := core.ParseName(config.Receiver); err != nil {
		return fmt.Errorf("receiver: %w", err)
	}

	if config.JournalType == "" {
		return fmt.Errorf("journal type is empty")
	}

	return nil
}
