package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Universe is the configured symbol list, kept in its own file so the
// traded universe can change without touching analytics parameters.
type Universe struct {
	Symbols []string `yaml:"symbols"`
}

// LoadUniverse reads the symbol universe from its own YAML file.
func LoadUniverse(path string) (Universe, error) {
	var u Universe
	data, err := os.ReadFile(path)
	if err != nil {
		return Universe{}, fmt.Errorf("failed to read universe file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &u); err != nil {
		return Universe{}, fmt.Errorf("failed to parse universe file %s: %w", path, err)
	}
	return u, nil
}

// Validate reports an empty universe as fatal; everything else about a
// symbol is the provider's concern.
func (u Universe) Validate() []string {
	if len(u.Symbols) == 0 {
		return []string{"universe must list at least one symbol"}
	}
	return nil
}
