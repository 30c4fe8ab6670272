package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadStrategyFile reads a strategy profile from YAML.
//
// Example:
//
//	comp_id: "381014"
//	name: Piltover T-Hex
//	main_carry: THex
func LoadStrategyFile(path string) (StrategyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return StrategyConfig{}, fmt.Errorf("failed to read strategy file: %w", err)
	}

	// Unknown keys are an error
	var profile StrategyConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&profile); err != nil {
		return StrategyConfig{}, fmt.Errorf("failed to parse strategy YAML: %w", err)
	}

	profile.File = path
	return profile, nil
}

// Merge returns s with every non-empty field of override applied on top
func (s StrategyConfig) Merge(override StrategyConfig) StrategyConfig {
	merged := s

	if override.CompID != "" {
		merged.CompID = override.CompID
	}
	if override.Name != "" {
		merged.Name = override.Name
	}
	if override.MainCarry != "" {
		merged.MainCarry = override.MainCarry
	}
	if override.UnitPrefix != "" {
		merged.UnitPrefix = override.UnitPrefix
	}
	if override.ItemPrefix != "" {
		merged.ItemPrefix = override.ItemPrefix
	}
	if override.File != "" {
		merged.File = override.File
	}

	return merged
}
