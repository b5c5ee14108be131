package chapter

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_tour.yaml
var defaultTable []byte

// WriteTable writes a chapter table to a YAML file
func WriteTable(table *Table, path string) error {
	data, err := yaml.Marshal(table)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadTable reads a chapter table from a YAML file
func ReadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return ParseTable(data)
}

// ParseTable decodes a YAML chapter table
func ParseTable(data []byte) (*Table, error) {
	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse chapter table: %w", err)
	}

	return &table, nil
}

// Default returns the built-in HVAC tour
func Default() *Table {
	table, err := ParseTable(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("embedded chapter table: %v", err))
	}
	return table
}

// Load returns the table at path, or the built-in table when path is empty
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	return ReadTable(path)
}
