package database

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Seed is the initial floor plan, menu and staff loaded at startup.
type Seed struct {
	Spots     []SeedSpot     `yaml:"spots"`
	Menu      []SeedMenuItem `yaml:"menu"`
	Employees []SeedEmployee `yaml:"employees"`
}

type SeedSpot struct {
	Label string `yaml:"label"`
}

type SeedMenuItem struct {
	Name            string          `yaml:"name"`
	Category        string          `yaml:"category"`
	Price           decimal.Decimal `yaml:"price"`
	PrepTimeMinutes int             `yaml:"prep_time_minutes"`
	Allergens       string          `yaml:"allergens"`
	Description     string          `yaml:"description"`
	ImageRef        string          `yaml:"image_ref"`
}

type SeedEmployee struct {
	Name     string          `yaml:"name"`
	Phone    string          `yaml:"phone"`
	Password string          `yaml:"password"`
	Role     string          `yaml:"role"`
	Salary   decimal.Decimal `yaml:"salary"`
}

// LoadSeed reads a seed file from disk.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes and validates seed YAML.
func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed yaml: %w", err)
	}
	for i, s := range seed.Spots {
		if s.Label == "" {
			return nil, fmt.Errorf("spot %d: label is required", i)
		}
	}
	for i, m := range seed.Menu {
		if m.Name == "" || m.Category == "" {
			return nil, fmt.Errorf("menu item %d: name and category are required", i)
		}
		if !m.Price.IsPositive() {
			return nil, fmt.Errorf("menu item %q: price must be positive", m.Name)
		}
	}
	for i, e := range seed.Employees {
		if e.Phone == "" || e.Password == "" {
			return nil, fmt.Errorf("employee %d: phone and password are required", i)
		}
	}
	return &seed, nil
}
