// Package catalog reads the equipment-type catalog shipped alongside the
// service configuration.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const supportedVersion = 1

type EquipmentType struct {
	Name                 string `toml:"name"`
	DefaultIntervalWeeks int    `toml:"default_interval_weeks"`
	DefaultLeadWeeks     int    `toml:"default_lead_weeks"`
}

type Catalog struct {
	Version        int             `toml:"version"`
	EquipmentTypes []EquipmentType `toml:"equipment_type"`
}

func Load(path string) (Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Catalog{}, errors.New("catalog file is required")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, err
	}
	return Parse(raw)
}

func Parse(raw []byte) (Catalog, error) {
	var catalog Catalog
	if err := toml.Unmarshal(raw, &catalog); err != nil {
		return Catalog{}, err
	}
	if err := catalog.Validate(); err != nil {
		return Catalog{}, err
	}
	for i := range catalog.EquipmentTypes {
		catalog.EquipmentTypes[i].Name = strings.TrimSpace(catalog.EquipmentTypes[i].Name)
	}
	return catalog, nil
}

func (c Catalog) Validate() error {
	if c.Version != supportedVersion {
		return fmt.Errorf("unsupported catalog version %d: expected version = %d", c.Version, supportedVersion)
	}

	seen := make(map[string]struct{}, len(c.EquipmentTypes))
	for i, item := range c.EquipmentTypes {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return fmt.Errorf("equipment_type[%d].name is required", i)
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("equipment_type %q is listed twice", name)
		}
		seen[key] = struct{}{}

		if item.DefaultIntervalWeeks < 1 {
			return fmt.Errorf("equipment_type %q: default_interval_weeks must be >= 1", name)
		}
		if item.DefaultLeadWeeks < 0 {
			return fmt.Errorf("equipment_type %q: default_lead_weeks must be >= 0", name)
		}
	}
	return nil
}
