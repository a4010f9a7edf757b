package simulation

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Product is one entry of the business data the calculator runs against.
type Product struct {
	Price       float64 `yaml:"price"`
	Cost        float64 `yaml:"cost"`
	WeeklySales float64 `yaml:"weekly_sales"`
	Unit        string  `yaml:"unit"`
}

// Catalog maps a lower-cased product key to its business data. It is passed
// into the pipeline at construction; nothing reads it from package state.
type Catalog map[string]Product

// DefaultCatalog returns the built-in sample data used when no catalog file
// is configured.
func DefaultCatalog() Catalog {
	return Catalog{
		"rice":   {Price: 50, Cost: 35, WeeklySales: 100, Unit: "kg"},
		"sugar":  {Price: 40, Cost: 28, WeeklySales: 80, Unit: "kg"},
		"wheat":  {Price: 45, Cost: 32, WeeklySales: 120, Unit: "kg"},
		"oil":    {Price: 120, Cost: 85, WeeklySales: 50, Unit: "liter"},
		"pulses": {Price: 80, Cost: 55, WeeklySales: 60, Unit: "kg"},
	}
}

// LoadCatalog reads a product catalog from a YAML file.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "simulation: read catalog %s", path)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, eris.Wrapf(err, "simulation: parse catalog %s", path)
	}
	if len(c) == 0 {
		return nil, eris.Errorf("simulation: catalog %s is empty", path)
	}
	return c, nil
}

// Lookup resolves an item name to its product data. Unknown items fall back
// to rice so the calculator always has numbers to work with.
func (c Catalog) Lookup(item string) Product {
	if p, ok := c[strings.ToLower(strings.TrimSpace(item))]; ok {
		return p
	}
	return c["rice"]
}
