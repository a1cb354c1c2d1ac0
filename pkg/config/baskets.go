package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrUnknownBasket is returned when a basket name is not in the catalog.
var ErrUnknownBasket = errors.New("unknown basket")

// BasketCatalog maps basket names to ticker lists. Catalogs are plain data;
// the engines never depend on any particular universe.
type BasketCatalog struct {
	Baskets map[string][]string `yaml:"baskets"`
}

// DefaultBaskets returns the built-in catalog of liquid USDT-perp sectors.
func DefaultBaskets() *BasketCatalog {
	return &BasketCatalog{Baskets: map[string][]string{
		"majors":    {"BTCUSDT", "ETHUSDT"},
		"layer1":    {"ETHUSDT", "SOLUSDT", "AVAXUSDT", "ADAUSDT"},
		"layer2":    {"ARBUSDT", "OPUSDT", "MATICUSDT"},
		"defi":      {"UNIUSDT", "AAVEUSDT", "LDOUSDT", "CRVUSDT"},
		"exchange":  {"BNBUSDT", "OKBUSDT"},
		"payments":  {"XRPUSDT", "XLMUSDT", "LTCUSDT"},
		"oracles":   {"LINKUSDT", "PYTHUSDT"},
		"memecoins": {"DOGEUSDT", "SHIBUSDT", "PEPEUSDT"},
	}}
}

// LoadBaskets reads a YAML catalog file.
func LoadBaskets(path string) (*BasketCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read basket catalog %s: %w", path, err)
	}
	var cat BasketCatalog
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("parse basket catalog %s: %w", path, err)
	}
	if len(cat.Baskets) == 0 {
		return nil, fmt.Errorf("basket catalog %s has no baskets", path)
	}
	return &cat, nil
}

// Resolve returns the tickers for a named basket.
func (c *BasketCatalog) Resolve(name string) ([]string, error) {
	tickers, ok := c.Baskets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBasket, name)
	}
	if len(tickers) < 2 {
		return nil, fmt.Errorf("basket %q needs at least 2 tickers", name)
	}
	return tickers, nil
}

// Names returns the catalog's basket names, sorted.
func (c *BasketCatalog) Names() []string {
	names := make([]string, 0, len(c.Baskets))
	for name := range c.Baskets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
