// Package catalog exposes the hotel types, facilities and sort keys offered
// to clients as filter choices.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"

	"github.com/hotelbook/apiserver/types"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type Catalog struct {
	HotelTypes  []string           `yaml:"hotel_types" json:"hotelTypes"`
	Facilities  []string           `yaml:"facilities" json:"facilities"`
	SortOptions []types.SortOption `yaml:"sort_options" json:"sortOptions"`
	StarRatings []int              `yaml:"-" json:"starRatings"`
	PageSize    int                `yaml:"-" json:"pageSize"`
}

// Default returns the catalogue compiled into the binary.
func Default() (Catalog, error) {
	return Parse(defaultCatalog)
}

// Parse decodes and checks a YAML catalogue.
func Parse(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.HotelTypes) == 0 {
		return Catalog{}, errors.New("catalog has no hotel types")
	}
	if len(c.Facilities) == 0 {
		return Catalog{}, errors.New("catalog has no facilities")
	}
	if dup, ok := firstDuplicate(c.HotelTypes); ok {
		return Catalog{}, fmt.Errorf("duplicate hotel type %q", dup)
	}
	if dup, ok := firstDuplicate(c.Facilities); ok {
		return Catalog{}, fmt.Errorf("duplicate facility %q", dup)
	}
	for _, option := range c.SortOptions {
		if !option.Known() {
			return Catalog{}, fmt.Errorf("unknown sort option %q", option)
		}
	}

	for star := types.MaxStarRating; star >= types.MinStarRating; star-- {
		c.StarRatings = append(c.StarRatings, star)
	}
	c.PageSize = types.SearchPageSize
	return c, nil
}

func firstDuplicate(values []string) (string, bool) {
	seen := make([]string, 0, len(values))
	for _, v := range values {
		if slices.Contains(seen, v) {
			return v, true
		}
		seen = append(seen, v)
	}
	return "", false
}
