// Package catalog holds the static reference data: port/ramp regions that
// lanes originate from and the inland locations they deliver to.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/lanebid/drayage-portal/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed regions.yaml
var regionsYAML []byte

type regionsFile struct {
	Ports  []domain.City `yaml:"ports"`
	Inland []domain.City `yaml:"inland"`
}

// Catalog is an immutable, id-indexed set of cities. Safe for concurrent use.
type Catalog struct {
	origins      []domain.City
	destinations []domain.City
	byID         map[string]domain.City
}

// Default loads the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(regionsYAML)
}

// Parse decodes a catalog document with `ports` and `inland` lists.
func Parse(data []byte) (*Catalog, error) {
	var f regionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{byID: make(map[string]domain.City, len(f.Ports)+len(f.Inland))}
	for _, city := range f.Ports {
		city.IsPort = true
		if err := c.add(city); err != nil {
			return nil, err
		}
		c.origins = append(c.origins, city)
	}
	for _, city := range f.Inland {
		city.IsInland = true
		if err := c.add(city); err != nil {
			return nil, err
		}
		c.destinations = append(c.destinations, city)
	}
	return c, nil
}

func (c *Catalog) add(city domain.City) error {
	if city.ID == "" || city.Name == "" {
		return fmt.Errorf("catalog entry missing id or name: %+v", city)
	}
	if _, dup := c.byID[city.ID]; dup {
		return fmt.Errorf("duplicate catalog id %q", city.ID)
	}
	c.byID[city.ID] = city
	return nil
}

// LookupByID returns the city with the given id.
func (c *Catalog) LookupByID(id string) (domain.City, bool) {
	city, ok := c.byID[id]
	return city, ok
}

// ListOrigins returns the port/ramp regions in catalog order.
func (c *Catalog) ListOrigins() []domain.City {
	out := make([]domain.City, len(c.origins))
	copy(out, c.origins)
	return out
}

// ListDestinations returns the inland locations sorted by name, then state.
func (c *Catalog) ListDestinations() []domain.City {
	out := make([]domain.City, len(c.destinations))
	copy(out, c.destinations)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].State < out[j].State
	})
	return out
}

// All returns origins followed by destinations, each in catalog order.
func (c *Catalog) All() []domain.City {
	out := make([]domain.City, 0, len(c.origins)+len(c.destinations))
	out = append(out, c.origins...)
	return append(out, c.destinations...)
}
