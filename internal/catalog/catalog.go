package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrEmptyCatalog is returned when a catalog source holds no destinations.
var ErrEmptyCatalog = errors.New("catalog has no destinations")

// Catalog is the read-only set of destinations, kept in source order.
// It is built once at startup and shared by every request.
type Catalog struct {
	destinations []Destination
}

// New validates the records and returns a Catalog holding copies of them.
// Names must be non-empty and unique ignoring case.
func New(destinations []Destination) (*Catalog, error) {
	if len(destinations) == 0 {
		return nil, ErrEmptyCatalog
	}

	seen := make(map[string]struct{}, len(destinations))
	out := make([]Destination, len(destinations))
	for i, d := range destinations {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return nil, fmt.Errorf("destination at index %d has no name", i)
		}
		k := strings.ToLower(name)
		if _, dup := seen[k]; dup {
			return nil, fmt.Errorf("duplicate destination name %q", name)
		}
		seen[k] = struct{}{}
		d.Name = name
		out[i] = d
	}

	return &Catalog{destinations: out}, nil
}

// Parse decodes a JSON array of destinations into a Catalog.
func Parse(b []byte) (*Catalog, error) {
	var ds []Destination
	if err := json.Unmarshal(b, &ds); err != nil {
		return nil, fmt.Errorf("decoding destinations: %w", err)
	}
	return New(ds)
}

// Load reads a destinations JSON file from disk.
func Load(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", path, err)
	}
	return c, nil
}

// All returns the destinations in catalog order. The slice is a copy.
func (c *Catalog) All() []Destination {
	out := make([]Destination, len(c.destinations))
	copy(out, c.destinations)
	return out
}

// Len reports the number of destinations.
func (c *Catalog) Len() int { return len(c.destinations) }

// Get returns the destination with the given name, ignoring case.
func (c *Catalog) Get(name string) (Destination, bool) {
	name = strings.TrimSpace(name)
	for _, d := range c.destinations {
		if strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return Destination{}, false
}

// FindInText returns the first destination, in catalog order, whose name
// occurs in text as a case-insensitive substring.
func (c *Catalog) FindInText(text string) (Destination, bool) {
	lower := strings.ToLower(text)
	for _, d := range c.destinations {
		if strings.Contains(lower, strings.ToLower(d.Name)) {
			return d, true
		}
	}
	return Destination{}, false
}
