package core

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/signalsfoundry/indoor-coverage-sim/model"
)

// Canonical 2.4 GHz losses for common interior materials (dB per crossing).
var defaultMaterials = []model.Material{
	{Name: "drywall", AttenuationDB: 3},
	{Name: "glass", AttenuationDB: 3},
	{Name: "wood", AttenuationDB: 4},
	{Name: "brick", AttenuationDB: 8},
	{Name: "concrete", AttenuationDB: 12},
	{Name: "metal", AttenuationDB: 15},
}

// MaterialCatalog is a registry of attenuating materials keyed by
// case-insensitive name. Entries are immutable once registered.
type MaterialCatalog struct {
	mu        sync.RWMutex
	materials map[string]model.Material
}

// NewMaterialCatalog creates an empty catalog.
func NewMaterialCatalog() *MaterialCatalog {
	return &MaterialCatalog{materials: make(map[string]model.Material)}
}

// DefaultCatalog returns a catalog pre-populated with the canonical
// interior materials.
func DefaultCatalog() *MaterialCatalog {
	c := NewMaterialCatalog()
	for _, m := range defaultMaterials {
		if err := c.Register(m); err != nil {
			panic(err)
		}
	}
	return c
}

func materialKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds a material. Names must be non-empty and unique, and the
// attenuation must be a finite, non-negative number.
func (c *MaterialCatalog) Register(m model.Material) error {
	key := materialKey(m.Name)
	if key == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidMaterial)
	}
	if m.AttenuationDB < 0 || math.IsNaN(m.AttenuationDB) || math.IsInf(m.AttenuationDB, 0) {
		return fmt.Errorf("%w: %q attenuation %v dB", ErrInvalidMaterial, m.Name, m.AttenuationDB)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.materials[key]; exists {
		return fmt.Errorf("%w: %q", ErrMaterialExists, m.Name)
	}
	c.materials[key] = model.Material{Name: key, AttenuationDB: m.AttenuationDB}
	return nil
}

// Lookup returns the material registered under name. Unknown names fail;
// they are never treated as zero-loss.
func (c *MaterialCatalog) Lookup(name string) (model.Material, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.materials[materialKey(name)]
	if !ok {
		return model.Material{}, fmt.Errorf("%w: %q", ErrUnknownMaterial, name)
	}
	return m, nil
}

// List returns all materials sorted by name.
func (c *MaterialCatalog) List() []model.Material {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Material, 0, len(c.materials))
	for _, m := range c.materials {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Clone returns an independent copy so callers can extend it without
// touching the original.
func (c *MaterialCatalog) Clone() *MaterialCatalog {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := NewMaterialCatalog()
	for k, m := range c.materials {
		out.materials[k] = m
	}
	return out
}
