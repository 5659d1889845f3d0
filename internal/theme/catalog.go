// internal/theme/catalog.go
//
// Fixed registry of cosmetic themes plus the random background asset
// names surfaced by the read-only catalog endpoints. Boss-level wins draw
// a theme offer from here.
package theme

import (
	_ "embed"
	"fmt"
	"math/rand"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed themes.yaml
var catalogYAML []byte

// Theme is one cosmetic/word-pool theme definition.
type Theme struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	Desc string `yaml:"desc" json:"desc"`
}

// OfferSize is how many themes a boss-level transition presents.
const OfferSize = 3

// Catalog is the immutable theme registry.
type Catalog struct {
	themes      []Theme
	byID        map[string]Theme
	backgrounds []string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewCatalog parses the embedded theme data.
func NewCatalog(rng *rand.Rand) (*Catalog, error) {
	var raw struct {
		Themes      []Theme  `yaml:"themes"`
		Backgrounds []string `yaml:"backgrounds"`
	}
	if err := yaml.Unmarshal(catalogYAML, &raw); err != nil {
		return nil, fmt.Errorf("theme catalog: %w", err)
	}
	c := &Catalog{themes: raw.Themes, byID: make(map[string]Theme, len(raw.Themes)), backgrounds: raw.Backgrounds, rng: rng}
	for _, t := range raw.Themes {
		if t.ID == "" || t.Name == "" {
			return nil, fmt.Errorf("theme catalog: incomplete entry %q", t.ID)
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("theme catalog: duplicate id %q", t.ID)
		}
		c.byID[t.ID] = t
	}
	return c, nil
}

// Get looks up a theme by id.
func (c *Catalog) Get(id string) (Theme, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// List returns all themes in catalog order.
func (c *Catalog) List() []Theme { return c.themes }

// Backgrounds returns the random background asset names.
func (c *Catalog) Backgrounds() []string { return c.backgrounds }

// Empty reports whether the catalog has no themes.
func (c *Catalog) Empty() bool { return len(c.themes) == 0 }

// Offer draws up to OfferSize themes for a boss-level choice, excluding
// the current theme so a rotation always presents something new.
func (c *Catalog) Offer(currentID string) []Theme {
	var pool []Theme
	for _, t := range c.themes {
		if t.ID != currentID {
			pool = append(pool, t)
		}
	}
	n := OfferSize
	if n > len(pool) {
		n = len(pool)
	}
	c.mu.Lock()
	perm := c.rng.Perm(len(pool))
	c.mu.Unlock()
	out := make([]Theme, 0, n)
	for _, i := range perm[:n] {
		out = append(out, pool[i])
	}
	return out
}
