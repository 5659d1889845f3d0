// internal/powerup/catalog.go
//
// Fixed registry of powerup definitions. The catalog is parsed once from
// embedded YAML; ids must be unique and every effect kind must belong to
// the closed set below. Selection arity (how many past guesses an effect
// operates on) lives on the kind so the engine can validate inputs before
// dispatch.
package powerup

import (
	_ "embed"
	"fmt"
	"math/rand"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed powerups.yaml
var catalogYAML []byte

// Kind is the closed set of effect kinds a powerup can have.
type Kind string

const (
	KindTimeBonus     Kind = "time_bonus"
	KindTimePenalty   Kind = "time_penalty"
	KindTimerFreeze   Kind = "timer_freeze"
	KindTimerSlow     Kind = "timer_slow"
	KindRevealLetter  Kind = "reveal_letter"
	KindHint          Kind = "hint"
	KindRelatedWord   Kind = "related_word"
	KindAnchorGuess   Kind = "anchor_guess"
	KindComparator    Kind = "comparator"
	KindStreakBank    Kind = "streak_bank"
	KindRerollRewards Kind = "reroll_rewards"
	KindClutchShield  Kind = "clutch_shield"
)

var kindArity = map[Kind]int{
	KindTimeBonus:     0,
	KindTimePenalty:   0,
	KindTimerFreeze:   0,
	KindTimerSlow:     0,
	KindRevealLetter:  0,
	KindHint:          0,
	KindRelatedWord:   0,
	KindAnchorGuess:   1,
	KindComparator:    2,
	KindStreakBank:    0,
	KindRerollRewards: 0,
	KindClutchShield:  0,
}

// Valid reports whether k is a known effect kind.
func (k Kind) Valid() bool {
	_, ok := kindArity[k]
	return ok
}

// Arity is the number of past-guess selections the effect requires.
func (k Kind) Arity() int { return kindArity[k] }

// Definition is one catalog entry.
type Definition struct {
	ID    string `yaml:"id" json:"id"`
	Kind  Kind   `yaml:"kind" json:"kind"`
	Value int    `yaml:"value" json:"value,omitempty"`
	Param string `yaml:"param" json:"param,omitempty"`
	Name  string `yaml:"name" json:"name"`
	Desc  string `yaml:"desc" json:"desc"`
}

// Catalog is the immutable powerup registry.
type Catalog struct {
	defs []Definition
	byID map[string]Definition

	mu  sync.Mutex
	rng *rand.Rand
}

// NewCatalog parses the embedded catalog. rng drives Roll; pass a seeded
// source in tests.
func NewCatalog(rng *rand.Rand) (*Catalog, error) {
	var defs []Definition
	if err := yaml.Unmarshal(catalogYAML, &defs); err != nil {
		return nil, fmt.Errorf("powerup catalog: %w", err)
	}
	c := &Catalog{defs: defs, byID: make(map[string]Definition, len(defs)), rng: rng}
	for _, d := range defs {
		if d.ID == "" || d.Name == "" {
			return nil, fmt.Errorf("powerup catalog: incomplete entry %q", d.ID)
		}
		if !d.Kind.Valid() {
			return nil, fmt.Errorf("powerup catalog: unknown kind %q for %q", d.Kind, d.ID)
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("powerup catalog: duplicate id %q", d.ID)
		}
		c.byID[d.ID] = d
	}
	return c, nil
}

// Get looks up a definition by id.
func (c *Catalog) Get(id string) (Definition, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// All returns every definition in catalog order.
func (c *Catalog) All() []Definition { return c.defs }

// Roll draws n definitions with distinct ids, uniformly without
// replacement. n is clamped to the catalog size.
func (c *Catalog) Roll(n int) []Definition {
	if n > len(c.defs) {
		n = len(c.defs)
	}
	c.mu.Lock()
	perm := c.rng.Perm(len(c.defs))
	c.mu.Unlock()
	out := make([]Definition, 0, n)
	for _, i := range perm[:n] {
		out = append(out, c.defs[i])
	}
	return out
}
