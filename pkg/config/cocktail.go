package config

import (
	"fmt"
	"sort"
	"sync"
)

// SlotCount is the number of PRIMARY slots every cocktail carries.
// FALLBACK lists are aligned by index: FALLBACK[i] may replace PRIMARY[i].
const SlotCount = 3

// Quorum is the minimum number of live models required at activation.
const Quorum = 2

// Cocktail is a named bundle of PRIMARY model IDs plus aligned FALLBACK
// model IDs. Both sequences are ordered, duplicate-free, and disjoint.
type Cocktail struct {
	Name string `yaml:"name"`

	// Primary models, one per slot, queried in R1.
	Primary []string `yaml:"primary"`

	// Fallback models, aligned by slot index with Primary.
	Fallback []string `yaml:"fallback"`
}

// Union returns Primary followed by Fallback, preserving order.
// Used as the replacement pool when neither the aligned primary nor the
// aligned fallback of a slot is available.
func (c *Cocktail) Union() []string {
	out := make([]string, 0, len(c.Primary)+len(c.Fallback))
	out = append(out, c.Primary...)
	out = append(out, c.Fallback...)
	return out
}

// Validate checks the structural invariants of a cocktail:
// exactly SlotCount primaries and fallbacks, no duplicates within either
// sequence, and Primary ∩ Fallback = ∅.
func (c *Cocktail) Validate() error {
	if len(c.Primary) != SlotCount {
		return &ValidationError{
			Component: "cocktail", ID: c.Name, Field: "primary",
			Err: fmt.Errorf("must have exactly %d models, found %d", SlotCount, len(c.Primary)),
		}
	}
	if len(c.Fallback) != SlotCount {
		return &ValidationError{
			Component: "cocktail", ID: c.Name, Field: "fallback",
			Err: fmt.Errorf("must have exactly %d models, found %d", SlotCount, len(c.Fallback)),
		}
	}

	seen := make(map[string]string, 2*SlotCount)
	for _, m := range c.Primary {
		if _, dup := seen[m]; dup {
			return &ValidationError{
				Component: "cocktail", ID: c.Name, Field: "primary",
				Err: fmt.Errorf("duplicate model %q", m),
			}
		}
		seen[m] = "primary"
	}
	for _, m := range c.Fallback {
		if origin, dup := seen[m]; dup {
			field := "fallback"
			if origin == "primary" {
				field = "primary/fallback overlap"
			}
			return &ValidationError{
				Component: "cocktail", ID: c.Name, Field: field,
				Err: fmt.Errorf("duplicate model %q", m),
			}
		}
		seen[m] = "fallback"
	}
	return nil
}

// CocktailRegistry stores cocktail definitions in memory with thread-safe access
type CocktailRegistry struct {
	cocktails map[string]*Cocktail
	mu        sync.RWMutex
}

// NewCocktailRegistry creates a registry from the given definitions.
func NewCocktailRegistry(cocktails map[string]*Cocktail) *CocktailRegistry {
	// Copy so later mutation of the input map cannot affect the registry.
	copied := make(map[string]*Cocktail, len(cocktails))
	for k, v := range cocktails {
		copied[k] = v
	}
	return &CocktailRegistry{cocktails: copied}
}

// Get retrieves a cocktail by name (thread-safe)
func (r *CocktailRegistry) Get(name string) (*Cocktail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.cocktails[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCocktailNotFound, name)
	}
	return c, nil
}

// Has checks if a cocktail exists in the registry (thread-safe)
func (r *CocktailRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.cocktails[name]
	return exists
}

// Names returns the sorted cocktail names (thread-safe)
func (r *CocktailRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.cocktails))
	for name := range r.cocktails {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of cocktails in the registry (thread-safe)
func (r *CocktailRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cocktails)
}
