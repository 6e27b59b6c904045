package opponent

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// PersonaRegistry holds all scripted persona definitions.
type PersonaRegistry struct {
	mu       sync.RWMutex
	personas map[string]*Persona
}

// NewRegistry creates a registry holding only the default persona.
func NewRegistry() *PersonaRegistry {
	def := DefaultPersona()
	return &PersonaRegistry{
		personas: map[string]*Persona{def.ID: def},
	}
}

// personaEntry mirrors Persona for decoding so an omitted probability can be
// told apart from an explicit zero.
type personaEntry struct {
	Persona          `yaml:",inline"`
	SplitProbability *float64 `yaml:"split_probability"`
}

// LoadFromFile loads personas from a YAML file.
func (r *PersonaRegistry) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read personas file: %w", err)
	}
	return r.LoadFromYAML(data)
}

// LoadFromYAML loads a YAML list of personas. Entries without an id are
// skipped; an entry with an existing id replaces it.
func (r *PersonaRegistry) LoadFromYAML(data []byte) error {
	var list []personaEntry
	if err := yaml.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("parse personas YAML: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range list {
		if e.ID == "" {
			continue
		}
		p := e.Persona
		p.SplitProbability = defaultSplitProbability
		if e.SplitProbability != nil {
			p.SplitProbability = *e.SplitProbability
		}
		r.personas[p.ID] = p.withDefaults()
	}
	return nil
}

// Register adds or replaces a persona.
func (r *PersonaRegistry) Register(p *Persona) {
	if p == nil || p.ID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.personas[p.ID] = p.withDefaults()
}

// Get returns a persona by ID.
func (r *PersonaRegistry) Get(id string) *Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.personas[id]
}

// All returns the personas sorted by ID.
func (r *PersonaRegistry) All() []*Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Persona, 0, len(r.personas))
	for _, p := range r.personas {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *PersonaRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.personas)
}
